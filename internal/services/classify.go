package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/scamshield/scamshield/internal/model"
)

// keywordRules map substring hits to a category, checked in order.
var keywordRules = []struct {
	keywords []string
	category model.Category
}{
	{[]string{"click", "http"}, model.CategoryFakeLinks},
	{[]string{"urgent", "immediately"}, model.CategoryUrgentPayment},
	{[]string{"password", "pin"}, model.CategoryPersonalInfo},
	{[]string{"bank", "account"}, model.CategoryFakeAuthority},
	{[]string{"free", "win"}, model.CategoryTooGoodToBeTrue},
}

// Classify derives a coarse scam category from keyword heuristics.
func Classify(message string) model.Category {
	lower := strings.ToLower(message)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryOther
}

// SeverityFor bands a red-flag count into a severity.
func SeverityFor(redFlagsFixed int) model.Severity {
	switch {
	case redFlagsFixed >= 7:
		return model.SeverityCritical
	case redFlagsFixed >= 5:
		return model.SeverityHigh
	case redFlagsFixed >= 3:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// PatternHash is the canonical pattern identity: sha256 over the normalized
// raw message plus category. The same rule applies at creation and lookup.
func PatternHash(message string, category model.Category) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(message)), " ")
	sum := sha256.Sum256([]byte(normalized + "|" + string(category)))
	return hex.EncodeToString(sum[:])
}

// CacheKey is the deterministic analysis cache key for a (message, region)
// pair.
func CacheKey(message, region string) string {
	sum := sha256.Sum256([]byte(message + "|" + region))
	return "analysis:" + hex.EncodeToString(sum[:])
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scamshield/scamshield/internal/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		message string
		want    model.Category
	}{
		{"Your UPI payment failed! Click here to get refund: http://refund-upi.com immediately", model.CategoryFakeLinks},
		{"URGENT: pay immediately or lose access", model.CategoryUrgentPayment},
		{"share your password to verify", model.CategoryPersonalInfo},
		{"your PIN expires today", model.CategoryPersonalInfo},
		{"your bank account is blocked", model.CategoryFakeAuthority},
		{"you win a free iPhone", model.CategoryTooGoodToBeTrue},
		{"hello, are we still meeting tomorrow?", model.CategoryOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.message), "message: %s", tc.message)
	}
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, model.SeverityLow, SeverityFor(0))
	assert.Equal(t, model.SeverityLow, SeverityFor(2))
	assert.Equal(t, model.SeverityMedium, SeverityFor(3))
	assert.Equal(t, model.SeverityMedium, SeverityFor(4))
	assert.Equal(t, model.SeverityHigh, SeverityFor(5))
	assert.Equal(t, model.SeverityHigh, SeverityFor(6))
	assert.Equal(t, model.SeverityCritical, SeverityFor(7))
	assert.Equal(t, model.SeverityCritical, SeverityFor(10))
}

func TestPatternHashCanonical(t *testing.T) {
	// Same normalized content must hash identically at creation and lookup.
	a := PatternHash("Click   HERE now", model.CategoryFakeLinks)
	b := PatternHash("click here now", model.CategoryFakeLinks)
	assert.Equal(t, a, b)

	// Category participates in identity.
	c := PatternHash("click here now", model.CategoryOther)
	assert.NotEqual(t, a, c)
}

func TestCacheKeyDeterministic(t *testing.T) {
	assert.Equal(t, CacheKey("msg", "IN"), CacheKey("msg", "IN"))
	assert.NotEqual(t, CacheKey("msg", "IN"), CacheKey("msg", "US"))
	assert.NotEqual(t, CacheKey("msg", "IN"), CacheKey("other", "IN"))
}

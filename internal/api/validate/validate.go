package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/scamshield/scamshield/internal/config"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Message validates the analysis input: non-empty after trimming and within
// the configured length bound.
func Message(v string, maxLen int) error {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return fmt.Errorf("message is required")
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return fmt.Errorf("message exceeds %d characters", maxLen)
	}
	return nil
}

// Region validates an optional region code against the supported enumeration.
// Empty is allowed; the orchestrator substitutes the default region.
func Region(v string) error {
	if v == "" {
		return nil
	}
	if !config.RegionSupported(v) {
		return fmt.Errorf("unsupported region %q", v)
	}
	return nil
}

// Email validates a user identity.
func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

// NonEmpty rejects an empty required field.
func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

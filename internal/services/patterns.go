package services

import (
	"context"

	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/store"
)

// PatternService handles user-submitted pattern reports and trending queries.
type PatternService struct {
	store store.Store
}

func NewPatternService(s store.Store) *PatternService { return &PatternService{store: s} }

// Report upserts a pattern from a user report. When severity is empty it is
// banded from the classifier default (a report without model output carries
// no red-flag count, so it lands on medium).
func (s *PatternService) Report(ctx context.Context, message string, category model.Category, severity model.Severity) (*model.ScamPattern, error) {
	if !model.ValidCategory(category) {
		return nil, model.NewValidationError("unknown category")
	}
	if severity == "" {
		severity = model.SeverityMedium
	}
	if !model.ValidSeverity(severity) {
		return nil, model.NewValidationError("unknown severity")
	}
	hash := PatternHash(message, category)
	return s.store.Patterns().Upsert(ctx, hash, category, severity, message)
}

// Trending returns up to limit patterns ranked by frequency.
func (s *PatternService) Trending(ctx context.Context, limit int) ([]*model.TrendingPattern, error) {
	return s.store.Patterns().Trending(ctx, limit)
}

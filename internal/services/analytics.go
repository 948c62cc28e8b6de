package services

import (
	"context"

	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/store"
)

// AnalyticsService aggregates history and pattern data.
type AnalyticsService struct {
	store store.Store
}

func NewAnalyticsService(s store.Store) *AnalyticsService { return &AnalyticsService{store: s} }

func (s *AnalyticsService) Report(ctx context.Context, f model.AnalyticsFilter) (*model.AnalyticsReport, error) {
	return s.store.History().Analytics(ctx, f)
}

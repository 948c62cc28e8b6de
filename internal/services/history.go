package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/store"
)

// HistoryService serves per-user history pages and retention cleanup.
type HistoryService struct {
	store store.Store
	log   zerolog.Logger
}

func NewHistoryService(s store.Store, log zerolog.Logger) *HistoryService {
	return &HistoryService{store: s, log: log}
}

func (s *HistoryService) List(ctx context.Context, req model.ListHistoryRequest) (*model.HistoryPage, error) {
	return s.store.History().List(ctx, req)
}

// RunRetention deletes history older than retention and logs the outcome.
func (s *HistoryService) RunRetention(ctx context.Context, retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	n, err := s.store.History().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error().Stack().Err(err).Msg("history retention cleanup failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("history retention cleanup")
	}
}

// StartRetentionLoop runs RunRetention once per day until ctx is cancelled.
func (s *HistoryService) StartRetentionLoop(ctx context.Context, retention time.Duration) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	s.RunRetention(ctx, retention)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunRetention(ctx, retention)
		}
	}
}

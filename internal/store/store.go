package store

import (
	"context"
	"time"

	"github.com/scamshield/scamshield/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres).
type Store interface {
	Users() Users
	History() History
	Patterns() Patterns
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// IncrementUsage atomically bumps usage_count and touches last_active.
	IncrementUsage(ctx context.Context, email string) error
}

type History interface {
	Create(ctx context.Context, r *model.RewriteHistoryRecord) (*model.RewriteHistoryRecord, error)
	List(ctx context.Context, req model.ListHistoryRequest) (*model.HistoryPage, error)
	// DeleteOlderThan removes records created before cutoff and returns the
	// number deleted. Used by retention cleanup.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Analytics(ctx context.Context, f model.AnalyticsFilter) (*model.AnalyticsReport, error)
}

type Patterns interface {
	// Upsert increments frequency and touches last_seen for an existing
	// hash, or creates the pattern with frequency 1. The example is added
	// unless already present or the example list is full.
	Upsert(ctx context.Context, hash string, category model.Category, severity model.Severity, example string) (*model.ScamPattern, error)
	Trending(ctx context.Context, limit int) ([]*model.TrendingPattern, error)
}

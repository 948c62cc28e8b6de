package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/scamshield/scamshield/internal/cache"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/store"
)

// Rewriter is the AI gateway dependency of the orchestrator.
type Rewriter interface {
	Rewrite(ctx context.Context, message, region string) (*model.AnalysisResult, error)
}

// AnalyzeService coordinates cache, AI gateway and persistence for one
// end-to-end analysis request. There is no single-flight de-duplication:
// concurrent requests for the same uncached pair each call the gateway.
type AnalyzeService struct {
	store         store.Store
	cache         *cache.Cache
	gateway       Rewriter
	cacheTTL      time.Duration
	defaultRegion string
	log           zerolog.Logger

	// async runs hit-path bookkeeping; overridable in tests to run inline.
	async func(fn func())
}

// NewAnalyzeService wires the orchestrator. cache may be nil (caching off).
func NewAnalyzeService(s store.Store, c *cache.Cache, g Rewriter, cacheTTL time.Duration, defaultRegion string, log zerolog.Logger) *AnalyzeService {
	return &AnalyzeService{
		store:         s,
		cache:         c,
		gateway:       g,
		cacheTTL:      cacheTTL,
		defaultRegion: defaultRegion,
		log:           log,
		async:         func(fn func()) { go fn() },
	}
}

// Analyze returns the analysis for (message, region) and whether it was
// served from cache. Gateway errors propagate unchanged; bookkeeping
// failures after a successful AI response are logged and swallowed.
func (s *AnalyzeService) Analyze(ctx context.Context, message, region string, userID *string) (*model.AnalysisResult, bool, error) {
	if region == "" {
		region = s.defaultRegion
	}
	key := CacheKey(message, region)

	var hit model.AnalysisResult
	if s.cache.Get(ctx, key, &hit) {
		// Bookkeeping is fire-and-forget relative to the response.
		s.async(func() { s.record(&hit, region, userID, 0, true) })
		return &hit, true, nil
	}

	start := time.Now()
	result, err := s.gateway.Rewrite(ctx, message, region)
	if err != nil {
		return nil, false, err
	}
	elapsed := time.Since(start)

	s.cache.Set(ctx, key, result, s.cacheTTL)
	s.record(result, region, userID, elapsed.Milliseconds(), false)
	return result, false, nil
}

// record persists the history row, bumps the user counter and, for fresh
// results, upserts the scam pattern. Failures must not block the caller's
// result, so every write uses a detached context and only logs on error.
func (s *AnalyzeService) record(result *model.AnalysisResult, region string, userID *string, elapsedMs int64, cached bool) {
	// Detached from the request context so a client disconnect does not
	// cancel bookkeeping.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := &model.RewriteHistoryRecord{
		UserID:          userID,
		OriginalMessage: result.OriginalMessage,
		SafeVersion:     result.SafeVersion,
		Region:          region,
		ResponseTimeMs:  elapsedMs,
		Cached:          cached,
		RedFlagsFixed:   result.RedFlagsFixed,
		Differences:     result.Differences,
	}
	// History rows must carry at least one difference.
	if len(rec.Differences) == 0 {
		s.log.Warn().Str("region", region).Msg("history write skipped: result has no differences")
	} else if _, err := s.store.History().Create(ctx, rec); err != nil {
		s.log.Error().Stack().Err(err).Msg("history write failed")
	}

	if userID != nil && *userID != "" {
		if err := s.store.Users().IncrementUsage(ctx, *userID); err != nil {
			s.log.Error().Stack().Err(err).Str("user", *userID).Msg("usage increment failed")
		}
	}

	if cached {
		return
	}
	category := Classify(result.OriginalMessage)
	severity := SeverityFor(result.RedFlagsFixed)
	hash := PatternHash(result.OriginalMessage, category)
	if _, err := s.store.Patterns().Upsert(ctx, hash, category, severity, result.OriginalMessage); err != nil {
		s.log.Error().Stack().Err(err).Str("category", string(category)).Msg("pattern upsert failed")
	}
}

// Package rewriteservice wires and runs the scamshield HTTP service.
package rewriteservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/scamshield/scamshield/internal/ai"
	"github.com/scamshield/scamshield/internal/api"
	"github.com/scamshield/scamshield/internal/api/ratelimit"
	"github.com/scamshield/scamshield/internal/api/recovery"
	"github.com/scamshield/scamshield/internal/api/respond"
	"github.com/scamshield/scamshield/internal/cache"
	"github.com/scamshield/scamshield/internal/config"
	"github.com/scamshield/scamshield/internal/health"
	"github.com/scamshield/scamshield/internal/logger"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/services"
	"github.com/scamshield/scamshield/internal/store"
	"github.com/scamshield/scamshield/internal/store/postgres"
)

// Run starts the scamshield HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("scamshield")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	respond.SetDevelopmentMode(!cfg.IsProduction())

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("http_port", cfg.HTTPPort).
		Str("gemini_model", cfg.GeminiModel).
		Bool("cache_enabled", cfg.RedisAddr != "").
		Str("default_region", cfg.DefaultRegion).
		Msg("Scamshield service starting")

	// Cancellable root context bound to SIGINT/SIGTERM.
	ctx, stop := newServerContext()
	defer stop()

	st, cacheStore, gateway, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = cacheStore.Close() }()

	router := buildRouter(st, cacheStore, gateway, cfg, log)

	svcHealth := startHealthCheckers(ctx, cfg, log, st, cacheStore, gateway)

	// Block startup until dependencies report healthy; fail fast otherwise.
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	// Retention cleanup runs for the lifetime of the service.
	historySvc := services.NewHistoryService(st, log)
	go historySvc.StartRetentionLoop(ctx, time.Duration(cfg.HistoryRetentionDays)*24*time.Hour)

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs the store, cache and AI gateway, enforcing
// fail-fast on the required ones. The cache is optional: an empty Redis
// address disables it.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, *cache.Cache, *ai.Gateway, error) {
	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Postgres unavailable")
		return nil, nil, nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Error().Stack().Err(err).Msg("Schema bootstrap failed")
		return nil, nil, nil, err
	}
	st := postgres.NewWithDB(db)

	cacheStore := cache.New(cfg.RedisAddr, log)
	if cacheStore == nil {
		log.Warn().Msg("cache disabled; every request goes to the AI endpoint")
	}

	gateway := ai.New(cfg, log)
	return st, cacheStore, gateway, nil
}

// buildRouter wires HTTP routes to handlers with per-operation rate limits.
func buildRouter(st store.Store, cacheStore *cache.Cache, gateway *ai.Gateway, cfg *config.Config, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	general := ratelimit.PerMinute(cfg.GeneralRatePerMinute)
	analyzeLimit := ratelimit.PerMinute(cfg.AnalyzeRatePerMinute)
	reportLimit := ratelimit.PerMinute(cfg.ReportRatePerMinute)
	root.Use(general.Middleware)

	analyzeSvc := services.NewAnalyzeService(st, cacheStore, gateway, cfg.CacheTTL(), cfg.DefaultRegion, log)
	analyzeHandler := api.NewAnalyzeHandler(analyzeSvc, cfg.MaxMessageLength)
	root.Handle("/api/v1/analyze",
		analyzeLimit.Middleware(http.HandlerFunc(analyzeHandler.Analyze))).Methods("POST")

	patternSvc := services.NewPatternService(st)
	patternHandler := api.NewPatternHandler(patternSvc, cfg.MaxMessageLength)
	root.Handle("/api/v1/patterns/report",
		reportLimit.Middleware(http.HandlerFunc(patternHandler.Report))).Methods("POST")
	root.HandleFunc("/api/v1/patterns/trending", patternHandler.Trending).Methods("GET")

	historySvc := services.NewHistoryService(st, log)
	historyHandler := api.NewHistoryHandler(historySvc)
	root.HandleFunc("/api/v1/history", historyHandler.List).Methods("GET")

	analyticsSvc := services.NewAnalyticsService(st)
	analyticsHandler := api.NewAnalyticsHandler(analyticsSvc)
	root.HandleFunc("/api/v1/analytics", analyticsHandler.Report).Methods("GET")

	userSvc := services.NewUserService(st)
	userHandler := api.NewUserHandler(userSvc)
	root.HandleFunc("/api/v1/users", userHandler.CreateUser).Methods("POST")
	root.HandleFunc("/api/v1/users/{email}", userHandler.GetUser).Methods("GET")

	healthHandler := api.NewHealthHandler()
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.WriteCode(w, model.CodeRouteNotFound, "route not found")
	})
	return root
}

// startHealthCheckers starts component checkers and the service-level
// aggregator; binds health into the api package.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, cacheStore *cache.Cache, gateway *ai.Gateway) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	var checkers []health.HealthChecker

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)
	checkers = append(checkers, storeChecker)

	// A nil cache reports healthy: caching is an optional dependency.
	cacheChecker := health.NewPingChecker("cache", cacheStore, log, probeTimeout)
	go cacheChecker.Start(ctx, interval)
	checkers = append(checkers, cacheChecker)

	aiChecker := health.NewPingChecker("ai", gateway, log, probeTimeout)
	go aiChecker.Start(ctx, interval)
	checkers = append(checkers, aiChecker)

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy, svcHealth.Components)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in
// seconds, interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup
// window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context bound to SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the scamshield service.
// Environment variables are parsed from the SCAMSHIELD_ prefix, e.g.
// SCAMSHIELD_HTTP_PORT, SCAMSHIELD_GEMINI_API_KEY.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Redis cache. Empty address disables caching entirely (best-effort
	// degrade per the cache contract).
	RedisAddr       string `envconfig:"REDIS_ADDR" default:""`
	CacheTTLSeconds int    `envconfig:"CACHE_TTL_SECONDS" default:"300"`

	// Gemini Configuration
	GeminiAPIKey         string `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel          string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	GeminiBaseURL        string `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	AITimeoutSeconds     int    `envconfig:"AI_TIMEOUT_SECONDS" default:"30"`
	MaxMessageLength     int    `envconfig:"MAX_MESSAGE_LENGTH" default:"1000"`
	DefaultRegion        string `envconfig:"DEFAULT_REGION" default:"IN"`
	RetryAfterFallbackMs int    `envconfig:"RETRY_AFTER_FALLBACK_MS" default:"60000"`

	// Rate limits, requests per minute per client IP.
	GeneralRatePerMinute int `envconfig:"GENERAL_RATE_PER_MINUTE" default:"120"`
	AnalyzeRatePerMinute int `envconfig:"ANALYZE_RATE_PER_MINUTE" default:"20"`
	ReportRatePerMinute  int `envconfig:"REPORT_RATE_PER_MINUTE" default:"10"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`

	// History retention cleanup
	HistoryRetentionDays int `envconfig:"HISTORY_RETENTION_DAYS" default:"90"`
}

// SupportedRegions enumerates region codes with a dedicated prompt context.
// The default region must be a member.
var SupportedRegions = []string{"IN", "US", "GB", "EU", "SG", "AU"}

// ResolveDefaults validates enum-valued fields and bounds.
func (c *Config) ResolveDefaults() error {
	switch c.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment)
	}

	if !RegionSupported(c.DefaultRegion) {
		return fmt.Errorf("unsupported DEFAULT_REGION: %s", c.DefaultRegion)
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("MAX_MESSAGE_LENGTH must be positive")
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}
	return nil
}

// RegionSupported reports whether code is an allowed region.
func RegionSupported(code string) bool {
	for _, r := range SupportedRegions {
		if r == code {
			return true
		}
	}
	return false
}

// New creates a Config by parsing SCAMSHIELD_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("SCAMSHIELD", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting creates a config suitable for unit tests.
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		CacheTTLSeconds:           300,
		GeminiModel:               "gemini-2.0-flash",
		GeminiBaseURL:             "http://localhost:0",
		AITimeoutSeconds:          5,
		MaxMessageLength:          1000,
		DefaultRegion:             "IN",
		RetryAfterFallbackMs:      60000,
		GeneralRatePerMinute:      120,
		AnalyzeRatePerMinute:      20,
		ReportRatePerMinute:       10,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 2,
		HistoryRetentionDays:      90,
	}
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// IsTesting returns true if the environment is set to testing.
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// AITimeout returns the upstream call timeout as a duration.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }

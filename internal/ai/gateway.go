// Package ai wraps the Gemini generateContent REST endpoint behind a typed
// gateway that returns validated analysis results.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scamshield/scamshield/internal/config"
	"github.com/scamshield/scamshield/internal/model"
)

// Fixed generation parameters for every rewrite call.
const (
	genTemperature     = 0.4
	genTopP            = 0.9
	genTopK            = 40
	genMaxOutputTokens = 1024
)

// Gateway translates a raw message plus region into one validated
// AnalysisResult via a single upstream call. No retries; a failed call is
// surfaced to the caller as-is.
type Gateway struct {
	client        *resty.Client
	apiKey        string
	modelName     string
	maxMessageLen int
	defaultRegion string
	retryAfterMs  int
	log           zerolog.Logger
}

// New constructs a Gateway from explicit configuration.
func New(cfg *config.Config, log zerolog.Logger) *Gateway {
	c := resty.New().
		SetBaseURL(cfg.GeminiBaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.AITimeout())

	return &Gateway{
		client:        c,
		apiKey:        cfg.GeminiAPIKey,
		modelName:     cfg.GeminiModel,
		maxMessageLen: cfg.MaxMessageLength,
		defaultRegion: cfg.DefaultRegion,
		retryAfterMs:  cfg.RetryAfterFallbackMs,
		log:           log,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Rewrite validates the message, issues one generateContent call and returns
// the parsed result.
func (g *Gateway) Rewrite(ctx context.Context, message, region string) (*model.AnalysisResult, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil, model.NewValidationError("message must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > g.maxMessageLen {
		return nil, model.NewValidationError(fmt.Sprintf("message exceeds %d characters", g.maxMessageLen))
	}

	prompt := buildPrompt(trimmed, region, g.defaultRegion)
	requestID := uuid.New().String()
	start := time.Now()

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(&generateRequest{
			Contents: []content{{Parts: []part{{Text: prompt}}}},
			GenerationConfig: generationConfig{
				Temperature:     genTemperature,
				TopP:            genTopP,
				TopK:            genTopK,
				MaxOutputTokens: genMaxOutputTokens,
			},
		}).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.modelName))

	latency := time.Since(start)
	if err != nil {
		g.telemetry(requestID, len(prompt), latency, false)
		return nil, model.NewError(model.CodeNetwork, "no response from AI endpoint", err)
	}
	if resp.IsError() {
		g.telemetry(requestID, len(prompt), latency, false)
		return nil, g.mapStatus(resp)
	}

	result, err := parseResult(resp.Body())
	if err != nil {
		g.telemetry(requestID, len(prompt), latency, false)
		return nil, err
	}
	g.telemetry(requestID, len(prompt), latency, true)
	return result, nil
}

// mapStatus converts an upstream HTTP failure into the closed taxonomy.
func (g *Gateway) mapStatus(resp *resty.Response) error {
	status := resp.StatusCode()
	switch {
	case status == http.StatusBadRequest:
		return model.NewError(model.CodeAIService, "AI service rejected the request (invalid request or API key)", nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return model.NewError(model.CodeAuthentication, "AI service authentication failed", nil)
	case status == http.StatusTooManyRequests:
		return model.NewRateLimitError("AI service rate limit exceeded", g.retryAfterSeconds(resp), nil)
	case status >= 500:
		return model.NewError(model.CodeAIService, fmt.Sprintf("AI service error (status %d)", status), nil)
	default:
		return model.NewError(model.CodeAIService, fmt.Sprintf("unexpected AI service status %d", status), nil)
	}
}

// retryAfterSeconds extracts the Retry-After hint or falls back to the
// configured default.
func (g *Gateway) retryAfterSeconds(resp *resty.Response) int {
	if v := resp.Header().Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return secs
		}
	}
	return g.retryAfterMs / 1000
}

func (g *Gateway) telemetry(requestID string, promptLen int, latency time.Duration, ok bool) {
	g.log.Info().
		Str("request_id", requestID).
		Int("prompt_length", promptLen).
		Dur("latency", latency).
		Bool("success", ok).
		Msg("ai rewrite call")
}

// HealthPing implements health.HealthPinger by listing models, which verifies
// both reachability and key validity.
func (g *Gateway) HealthPing(ctx context.Context) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		Get("/v1beta/models")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("ai endpoint status %d", resp.StatusCode())
	}
	return nil
}

package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamshield/scamshield/internal/config"
	"github.com/scamshield/scamshield/internal/logger"
	"github.com/scamshield/scamshield/internal/model"
)

const validModelText = `{
  "original_message": "Your UPI payment failed! Click here: http://refund-upi.com",
  "safe_version": "Your payment could not be completed. Please check the status in your official banking app.",
  "differences": [
    {"aspect": "link", "scam": "unknown url", "official": "official app", "status": "fixed"}
  ],
  "red_flags_fixed": 4,
  "tone_comparison": {"scam": "urgent and threatening", "official": "neutral and informative"},
  "key_learning": "Banks never send refund links by SMS."
}`

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.NewForTesting()
	cfg.GeminiBaseURL = srv.URL
	cfg.GeminiAPIKey = "test-key"
	return New(cfg, logger.New("test")), &calls
}

func TestRewriteSuccess(t *testing.T) {
	g, calls := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(envelope(validModelText)))
	})

	res, err := g.Rewrite(context.Background(), "Your UPI payment failed! Click here", "IN")
	require.NoError(t, err)
	assert.Equal(t, 4, res.RedFlagsFixed)
	assert.NotEmpty(t, res.SafeVersion)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRewriteValidationNoNetworkCall(t *testing.T) {
	g, calls := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, msg := range []string{"", "   ", strings.Repeat("x", 1001), strings.Repeat("界", 1001)} {
		_, err := g.Rewrite(context.Background(), msg, "IN")
		require.Error(t, err)
		assert.Equal(t, model.CodeValidation, model.CodeOf(err))
	}
	assert.Equal(t, int32(0), calls.Load(), "validation failures must not reach the network")
}

func TestRewriteCountsRunesNotBytes(t *testing.T) {
	g, calls := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(envelope(validModelText)))
	})

	// 1000 three-byte characters exceed the byte limit but not the rune limit.
	_, err := g.Rewrite(context.Background(), strings.Repeat("界", 1000), "IN")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRewriteStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   model.ErrorCode
	}{
		{"bad request", http.StatusBadRequest, model.CodeAIService},
		{"unauthorized", http.StatusUnauthorized, model.CodeAuthentication},
		{"forbidden", http.StatusForbidden, model.CodeAuthentication},
		{"server error", http.StatusInternalServerError, model.CodeAIService},
		{"bad gateway", http.StatusBadGateway, model.CodeAIService},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := g.Rewrite(context.Background(), "some scam text", "IN")
			require.Error(t, err)
			assert.Equal(t, tc.want, model.CodeOf(err))
		})
	}
}

func TestRewriteRateLimited(t *testing.T) {
	t.Run("with retry-after header", func(t *testing.T) {
		g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "17")
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := g.Rewrite(context.Background(), "some scam text", "IN")
		require.Error(t, err)
		var te *model.Error
		require.True(t, errors.As(err, &te))
		assert.Equal(t, model.CodeRateLimited, te.Code)
		assert.Equal(t, 17, te.RetryAfterSeconds)
	})
	t.Run("fallback hint", func(t *testing.T) {
		g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := g.Rewrite(context.Background(), "some scam text", "IN")
		var te *model.Error
		require.True(t, errors.As(err, &te))
		assert.GreaterOrEqual(t, te.RetryAfterSeconds, 0)
	})
}

func TestRewriteNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore

	cfg := config.NewForTesting()
	cfg.GeminiBaseURL = srv.URL
	g := New(cfg, logger.New("test"))

	_, err := g.Rewrite(context.Background(), "some scam text", "IN")
	require.Error(t, err)
	assert.Equal(t, model.CodeNetwork, model.CodeOf(err))
}

func TestRewriteUnparseableModelOutput(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(envelope("Sorry, I refuse to answer in JSON.")))
	})
	_, err := g.Rewrite(context.Background(), "some scam text", "IN")
	require.Error(t, err)
	assert.Equal(t, model.CodeAIService, model.CodeOf(err))
}

func TestRegionContextFallback(t *testing.T) {
	assert.Equal(t, regionContexts["IN"], regionContext("XX", "IN"))
	assert.Equal(t, regionContexts["SG"], regionContext("SG", "IN"))
}

func TestBuildPromptEmbedsMessageAndRegion(t *testing.T) {
	p := buildPrompt("Click here to win", "SG", "IN")
	assert.Contains(t, p, "Click here to win")
	assert.Contains(t, p, "ScamShield app")
}

package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamshield/scamshield/internal/model"
)

func TestAllowExhaustsBurst(t *testing.T) {
	l := PerMinute(3)

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("10.0.0.1")
		require.True(t, ok, "request %d should pass", i+1)
	}

	ok, retryAfter := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, 0)
}

func TestAllowIsolatesClients(t *testing.T) {
	l := PerMinute(1)

	ok, _ := l.Allow("10.0.0.1")
	require.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	require.False(t, ok)

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "a second client has its own bucket")
}

func TestMiddlewareDeniesWithEnvelope(t *testing.T) {
	l := PerMinute(1)
	var served int
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, 1, served)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code       model.ErrorCode `json:"code"`
			RetryAfter *int            `json:"retryAfter"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, model.CodeRateLimited, env.Error.Code)
	require.NotNil(t, env.Error.RetryAfter)
	assert.GreaterOrEqual(t, *env.Error.RetryAfter, 0)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"
	assert.Equal(t, "192.0.2.7", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 192.0.2.7")
	assert.Equal(t, "203.0.113.9", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}

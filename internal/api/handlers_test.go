package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamshield/scamshield/internal/logger"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/services"
	"github.com/scamshield/scamshield/internal/store"
)

// --- Fakes ---

type fakeGateway struct {
	calls  int
	result *model.AnalysisResult
	err    error
}

func (f *fakeGateway) Rewrite(ctx context.Context, message, region string) (*model.AnalysisResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeStore struct {
	patterns  map[string]*model.ScamPattern
	trending  []*model.TrendingPattern
	history   *model.HistoryPage
	analytics *model.AnalyticsReport
	user      *model.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{patterns: make(map[string]*model.ScamPattern)}
}

func (f *fakeStore) Users() store.Users       { return &fakeUsers{f} }
func (f *fakeStore) History() store.History   { return &fakeHistory{f} }
func (f *fakeStore) Patterns() store.Patterns { return &fakePatterns{f} }

type fakeUsers struct{ p *fakeStore }

func (u *fakeUsers) Create(_ context.Context, m *model.User) (*model.User, error) {
	if u.p.user != nil && u.p.user.Email == m.Email {
		return nil, model.ErrConflict
	}
	out := *m
	out.IsActive = true
	out.CreatedAt = time.Now()
	return &out, nil
}
func (u *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u.p.user == nil || u.p.user.Email != email {
		return nil, model.ErrNotFound
	}
	return u.p.user, nil
}
func (u *fakeUsers) IncrementUsage(context.Context, string) error { return nil }

type fakeHistory struct{ p *fakeStore }

func (h *fakeHistory) Create(_ context.Context, r *model.RewriteHistoryRecord) (*model.RewriteHistoryRecord, error) {
	return r, nil
}
func (h *fakeHistory) List(context.Context, model.ListHistoryRequest) (*model.HistoryPage, error) {
	return h.p.history, nil
}
func (h *fakeHistory) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }
func (h *fakeHistory) Analytics(context.Context, model.AnalyticsFilter) (*model.AnalyticsReport, error) {
	return h.p.analytics, nil
}

type fakePatterns struct{ p *fakeStore }

func (pp *fakePatterns) Upsert(_ context.Context, hash string, category model.Category, severity model.Severity, example string) (*model.ScamPattern, error) {
	pat := &model.ScamPattern{
		PatternHash: hash, Category: category, Frequency: 1,
		Examples: []string{example}, Severity: severity, IsActive: true,
	}
	pp.p.patterns[hash] = pat
	return pat, nil
}
func (pp *fakePatterns) Trending(context.Context, int) ([]*model.TrendingPattern, error) {
	return pp.p.trending, nil
}

// --- Helpers ---

type errEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code       model.ErrorCode `json:"code"`
		Message    string          `json:"message"`
		Timestamp  string          `json:"timestamp"`
		RetryAfter *int            `json:"retryAfter"`
	} `json:"error"`
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) errEnvelope {
	t.Helper()
	var env errEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.False(t, env.Success)
	require.NotEmpty(t, env.Error.Timestamp)
	return env
}

func analyzeHandler(gw *fakeGateway) *AnalyzeHandler {
	svc := services.NewAnalyzeService(newFakeStore(), nil, gw, 300*time.Second, "IN", logger.New("test"))
	return NewAnalyzeHandler(svc, 1000)
}

func testResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		OriginalMessage: "scam",
		SafeVersion:     "official",
		Differences:     []model.Difference{{Aspect: "tone", Scam: "a", Official: "b", Status: "fixed"}},
		RedFlagsFixed:   2,
		ToneComparison:  model.ToneComparison{Scam: "a", Official: "b"},
		KeyLearning:     "k",
	}
}

// --- Tests ---

func TestAnalyzeHandlerSuccess(t *testing.T) {
	gw := &fakeGateway{result: testResult()}
	h := analyzeHandler(gw)

	body := bytes.NewBufferString(`{"message":"click here http://x.co","region":"IN"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Success   bool                 `json:"success"`
		Data      model.AnalysisResult `json:"data"`
		Cached    *bool                `json:"cached"`
		Timestamp string               `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	require.NotNil(t, env.Cached)
	assert.False(t, *env.Cached)
	assert.Equal(t, "official", env.Data.SafeVersion)
	assert.NotEmpty(t, env.Timestamp)
}

func TestAnalyzeHandlerValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"empty message", `{"message":"   "}`},
		{"unknown region", `{"message":"hello","region":"ZZ"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{result: testResult()}
			h := analyzeHandler(gw)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			h.Analyze(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeErr(t, rec)
			assert.Equal(t, model.CodeValidation, env.Error.Code)
			assert.Zero(t, gw.calls, "invalid input must not reach the gateway")
		})
	}
}

func TestAnalyzeHandlerUpstreamErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   model.ErrorCode
	}{
		{"ai error", model.NewError(model.CodeAIService, "bad payload", nil), http.StatusBadGateway, model.CodeAIService},
		{"network error", model.NewError(model.CodeNetwork, "no response", nil), http.StatusServiceUnavailable, model.CodeNetwork},
		{"rate limited", model.NewRateLimitError("slow down", 30, nil), http.StatusTooManyRequests, model.CodeRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := analyzeHandler(&fakeGateway{err: tc.err})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString(`{"message":"hello"}`))
			rec := httptest.NewRecorder()
			h.Analyze(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			env := decodeErr(t, rec)
			assert.Equal(t, tc.wantCode, env.Error.Code)
			if tc.wantCode == model.CodeRateLimited {
				require.NotNil(t, env.Error.RetryAfter)
				assert.Equal(t, 30, *env.Error.RetryAfter)
				assert.Equal(t, "30", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestPatternHandlerReport(t *testing.T) {
	st := newFakeStore()
	h := NewPatternHandler(services.NewPatternService(st), 1000)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patterns/report",
		bytes.NewBufferString(`{"message":"free money click now","category":"fake_links","severity":"high"}`))
	rec := httptest.NewRecorder()
	h.Report(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, st.patterns, 1)
}

func TestPatternHandlerReportUnknownCategory(t *testing.T) {
	h := NewPatternHandler(services.NewPatternService(newFakeStore()), 1000)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patterns/report",
		bytes.NewBufferString(`{"message":"x","category":"nonsense"}`))
	rec := httptest.NewRecorder()
	h.Report(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeErr(t, rec)
	assert.Equal(t, model.CodeValidation, env.Error.Code)
}

func TestPatternHandlerTrendingLimit(t *testing.T) {
	h := NewPatternHandler(services.NewPatternService(newFakeStore()), 1000)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patterns/trending?limit=99", nil)
	rec := httptest.NewRecorder()
	h.Trending(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryHandlerRequiresIdentity(t *testing.T) {
	st := newFakeStore()
	h := NewHistoryHandler(services.NewHistoryService(st, logger.New("test")))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeErr(t, rec)
	assert.Equal(t, model.CodeAuthentication, env.Error.Code)
}

func TestHistoryHandlerList(t *testing.T) {
	st := newFakeStore()
	st.history = &model.HistoryPage{Page: 1, PageSize: 20, Total: 0}
	h := NewHistoryHandler(services.NewHistoryService(st, logger.New("test")))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?page=1", nil)
	req.Header.Set("X-User-ID", "user@example.com")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyticsHandlerBadFilter(t *testing.T) {
	st := newFakeStore()
	h := NewAnalyticsHandler(services.NewAnalyticsService(st))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics?from=yesterday", nil)
	rec := httptest.NewRecorder()
	h.Report(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	st := newFakeStore()
	st.user = &model.User{Email: "user@example.com"}
	h := NewUserHandler(services.NewUserService(st))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users",
		bytes.NewBufferString(`{"email":"user@example.com"}`))
	rec := httptest.NewRecorder()
	h.CreateUser(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeErr(t, rec)
	assert.Equal(t, model.CodeValidation, env.Error.Code)
}

func TestHealthHandler(t *testing.T) {
	BindServiceHealth(
		func() bool { return true },
		func() map[string]bool { return map[string]bool{"store": true, "cache": true, "ai": false} },
	)
	h := NewHealthHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.CheckHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "unhealthy", body.Components["ai"])
}

package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"email-writer-backend/internal/handlers"
	"email-writer-backend/internal/middleware"
	"email-writer-backend/internal/observability/metrics"
	"email-writer-backend/internal/services"
	"email-writer-backend/pkg/logging"
)

type fakeGemini struct {
	body   string
	status int
}

func (f fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.status != 0 {
		w.WriteHeader(f.status)
	}
	w.Write([]byte(f.body))
}

func newTestRouter(t *testing.T, gemini http.Handler, apiKey string) http.Handler {
	t.Helper()
	upstream := httptest.NewServer(gemini)
	t.Cleanup(upstream.Close)

	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.NewReplyMetrics(reg)

	provider, err := services.NewGeminiRESTProvider(services.GeminiRESTConfig{
		BaseURL:    upstream.URL,
		APIVersion: "v1beta",
		Model:      "gemini-1.5-flash",
		APIKey:     "upstream-key",
	}, logger)
	require.NoError(t, err)

	return New(Config{
		ReplyHandler:   handlers.NewReplyHandler(services.NewReplyService(provider, m, logger), m, logger),
		APIKeyAuth:     middleware.NewAPIKeyAuth(apiKey),
		MetricsHandler: metrics.Handler(reg),
		AllowedOrigins: []string{"*"},
		Logger:         logger,
	})
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, fakeGemini{}, "")
	rr := do(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouter_LegacyEndpoint(t *testing.T) {
	h := newTestRouter(t, fakeGemini{body: `{"candidates":[{"content":{"parts":[{"text":"Thanks, will do."}]}}]}`}, "")
	rr := do(h, http.MethodPost, "/api/email/generate", `{"emailContent":"Send the file?"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Thanks, will do.", rr.Body.String())
}

func TestRouter_LegacyEndpointMalformedUpstream(t *testing.T) {
	h := newTestRouter(t, fakeGemini{body: "{}"}, "")
	rr := do(h, http.MethodPost, "/api/email/generate", `{"emailContent":"Send the file?"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Error processing response: "))
}

func TestRouter_V1MalformedUpstream(t *testing.T) {
	h := newTestRouter(t, fakeGemini{body: "not json"}, "")
	rr := do(h, http.MethodPost, "/api/v1/replies", `{"emailContent":"Send the file?"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestRouter_UpstreamDown(t *testing.T) {
	h := newTestRouter(t, fakeGemini{status: http.StatusServiceUnavailable}, "")
	rr := do(h, http.MethodPost, "/api/email/generate", `{"emailContent":"Send the file?"}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouter_APIKeyGuardsAPIOnly(t *testing.T) {
	h := newTestRouter(t, fakeGemini{body: `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`}, "inbound")

	rr := do(h, http.MethodPost, "/api/v1/replies", `{"emailContent":"x"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(h, http.MethodPost, "/api/v1/replies", `{"emailContent":"x"}`, map[string]string{"X-API-Key": "inbound"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_MetricsRecorded(t *testing.T) {
	h := newTestRouter(t, fakeGemini{body: `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`}, "")
	do(h, http.MethodPost, "/api/v1/replies", `{"emailContent":"x"}`, nil)

	rr := do(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `email_writer_reply_requests_total{endpoint="v1",outcome="success"} 1`)
	assert.Contains(t, rr.Body.String(), `email_writer_provider_requests_total{outcome="success",transport="rest"} 1`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	h := newTestRouter(t, fakeGemini{}, "")
	rr := do(h, http.MethodGet, "/api/v1/replies", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metricshttp "github.com/wayne-insights/dashboard/internal/metrics/http"
	"github.com/wayne-insights/dashboard/internal/observability"
	"github.com/wayne-insights/dashboard/internal/proxy"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestRouterServesHealthAndStatic(t *testing.T) {
	router := NewRouter(RouterParams{Logger: testLogger(), Config: &Config{}})

	rr := serve(router, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = serve(router, http.MethodGet, "/static/css/app.css")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/css")
}

func TestRouterForwardsAPIToProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path})
	}))
	t.Cleanup(upstream.Close)

	apiProxy, err := proxy.NewAPIProxy(upstream.URL, proxy.WithLogger(testLogger()))
	require.NoError(t, err)
	router := NewRouter(RouterParams{Logger: testLogger(), Config: &Config{}, APIProxy: apiProxy})

	for path, want := range map[string]string{
		"/api/summary": "/api/v1/summary",
		"/api":         "/api/v1",
	} {
		rr := serve(router, http.MethodGet, path)
		require.Equal(t, http.StatusOK, rr.Code, path)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, want, body["path"])
	}
}

func TestRouterFallsBackToSPA(t *testing.T) {
	spa := proxy.NewSPAHandler(fstest.MapFS{
		"index.html": {Data: []byte("<!doctype html><div id=root></div>")},
	}, "")
	router := NewRouter(RouterParams{Logger: testLogger(), Config: &Config{}, SPA: spa})

	rr := serve(router, http.MethodGet, "/dashboard/xyz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "id=root")
}

func TestRouterWithoutSPAReturnsNotFound(t *testing.T) {
	router := NewRouter(RouterParams{Logger: testLogger(), Config: &Config{}})
	rr := serve(router, http.MethodGet, "/dashboard/xyz")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"})
	logger.Info("dropped")
	logger.Warn("kept", slog.String("scope", "test"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "test", entry["scope"])

	buf.Reset()
	newLogger(&buf, &Config{LogFormat: "pretty", LogLevel: "bogus"}).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestMetricsAPIRouterHandlesPreflight(t *testing.T) {
	handler := metricshttp.NewHandler(testLogger(), nil, []string{"http://localhost:3000"})
	router := NewMetricsAPIRouter(testLogger(), &Config{}, handler, observability.NewMetrics())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/summary", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = serve(router, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "healthy")

	rr = serve(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
}

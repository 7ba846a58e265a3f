package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/stall-orders/internal/adapter/logger"
	"github.com/YelzhanWeb/stall-orders/internal/adapter/metrics"
)

func publicDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		ReceptionPage: "<title>reception</title>",
		StorePage:     "<title>store</title>",
		DisplayPage:   "<title>display</title>",
		"terminal.js": "// js",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

type routerFixture struct {
	router  http.Handler
	metrics *metrics.Metrics
	wsHits  int
}

func newRouterFixture(t *testing.T) *routerFixture {
	f := &routerFixture{metrics: metrics.New(prometheus.NewRegistry())}
	ws := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		f.wsHits++
		w.WriteHeader(http.StatusTeapot)
	})
	f.router = NewRouter(publicDir(t), ws, f.metrics, logger.Nop())
	return f
}

func (f *routerFixture) get(path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestPagesServed(t *testing.T) {
	f := newRouterFixture(t)

	cases := map[string]string{
		"/":        "reception",
		"/store":   "store",
		"/display": "display",
	}
	for path, title := range cases {
		rec := f.get(path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "<title>"+title+"</title>", path)
	}
	assert.Zero(t, f.wsHits)
}

func TestStaticAssets(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.get("/static/terminal.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "// js", rec.Body.String())

	rec = f.get("/terminal.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.get("/static/missing.js", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebSocketRoutes(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.get("/ws", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = f.get("/", http.Header{"Upgrade": []string{"websocket"}, "Connection": []string{"Upgrade"}})
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 2, f.wsHits)
}

func TestHealthAndRequestID(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.get("/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = f.get("/health", http.Header{requestIDHeader: []string{"abc"}})
	assert.Equal(t, "abc", rec.Header().Get(requestIDHeader))
}

func TestRequestMetricsByRoute(t *testing.T) {
	f := newRouterFixture(t)

	f.get("/store", nil)
	f.get("/store", nil)
	f.get("/display", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("store", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("display", "200")))

	rec := f.get("/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stall_http_requests_total")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/portal/internal/platform/storage"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &Config{
		APIBaseURL:         "http://127.0.0.1:0/api",
		APITimeout:         time.Second,
		Language:           "en",
		StorageDriver:      StorageMemory,
		RateLimitPerMinute: 1000,
	}
	rt, err := NewRuntime(context.Background(), cfg, nil, RuntimeOptions{Storage: storage.NewMemory()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	portal, console := NewHandlers(rt, cfg, nil)
	return NewRouter(RouterParams{Config: cfg, Portal: portal, Console: console, Metrics: rt.Metrics})
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, path, nil))
	return res
}

func TestHealthzAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	res := get(h, "/healthz")
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"status":"ok"}`, res.Body.String())

	res = get(h, "/metrics")
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "portal_http_requests_total")
}

func TestRouterMountsBothFrontends(t *testing.T) {
	h := newTestRouter(t)

	res := get(h, "/api/session")
	require.Equal(t, http.StatusOK, res.Code)
	var view map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &view))
	require.Equal(t, false, view["logged_in"])
	require.Equal(t, "user", view["namespace"])

	res = get(h, "/admin/api/session")
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &view))
	require.Equal(t, "admin", view["namespace"])

	res = get(h, "/login/npo")
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"route":"login"`)

	res = get(h, "/admin/dashboard")
	require.Equal(t, http.StatusFound, res.Code)
	require.Equal(t, "/admin/login", res.Header().Get("Location"))

	res = get(h, "/my-activity/volunteer")
	require.Equal(t, http.StatusFound, res.Code)
	require.Equal(t, "/login/volunteer", res.Header().Get("Location"))

	res = get(h, "/no/such/page")
	require.Equal(t, http.StatusNotFound, res.Code)
	require.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
}

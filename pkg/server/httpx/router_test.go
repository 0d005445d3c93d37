package httpx

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/pkg/config"
	"github.com/taskdeck/taskdeck/pkg/job"
	"github.com/taskdeck/taskdeck/pkg/queue"
	"github.com/taskdeck/taskdeck/pkg/server/api"
)

func testDeps() *api.Deps {
	ready := &atomic.Bool{}
	ready.Store(true)
	return &api.Deps{
		Manager:  queue.NewManager(),
		Registry: job.NewRegistry(),
		Ready:    ready,
	}
}

func TestRouterHealthAlwaysMounted(t *testing.T) {
	for _, apiEnabled := range []bool{true, false} {
		router := NewRouter(config.ServerConfig{APIEnabled: apiEnabled}, testDeps())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRouterAPIDisabled(t *testing.T) {
	router := NewRouter(config.ServerConfig{APIEnabled: false}, testDeps())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterAPIEnabled(t *testing.T) {
	router := NewRouter(config.ServerConfig{APIEnabled: true}, testDeps())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "{}", rec.Body.String())
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := NewRouter(config.ServerConfig{APIEnabled: true}, testDeps())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/jobs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

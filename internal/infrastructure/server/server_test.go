package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/focusplan/bot/internal/infrastructure/config"
	"github.com/focusplan/bot/internal/infrastructure/logger"
	"github.com/focusplan/bot/internal/infrastructure/metrics"
)

func newTestServer(metricsEnabled bool) *Server {
	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: 8080}
	return New(cfg, logger.Nop(), metrics.New(), metricsEnabled)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(false)

	for _, path := range []string{"/", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "GET %s", path)
		assert.Equal(t, "OK", rec.Body.String(), "GET %s", path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsDisabled(t *testing.T) {
	srv := newTestServer(false)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

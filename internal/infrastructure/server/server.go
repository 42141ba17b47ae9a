package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/focusplan/bot/internal/infrastructure/config"
	"github.com/focusplan/bot/internal/infrastructure/logger"
	"github.com/focusplan/bot/internal/infrastructure/metrics"
)

// Server is the liveness HTTP server. It exists to satisfy the process
// supervisor's port-binding check and to expose metrics; it carries no
// application semantics.
type Server struct {
	echo   *echo.Echo
	config *config.ServerConfig
	logger *logger.Logger
}

// New creates a new server instance
func New(cfg *config.ServerConfig, appLogger *logger.Logger, m *metrics.Metrics, metricsEnabled bool) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	s := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
	}

	// Any GET on these paths must answer 200 with a static body.
	e.GET("/", s.handleHealth)
	e.GET("/healthz", s.handleHealth)

	if metricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	return s
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Start begins serving on the configured address. Blocks until the
// server stops.
func (s *Server) Start() error {
	s.logger.Infow("Liveness server starting", "addr", s.config.Addr())
	if err := s.echo.Start(s.config.Addr()); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

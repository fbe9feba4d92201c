// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handler "github.com/newthinker/swingbot/internal/api/handler/api"
	"github.com/newthinker/swingbot/internal/api/job"
	"github.com/newthinker/swingbot/internal/api/middleware"
	"github.com/newthinker/swingbot/internal/app"
	"github.com/newthinker/swingbot/internal/metrics"
)

// Server represents the HTTP server for the backtest job API
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	jobs       *job.Store
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	JobTTL      time.Duration
	MaxJobs     int
	MetricsPath string
}

// Dependencies holds the components the routes are served from
type Dependencies struct {
	App *app.App
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.App == nil {
		return nil, fmt.Errorf("server requires an app")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
		jobs:   job.NewStore(cfg.MaxJobs, cfg.JobTTL),
	}

	reg := deps.App.Metrics()
	s.setupRoutes(cfg, deps, reg)

	// Middleware chain: logging, then metrics, then routes
	var h http.Handler = mux
	if reg != nil {
		h = metrics.HTTPMiddleware(reg)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies, reg *metrics.Registry) {
	auth := middleware.APIKeyAuth(cfg.APIKey)
	protected := func(pattern string, fn http.HandlerFunc) {
		s.mux.Handle(pattern, auth(fn))
	}

	var gauge handler.JobGauge
	if reg != nil {
		gauge = reg
	}
	backtests := handler.NewBacktestHandler(s.jobs, deps.App, gauge, s.logger)
	strategies := handler.NewStrategiesHandler(deps.App.Strategies())

	protected("POST /api/v1/backtests", backtests.Create)
	protected("GET /api/v1/backtests", backtests.List)
	protected("GET /api/v1/backtests/{id}", func(w http.ResponseWriter, r *http.Request) {
		backtests.GetStatus(w, r, r.PathValue("id"))
	})
	protected("GET /api/v1/strategies", strategies.List)

	if a := deps.App.Archive(); a != nil {
		runs := handler.NewRunsHandler(a)
		protected("GET /api/v1/runs/{strategy}", func(w http.ResponseWriter, r *http.Request) {
			runs.List(w, r, r.PathValue("strategy"))
		})
		protected("GET /api/v1/runs/{strategy}/{id}", func(w http.ResponseWriter, r *http.Request) {
			runs.Get(w, r, r.PathValue("strategy"), r.PathValue("id"))
		})
	}

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	if reg != nil {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	apihandler "github.com/newthinker/mtfdash/internal/api/handler/api"
	"github.com/newthinker/mtfdash/internal/api/handler/web"
	"github.com/newthinker/mtfdash/internal/api/middleware"
	"github.com/newthinker/mtfdash/internal/dashboard"
	"github.com/newthinker/mtfdash/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for the dashboard
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	router     *mux.Router
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	APIKey       string
	TemplatesDir string
	Title        string
	MetricsPath  string
}

// Dependencies holds the components the routes are served from.
type Dependencies struct {
	Controller *dashboard.Controller
	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		router: router,
	}

	// Set up routes
	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	if deps.Metrics != nil {
		s.router.Use(metrics.HTTPMiddleware(deps.Metrics))
	}
	s.router.Use(metrics.LoggingMiddleware(s.logger))

	// Web UI routes
	webHandler, err := web.NewHandler(cfg.TemplatesDir, deps.Controller, web.Options{
		Title:       cfg.Title,
		ReportSizes: cfg.APIKey == "",
	}, s.logger)
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}

	s.router.HandleFunc("/", webHandler.Dashboard).Methods(http.MethodGet)
	s.router.HandleFunc("/select/run/{id}", webHandler.SelectRun).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc("/select/symbol/{symbol}", webHandler.SelectSymbol).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc("/select/symbol", webHandler.SelectSymbol).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc("/refresh", webHandler.Refresh).Methods(http.MethodPost)

	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.router.Handle(cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// JSON API routes
	dashHandler := apihandler.NewDashboardHandler(deps.Controller)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(middleware.APIKeyAuth(cfg.APIKey))
	api.HandleFunc("/state", dashHandler.State).Methods(http.MethodGet)
	api.HandleFunc("/charts", dashHandler.Charts).Methods(http.MethodGet)
	api.HandleFunc("/panels/{container}/size", dashHandler.PanelSize).Methods(http.MethodPost)

	return nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
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

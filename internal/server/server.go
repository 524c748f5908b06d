// Package server exposes the dashboard over HTTP: the single-page UI, JSON
// endpoints for picker options, aggregates and chart descriptions, and
// server-side chart images.
//
// Handlers only read the immutable dataset and build per-request values, so
// requests are served concurrently without locking.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rewired-gh/bodyweight-dash/internal/config"
	"github.com/rewired-gh/bodyweight-dash/internal/logger"
	"github.com/rewired-gh/bodyweight-dash/internal/models"
	"github.com/rewired-gh/bodyweight-dash/internal/render"
	"github.com/rewired-gh/bodyweight-dash/internal/trend"
)

var (
	//go:embed all:assets
	content embed.FS
)

// Server is the dashboard HTTP server
type Server struct {
	dataset  *models.Dataset
	builder  *trend.Builder
	renderer *render.Renderer
	assets   fs.FS
	router   *mux.Router
	http     *http.Server
	cfg      config.ServerConfig
}

// New creates a Server for ds. Call Run to start listening.
func New(cfg config.ServerConfig, ds *models.Dataset, builder *trend.Builder, renderer *render.Renderer) (*Server, error) {
	assets, err := fs.Sub(content, "assets")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded assets: %w", err)
	}

	s := &Server{
		dataset:  ds,
		builder:  builder,
		renderer: renderer,
		assets:   assets,
		cfg:      cfg,
	}
	s.router = s.setupRouter()
	s.http = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorLog:     logger.StdLogger(),
	}
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the HTTP router with all endpoints
func (s *Server) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, loggingMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/options", s.handleOptions).Methods(http.MethodGet)
	api.HandleFunc("/chart", s.handleChart).Methods(http.MethodGet)
	api.HandleFunc("/aggregates", s.handleAggregates).Methods(http.MethodGet)

	router.HandleFunc("/chart.{format}", s.handleChartImage).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(s.assets))))

	return router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Dashboard listening on http://%s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("Shutting down the dashboard server...")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return <-errCh
}

// Package server exposes the cleaning pipeline over HTTP for the blog
// backend's create and edit paths.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/postclean/internal/config"
	"github.com/jmylchreest/postclean/internal/logger"
	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
)

const shutdownTimeout = 10 * time.Second

// contentCleaner is the part of *scrub.Cleaner the handlers use.
type contentCleaner interface {
	CleanWithStats(content string) *scrub.Result
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg      config.ServerConfig
	cleaners map[string]contentCleaner
	preset   string
	validate *validator.Validate
	router   *chi.Mux
	log      *slog.Logger
}

// New creates a server with all routes configured. defaultPreset names the
// preset used when a request does not pick one; base overrides it when
// non-nil.
func New(cfg config.ServerConfig, defaultPreset string, base *scrub.Config) *Server {
	if defaultPreset == "" {
		defaultPreset = "default"
	}

	cleaners := make(map[string]contentCleaner)
	for _, name := range scrub.PresetNames() {
		cleaners[name] = scrub.New(scrub.Preset(name))
	}
	if base != nil {
		cleaners[defaultPreset] = scrub.New(base)
	}
	if _, ok := cleaners[defaultPreset]; !ok {
		defaultPreset = "default"
	}

	s := &Server{
		cfg:      cfg,
		cleaners: cleaners,
		preset:   defaultPreset,
		validate: validator.New(),
		router:   chi.NewRouter(),
		log:      logger.Component("server"),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.ReadTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.ReadTimeout))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/clean", s.handleClean)
		r.Post("/analyze", s.handleAnalyze)
	})
}

// requestLogger logs each request through the package logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

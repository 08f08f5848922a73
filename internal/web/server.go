// Package web exposes the import and export pipeline over HTTP. Handlers
// are thin: they parse requests, call the core service, and render JSON
// or CSV responses.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alumnihub/gradimport/internal/config"
	"github.com/alumnihub/gradimport/internal/core"
)

// Pinger reports backing-store health for the liveness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps the HTTP server and its routes.
type Server struct {
	cfg     *config.Config
	service *core.Service
	pinger  Pinger
	httpSrv *http.Server
}

// New builds a Server with the full middleware stack and routes mounted.
// pinger may be nil, in which case /healthz reports process liveness only.
func New(cfg *config.Config, service *core.Service, pinger Pinger) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		pinger:  pinger,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/import", func(r chi.Router) {
			r.Post("/graduates", s.handleImport)
			r.Get("/template", s.handleDownloadTemplate)
			r.Get("/limiter", s.handleLimiterStatus)
			r.Route("/runs", func(r chi.Router) {
				r.Get("/", s.handleListRuns)
				r.Route("/{runID}", func(r chi.Router) {
					r.Get("/", s.handleGetRun)
					r.Get("/progress", s.handleRunProgress)
					r.Get("/events", s.handleRunEvents)
					r.Post("/cancel", s.handleCancelRun)
				})
			})
		})
		r.Get("/export/graduates", s.handleExport)
	})

	s.httpSrv = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// Start begins serving HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	slog.Info("http server listening", "addr", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			body["status"] = "degraded"
			body["database"] = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "ok"
	}

	writeJSON(w, http.StatusOK, body)
}

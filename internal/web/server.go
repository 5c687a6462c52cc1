// Package web provides the HTTP server and handlers for the column organizer.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvorganizer/internal/config"
	"github.com/JonMunkholm/csvorganizer/internal/core"
	mw "github.com/JonMunkholm/csvorganizer/internal/web/middleware"
)

// Server is the HTTP server for the column organizer.
type Server struct {
	cfg     *config.Config
	service *core.Service
	loads   *core.LoadLimiter
	router  *chi.Mux
	server  *http.Server
	limits  []*rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, service *core.Service, loads *core.LoadLimiter) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		loads:   loads,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.Get("/status", s.handleStatus)
		r.Post("/sessions", s.handleCreateSession)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(withSessionID)

			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/mode", s.handleSetMode)

			// File load and output
			upload := r.With()
			if s.cfg.Rate.Enabled {
				upload = r.With(s.newLimiter(s.cfg.Rate.UploadLimit).middleware)
			}
			upload.Post("/upload", s.handleUpload)
			r.Get("/preview", s.handlePreview)
			r.Get("/export", s.handleExport)

			// Column operations
			r.Post("/merge", s.handleMerge)
			r.Post("/split", s.handleSplit)
			r.Post("/empty", s.handleAddEmpty)

			// Order and selection
			r.Post("/columns/select-all", s.handleSelectAll)
			r.Post("/columns/deselect-all", s.handleDeselectAll)
			r.Post("/columns/toggle", s.handleToggle)
			r.Post("/columns/move", s.handleMove)

			// Templates
			r.Get("/templates", s.handleListTemplates)
			r.Post("/templates", s.handleSaveTemplate)
			r.Post("/templates/import", s.handleImportTemplate)
			r.Get("/templates/suggest", s.handleSuggestTemplates)
			r.Get("/templates/{name}", s.handleGetTemplate)
			r.Delete("/templates/{name}", s.handleDeleteTemplate)
			r.Post("/templates/{name}/apply", s.handleApplyTemplate)
			r.Get("/templates/{name}/download", s.handleDownloadTemplate)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limits {
		l.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) newLimiter(perMinute int) *rateLimiter {
	l := newRateLimiter(perMinute, time.Minute)
	s.limits = append(s.limits, l)
	return l
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

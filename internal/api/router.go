package api

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"cronnext/internal/config"
	"cronnext/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configures the HTTP API server.
type Options struct {
	Addr      string
	AuthToken string
	RateLimit int
	RateBurst int
	Preview   config.PreviewConfig
	Location  *time.Location
	// MCP, when set, is mounted at /mcp behind the same token check.
	MCP http.Handler
}

// Server holds the HTTP server state.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger
	location   *time.Location
	preview    config.PreviewConfig
	opts       Options
}

// NewServer constructs the HTTP API server.
func NewServer(opts Options, logger *slog.Logger) (*Server, error) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	location := opts.Location
	if location == nil {
		location = time.Local
	}
	preview := opts.Preview
	if preview.MaxCount < 1 {
		preview.MaxCount = 10
	}
	if preview.DefaultCount < 1 || preview.DefaultCount > preview.MaxCount {
		preview.DefaultCount = min(5, preview.MaxCount)
	}

	s := &Server{
		router:   router,
		logger:   logger,
		location: location,
		preview:  preview,
		opts:     opts,
	}
	s.registerRoutes(web.Files())

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(staticFS fs.FS) {
	s.router.Get("/", s.handleIndex(staticFS))
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.opts.MCP != nil {
		var mcpHandler http.Handler = s.opts.MCP
		if s.opts.AuthToken != "" {
			mcpHandler = AuthMiddleware(s.opts.AuthToken)(mcpHandler)
		}
		s.router.Handle("/mcp", mcpHandler)
	}

	s.router.Route("/v1", func(r chi.Router) {
		if s.opts.AuthToken != "" {
			r.Use(AuthMiddleware(s.opts.AuthToken))
		}
		if s.opts.RateLimit > 0 {
			r.Use(RateLimit(s.opts.RateLimit, max(s.opts.RateBurst, s.opts.RateLimit)))
		}

		r.Route("/cron", func(r chi.Router) {
			r.Post("/preview", s.handleCronPreview)
			r.Post("/validate", s.handleCronValidate)
			r.Post("/explain", s.handleCronExplain)
		})
	})
}

func (s *Server) handleIndex(staticFS fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(staticFS, "index.html")
		if err != nil {
			http.Error(w, "index not found", http.StatusInternalServerError)
			return
		}
		modTime := time.Now()
		if info, err := fs.Stat(staticFS, "index.html"); err == nil {
			modTime = info.ModTime()
		}
		http.ServeContent(w, r, "index.html", modTime, bytes.NewReader(data))
	}
}

// Package server exposes the pipeline editor as a JSON HTTP API.
//
// Every document is an independent editing session held in a
// [workspace.Store]. Mutations that name an unknown block leave the
// document unchanged and still return it, mirroring the pipeline's own
// no-op semantics. Unknown documents are 404s.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/imgblocks/pkg/buildinfo"
	"github.com/matzehuels/imgblocks/pkg/render/diagram"
	"github.com/matzehuels/imgblocks/pkg/workspace"
)

// Config configures the API server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// StrictURLs rejects source URLs that are not http(s). The decomposer
	// itself accepts any string.
	StrictURLs bool
	// IdleTTL evicts documents not edited for this long. Zero disables
	// eviction.
	IdleTTL time.Duration
}

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	store    *workspace.Store
	diagrams *diagram.Runner
	logger   *log.Logger
}

// New creates a server. A nil runner renders diagrams without caching.
func New(cfg Config, store *workspace.Store, diagrams *diagram.Runner, logger *log.Logger) *Server {
	if store == nil {
		store = workspace.NewStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	if diagrams == nil {
		diagrams = diagram.NewRunner(nil, nil, logger)
	}
	return &Server{cfg: cfg, store: store, diagrams: diagrams, logger: logger}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/parse", s.handleParse)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.handleCreate)

			r.Route("/{docID}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Delete("/", s.handleDelete)
				r.Put("/url", s.handleSetURL)
				r.Get("/diagram", s.handleDiagram)

				r.Post("/blocks", s.handleAddBlock)
				r.Route("/blocks/{blockID}", func(r chi.Router) {
					r.Delete("/", s.handleRemoveBlock)
					r.Post("/up", s.handleMoveUp)
					r.Post("/down", s.handleMoveDown)
					r.Post("/toggle", s.handleToggle)
					r.Patch("/params", s.handleParams)
					r.Put("/effects/{effect}", s.handleEffect)
				})
			})
		})
	})

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.IdleTTL > 0 {
		go s.evictLoop(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) evictLoop(ctx context.Context) {
	interval := s.cfg.IdleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.store.Cleanup(ctx, s.cfg.IdleTTL); n > 0 {
				s.logger.Debug("evicted idle documents", "count", n)
			}
		}
	}
}

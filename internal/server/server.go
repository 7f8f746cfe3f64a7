// Package server exposes the layout engine over HTTP.
//
// Stateless requests go through the runner and its cache:
//
//	POST /v1/layout              lay out and render a pipeline or execution
//
// Interactive clients open a session that keeps a live engine, so that a
// selection change is applied without a full layout:
//
//	POST   /v1/sessions                          create from a layout request
//	GET    /v1/sessions/{id}                     current layout
//	PUT    /v1/sessions/{id}                     new snapshot (full or state-only)
//	PUT    /v1/sessions/{id}/view                new view state (state-only)
//	PUT    /v1/sessions/{id}/width               new canvas width (full)
//	PUT    /v1/sessions/{id}/nodes/{node}/hover  hover a node
//	DELETE /v1/sessions/{id}/nodes/{node}/hover  leave a node
//	DELETE /v1/sessions/{id}                     close the session
//
// Errors are JSON objects with the error code and message; the status
// follows [errors.HTTPStatus].
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/runner"
	"github.com/matzehuels/stagegraph/pkg/session"
)

const (
	maxBodyBytes    = 4 << 20
	shutdownTimeout = 5 * time.Second
	cleanupInterval = time.Minute
)

// Config configures a Server.
type Config struct {
	Runner     *runner.Runner
	Sessions   session.Store
	Options    runner.Options // defaults for every request
	SessionTTL time.Duration
	Logger     *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	runner   *runner.Runner
	sessions session.Store
	base     runner.Options // unvalidated, copied per request
	ttl      time.Duration
	logger   *log.Logger
	router   chi.Router
}

// New creates a server. Missing collaborators get defaults: a runner without
// cache, an in-memory session store and a discarding logger.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Runner == nil {
		cfg.Runner = runner.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewMemoryStore()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = session.DefaultTTL
	}
	cfg.Options.Logger = cfg.Logger
	check := cfg.Options
	if err := check.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	s := &Server{
		runner:   cfg.Runner,
		sessions: cfg.Sessions,
		base:     cfg.Options,
		ttl:      cfg.SessionTTL,
		logger:   cfg.Logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Put("/", s.handleUpdateSession)
				r.Delete("/", s.handleDeleteSession)
				r.Put("/view", s.handleView)
				r.Put("/width", s.handleWidth)
				r.Put("/nodes/{node}/hover", s.handleHover(true))
				r.Delete("/nodes/{node}/hover", s.handleHover(false))
			})
		})
	})
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is done, then shuts down gracefully.
// Expired sessions are dropped in the background.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.cleanup(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) cleanup(ctx context.Context) {
	t := time.NewTicker(cleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := s.sessions.Cleanup(ctx); err != nil {
				s.logger.Warn("session cleanup failed", "error", err)
			} else if n > 0 {
				s.logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error", "request_id", RequestID(r.Context()), "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Code: code, Error: msg, RequestID: RequestID(r.Context())})
}

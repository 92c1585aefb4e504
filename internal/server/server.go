// Package server exposes the workflow catalog over HTTP.
//
// Every browser gets a session id in a cookie. Each workflow's state and audit
// log live under that session in the configured storage backend, so two
// browsers never see each other's progress.
package server

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"guardflow/internal/demo"
	"guardflow/internal/logging"
	"guardflow/internal/storage"
	"guardflow/internal/workflow"
)

const (
	// ReadHeaderTimeout limits how long the server waits for request headers.
	ReadHeaderTimeout = 5 * time.Second

	// ShutdownTimeout limits how long in-flight requests may run during shutdown.
	ShutdownTimeout = 5 * time.Second
)

// OptionsFunc returns extra engine options for a workflow, such as localized steps.
type OptionsFunc func(workflowName string) []workflow.Option

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the base logger. Request and error logs carry module=server.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.base = l }
}

// WithWorkflowOptions sets the per-workflow engine options.
func WithWorkflowOptions(fn OptionsFunc) Option {
	return func(s *Server) { s.workflowOpts = fn }
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(s *Server) { s.secureCookie = secure }
}

// Server serves the workflow routes over one storage backend.
type Server struct {
	backend      storage.Backend
	base         *slog.Logger
	logger       *slog.Logger
	workflowOpts OptionsFunc
	secureCookie bool
	router       chi.Router

	// locks serialize mutations of one session's workflow across requests.
	locks [64]sync.Mutex
}

// New creates a Server over backend.
func New(backend storage.Backend, opts ...Option) *Server {
	s := &Server{
		backend: backend,
		base:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Module(s.base, "server")
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.sessionCookie)

	r.Get("/workflows", s.listWorkflows)
	r.Route("/workflows/{workflow}", func(r chi.Router) {
		r.Get("/", s.redirectToFirst)
		r.Get("/step", s.redirectToFirst)
		r.Get("/step/{stepID}", s.showStep)
		r.Post("/step/{stepID}/next", s.next)
		r.Post("/actions/{actionID}", s.perform)
		r.Post("/jump/{stepID}", s.jump)
		r.Get("/audit", s.audit)
		r.Delete("/", s.reset)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// open binds the requested workflow to the caller's session.
func (s *Server) open(r *http.Request) (workflow.Session, error) {
	name := chi.URLParam(r, "workflow")
	var opts []workflow.Option
	opts = append(opts, workflow.WithLogger(s.base))
	if s.workflowOpts != nil {
		opts = append(opts, s.workflowOpts(name)...)
	}
	return demo.Open(name, s.backend, SessionID(r.Context()), opts...)
}

// lock serializes mutations for one session and workflow.
func (s *Server) lock(r *http.Request) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(SessionID(r.Context()) + "\x00" + chi.URLParam(r, "workflow")))
	m := &s.locks[h.Sum32()%uint32(len(s.locks))]
	m.Lock()
	return m.Unlock
}

func stepPath(workflowName, stepID string) string {
	return "/workflows/" + workflowName + "/step/" + stepID
}

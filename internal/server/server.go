package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/playperu/geohunt/internal/handler/health"
	"github.com/playperu/geohunt/internal/hunt"
	"github.com/playperu/geohunt/internal/store"
)

// Deps are the collaborators the HTTP layer is wired to.
type Deps struct {
	Logger        *slog.Logger
	Source        hunt.Source
	Storage       hunt.Storage
	Cooldown      time.Duration
	SessionTTL    time.Duration
	Registrations *store.Registrations
	Checks        map[string]health.Checker
}

type Server struct {
	srv      *http.Server
	logger   *slog.Logger
	sessions *Sessions
}

func New(addr string, deps Deps) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	broker := NewBroker()
	sessions := NewSessions(deps.Logger, deps.Source, deps.Storage, deps.Cooldown, deps.SessionTTL, broker)
	addRoutes(r, deps, sessions, broker)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger:   deps.Logger,
		sessions: sessions,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ExpireSessions removes idle sessions until ctx is done.
func (s *Server) ExpireSessions(ctx context.Context) error {
	return s.sessions.Run(ctx)
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	s.sessions.StopAll()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Package statusserver exposes local health, metrics and session state
// over HTTP for the running client.
package statusserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/communityhub/internal/client/services"
	"github.com/dmitrijs2005/communityhub/internal/logging"
	"github.com/dmitrijs2005/communityhub/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// SessionSource provides the current session snapshot.
type SessionSource interface {
	Snapshot() services.Snapshot
}

// NewRouter builds the status routes. The session route never includes the
// bearer token.
func NewRouter(m *metrics.Metrics, sessions SessionSource, logger logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/session", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessions.Snapshot())
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug(r.Context(), "status request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type Server struct {
	srv    *http.Server
	logger logging.Logger
}

func New(addr string, h http.Handler, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start serves in the background. Listener errors are logged.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.logger.Info(ctx, "status server starting", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, "status server error", "error", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

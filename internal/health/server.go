// Package health serves the liveness and status HTTP endpoints. The
// listener is deliberately minimal: it never touches the Telegram API and
// keeps answering while the relay drains during shutdown.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"support-relay/internal/database"
	"support-relay/internal/relay"
)

// Server exposes "/" and "/ping" liveness probes plus a "/status" JSON
// document with uptime and relay counters.
type Server struct {
	addr    string
	store   database.Store
	stats   *relay.StatsService
	logger  *slog.Logger
	started time.Time
}

// NewServer creates a health server listening on addr.
func NewServer(addr string, store database.Store, stats *relay.StatsService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:   addr,
		store:  store,
		stats:  stats,
		logger: logger.With("component", "health_server"),
	}
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/ping", s.handlePing)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.started = time.Now()

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Health server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Health server shutdown error", "error", err)
		}
		<-errCh
		s.logger.Info("Health server stopped")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "pong")
}

// statusResponse is the "/status" document.
type statusResponse struct {
	Status        string      `json:"status"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	Database      string      `json:"database"`
	Stats         relay.Stats `json:"stats"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := statusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Database:      "ok",
	}

	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Database ping failed on status probe", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
	} else if stats, err := s.stats.Stats(ctx); err != nil {
		s.logger.WarnContext(ctx, "Stats collection failed on status probe", "error", err)
		resp.Status = "degraded"
	} else {
		resp.Stats = stats
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("Failed to encode status response", "error", err)
	}
}

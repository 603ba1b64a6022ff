package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"voicebot/internal/library"
	"voicebot/internal/logging"
	"voicebot/internal/runlog"
)

type healthServer struct {
	bind   string
	lib    *library.Library
	logger *slog.Logger
	server *http.Server
}

type healthResponse struct {
	Status    string      `json:"status"`
	Clips     int         `json:"clips"`
	Handles   int         `json:"handles"`
	Cached    int         `json:"cached"`
	Acquiring bool        `json:"acquiring"`
	LastRun   *runSummary `json:"last_run,omitempty"`
}

type runSummary struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	Uploaded   int       `json:"uploaded"`
	Skipped    int       `json:"skipped"`
	Errors     int       `json:"errors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func newHealthServer(bind string, lib *library.Library, logger *slog.Logger) *healthServer {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &healthServer{bind: bind, lib: lib, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// listen returns nil when no bind address is configured.
func (s *healthServer) listen() (net.Listener, error) {
	if s.bind == "" {
		return nil, nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return nil, fmt.Errorf("health listen: %w", err)
	}
	return listener, nil
}

func (s *healthServer) serve(ctx context.Context, listener net.Listener) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("health server listening", logging.String("address", listener.Addr().String()))
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

func (s *healthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats := s.lib.Stats()
	payload := healthResponse{
		Status:    "ok",
		Clips:     stats.Clips,
		Handles:   stats.Handles,
		Cached:    stats.Cached,
		Acquiring: s.lib.Acquiring(),
	}
	run, err := s.lib.Runs().Latest(r.Context())
	switch {
	case err == nil:
		payload.LastRun = &runSummary{
			ID:         run.ID,
			Source:     run.Source,
			Status:     run.Status,
			Uploaded:   run.Uploaded,
			Skipped:    run.Skipped,
			Errors:     run.Errors,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
		}
	case !errors.Is(err, runlog.ErrNotFound):
		s.logger.Warn("run ledger unavailable", logging.Error(err))
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *healthServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *healthServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// Package server wires the evaluation HTTP service together.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spanscore/spanscore/internal/bus"
	"github.com/spanscore/spanscore/internal/config"
	"github.com/spanscore/spanscore/internal/evaluation"
	"github.com/spanscore/spanscore/internal/history"
	"github.com/spanscore/spanscore/internal/pkg/logger"
	"github.com/spanscore/spanscore/internal/pkg/middleware"
)

// Server is the evaluation HTTP service.
type Server struct {
	cfg  *config.Config
	log  *logger.Logger
	bus  bus.Bus
	runs history.Storage
	http *http.Server
}

// New builds a server from configuration, wiring the event bus, run history
// and API handler.
func New(cfg *config.Config) (*Server, error) {
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	eventBus, err := bus.NewBus(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("creating event bus: %w", err)
	}

	runs, err := history.New(cfg.History)
	if err != nil {
		eventBus.Close()
		return nil, fmt.Errorf("creating run history: %w", err)
	}

	opts := evaluation.Options{
		IgnoreLabel:        cfg.Eval.IgnoreLabel,
		PartialMatchWeight: cfg.Eval.PartialMatchWeight,
		Workers:            cfg.Eval.Workers,
		SkipMissing:        cfg.Eval.SkipMissing,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	NewHandler(opts, log, eventBus, runs).RegisterRoutes(mux)

	var handler http.Handler = mux
	if cfg.Security.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(float64(cfg.Security.RateLimit), cfg.Security.RateLimit*2)
		handler = limiter.Middleware(handler)
	}

	return &Server{
		cfg:  cfg,
		log:  log,
		bus:  eventBus,
		runs: runs,
		http: &http.Server{
			Addr:         cfg.Address(),
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}, nil
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.cfg.Address())
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)

	if closeErr := s.bus.Close(); closeErr != nil {
		s.log.WithError(closeErr).Warn("failed to close event bus")
	}
	if closeErr := s.runs.Close(); closeErr != nil {
		s.log.WithError(closeErr).Warn("failed to close run history")
	}

	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/commitquest/internal/config"
	"github.com/aretw0/commitquest/internal/logging"
	questhttp "github.com/aretw0/commitquest/pkg/adapters/http"
	"github.com/aretw0/commitquest/pkg/observability"
	"github.com/aretw0/commitquest/pkg/session"
)

// ShutdownTimeout bounds how long outstanding requests may run after a signal.
const ShutdownTimeout = 5 * time.Second

// ServeOptions configures the HTTP host.
type ServeOptions struct {
	Config *config.Config
	// Addr overrides cfg.Server.Addr.
	Addr string
	// NonBlocking answers 409 instead of queueing concurrent submissions.
	NonBlocking bool
}

// NewServeHandler wires the HTTP API: engine, store, streams, rate limits and metrics.
// The returned cleanup closes the store.
func NewServeHandler(opts ServeOptions, logger *slog.Logger) (http.Handler, func() error, error) {
	cfg := opts.Config

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	engine, err := NewEngine(cfg, logger, observability.LogHooks(logger), metrics.Hooks())
	if err != nil {
		return nil, nil, err
	}

	persistence, err := NewPersistence(cfg)
	if err != nil {
		return nil, nil, err
	}

	streams := questhttp.NewStreamManager(logger)
	sessionOpts := append(persistence.ManagerOptions(),
		session.WithLogger(logger),
		session.WithObserver(streams.Observe),
		session.WithNonBlocking(opts.NonBlocking),
	)
	manager := session.NewManager(persistence.Store, engine, sessionOpts...)

	handler := questhttp.NewHandler(manager,
		questhttp.WithLogger(logger),
		questhttp.WithStreams(streams),
		questhttp.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		questhttp.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	)
	return handler, persistence.Close, nil
}

// Serve runs the HTTP API until ctx ends, then shuts down gracefully.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg := opts.Config
	logger := logging.NewJSON(os.Stderr, cfg.SlogLevel())

	handler, cleanup, err := NewServeHandler(opts, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("failed to close store", "err", err)
		}
	}()

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"address", addr,
			"backend", cfg.Backend.Kind,
			"store", cfg.Store.Kind,
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("shutting down server")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
		logger.Info("server stopped gracefully")
		return nil
	}
}

// Package app orchestrates the server runtime components: the HTTP
// status surface, the queue manager and the worker pool, with one
// graceful shutdown path.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/taskdeck/taskdeck/pkg/config"
	"github.com/taskdeck/taskdeck/pkg/server/api"
	"github.com/taskdeck/taskdeck/pkg/server/httpx"
)

// shutdownTimeout bounds the graceful shutdown of HTTP and queues.
const shutdownTimeout = 30 * time.Second

// App ties the HTTP server and the scheduler runtime together.
type App struct {
	HTTP   *http.Server
	Ready  *atomic.Bool
	Config config.Config
	Deps   *Deps
}

// New creates and configures a new server application.
func New(cfg config.Config, deps *Deps) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deps.Logger.Info().Msg("Initializing server application")

	ready := &atomic.Bool{}
	apiDeps := &api.Deps{
		Manager:  deps.Manager,
		Registry: deps.Registry,
		Ready:    ready,
	}

	router := httpx.NewRouter(cfg.Server, apiDeps)

	if cfg.Server.APIEnabled {
		deps.Logger.Info().Msg("API endpoints enabled")
	} else {
		deps.Logger.Warn().Msg("API endpoints disabled")
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Addr, cfg.Server.Port),
		Handler:      httpx.Chain(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		HTTP:   httpServer,
		Ready:  ready,
		Config: cfg,
		Deps:   deps,
	}, nil
}

// Run starts the server and blocks until ctx is cancelled or the HTTP
// listener fails.
func (a *App) Run(ctx context.Context) error {
	a.Deps.Logger.Info().
		Str("addr", a.HTTP.Addr).
		Bool("api", a.Config.Server.APIEnabled).
		Msg("Starting Taskdeck server")

	if a.Deps.Pool != nil {
		if err := a.Deps.Pool.Start(ctx); err != nil {
			return fmt.Errorf("start worker pool: %w", err)
		}
	}

	if err := a.Deps.Manager.StartAll(ctx); err != nil {
		return fmt.Errorf("start queues: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	a.Ready.Store(true)
	a.Deps.Logger.Info().Msg("Server is ready and accepting connections")

	select {
	case <-ctx.Done():
		a.Deps.Logger.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		a.Deps.Logger.Error().Err(err).Msg("Server error")
		return err
	}

	return a.shutdown()
}

// shutdown performs graceful shutdown of all components: stop accepting
// HTTP traffic first, then drain the queues, then the worker pool.
func (a *App) shutdown() error {
	a.Deps.Logger.Info().Msg("Initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.Ready.Store(false)

	a.Deps.Logger.Info().Msg("Shutting down HTTP server...")
	if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("HTTP shutdown failed")
	}

	a.Deps.Logger.Info().Msg("Shutting down queues...")
	if err := a.Deps.Manager.ShutdownAll(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("Queue shutdown reported errors")
	}

	if a.Deps.Pool != nil {
		if err := a.Deps.Pool.Stop(shutdownCtx); err != nil {
			a.Deps.Logger.Error().Err(err).Msg("Worker pool shutdown failed")
		}
	}

	a.Deps.Logger.Info().Msg("Shutdown complete")
	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/pkg/appctx"
	"github.com/taskdeck/taskdeck/pkg/config"
	"github.com/taskdeck/taskdeck/pkg/event"
	"github.com/taskdeck/taskdeck/pkg/handlers"
	"github.com/taskdeck/taskdeck/pkg/job"
	"github.com/taskdeck/taskdeck/pkg/logging"
	"github.com/taskdeck/taskdeck/pkg/queue"
	"github.com/taskdeck/taskdeck/pkg/server"
	"github.com/taskdeck/taskdeck/pkg/server/app"
)

// NewServeCommand creates the serve subcommand that runs the scheduler
// and its HTTP status surface until interrupted.
func NewServeCommand() *cobra.Command {
	var lockFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Taskdeck scheduler and HTTP API",
		Long: `Starts the configured queues, the worker pool for blocking handlers
and the HTTP status surface, then blocks until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, ok := appctx.Config(cmd.Context())
			if !ok {
				return server.WrapInit(fmt.Errorf("configuration not initialized"))
			}
			cfg := manager.Get()

			// Single-instance guard. A second serve against the same lock
			// file fails fast instead of double-processing jobs.
			lock := flock.New(lockFile)
			locked, err := lock.TryLock()
			if err != nil {
				return server.WrapInit(fmt.Errorf("acquire instance lock: %w", err))
			}
			if !locked {
				return server.NewLockHeldError(lockFile)
			}
			defer lock.Unlock() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := buildDeps(cfg)
			if err != nil {
				return server.WrapInit(err)
			}

			application, err := app.New(cfg, deps)
			if err != nil {
				return server.WrapInvalidConfig(err)
			}

			// Reload operational settings when the config file changes.
			if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
				watcher, err := config.NewWatcher(manager, configPath, func(fresh config.Config) {
					if err := logging.Configure(fresh.Log.Level, fresh.Log.Format, fresh.Log.File); err != nil {
						log.Error().Err(err).Msg("failed to apply reloaded log settings")
					}
				}, log.Logger)
				if err != nil {
					log.Warn().Err(err).Msg("config watcher unavailable")
				} else {
					go watcher.Start(ctx) //nolint:errcheck
				}
			}

			if err := application.Run(ctx); err != nil {
				return server.WrapRuntime(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&lockFile, "lock-file", defaultLockFile(), "Instance lock file path")

	return cmd
}

// buildDeps assembles the scheduler runtime from configuration: the
// handler registry with builtins, the event bus, the shared worker pool
// and one queue per configured entry.
func buildDeps(cfg config.Config) (*app.Deps, error) {
	bus := event.New()
	registry := job.NewRegistry()
	handlers.RegisterBuiltin(registry, bus)

	poolSize := cfg.Scheduler.PoolSize
	if poolSize <= 0 {
		poolSize = queue.DefaultPoolSize
	}
	pool := queue.NewPool(poolSize)

	opts := []queue.Option{
		queue.WithEmitter(bus),
		queue.WithRegistry(registry),
		queue.WithPool(pool),
	}
	if cfg.Scheduler.Tick > 0 {
		opts = append(opts, queue.WithTick(cfg.Scheduler.Tick))
	}
	if cfg.Scheduler.Retention > 0 {
		opts = append(opts, queue.WithRetention(cfg.Scheduler.Retention))
	}

	mgr := queue.NewManager(opts...)
	for _, qc := range cfg.Scheduler.Queues {
		if _, err := mgr.CreateQueue(qc.Name, qc.MaxWorkers); err != nil {
			return nil, fmt.Errorf("create queue %q: %w", qc.Name, err)
		}
	}
	if mgr.GetQueue(queue.DefaultQueueName) == nil {
		mgr.DefaultQueue()
	}

	logger := log.With().Str("component", "server").Logger()

	// Surface exhausted jobs in the server log even when nobody polls
	// the API for them.
	bus.Subscribe(event.JobFailed, func(ctx context.Context, env event.Envelope) {
		logger.Warn().
			Str("event", env.Event).
			Str("source", env.Source).
			Any("payload", env.Payload).
			Msg("job failed permanently")
	})

	return &app.Deps{
		Manager:  mgr,
		Registry: registry,
		Bus:      bus,
		Pool:     pool,
		Logger:   logger,
	}, nil
}

func defaultLockFile() string {
	return filepath.Join(os.TempDir(), "taskdeck.lock")
}

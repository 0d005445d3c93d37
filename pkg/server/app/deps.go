package app

import (
	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/pkg/event"
	"github.com/taskdeck/taskdeck/pkg/job"
	"github.com/taskdeck/taskdeck/pkg/queue"
)

// Deps carries the collaborators the application runtime is built from.
// The caller owns construction so tests can wire their own instances.
type Deps struct {
	// Manager owns the queues the server exposes.
	Manager *queue.Manager

	// Registry resolves job handler names.
	Registry *job.Registry

	// Bus receives lifecycle events from the queues.
	Bus *event.Bus

	// Pool executes blocking handlers; the app starts and stops it.
	Pool *queue.Pool

	// Logger is the application-scoped logger.
	Logger zerolog.Logger
}

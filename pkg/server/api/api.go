// Package api carries the dependency container shared by the HTTP
// router and the versioned handler packages.
package api

import (
	"sync/atomic"

	"github.com/taskdeck/taskdeck/pkg/job"
	"github.com/taskdeck/taskdeck/pkg/queue"
)

// Deps bundles everything the API handlers need. One instance is built
// at startup and passed to the router.
type Deps struct {
	// Manager is the queue manager the handlers read from and submit to.
	Manager *queue.Manager

	// Registry resolves handler names for submission validation.
	Registry *job.Registry

	// Ready flips to true once all queues are started; /readyz reports it.
	Ready *atomic.Bool
}

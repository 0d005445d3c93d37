package main

import (
	"errors"
	"os"

	taskdeckCli "github.com/taskdeck/taskdeck/cmd/taskdeck/commands"
	"github.com/taskdeck/taskdeck/pkg/job"
	"github.com/taskdeck/taskdeck/pkg/server"
)

// main executes the taskdeck CLI and maps scheduler errors to exit
// codes so scripts can distinguish failure classes.
//
// Exit codes:
//   - 0: Success
//   - 1: General error (default)
//   - 2: Invalid usage or input
//   - 4: Job or queue not found
//   - 7: Service unavailable (shutting down, lock held)
func main() {
	command := taskdeckCli.NewCommand()

	if err := command.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

func getExitCode(err error) int {
	switch {
	case errors.Is(err, job.ErrInvalidInput), errors.Is(err, job.ErrHandlerNotFound):
		return 2
	case errors.Is(err, job.ErrNotFound):
		return 4
	case errors.Is(err, job.ErrShuttingDown), errors.Is(err, server.ErrLockHeld):
		return 7
	default:
		return 1
	}
}

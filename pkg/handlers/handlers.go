// Package handlers ships the builtin job handlers registered by the
// server binary: a diagnostic echo, notification dispatch through the
// event bus, and filesystem cleanup as a blocking handler.
package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/taskdeck/taskdeck/pkg/event"
	"github.com/taskdeck/taskdeck/pkg/job"
)

// Builtin handler names.
const (
	NameEcho    = "echo"
	NameNotify  = "notify"
	NameCleanup = "cleanup"
)

// NotificationDispatched is emitted by the notify handler.
const NotificationDispatched = "notification.dispatched"

// RegisterBuiltin registers the builtin handlers on the registry.
func RegisterBuiltin(reg *job.Registry, bus event.Emitter) {
	reg.Register(NameEcho, EchoHandler())
	reg.Register(NameNotify, NotifyHandler(bus))
	reg.Register(NameCleanup, CleanupHandler())
}

// EchoHandler returns the "message" payload value. It exists for
// smoke-testing queues end to end.
func EchoHandler() job.Handler {
	return job.HandlerFunc(func(ctx context.Context, payload map[string]any) (any, error) {
		return cast.ToString(payload["message"]), nil
	})
}

// NotifyHandler dispatches a notification through the event bus.
// Payload keys: "channel" (string) and "message" (string).
func NotifyHandler(bus event.Emitter) job.Handler {
	return job.HandlerFunc(func(ctx context.Context, payload map[string]any) (any, error) {
		channel := cast.ToString(payload["channel"])
		message := cast.ToString(payload["message"])
		if channel == "" {
			return nil, fmt.Errorf("notify: payload key %q is required", "channel")
		}

		if bus != nil {
			bus.Emit(ctx, NotificationDispatched, map[string]any{
				"channel": channel,
				"message": message,
			}, "handlers.notify")
		}

		log.Info().
			Str("component", "handlers").
			Str("channel", channel).
			Msg("notification dispatched")

		return map[string]any{"channel": channel, "delivered": true}, nil
	})
}

// CleanupHandler removes files older than a cutoff from a directory.
// Payload keys: "dir" (string) and "older_than" (duration string, e.g.
// "24h"). Directory walking is synchronous filesystem work, so this is
// a blocking handler and runs on the worker pool.
func CleanupHandler() job.BlockingHandler {
	return job.BlockingFunc(func(ctx context.Context, payload map[string]any) (any, error) {
		dir := cast.ToString(payload["dir"])
		olderThan := cast.ToDuration(payload["older_than"])
		if dir == "" {
			return nil, fmt.Errorf("cleanup: payload key %q is required", "dir")
		}
		if olderThan <= 0 {
			return nil, fmt.Errorf("cleanup: payload key %q must be a positive duration", "older_than")
		}

		cutoff := time.Now().Add(-olderThan)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("cleanup: read dir: %w", err)
		}

		removed := 0
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				log.Warn().
					Str("component", "handlers").
					Str("file", entry.Name()).
					Err(err).
					Msg("cleanup failed to remove file")
				continue
			}
			removed++
		}

		log.Info().
			Str("component", "handlers").
			Str("dir", dir).
			Int("removed", removed).
			Msg("cleanup completed")

		return map[string]any{"removed": removed}, nil
	})
}

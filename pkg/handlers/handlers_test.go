package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/pkg/event"
	"github.com/taskdeck/taskdeck/pkg/job"
)

func TestRegisterBuiltin(t *testing.T) {
	reg := job.NewRegistry()
	RegisterBuiltin(reg, event.New())

	for _, name := range []string{NameEcho, NameNotify, NameCleanup} {
		_, ok := reg.Get(name)
		assert.True(t, ok, "handler %s not registered", name)
	}
}

func TestEchoHandler(t *testing.T) {
	h := EchoHandler()

	out, err := h.Execute(context.Background(), map[string]any{"message": "ping"})
	require.NoError(t, err)
	assert.Equal(t, "ping", out)

	// Non-string payloads are coerced, not rejected.
	out, err = h.Execute(context.Background(), map[string]any{"message": 42})
	require.NoError(t, err)
	assert.Equal(t, "42", out)

	out, err = h.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestNotifyHandler(t *testing.T) {
	bus := event.New()
	received := make(chan event.Envelope, 1)
	bus.Subscribe(NotificationDispatched, func(ctx context.Context, env event.Envelope) {
		received <- env
	})

	h := NotifyHandler(bus)
	out, err := h.Execute(context.Background(), map[string]any{
		"channel": "ops",
		"message": "disk almost full",
	})
	require.NoError(t, err)

	result, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ops", result["channel"])
	assert.Equal(t, true, result["delivered"])

	select {
	case env := <-received:
		payload, ok := env.Payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ops", payload["channel"])
		assert.Equal(t, "disk almost full", payload["message"])
	case <-time.After(time.Second):
		t.Fatal("notification event never emitted")
	}
}

func TestNotifyHandlerRequiresChannel(t *testing.T) {
	h := NotifyHandler(event.New())

	_, err := h.Execute(context.Background(), map[string]any{"message": "orphan"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel")
}

func TestCleanupHandler(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "old.log")
	fresh := filepath.Join(dir, "fresh.log")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("y"), 0o644))

	// Age one file past the cutoff.
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	h := CleanupHandler()
	assert.True(t, job.IsBlocking(h))

	out, err := h.Execute(context.Background(), map[string]any{
		"dir":        dir,
		"older_than": "1h",
	})
	require.NoError(t, err)

	result, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, result["removed"])

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestCleanupHandlerValidation(t *testing.T) {
	h := CleanupHandler()

	_, err := h.Execute(context.Background(), map[string]any{"older_than": "1h"})
	assert.ErrorContains(t, err, "dir")

	_, err = h.Execute(context.Background(), map[string]any{"dir": t.TempDir()})
	assert.ErrorContains(t, err, "older_than")

	_, err = h.Execute(context.Background(), map[string]any{
		"dir":        "/definitely/not/there",
		"older_than": "1h",
	})
	assert.ErrorContains(t, err, "read dir")
}

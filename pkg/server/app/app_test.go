package app

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/pkg/config"
	"github.com/taskdeck/taskdeck/pkg/event"
	"github.com/taskdeck/taskdeck/pkg/job"
	"github.com/taskdeck/taskdeck/pkg/queue"
)

func testAppDeps() *Deps {
	return &Deps{
		Manager:  queue.NewManager(),
		Registry: job.NewRegistry(),
		Bus:      event.New(),
		Pool:     queue.NewPool(1),
		Logger:   zerolog.Nop(),
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0

	_, err := New(cfg, testAppDeps())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestNewWiresServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Addr = "127.0.0.1"
	cfg.Server.Port = 18080

	app, err := New(cfg, testAppDeps())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:18080", app.HTTP.Addr)
	assert.Equal(t, cfg.Server.ReadTimeout, app.HTTP.ReadTimeout)
	assert.False(t, app.Ready.Load(), "app must not report ready before Run")
}

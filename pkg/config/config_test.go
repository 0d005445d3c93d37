package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskdeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Load(&DefaultSource{}))

	cfg := m.Get()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1", cfg.Server.Addr)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.APIEnabled)
	assert.Equal(t, time.Second, cfg.Scheduler.Tick)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.Retention)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
log:
  level: debug
server:
  port: 9090
scheduler:
  tick: 250ms
  retention: 1h
  queues:
    - name: reports
      max_workers: 8
    - name: notifications
      max_workers: 2
`)

	m := NewManager()
	require.NoError(t, m.Load(&DefaultSource{}, &FileSource{Path: path}))

	cfg := m.Get()
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Scheduler.Tick)
	assert.Equal(t, time.Hour, cfg.Scheduler.Retention)
	require.Len(t, cfg.Scheduler.Queues, 2)
	assert.Equal(t, "reports", cfg.Scheduler.Queues[0].Name)
	assert.Equal(t, 8, cfg.Scheduler.Queues[0].MaxWorkers)

	// Untouched keys keep their defaults.
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1", cfg.Server.Addr)
}

func TestLoadMissingFileIsSkipped(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Load(&DefaultSource{}, &FileSource{Path: "/nonexistent/taskdeck.yaml"}))
	assert.Equal(t, 8080, m.Get().Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "log:\n  level: warn\n")
	t.Setenv("TASKDECK_LOG_LEVEL", "error")

	m := NewManager()
	require.NoError(t, m.Load(&DefaultSource{}, &FileSource{Path: path}, &EnvSource{}))
	assert.Equal(t, "error", m.Get().Log.Level)
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	t.Setenv("TASKDECK_SERVER_PORT", "9000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Parse([]string{"--server.port=7777"}))

	m := NewManager()
	require.NoError(t, m.LoadStandard("", flags))
	assert.Equal(t, 7777, m.Get().Server.Port)
}

func TestLoadSourcesSortedByPriority(t *testing.T) {
	path := writeConfigFile(t, "log:\n  level: warn\n")

	// Pass sources out of order; the file must still override defaults.
	m := NewManager()
	require.NoError(t, m.Load(&FileSource{Path: path}, &DefaultSource{}))
	assert.Equal(t, "warn", m.Get().Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "invalid port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid port"},
		{"zero tick", func(c *Config) { c.Scheduler.Tick = 0 }, "tick"},
		{"negative retention", func(c *Config) { c.Scheduler.Retention = -time.Hour }, "retention"},
		{"unnamed queue", func(c *Config) {
			c.Scheduler.Queues = []QueueConfig{{Name: "", MaxWorkers: 1}}
		}, "empty name"},
		{"zero workers", func(c *Config) {
			c.Scheduler.Queues = []QueueConfig{{Name: "q", MaxWorkers: 0}}
		}, "max_workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

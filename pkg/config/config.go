package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/taskdeck/taskdeck/pkg/queue"
)

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex // To protect currentConfig during runtime updates
}

// NewManager creates a config Manager with a fresh koanf instance.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded
// default values. These serve as the baseline configuration if no other
// sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1",
			Port:         8080,
			APIEnabled:   true,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Tick:      queue.DefaultTick,
			Retention: queue.DefaultRetention,
			PoolSize:  queue.DefaultPoolSize,
			Queues: []QueueConfig{
				{Name: queue.DefaultQueueName, MaxWorkers: queue.DefaultMaxWorkers},
			},
		},
	}
}

// DefaultConfigAsMap converts the DefaultConfig struct to the flat map
// koanf's confmap provider expects, so koanf knows every key.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		"server.addr":          def.Server.Addr,
		"server.port":          def.Server.Port,
		"server.api_enabled":   def.Server.APIEnabled,
		"server.read_timeout":  def.Server.ReadTimeout,
		"server.write_timeout": def.Server.WriteTimeout,

		"scheduler.tick":      def.Scheduler.Tick,
		"scheduler.retention": def.Scheduler.Retention,
		"scheduler.pool_size": def.Scheduler.PoolSize,
	}
}

// Load loads configuration from the given sources in priority order and
// unmarshals the merged result into the manager's current config.
func (m *Manager) Load(sources ...Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := append([]Source{}, sources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	for _, src := range ordered {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("load config source %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("unmarshal merged config: %w", err)
	}
	m.currentConfig = newCfg

	return nil
}

// LoadStandard loads the standard source chain: defaults, then the
// optional config file, then TASKDECK_* environment variables, then
// command-line flags.
func (m *Manager) LoadStandard(configPath string, flags *pflag.FlagSet) error {
	return m.Load(DefaultSources(configPath, flags)...)
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// BindFlags binds the flag names koanf maps onto config keys. Flags are
// namespaced with dots so posflag can merge them directly.
func BindFlags(flags *pflag.FlagSet) {
	def := DefaultConfig()

	flags.String("log.level", def.Log.Level, "Log level (debug, info, warn, error)")
	flags.String("log.format", def.Log.Format, "Log format: json | text")
	flags.String("log.file", def.Log.File, "Log file path")

	flags.String("server.addr", def.Server.Addr, "Server listen address (use 0.0.0.0 for all interfaces)")
	flags.Int("server.port", def.Server.Port, "Server listen port")
	flags.Bool("server.api_enabled", def.Server.APIEnabled, "Enable REST API endpoints")
	flags.Duration("server.read_timeout", def.Server.ReadTimeout, "HTTP read timeout")
	flags.Duration("server.write_timeout", def.Server.WriteTimeout, "HTTP write timeout")

	flags.Duration("scheduler.tick", def.Scheduler.Tick, "Coordinator tick interval")
	flags.Duration("scheduler.retention", def.Scheduler.Retention, "How long terminal jobs stay queryable")
	flags.Int("scheduler.pool_size", def.Scheduler.PoolSize, "Worker pool size for blocking handlers")
}

// Validate checks the merged configuration for values the scheduler
// cannot run with.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Server.Port)
	}
	if c.Scheduler.Tick <= 0 {
		return fmt.Errorf("invalid scheduler tick %s: must be positive", c.Scheduler.Tick)
	}
	if c.Scheduler.Retention <= 0 {
		return fmt.Errorf("invalid scheduler retention %s: must be positive", c.Scheduler.Retention)
	}
	for _, q := range c.Scheduler.Queues {
		if q.Name == "" {
			return fmt.Errorf("queue with empty name in scheduler.queues")
		}
		if q.MaxWorkers <= 0 {
			return fmt.Errorf("queue %s: max_workers must be positive, got %d", q.Name, q.MaxWorkers)
		}
	}
	return nil
}

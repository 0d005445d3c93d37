// Package config loads and merges application configuration from
// defaults, a YAML file, environment variables and command-line flags.
package config

import "time"

// Config is the root configuration structure for the Taskdeck application.
type Config struct {
	Log       LogConfig       `description:"Logging configuration" koanf:"log"`
	Server    ServerConfig    `description:"HTTP server configuration" koanf:"server"`
	Scheduler SchedulerConfig `description:"Job scheduler configuration" koanf:"scheduler"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level (debug, info, warn, error)" koanf:"level"`
	Format string `description:"Log format: json | text" koanf:"format"`
	File   string `description:"Log file path (optional)" koanf:"file"`
}

// ServerConfig holds configuration for the HTTP status surface.
type ServerConfig struct {
	Addr         string        `description:"Server listen address" koanf:"addr"`
	Port         int           `description:"Server listen port" koanf:"port"`
	APIEnabled   bool          `description:"Enable REST API endpoints" koanf:"api_enabled"`
	ReadTimeout  time.Duration `description:"HTTP read timeout" koanf:"read_timeout"`
	WriteTimeout time.Duration `description:"HTTP write timeout" koanf:"write_timeout"`
}

// SchedulerConfig holds configuration for the scheduler core.
type SchedulerConfig struct {
	Tick      time.Duration `description:"Coordinator tick interval" koanf:"tick"`
	Retention time.Duration `description:"How long terminal jobs stay queryable" koanf:"retention"`
	PoolSize  int           `description:"Worker pool size for blocking handlers" koanf:"pool_size"`
	Queues    []QueueConfig `description:"Queues to create at startup" koanf:"queues"`
}

// QueueConfig declares one queue created at startup.
type QueueConfig struct {
	Name       string `description:"Queue name" koanf:"name"`
	MaxWorkers int    `description:"Concurrency ceiling for this queue" koanf:"max_workers"`
}

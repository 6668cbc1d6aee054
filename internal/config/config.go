package config

import (
	"time"
)

// Config is the root configuration for the LeadForge engine.
type Config struct {
	Core      CoreConfig      `mapstructure:"core" yaml:"core" validate:"required"`
	Database  DBConfig        `mapstructure:"database" yaml:"database" validate:"required"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Scoring   ScoringConfig   `mapstructure:"scoring" yaml:"scoring"`
	Processor ProcessorConfig `mapstructure:"processor" yaml:"processor" validate:"required"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch" yaml:"dispatch"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	HomeDir string `mapstructure:"home_dir" yaml:"home_dir"`
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	Debug   bool   `mapstructure:"debug" yaml:"debug"`
}

// DBConfig contains database configuration.
type DBConfig struct {
	Path           string        `mapstructure:"path" yaml:"path" validate:"required"`
	MaxConnections int           `mapstructure:"max_connections" yaml:"max_connections" validate:"min=1,max=100"`
	BusyTimeout    time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout" validate:"min=1ms"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ScoringConfig contains score-calculator settings.
type ScoringConfig struct {
	// Locale selects the keyword dictionary set: "en", "fil", or "mixed".
	// Mixed-language scoring is the default because prospect text routinely
	// blends English and Filipino.
	Locale string `mapstructure:"locale" yaml:"locale"`
	// UserPersonality is the owning user's social style, one of driver,
	// analytical, amiable, or expressive. It is matched against each
	// prospect's declared style; empty scores the neutral midpoint.
	UserPersonality string `mapstructure:"user_personality" yaml:"user_personality"`
}

// ProcessorConfig contains step-processor settings.
type ProcessorConfig struct {
	// Interval is the cadence of the periodic batch run.
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"min=1s"`
	// BatchSize caps how many due executions one invocation picks up.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size" validate:"min=1,max=1000"`
	// Workers bounds per-invocation parallelism across executions.
	Workers int `mapstructure:"workers" yaml:"workers" validate:"min=1,max=64"`
	// SendTimeout bounds a single channel send.
	SendTimeout time.Duration `mapstructure:"send_timeout" yaml:"send_timeout" validate:"min=1s"`
}

// DispatchConfig contains channel-sending settings.
type DispatchConfig struct {
	// RatePerSecond limits outbound sends across all channels.
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	// Burst is the rate limiter burst size.
	Burst int `mapstructure:"burst" yaml:"burst"`
	// DefaultChannel is used when neither the step nor the template names one.
	DefaultChannel string `mapstructure:"default_channel" yaml:"default_channel"`
	// DisabledChannels lists channels that must not be used for sending.
	DisabledChannels []string `mapstructure:"disabled_channels" yaml:"disabled_channels,omitempty"`
}

// ChannelDisabled reports whether the named channel is disabled by configuration.
func (d DispatchConfig) ChannelDisabled(channel string) bool {
	for _, c := range d.DisabledChannels {
		if c == channel {
			return true
		}
	}
	return false
}

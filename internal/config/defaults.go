package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := DefaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir: homeDir,
			DataDir: filepath.Join(homeDir, "data"),
			Debug:   false,
		},
		Database: DBConfig{
			Path:           filepath.Join(homeDir, "leadforge.db"),
			MaxConnections: 10,
			BusyTimeout:    5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Scoring: ScoringConfig{
			Locale: "mixed",
		},
		Processor: ProcessorConfig{
			Interval:    5 * time.Minute,
			BatchSize:   50,
			Workers:     4,
			SendTimeout: 30 * time.Second,
		},
		Dispatch: DispatchConfig{
			RatePerSecond:  5,
			Burst:          10,
			DefaultChannel: "messenger",
		},
	}
}

// DefaultHomeDir returns the default LeadForge home directory.
// It uses ~/.leadforge or falls back to a temporary directory if the user
// home cannot be determined.
func DefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".leadforge")
	}
	return filepath.Join(userHome, ".leadforge")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leadforge/leadforge/internal/config"
)

var (
	flagHomeDir    string
	flagConfigFile string

	// populated by loadConfig before command Run functions execute
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "leadforge",
	Short: "LeadForge - lead scoring and adaptive follow-up scheduling",
	Long: `LeadForge scores prospects from observable signals, selects a
nurture pathway for each, and drives durable, condition-gated follow-up
sequences over messenger, SMS, and email.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func homeDir() string {
	if flagHomeDir != "" {
		return flagHomeDir
	}
	if env := os.Getenv("LEADFORGE_HOME"); env != "" {
		return env
	}
	return config.DefaultHomeDir()
}

func configPath() string {
	if flagConfigFile != "" {
		return flagConfigFile
	}
	return filepath.Join(homeDir(), "config.yaml")
}

// loadConfig runs before every command. A missing config file falls back
// to defaults so commands work right after install; init creates it.
func loadConfig(cmd *cobra.Command, args []string) error {
	loader := config.NewConfigLoader(config.NewValidator())
	cfg, err := loader.LoadWithDefaults(configPath())
	if err != nil {
		return err
	}

	home := homeDir()
	cfg.Core.HomeDir = home
	if flagHomeDir != "" || os.Getenv("LEADFORGE_HOME") != "" {
		cfg.Core.DataDir = filepath.Join(home, "data")
		cfg.Database.Path = filepath.Join(home, "leadforge.db")
	}

	appConfig = cfg
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHomeDir, "home", "", "LeadForge home directory (default ~/.leadforge)")
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "Config file path (default <home>/config.yaml)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(prospectCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(pathwayCmd)
	rootCmd.AddCommand(materializeCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(sequencesCmd)
	rootCmd.AddCommand(engageCmd)
	rootCmd.AddCommand(statusCmd)
}

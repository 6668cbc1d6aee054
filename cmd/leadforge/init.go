package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leadforge/leadforge/internal/sequence"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the LeadForge home directory and database",
	Long: `Creates the home directory, writes a default config file, opens
the database, applies migrations, and installs the built-in sequences
and message templates.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	home := homeDir()
	if err := os.MkdirAll(filepath.Join(home, "data"), 0755); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	// write the config file only if absent so re-init never clobbers edits
	cfgPath := configPath()
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		data, err := yaml.Marshal(appConfig)
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		if err := os.WriteFile(cfgPath, data, 0600); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		cmd.Printf("Created config file %s\n", cfgPath)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	installer := sequence.NewInstaller(a.registry, a.logger)
	if err := installer.Install(cmd.Context(), a.userID); err != nil {
		return err
	}

	cmd.Printf("Initialized LeadForge home at %s\n", home)
	cmd.Printf("Database: %s\n", appConfig.Database.Path)
	cmd.Printf("User ID:  %s\n", a.userID)
	return nil
}

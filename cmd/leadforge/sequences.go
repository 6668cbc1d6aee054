package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var sequencesCmd = &cobra.Command{
	Use:   "sequences",
	Short: "Manage outreach sequence definitions",
}

var sequencesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sequence definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		defs, err := a.registry.List(cmd.Context(), a.userID)
		if err != nil {
			return err
		}
		if len(defs) == 0 {
			cmd.Println("No sequences. Run 'leadforge init' to install the defaults.")
			return nil
		}

		for _, def := range defs {
			state := "inactive"
			if def.Active {
				state = "active"
			}
			cmd.Printf("%-16s v%d  %-8s  %d steps\n", def.Name, def.Version, state, len(def.Steps))
			for _, step := range def.Steps {
				cmd.Printf("    %d. +%s  %-12s  %s\n",
					step.StepOrder, formatDelay(step.Delay), step.ConditionType, step.TemplateKey)
			}
		}
		return nil
	},
}

var sequencesInstallCmd = &cobra.Command{
	Use:   "install <file>",
	Short: "Install a sequence definition from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		def, err := a.registry.RegisterFile(cmd.Context(), a.userID, args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Installed sequence %s v%d with %d steps\n", def.Name, def.Version, len(def.Steps))
		return nil
	},
}

func formatDelay(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	if d%(24*time.Hour) == 0 {
		return strconv.Itoa(int(d/(24*time.Hour))) + "d"
	}
	return d.String()
}

func init() {
	sequencesCmd.AddCommand(sequencesListCmd)
	sequencesCmd.AddCommand(sequencesInstallCmd)
}

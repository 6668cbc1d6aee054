package main

import (
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process one batch of due follow-up steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.processor.ProcessDue(cmd.Context())
		if err != nil {
			return err
		}

		cmd.Printf("Due: %d  Sent: %d  Skipped: %d  Failed: %d\n",
			result.Due, result.Sent, result.Skipped, result.Failed)
		return nil
	},
}

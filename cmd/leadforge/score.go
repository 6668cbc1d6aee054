package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/leadforge/leadforge/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score <prospect-id>",
	Short: "Score a prospect and persist the snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProspectID(args[0])
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		prospect, err := a.prospects.GetByID(cmd.Context(), id)
		if err != nil {
			return err
		}

		snapshot, err := a.calculator.Score(cmd.Context(),
			scoring.SignalsFromProspect(prospect, a.userPersonality))
		if err != nil {
			if !persistWarning(err) {
				return err
			}
			cmd.PrintErrf("Warning: %v\n", err)
		}

		cmd.Printf("Composite score: %d\n", snapshot.CompositeScore)
		cmd.Printf("  intent      %d\n", snapshot.IntentScore)
		cmd.Printf("  financial   %d\n", snapshot.FinancialScore)
		cmd.Printf("  engagement  %d\n", snapshot.EngagementScore)
		cmd.Printf("  personality %d\n", snapshot.PersonalityScore)
		cmd.Printf("  vouch       %d\n", snapshot.VouchScore)

		if verbose, _ := cmd.Flags().GetBool("breakdown"); verbose && len(snapshot.Breakdown) > 0 {
			var pretty json.RawMessage = snapshot.Breakdown
			out, err := json.MarshalIndent(pretty, "", "  ")
			if err == nil {
				cmd.Println(string(out))
			}
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().Bool("breakdown", false, "Print the full scoring breakdown as JSON")
}

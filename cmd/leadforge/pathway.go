package main

import (
	"github.com/spf13/cobra"

	"github.com/leadforge/leadforge/internal/scoring"
)

var pathwayCmd = &cobra.Command{
	Use:   "pathway <prospect-id>",
	Short: "Score a prospect and select its nurture pathway",
	Long: `Recomputes the prospect's score, selects the matching pathway,
and replaces the stored one. Pending follow-up steps scheduled under the
previous pathway are superseded.`,
	Args: cobra.ExactArgs(1),
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

		pw, err := a.selector.Apply(cmd.Context(), prospect.ID, prospect.UserID,
			prospect.Temperature, snapshot.CompositeScore)
		if err != nil {
			if !persistWarning(err) {
				return err
			}
			cmd.PrintErrf("Warning: %v\n", err)
		}

		cmd.Printf("Composite score: %d (%s)\n", snapshot.CompositeScore, prospect.Temperature)
		cmd.Printf("Pathway: %s\n", pw.SequenceKey)
		for _, step := range pw.Steps {
			cmd.Printf("  day %2d: %s\n", step.Day, step.Action)
		}
		cmd.Printf("Next action: %s (due %s)\n", pw.NextAction, pw.NextActionDue.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

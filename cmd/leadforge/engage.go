package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadforge/leadforge/internal/database"
)

var engageSource string

var engageCmd = &cobra.Command{
	Use:   "engage <prospect-id> <event>",
	Short: "Record an engagement milestone for a prospect",
	Long: `Appends an engagement event to the prospect's log. Events gate
conditional follow-up steps: a reply suppresses no_reply steps, a booked
meeting suppresses no_meeting steps, and so on.

Events: reply_received, meeting_booked, deal_closed, message_opened.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProspectID(args[0])
		if err != nil {
			return err
		}

		event := database.EngagementEventType(args[1])
		if !database.ValidEngagementEventType(event) {
			return fmt.Errorf("unknown event %q", args[1])
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		// make sure the prospect exists before appending to its log
		if _, err := a.prospects.GetByID(cmd.Context(), id); err != nil {
			return err
		}

		if err := a.tracker.Record(cmd.Context(), id, event, engageSource); err != nil {
			return err
		}
		cmd.Printf("Recorded %s for prospect %s\n", event, id)
		return nil
	},
}

func init() {
	engageCmd.Flags().StringVar(&engageSource, "source", "manual", "Where the event was observed")
}

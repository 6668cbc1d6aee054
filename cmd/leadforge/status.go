package main

import (
	"github.com/spf13/cobra"

	"github.com/leadforge/leadforge/internal/database"
)

var statusCmd = &cobra.Command{
	Use:   "status <prospect-id>",
	Short: "Show score, pathway, engagement, and step status for a prospect",
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
		ctx := cmd.Context()

		prospect, err := a.prospects.GetByID(ctx, id)
		if err != nil {
			return err
		}
		cmd.Printf("Prospect: %s (%s)\n", prospect.FirstName, prospect.ID)
		if prospect.Temperature != "" {
			cmd.Printf("Temperature: %s\n", prospect.Temperature)
		}

		if snapshot, err := a.snapshots.Latest(ctx, id); err == nil {
			cmd.Printf("Score: %d (intent %d, financial %d, engagement %d, personality %d, vouch %d)\n",
				snapshot.CompositeScore, snapshot.IntentScore, snapshot.FinancialScore,
				snapshot.EngagementScore, snapshot.PersonalityScore, snapshot.VouchScore)
		} else {
			cmd.Println("Score: not yet computed")
		}

		if pw, err := a.pathways.GetByProspect(ctx, id); err == nil {
			cmd.Printf("Pathway: %s, next action %q due %s\n",
				pw.SequenceKey, pw.NextAction, pw.NextActionDue.Local().Format("2006-01-02 15:04"))
		} else {
			cmd.Println("Pathway: none selected")
		}

		engStatus, err := a.tracker.StatusFor(ctx, id)
		if err != nil {
			return err
		}
		cmd.Printf("Engagement: started=%t replied=%t meeting=%t closed=%t opened=%t (%d events)\n",
			engStatus.SequenceStarted, engStatus.Replied, engStatus.MeetingBooked,
			engStatus.DealClosed, engStatus.MessageOpened, engStatus.EventCount)

		counts, err := a.executions.CountByStatus(ctx, id)
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			cmd.Println("Steps: none materialized")
			return nil
		}
		cmd.Printf("Steps: pending=%d sent=%d skipped=%d failed=%d superseded=%d\n",
			counts[database.DeliveryPending], counts[database.DeliverySent],
			counts[database.DeliverySkipped], counts[database.DeliveryFailed],
			counts[database.DeliverySuperseded])

		stalled, err := a.executions.CountStalled(ctx, id)
		if err != nil {
			return err
		}
		if stalled > 0 {
			cmd.Printf("Stalled: %d step(s) claimed but never completed; inspect and re-materialize\n", stalled)
		}

		executions, err := a.executions.ListByProspect(ctx, id)
		if err != nil {
			return err
		}
		for _, e := range executions {
			line := string(e.DeliveryStatus)
			switch e.DeliveryStatus {
			case database.DeliverySkipped:
				line += " (" + e.SkipReason + ")"
			case database.DeliveryFailed:
				line += " (" + e.ErrorMessage + ")"
			case database.DeliveryPending:
				if e.Attempts > 0 {
					line += " (stalled)"
				}
			}
			cmd.Printf("  step %d  %-24s  %s  %s\n",
				e.StepOrder, e.TemplateKey,
				e.ScheduledFor.Local().Format("2006-01-02 15:04"), line)
		}
		return nil
	},
}

package main

import (
	"github.com/spf13/cobra"
)

var materializeCmd = &cobra.Command{
	Use:   "materialize <prospect-id> [sequence]",
	Short: "Materialize a sequence into scheduled follow-up steps",
	Long: `Creates one pending step execution per sequence step. When the
sequence name is omitted, the prospect's selected pathway decides it.`,
	Args: cobra.RangeArgs(1, 2),
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

		var name string
		if len(args) == 2 {
			name = args[1]
		} else {
			pw, err := a.pathways.GetByProspect(cmd.Context(), id)
			if err != nil {
				return err
			}
			name = pw.SequenceKey
		}

		executions, err := a.materializer.MaterializeByName(cmd.Context(), id, name)
		if err != nil {
			return err
		}

		cmd.Printf("Materialized %d steps of %s\n", len(executions), name)
		for _, e := range executions {
			cmd.Printf("  step %d  %-24s  %s  (%s)\n",
				e.StepOrder, e.TemplateKey,
				e.ScheduledFor.Local().Format("2006-01-02 15:04"),
				e.ConditionType)
		}
		return nil
	},
}

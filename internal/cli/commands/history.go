package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(app *App) *cobra.Command {
	var limit int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transformation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.Engine()
			if err != nil {
				return err
			}
			defer eng.Close()

			runs, err := eng.RunHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Run", "Status", "Started", "Duration", "Models"})
			for _, run := range runs {
				duration := "-"
				if run.CompletedAt != nil {
					duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
				}
				t.AppendRow(table.Row{
					shortID(run.ID), run.Status,
					run.StartedAt.Format(time.RFC3339), duration, len(run.Models),
				})
			}
			t.Render()

			if verbose {
				for _, run := range runs {
					fmt.Fprintf(out, "\n%s:\n", shortID(run.ID))
					for _, mr := range run.Models {
						fmt.Fprintf(out, "  %-18s %s\n", mr.Status, mr.ModelPath)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "number of runs to show")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show per-model outcomes")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

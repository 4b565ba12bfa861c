package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(app *App) *cobra.Command {
	var namespace string
	var summary bool
	var describe string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List registered tables and models",
		Example: `  # Everything
  queryverse catalog

  # Only the raw schema
  queryverse catalog --namespace raw

  # High-level totals
  queryverse catalog --summary

  # Engine schema for one relation
  queryverse catalog --describe raw.orders`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.Engine()
			if err != nil {
				return err
			}
			defer eng.Close()

			out := cmd.OutOrStdout()
			if describe != "" {
				meta, err := eng.Describe(cmd.Context(), describe)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "%s.%s (%d rows)\n", meta.Schema, meta.Name, meta.RowCount)
				t := table.NewWriter()
				t.SetOutputMirror(out)
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"Column", "Type", "Nullable"})
				for _, col := range meta.Columns {
					t.AppendRow(table.Row{col.Name, col.Type, col.Nullable})
				}
				t.Render()
				return nil
			}
			if summary {
				s := eng.Analytics()
				fmt.Fprintf(out, "Raw tables:  %d\n", s.RawTables)
				fmt.Fprintf(out, "Models:      %d\n", s.Models)
				fmt.Fprintf(out, "Total rows:  %d\n", s.TotalRows)
				fmt.Fprintf(out, "Namespaces:  %s\n", strings.Join(s.Namespaces, ", "))
				return nil
			}

			entries := eng.Catalog().List(namespace)
			if len(entries) == 0 {
				fmt.Fprintln(out, "Catalog is empty.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Kind", "Detail", "Rows"})
			for _, entry := range entries {
				switch e := entry.(type) {
				case *core.RawTable:
					t.AppendRow(table.Row{
						e.Name, "raw",
						fmt.Sprintf("%d cols, strategy %s", len(e.Columns), e.Strategy),
						e.RowCount,
					})
				case *core.ModelEntry:
					t.AppendRow(table.Row{e.Name, "model", e.Materialized, e.RowCount})
				}
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "restrict listing to one schema")
	cmd.Flags().BoolVar(&summary, "summary", false, "print warehouse totals instead of the listing")
	cmd.Flags().StringVar(&describe, "describe", "", "print the engine schema for one qualified relation")
	return cmd
}

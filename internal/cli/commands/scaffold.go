package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/architadhande/queryverse-data-platform/internal/ingest"
)

// NewScaffoldCommand creates the scaffold command.
func NewScaffoldCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scaffold <raw-table>",
		Short: "Generate a staging model for an ingested table",
		Long: `Write a staging model file over a registered raw table. The generated
model selects every column and adds _loaded_at and _source_table
provenance columns.`,
		Example: `  queryverse scaffold raw.orders
  queryverse scaffold orders`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !strings.Contains(name, ".") {
				name = ingest.RawNamespace + "." + name
			}

			eng, err := app.Engine()
			if err != nil {
				return err
			}
			defer eng.Close()

			path, err := eng.Scaffold(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

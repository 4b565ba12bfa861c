package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/architadhande/queryverse-data-platform/internal/engine"
	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(app *App) *cobra.Command {
	var maxRows int
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Run an ad-hoc SQL query against the engine",
		Long: `Execute a read query against the analytical engine. Results are bounded
by row count and execution time. Without an argument an interactive
prompt opens.`,
		Example: `  # One-shot query
  queryverse query "select * from marts.daily_revenue limit 10"

  # Interactive prompt
  queryverse query`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.Engine()
			if err != nil {
				return err
			}
			defer eng.Close()

			limits := core.QueryLimits{MaxRows: maxRows, Timeout: timeout}
			if len(args) == 1 {
				return runQuery(cmd, eng, args[0], limits)
			}
			return runQueryREPL(cmd, app, eng, limits)
		},
	}

	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "maximum rows to return (0 = configured default)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "query timeout (0 = configured default)")
	return cmd
}

func runQuery(cmd *cobra.Command, eng *engine.Engine, sql string, limits core.QueryLimits) error {
	result, err := eng.Query(cmd.Context(), sql, limits)
	if err != nil {
		return err
	}
	renderResult(cmd.OutOrStdout(), result)
	return nil
}

func renderResult(out io.Writer, result *core.QueryResult) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	if !isTerminal(out) {
		t.SetStyle(table.StyleDefault)
	} else {
		t.SetStyle(table.StyleLight)
	}

	header := make(table.Row, len(result.Columns))
	for i, c := range result.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, row := range result.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			if v == nil {
				r[i] = "NULL"
			} else {
				r[i] = v
			}
		}
		t.AppendRow(r)
	}
	t.Render()

	suffix := ""
	if result.Truncated {
		suffix = " (truncated)"
	}
	fmt.Fprintf(out, "%d rows%s in %s\n",
		len(result.Rows), suffix, result.Elapsed.Round(time.Millisecond))
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

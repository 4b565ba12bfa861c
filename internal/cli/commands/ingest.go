package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/architadhande/queryverse-data-platform/internal/ingest"
	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// NewIngestCommand creates the ingest command.
func NewIngestCommand(app *App) *cobra.Command {
	var target string
	var format string
	var delimiter string
	var sheet string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a tabular file into the raw schema",
		Long: `Parse a delimited or spreadsheet file, infer column types, and load it
as a typed table under the raw schema. Malformed files fall through a
chain of progressively more tolerant parsing strategies.`,
		Example: `  # Ingest a CSV, table name derived from the filename
  queryverse ingest uploads/orders.csv

  # Ingest a spreadsheet under an explicit name
  queryverse ingest q3.xlsx --target quarterly_sales`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			hint, err := formatHint(format, path)
			if err != nil {
				return err
			}
			if target == "" {
				base := filepath.Base(path)
				target = strings.TrimSuffix(base, filepath.Ext(base))
			}

			eng, err := app.Engine()
			if err != nil {
				return err
			}
			defer eng.Close()

			opts := ingest.Options{TargetName: target, Sheet: sheet}
			if delimiter != "" {
				r := []rune(delimiter)
				if len(r) != 1 {
					return fmt.Errorf("delimiter must be a single character, got %q", delimiter)
				}
				opts.Delimiter = r[0]
			}

			table, err := eng.Ingest(cmd.Context(), filepath.Base(path), data, hint, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ingested %s as %s (%d rows, %d columns, strategy: %s)\n",
				path, table.Name, table.RowCount, len(table.Columns), table.Strategy)
			for _, w := range table.Warnings {
				fmt.Fprintf(out, "  warning: %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "table name under the raw schema (default: filename)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "input format: delimited or spreadsheet (default: by extension)")
	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", "", "declared field delimiter for delimited input (default: sniffed)")
	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "sheet name for spreadsheet input (default: first sheet)")
	return cmd
}

// formatHint resolves the format from the flag or the file extension.
func formatHint(flag, path string) (core.FormatHint, error) {
	switch flag {
	case "":
	case string(core.FormatDelimited):
		return core.FormatDelimited, nil
	case string(core.FormatSpreadsheet):
		return core.FormatSpreadsheet, nil
	default:
		return "", &core.UnsupportedFormatError{Hint: flag}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return core.FormatSpreadsheet, nil
	default:
		return core.FormatDelimited, nil
	}
}

// Package cli provides the command-line interface for QueryVerse.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/architadhande/queryverse-data-platform/internal/cli/commands"
	"github.com/architadhande/queryverse-data-platform/internal/config"

	// Register database adapters.
	_ "github.com/architadhande/queryverse-data-platform/pkg/adapters/duckdb"
	_ "github.com/architadhande/queryverse-data-platform/pkg/adapters/postgres"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	app := &commands.App{}

	rootCmd := &cobra.Command{
		Use:   "queryverse",
		Short: "QueryVerse - file ingestion and SQL transformation platform",
		Long: `QueryVerse ingests tabular files of uncertain quality into an embedded
analytical engine and runs SQL transformation models over them in
dependency order, with quality tests, lineage, and run history.`,
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			if root := config.FindProjectRoot(dir); root != "" {
				dir = root
			}

			cfg, err := config.Load(dir, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			app.Config = cfg
			app.Logger = newLogger(cfg.LogLevel)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("models_dir", "", "directory holding model .sql files")
	flags.String("state_path", "", "path to the state database")
	flags.String("log_level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		commands.NewIngestCommand(app),
		commands.NewRunCommand(app),
		commands.NewQueryCommand(app),
		commands.NewCatalogCommand(app),
		commands.NewHistoryCommand(app),
		commands.NewScaffoldCommand(app),
	)
	return rootCmd
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

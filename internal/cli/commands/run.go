package commands

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/architadhande/queryverse-data-platform/internal/engine"
	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// watchDebounce coalesces bursts of file events into one run.
const watchDebounce = 300 * time.Millisecond

// NewRunCommand creates the run command.
func NewRunCommand(app *App) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "run [model ...]",
		Short: "Execute transformation models in dependency order",
		Long: `Build the model dependency graph and execute every model in topological
order, materializing views and tables and evaluating attached quality
tests. Naming models limits the run to them plus their upstream
dependencies.`,
		Example: `  # Run everything
  queryverse run

  # Run one model and its upstream dependencies
  queryverse run daily_revenue

  # Re-run automatically when model files change
  queryverse run --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.Engine()
			if err != nil {
				return err
			}
			defer eng.Close()

			if watch {
				return watchAndRun(cmd, app, eng, args)
			}
			return runOnce(cmd, eng, args)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-run when model files change")
	return cmd
}

func runOnce(cmd *cobra.Command, eng *engine.Engine, selector []string) error {
	run, err := eng.Run(cmd.Context(), selector...)
	if err != nil {
		return err
	}

	printRun(cmd, run)
	if run.Status == core.RunStatusFailed {
		return fmt.Errorf("run %s failed", run.ID)
	}
	return nil
}

func printRun(cmd *cobra.Command, run *core.Run) {
	out := cmd.OutOrStdout()
	for _, mr := range run.Models {
		switch mr.Status {
		case core.ModelRunStatusSucceeded:
			fmt.Fprintf(out, "  ok   %-40s %6d rows  %s\n",
				mr.ModelPath, mr.RowCount, mr.Duration.Round(time.Millisecond))
		case core.ModelRunStatusFailedTests:
			fmt.Fprintf(out, "  warn %-40s tests failed\n", mr.ModelPath)
			for _, tr := range mr.Tests {
				if !tr.Passed {
					fmt.Fprintf(out, "         %s: %s\n", tr.Name, tr.Detail)
				}
			}
		case core.ModelRunStatusFailedExecution:
			fmt.Fprintf(out, "  FAIL %-40s %s\n", mr.ModelPath, mr.Error)
		case core.ModelRunStatusSkipped:
			fmt.Fprintf(out, "  skip %-40s\n", mr.ModelPath)
		}
	}

	var elapsed time.Duration
	if run.CompletedAt != nil {
		elapsed = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond)
	}
	fmt.Fprintf(out, "Run %s: %s (%d models, %s)\n", run.ID, run.Status, len(run.Models), elapsed)
}

// watchAndRun re-executes the run whenever a model file changes,
// coalescing event bursts. It returns when the context is cancelled.
func watchAndRun(cmd *cobra.Command, app *App, eng *engine.Engine, selector []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchRecursive(watcher, app.Config.ModelsDir); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %s for changes\n", app.Config.ModelsDir)

	if err := runOnce(cmd, eng, selector); err != nil {
		fmt.Fprintf(out, "run failed: %v\n", err)
	}

	ctx := cmd.Context()
	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			// New subdirectories need watching too.
			if event.Op.Has(fsnotify.Create) {
				_ = watchRecursive(watcher, event.Name)
			}
			if timer == nil {
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(watchDebounce)
			}

		case <-pending:
			timer = nil
			fmt.Fprintln(out, "Change detected, re-running")
			if err := runOnce(cmd, eng, selector); err != nil {
				fmt.Fprintf(out, "run failed: %v\n", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		}
	}
}

func relevantEvent(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Create) {
		return true
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".sql")
}

func watchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

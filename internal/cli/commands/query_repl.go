package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/architadhande/queryverse-data-platform/internal/engine"
	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

const replPrompt = "queryverse> "
const replContinuation = "       ...> "

// runQueryREPL drives an interactive query loop. Statements end with a
// semicolon; dot-commands are handled locally.
func runQueryREPL(cmd *cobra.Command, app *App, eng *engine.Engine, limits core.QueryLimits) error {
	historyFile := filepath.Join(filepath.Dir(app.Config.StatePath), ".queryverse_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize prompt: %w", err)
	}
	defer rl.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "QueryVerse interactive query. Type .help for commands, .quit to exit.")

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(cmd, eng, line); quit {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString(" ")
			rl.SetPrompt(replContinuation)
			continue
		}
		rl.SetPrompt(replPrompt)

		sql := strings.TrimSuffix(strings.TrimSpace(buf.String()), ";")
		buf.Reset()

		if err := runQuery(cmd, eng, sql, limits); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

// handleDotCommand executes a local REPL command and reports whether
// the loop should exit.
func handleDotCommand(cmd *cobra.Command, eng *engine.Engine, line string) bool {
	out := cmd.OutOrStdout()
	switch line {
	case ".quit", ".exit":
		return true
	case ".tables":
		for _, entry := range eng.Catalog().List("") {
			fmt.Fprintf(out, "%s (%s)\n", entry.QualifiedName(), entry.EntryKind())
		}
	case ".help":
		fmt.Fprintln(out, "  .tables    list cataloged tables and models")
		fmt.Fprintln(out, "  .quit      exit")
		fmt.Fprintln(out, "  <sql>;     execute a query (statements end with a semicolon)")
	default:
		fmt.Fprintf(out, "unknown command %s (try .help)\n", line)
	}
	return false
}

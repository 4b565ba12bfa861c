// Package commands implements the queryverse subcommands.
package commands

import (
	"log/slog"

	"github.com/architadhande/queryverse-data-platform/internal/config"
	"github.com/architadhande/queryverse-data-platform/internal/engine"
)

// App carries the loaded configuration and logger into subcommands. The
// root command fills it in before any RunE executes.
type App struct {
	Config *config.Config
	Logger *slog.Logger
}

// Engine assembles an engine from the loaded configuration. The caller
// owns Close.
func (a *App) Engine() (*engine.Engine, error) {
	return engine.New(a.Config, a.Logger)
}

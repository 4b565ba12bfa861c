// This file registers the PostgreSQL adapter with the adapter registry.
package postgres

import (
	"log/slog"

	"github.com/architadhande/queryverse-data-platform/pkg/adapter"
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

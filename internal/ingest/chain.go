// Package ingest turns uploaded tabular files of uncertain quality into
// typed tables in the analytical engine. Parsing is a chain of
// strategies tried in a fixed priority order; each is cheap to attempt
// and raises a recoverable error that triggers fallthrough to the next.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Source is the input to a parsing strategy attempt.
type Source struct {
	// ID identifies the uploaded file in errors and lineage.
	ID string
	// Data is the raw file content.
	Data []byte
	// Delimiter is the declared delimiter, or zero to default to comma.
	Delimiter rune
	// Sheet optionally names the spreadsheet sheet to read.
	Sheet string
}

// Strategy is one parsing attempt over raw bytes. A failed attempt
// returns a recoverable error; the chain falls through to the next.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, src *Source) (*core.Grid, *core.ParseMeta, error)
}

// Chain is an ordered fallback list of parsing strategies.
type Chain struct {
	strategies []Strategy
	timeout    time.Duration
	logger     *slog.Logger
}

// NewChain builds the strategy chain for the given format hint.
// Delimited input runs strict, sniffing, lenient, then encoding
// fallback; spreadsheet input has a single strategy.
func NewChain(hint core.FormatHint, attemptTimeout time.Duration, logger *slog.Logger) (*Chain, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var strategies []Strategy
	switch hint {
	case core.FormatDelimited:
		strategies = []Strategy{
			&strictStrategy{},
			&sniffStrategy{},
			&lenientStrategy{},
			&encodingStrategy{},
		}
	case core.FormatSpreadsheet:
		strategies = []Strategy{
			&spreadsheetStrategy{},
		}
	default:
		return nil, &core.UnsupportedFormatError{Hint: string(hint)}
	}

	return &Chain{
		strategies: strategies,
		timeout:    attemptTimeout,
		logger:     logger,
	}, nil
}

// Parse runs the chain until a strategy succeeds. Every failure is
// recorded; exhaustion yields a single aggregated ParseFailureError
// listing each strategy's reason.
func (c *Chain) Parse(ctx context.Context, src *Source) (*core.Grid, *core.ParseMeta, error) {
	// An empty file is a zero-row, zero-column table, not a failure.
	if len(src.Data) == 0 {
		return &core.Grid{}, &core.ParseMeta{Strategy: "empty"}, nil
	}

	var attempts []*core.StrategyError
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		grid, meta, err := c.attempt(ctx, s, src)
		if err != nil {
			c.logger.Debug("strategy failed", "strategy", s.Name(), "source", src.ID, "error", err)
			attempts = append(attempts, &core.StrategyError{Strategy: s.Name(), Err: err})
			continue
		}

		c.logger.Debug("strategy succeeded",
			"strategy", s.Name(), "source", src.ID,
			"rows", len(grid.Rows), "columns", len(grid.Columns))
		meta.Strategy = s.Name()
		return grid, meta, nil
	}

	return nil, nil, &core.ParseFailureError{SourceID: src.ID, Attempts: attempts}
}

// attempt bounds a single strategy by the configured timeout. A timeout
// is that attempt's failure only.
func (c *Chain) attempt(ctx context.Context, s Strategy, src *Source) (*core.Grid, *core.ParseMeta, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	grid, meta, err := s.Attempt(ctx, src)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil, &core.TimeoutError{
				Unit:    fmt.Sprintf("strategy %s", s.Name()),
				Elapsed: time.Since(start).Round(time.Millisecond).String(),
			}
		}
		return nil, nil, err
	}
	return grid, meta, nil
}

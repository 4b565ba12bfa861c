package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// strictStrategy parses delimited text with standard quoting and a
// uniform field count. Ragged rows and invalid encodings are recoverable
// failures that push the file down the chain.
type strictStrategy struct{}

func (s *strictStrategy) Name() string { return "strict" }

func (s *strictStrategy) Attempt(ctx context.Context, src *Source) (*core.Grid, *core.ParseMeta, error) {
	delim := src.Delimiter
	if delim == 0 {
		delim = ','
	}
	grid, meta, err := parseStrict(ctx, src.Data, delim)
	if err != nil {
		return nil, nil, err
	}
	// A single-column result from an assumed comma usually means the
	// file uses some other delimiter. Fall through to the sniffer.
	if src.Delimiter == 0 && len(grid.Columns) == 1 {
		return nil, nil, fmt.Errorf("assumed delimiter %q produced a single column", delim)
	}
	return grid, meta, nil
}

// parseStrict is shared by the strict, sniffing, and encoding-fallback
// strategies; they differ only in how delimiter and bytes are chosen.
func parseStrict(ctx context.Context, data []byte, delim rune) (*core.Grid, *core.ParseMeta, error) {
	if !utf8.Valid(data) {
		return nil, nil, fmt.Errorf("content is not valid UTF-8")
	}

	r := csv.NewReader(bytes.NewReader(stripBOM(data)))
	r.Comma = delim
	// FieldsPerRecord defaults to the first record's count; any ragged
	// row is an error here and falls through to the lenient strategy.

	header, err := r.Read()
	if err == io.EOF {
		return &core.Grid{}, &core.ParseMeta{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	grid := &core.Grid{Columns: normalizeHeader(header)}
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", len(grid.Rows)+2, err)
		}
		grid.Rows = append(grid.Rows, recordToCells(record, len(grid.Columns)))
	}

	return grid, &core.ParseMeta{}, nil
}

// recordToCells maps fields to cells; empty fields load as SQL NULL.
func recordToCells(record []string, width int) []core.Cell {
	cells := make([]core.Cell, width)
	for i := range cells {
		if i < len(record) && record[i] != "" {
			cells[i] = core.StringCell(record[i])
		} else {
			cells[i] = core.NullCell()
		}
	}
	return cells
}

// stripBOM removes a leading UTF-8 byte order mark.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

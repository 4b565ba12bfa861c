package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// lenientStrategy tolerates ragged rows: short rows are padded with
// nulls and overflow fields are merged into the last declared column.
// Each repaired row gets a warning, never a failure.
type lenientStrategy struct{}

func (s *lenientStrategy) Name() string { return "lenient" }

func (s *lenientStrategy) Attempt(ctx context.Context, src *Source) (*core.Grid, *core.ParseMeta, error) {
	delim := src.Delimiter
	if delim == 0 {
		if sniffed, err := sniffDelimiter(src.Data); err == nil {
			delim = sniffed
		} else {
			delim = ','
		}
	}
	return parseLenient(ctx, src.Data, delim)
}

func parseLenient(ctx context.Context, data []byte, delim rune) (*core.Grid, *core.ParseMeta, error) {
	if !utf8.Valid(data) {
		return nil, nil, fmt.Errorf("content is not valid UTF-8")
	}

	scanner := bufio.NewScanner(bytes.NewReader(stripBOM(data)))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to read header: %w", err)
		}
		return &core.Grid{}, &core.ParseMeta{}, nil
	}

	sep := string(delim)
	header := splitLenient(scanner.Text(), sep)
	grid := &core.Grid{Columns: normalizeHeader(header)}
	meta := &core.ParseMeta{}
	width := len(grid.Columns)

	lineNo := 1
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			meta.RowsSkipped++
			continue
		}

		fields := splitLenient(line, sep)
		switch {
		case len(fields) < width:
			meta.Warnings = append(meta.Warnings,
				fmt.Sprintf("row %d: %d fields, padded to %d with nulls", lineNo, len(fields), width))
		case len(fields) > width:
			// Merge the overflow into the last declared column so no
			// data is silently dropped.
			merged := strings.Join(fields[width-1:], sep)
			fields = append(fields[:width-1], merged)
			meta.Warnings = append(meta.Warnings,
				fmt.Sprintf("row %d: overflow fields merged into %q", lineNo, grid.Columns[width-1]))
		}
		grid.Rows = append(grid.Rows, recordToCells(fields, width))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan failed at row %d: %w", lineNo, err)
	}

	return grid, meta, nil
}

// splitLenient splits on the raw separator, honoring double quotes well
// enough to keep quoted separators intact. The strict strategy already
// handled fully well-formed quoting; this pass favors recovery.
func splitLenient(line, sep string) []string {
	if !strings.Contains(line, `"`) {
		return strings.Split(line, sep)
	}

	var fields []string
	var field strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case !inQuotes && strings.HasPrefix(line[i:], sep):
			fields = append(fields, field.String())
			field.Reset()
			i += len(sep) - 1
		default:
			field.WriteByte(c)
		}
	}
	fields = append(fields, field.String())
	return fields
}

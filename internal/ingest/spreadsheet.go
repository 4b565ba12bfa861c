package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
	"github.com/xuri/excelize/v2"
)

// spreadsheetStrategy reads xlsx workbooks. The first sheet is used
// unless the source names one; blank cells map to SQL NULL.
type spreadsheetStrategy struct{}

func (s *spreadsheetStrategy) Name() string { return "spreadsheet" }

func (s *spreadsheetStrategy) Attempt(ctx context.Context, src *Source) (*core.Grid, *core.ParseMeta, error) {
	f, err := excelize.OpenReader(bytes.NewReader(src.Data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := src.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &core.Grid{}, &core.ParseMeta{}, nil
	}

	grid := &core.Grid{Columns: normalizeHeader(rows[0])}
	meta := &core.ParseMeta{}
	width := len(grid.Columns)

	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if isBlankRow(row) {
			meta.RowsSkipped++
			continue
		}
		// excelize truncates trailing blank cells; pad silently, this is
		// normal sheet shape rather than a malformed row.
		if len(row) > width {
			meta.Warnings = append(meta.Warnings,
				fmt.Sprintf("row %d: %d cells truncated to %d columns", i+2, len(row), width))
		}
		grid.Rows = append(grid.Rows, recordToCells(row[:min(len(row), width)], width))
	}

	return grid, meta, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

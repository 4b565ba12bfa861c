package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// DefaultSampleRows bounds how many rows the inferencer examines per
// column. Rows past the bound may not fit the inferred type; those
// values degrade to NULL with a warning on load.
const DefaultSampleRows = 1000

// booleanLiterals is the fixed set of truthy/falsy spellings, matched
// case-insensitively.
var booleanLiterals = map[string]bool{
	"true": true, "false": true,
	"t": true, "f": true,
	"yes": true, "no": true,
	"y": true, "n": true,
}

// timestampLayouts is the fixed ordered list of accepted date/time
// patterns.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// InferColumnTypes returns the narrowest consistent type for each grid
// column, sampling at most sampleRows non-null values per column.
func InferColumnTypes(grid *core.Grid, sampleRows int) []core.Column {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}

	columns := make([]core.Column, len(grid.Columns))
	for i, name := range grid.Columns {
		columns[i] = core.Column{Name: name, Type: inferColumn(grid.Rows, i, sampleRows)}
	}
	return columns
}

// inferColumn checks candidate types in narrowing order: integer,
// float, boolean, timestamp, then text. An entirely null column is text.
func inferColumn(rows [][]core.Cell, col, sampleRows int) core.ColumnType {
	sampled := 0
	couldBe := map[core.ColumnType]bool{
		core.TypeInteger:   true,
		core.TypeFloat:     true,
		core.TypeBoolean:   true,
		core.TypeTimestamp: true,
	}

	for _, row := range rows {
		if sampled >= sampleRows {
			break
		}
		cell := row[col]
		if cell.Null {
			continue
		}
		sampled++

		v := strings.TrimSpace(cell.Raw)
		if couldBe[core.TypeInteger] && !isInteger(v) {
			couldBe[core.TypeInteger] = false
		}
		if couldBe[core.TypeFloat] && !isFloat(v) {
			couldBe[core.TypeFloat] = false
		}
		if couldBe[core.TypeBoolean] && !isBoolean(v) {
			couldBe[core.TypeBoolean] = false
		}
		if couldBe[core.TypeTimestamp] && !isTimestamp(v) {
			couldBe[core.TypeTimestamp] = false
		}
	}

	if sampled == 0 {
		return core.TypeText
	}
	for _, t := range []core.ColumnType{core.TypeInteger, core.TypeFloat, core.TypeBoolean, core.TypeTimestamp} {
		if couldBe[t] {
			return t
		}
	}
	return core.TypeText
}

func isInteger(v string) bool {
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func isFloat(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

func isBoolean(v string) bool {
	return booleanLiterals[strings.ToLower(v)]
}

func isTimestamp(v string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// CoerceValue converts a raw cell to the Go value matching the inferred
// column type. nil means SQL NULL; ok reports whether a non-null raw
// value actually fit the type.
func CoerceValue(cell core.Cell, t core.ColumnType) (value any, ok bool) {
	if cell.Null {
		return nil, true
	}
	v := strings.TrimSpace(cell.Raw)

	switch t {
	case core.TypeInteger:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, true
		}
	case core.TypeFloat:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	case core.TypeBoolean:
		switch strings.ToLower(v) {
		case "true", "t", "yes", "y":
			return true, true
		case "false", "f", "no", "n":
			return false, true
		}
	case core.TypeTimestamp:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts, true
			}
		}
	case core.TypeText:
		return cell.Raw, true
	}
	// Value appeared past the inference sample and does not fit; load
	// NULL rather than failing the whole ingestion.
	return nil, false
}

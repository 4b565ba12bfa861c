package core

// FormatHint declares or sniffs the format of an uploaded file.
type FormatHint string

// Format hint constants.
const (
	FormatDelimited   FormatHint = "delimited"
	FormatSpreadsheet FormatHint = "spreadsheet"
)

// Cell is one parsed value. Null cells map to SQL NULL on load.
type Cell struct {
	Raw  string
	Null bool
}

// NullCell returns a cell that loads as SQL NULL.
func NullCell() Cell { return Cell{Null: true} }

// StringCell returns a non-null cell holding raw.
func StringCell(s string) Cell { return Cell{Raw: s} }

// Grid is a rectangular table of untyped cells, the output of a
// successful parsing strategy. Every row has exactly len(Columns) cells.
type Grid struct {
	Columns []string
	Rows    [][]Cell
}

// ParseMeta describes how a grid was obtained.
type ParseMeta struct {
	// Strategy is the name of the strategy that produced the grid.
	Strategy string
	// RowsSkipped counts input rows dropped entirely.
	RowsSkipped int
	// Warnings holds one entry per repaired or suspicious row.
	Warnings []string
}

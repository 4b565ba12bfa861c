package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

func parseDelimited(t *testing.T, data string, opts ...func(*Source)) (*core.Grid, *core.ParseMeta) {
	t.Helper()
	chain, err := NewChain(core.FormatDelimited, 0, nil)
	require.NoError(t, err)

	src := &Source{ID: "test.csv", Data: []byte(data)}
	for _, o := range opts {
		o(src)
	}
	grid, meta, err := chain.Parse(context.Background(), src)
	require.NoError(t, err)
	return grid, meta
}

func TestChainStrictCleanCSV(t *testing.T) {
	grid, meta := parseDelimited(t, "id,name\n1,alice\n2,bob\n")

	assert.Equal(t, "strict", meta.Strategy)
	assert.Equal(t, []string{"id", "name"}, grid.Columns)
	require.Len(t, grid.Rows, 2)
	assert.Equal(t, "alice", grid.Rows[0][1].Raw)
}

func TestChainSniffSemicolons(t *testing.T) {
	grid, meta := parseDelimited(t, "id;name\n1;alice\n2;bob\n")

	// Strict assumes comma and sees one ragged-free single column, but
	// the sniffer scores semicolon higher and takes over.
	assert.Equal(t, "sniff", meta.Strategy)
	assert.Equal(t, []string{"id", "name"}, grid.Columns)
	assert.Len(t, grid.Rows, 2)
}

func TestChainLenientRaggedRows(t *testing.T) {
	grid, meta := parseDelimited(t, "a,b,c\n1,2\n4,5,6,7\n8,9,10\n")

	assert.Equal(t, "lenient", meta.Strategy)
	require.Len(t, grid.Rows, 3)

	// Short row padded with nulls.
	assert.Equal(t, "2", grid.Rows[0][1].Raw)
	assert.True(t, grid.Rows[0][2].Null)

	// Overflow merged into the last column.
	assert.Equal(t, "6,7", grid.Rows[1][2].Raw)

	assert.Len(t, meta.Warnings, 2)
}

func TestChainLenientSkipsBlankRows(t *testing.T) {
	grid, meta := parseDelimited(t, "a,b\n1,2\n\n   \n3,4\n")

	require.Len(t, grid.Rows, 2)
	assert.Equal(t, 2, meta.RowsSkipped)
}

func TestChainEncodingFallback(t *testing.T) {
	// Latin-1 bytes are invalid UTF-8, so every UTF-8 strategy fails.
	enc := charmap.ISO8859_1.NewEncoder()
	data, err := enc.String("name,city\nJosé,Málaga\n")
	require.NoError(t, err)

	grid, meta := parseDelimited(t, data)

	assert.Equal(t, "encoding-fallback", meta.Strategy)
	require.Len(t, grid.Rows, 1)
	assert.Equal(t, "José", grid.Rows[0][0].Raw)
	assert.NotEmpty(t, meta.Warnings)
}

func TestChainEmptyFile(t *testing.T) {
	grid, meta := parseDelimited(t, "")

	assert.Empty(t, grid.Columns)
	assert.Empty(t, grid.Rows)
	assert.Equal(t, "empty", meta.Strategy)
}

func TestChainExhaustionAggregatesAttempts(t *testing.T) {
	chain, err := NewChain(core.FormatSpreadsheet, 0, nil)
	require.NoError(t, err)

	_, _, err = chain.Parse(context.Background(), &Source{ID: "bad.xlsx", Data: []byte("not a workbook")})
	require.Error(t, err)

	var pf *core.ParseFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "bad.xlsx", pf.SourceID)
	require.Len(t, pf.Attempts, 1)
	assert.Equal(t, "spreadsheet", pf.Attempts[0].Strategy)
}

func TestChainUnknownHint(t *testing.T) {
	_, err := NewChain(core.FormatHint("avro"), 0, nil)
	require.Error(t, err)

	var uf *core.UnsupportedFormatError
	assert.ErrorAs(t, err, &uf)
}

func TestChainQuotedDelimiters(t *testing.T) {
	grid, meta := parseDelimited(t, "id,note\n1,\"hello, world\"\n")

	assert.Equal(t, "strict", meta.Strategy)
	assert.Equal(t, "hello, world", grid.Rows[0][1].Raw)
}

func TestChainDeclaredDelimiter(t *testing.T) {
	grid, meta := parseDelimited(t, "id|name\n1|alice\n", func(s *Source) { s.Delimiter = '|' })

	assert.Equal(t, "strict", meta.Strategy)
	assert.Equal(t, []string{"id", "name"}, grid.Columns)
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Customer Name", "customer_name"},
		{"Total $ (USD)", "total_usd"},
		{"2024_sales", "_2024_sales"},
		{"order-id", "order_id"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeIdentifier(tt.in), tt.in)
	}
}

func TestNormalizeHeaderDuplicatesAndBlanks(t *testing.T) {
	got := normalizeHeader([]string{"id", "id", "", "id"})
	assert.Equal(t, []string{"id", "id_2", "col_3", "id_3"}, got)
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		data string
		want rune
	}{
		{"a,b,c\n1,2,3\n", ','},
		{"a\tb\tc\n1\t2\t3\n", '\t'},
		{"a;b;c\n1;2;3\n", ';'},
		{"a|b|c\n1|2|3\n", '|'},
	}
	for _, tt := range tests {
		got, err := sniffDelimiter([]byte(tt.data))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSplitLenientQuotes(t *testing.T) {
	got := splitLenient(`1,"a,b",2`, ",")
	assert.Equal(t, []string{"1", "a,b", "2"}, got)
}

func TestLenientLongLines(t *testing.T) {
	// A single very wide field should not defeat the scanner buffer.
	wide := strings.Repeat("x", 2*1024*1024)
	grid, _ := parseDelimited(t, "a,b\n1,"+wide+"\n")
	require.Len(t, grid.Rows, 1)
	assert.Len(t, grid.Rows[0][1].Raw, len(wide))
}

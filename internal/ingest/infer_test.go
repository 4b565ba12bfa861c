package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

func gridOf(column string, values ...string) *core.Grid {
	g := &core.Grid{Columns: []string{column}}
	for _, v := range values {
		if v == "" {
			g.Rows = append(g.Rows, []core.Cell{core.NullCell()})
		} else {
			g.Rows = append(g.Rows, []core.Cell{core.StringCell(v)})
		}
	}
	return g
}

func TestInferColumnTypes(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   core.ColumnType
	}{
		{"integers", []string{"1", "2", "3"}, core.TypeInteger},
		{"mixed numeric widens to float", []string{"1", "2.5"}, core.TypeFloat},
		{"negative and exponent floats", []string{"-3.2", "1e4"}, core.TypeFloat},
		{"booleans", []string{"true", "false"}, core.TypeBoolean},
		{"boolean word forms", []string{"yes", "No", "Y"}, core.TypeBoolean},
		{"timestamps", []string{"2024-01-15", "2024-02-01 10:30:00"}, core.TypeTimestamp},
		{"numeric with stray text falls to text", []string{"1", "abc"}, core.TypeText},
		{"nulls do not constrain", []string{"", "7", ""}, core.TypeInteger},
		{"all null is text", []string{"", "", ""}, core.TypeText},
		{"whitespace padded integers", []string{" 1 ", "2"}, core.TypeInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := InferColumnTypes(gridOf("v", tt.values...), DefaultSampleRows)
			assert.Len(t, cols, 1)
			assert.Equal(t, tt.want, cols[0].Type)
		})
	}
}

func TestInferColumnTypesSampleBound(t *testing.T) {
	// The misfit value sits past the sample, so the column stays integer.
	g := gridOf("v", "1", "2", "3", "4", "oops")
	cols := InferColumnTypes(g, 4)
	assert.Equal(t, core.TypeInteger, cols[0].Type)

	// Coercing the misfit yields NULL rather than an error.
	v, ok := CoerceValue(core.StringCell("oops"), core.TypeInteger)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestCoerceValue(t *testing.T) {
	v, ok := CoerceValue(core.StringCell("42"), core.TypeInteger)
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)

	v, ok = CoerceValue(core.StringCell("2.5"), core.TypeFloat)
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	v, ok = CoerceValue(core.StringCell("yes"), core.TypeBoolean)
	assert.True(t, ok)
	assert.Equal(t, true, v)

	v, ok = CoerceValue(core.NullCell(), core.TypeInteger)
	assert.True(t, ok)
	assert.Nil(t, v)

	v, ok = CoerceValue(core.StringCell("anything"), core.TypeText)
	assert.True(t, ok)
	assert.Equal(t, "anything", v)
}

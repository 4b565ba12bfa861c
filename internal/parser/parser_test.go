package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

func writeModel(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const stgOrders = `/*---
name: stg_orders
materialized: view
description: cleaned orders
tags: [staging]
tests:
  - not_null: [order_id]
    unique: [order_id]
---*/
select * from {{ ref('raw.orders') }}
`

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "staging/stg_orders.sql", stgOrders)
	writeModel(t, dir, "marts/daily_revenue.sql",
		"/*---\nmaterialized: table\n---*/\nselect order_date, sum(amount) from {{ ref('stg_orders') }} group by 1\n")

	models, err := New(nil).LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, models, 2)

	// Sorted by qualified name.
	assert.Equal(t, "marts.daily_revenue", models[0].Path())
	assert.Equal(t, "staging.stg_orders", models[1].Path())

	daily := models[0]
	assert.Equal(t, core.MaterializedTable, daily.Materialized)
	require.Len(t, daily.Refs, 1)
	assert.Equal(t, "stg_orders", daily.Refs[0].Name)

	stg := models[1]
	assert.Equal(t, core.MaterializedView, stg.Materialized)
	assert.Equal(t, "cleaned orders", stg.Description)
	require.Len(t, stg.Tests, 1)
	assert.Equal(t, []string{"order_id"}, stg.Tests[0].NotNull)
	assert.Equal(t, []string{"order_id"}, stg.Tests[0].Unique)
}

func TestLoadDirDuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "staging/stg_orders.sql", "select 1\n")
	writeModel(t, dir, "staging/other.sql", "/*---\nname: stg_orders\n---*/\nselect 2\n")

	_, err := New(nil).LoadDir(dir)
	var dup *core.DuplicateModelError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "staging.stg_orders", dup.Path)
}

func TestLoadFileDefaults(t *testing.T) {
	dir := t.TempDir()
	// No frontmatter at all, file at the root of the models dir.
	writeModel(t, dir, "plain.sql", "select 1 as one\n")

	m, err := New(nil).LoadFile(dir, filepath.Join(dir, "plain.sql"))
	require.NoError(t, err)
	assert.Equal(t, "plain", m.Name)
	assert.Equal(t, DefaultNamespace, m.Namespace)
	assert.Equal(t, core.MaterializedView, m.Materialized)
	assert.Empty(t, m.Refs)
}

func TestLoadFileRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown frontmatter key", "/*---\nmaterialised: view\n---*/\nselect 1\n"},
		{"unknown materialization", "/*---\nmaterialized: incremental\n---*/\nselect 1\n"},
		{"unclosed frontmatter", "/*---\nname: x\nselect 1\n"},
		{"empty body", "/*---\nname: x\n---*/\n   \n"},
		{"unclosed ref marker", "select * from {{ ref('a')\n"},
		{"unquoted ref argument", "select * from {{ ref(orders) }}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeModel(t, dir, "m.sql", tt.content)
			_, err := New(nil).LoadFile(dir, filepath.Join(dir, "m.sql"))
			assert.Error(t, err)
		})
	}
}

func TestScanRefs(t *testing.T) {
	sql := `select a.*, b.name
from {{ ref('raw.orders') }} a
join {{ ref("stg_customers") }} b on a.cid = b.id`

	refs, err := scanRefs(sql)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "raw.orders", refs[0].Name)
	assert.Equal(t, "stg_customers", refs[1].Name)

	// Offsets cover the full marker.
	assert.Equal(t, `{{ ref('raw.orders') }}`, sql[refs[0].Start:refs[0].End])
}

func TestRender(t *testing.T) {
	sql := "select * from {{ ref('orders') }} o join {{ ref('customers') }} c on o.cid = c.id"
	refs, err := scanRefs(sql)
	require.NoError(t, err)

	rendered := Render(sql, refs, func(name string) string {
		return "staging.stg_" + name
	})
	assert.Equal(t,
		"select * from staging.stg_orders o join staging.stg_customers c on o.cid = c.id",
		rendered)
}

func TestRenderNoRefs(t *testing.T) {
	sql := "select 1"
	assert.Equal(t, sql, Render(sql, nil, func(string) string { return "x" }))
}

package engine

import (
	"fmt"
	"os"
	"path/filepath"
)

// scaffold template for a staging model over a raw table. The added
// columns record load time and provenance alongside the source data.
const scaffoldTemplate = `/*---
name: stg_%[1]s
materialized: view
description: Staging model for %[2]s.
---*/
select
    *,
    current_timestamp as _loaded_at,
    '%[2]s' as _source_table
from {{ ref('%[2]s') }}
`

// Scaffold writes a staging model file for a registered raw table and
// returns its path. It refuses to overwrite an existing model file.
func (e *Engine) Scaffold(rawTable string) (string, error) {
	entry, err := e.catalog.Lookup(rawTable)
	if err != nil {
		return "", err
	}
	if entry.EntryKind() != "raw" {
		return "", fmt.Errorf("%s is not a raw table", rawTable)
	}

	_, table, ok := splitQualified(rawTable)
	if !ok {
		return "", fmt.Errorf("expected a qualified raw table name, got %q", rawTable)
	}

	dir := filepath.Join(e.cfg.ModelsDir, "staging")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	path := filepath.Join(dir, "stg_"+table+".sql")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("model file already exists: %s", path)
	}

	content := fmt.Sprintf(scaffoldTemplate, table, rawTable)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write model file: %w", err)
	}

	e.logger.Info("staging model scaffolded", "table", rawTable, "path", path)
	return path, nil
}

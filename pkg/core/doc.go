// Package core defines the shared domain types for the QueryVerse data
// platform: ingested tables, transformation models, run logs, and the
// error taxonomy. It has no dependencies on internal packages so that
// adapters, the ingestion chain, and the execution engine can all share
// the same vocabulary.
package core

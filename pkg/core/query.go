package core

import "time"

// QueryLimits bounds an ad-hoc read. Zero values fall back to the
// configured defaults.
type QueryLimits struct {
	// MaxRows caps the result set; rows past the cap are dropped and
	// the result is marked truncated.
	MaxRows int
	// Timeout bounds execution time.
	Timeout time.Duration
}

// QueryResult is a fully materialized ad-hoc query result.
type QueryResult struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
	Elapsed   time.Duration
}

// AnalyticsSummary is a high-level view of the warehouse contents.
type AnalyticsSummary struct {
	// RawTables and Models count catalog entries by kind.
	RawTables int
	Models    int
	// TotalRows sums row counts across all entries.
	TotalRows int64
	// Namespaces lists the distinct schemas in use, sorted.
	Namespaces []string
}

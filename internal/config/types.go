// Package config loads project configuration from queryverse.yaml,
// environment variables, and command-line flags, in that precedence
// order over built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/architadhande/queryverse-data-platform/pkg/adapter"
)

// TargetConfig holds analytical engine connection configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres

	// Database is the file path for embedded engines (empty means
	// in-memory), or the database name for server engines.
	Database string `koanf:"database"`

	// Network databases.
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Schema string `koanf:"schema"`

	// Options holds driver-specific connection options.
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g. DuckDB
	// extensions and settings).
	Params map[string]any `koanf:"params"`
}

// Validate checks the target against the adapter registry.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// IngestConfig tunes the file ingestion path.
type IngestConfig struct {
	// SampleRows bounds type-inference sampling.
	SampleRows int `koanf:"sample_rows"`
	// AttemptTimeout bounds each parsing strategy attempt.
	AttemptTimeout time.Duration `koanf:"attempt_timeout"`
	// ReplacePolicy is "replace" or "fail" for existing targets.
	ReplacePolicy string `koanf:"replace_policy"`
}

// RunConfig tunes transformation runs.
type RunConfig struct {
	// ModelTimeout bounds each model's execution.
	ModelTimeout time.Duration `koanf:"model_timeout"`
}

// QueryConfig bounds the ad-hoc read path.
type QueryConfig struct {
	MaxRows int           `koanf:"max_rows"`
	Timeout time.Duration `koanf:"timeout"`
	// MaxConcurrent caps concurrent readers on the engine gate.
	MaxConcurrent int `koanf:"max_concurrent"`
}

// Config is the full project configuration.
type Config struct {
	// ModelsDir holds the .sql model files.
	ModelsDir string `koanf:"models_dir"`
	// StatePath is the SQLite file for run history and catalog metadata.
	StatePath string `koanf:"state_path"`
	// LogLevel is debug, info, warn, or error.
	LogLevel string `koanf:"log_level"`

	Target *TargetConfig `koanf:"target"`
	Ingest IngestConfig  `koanf:"ingest"`
	Run    RunConfig     `koanf:"run"`
	Query  QueryConfig   `koanf:"query"`
}

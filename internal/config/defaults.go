package config

import "time"

// Default configuration values.
const (
	DefaultModelsDir      = "models"
	DefaultStatePath      = "queryverse-state.db"
	DefaultLogLevel       = "info"
	DefaultTargetType     = "duckdb"
	DefaultTargetDatabase = "queryverse.duckdb"
	DefaultSampleRows     = 1000
	DefaultReplacePolicy  = "replace"
	DefaultAttemptTimeout = 30 * time.Second
	DefaultModelTimeout   = 5 * time.Minute
	DefaultQueryMaxRows   = 10000
	DefaultQueryTimeout   = 30 * time.Second
	DefaultMaxConcurrent  = 8
)

// defaults is the base configuration layer.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"models_dir":             DefaultModelsDir,
		"state_path":             DefaultStatePath,
		"log_level":              DefaultLogLevel,
		"ingest.sample_rows":     DefaultSampleRows,
		"ingest.attempt_timeout": DefaultAttemptTimeout,
		"ingest.replace_policy":  DefaultReplacePolicy,
		"run.model_timeout":      DefaultModelTimeout,
		"query.max_rows":         DefaultQueryMaxRows,
		"query.timeout":          DefaultQueryTimeout,
		"query.max_concurrent":   DefaultMaxConcurrent,
	}
}

// ApplyDefaults fills target fields the flat defaults layer cannot
// express: the default database path only applies to duckdb targets.
func (c *Config) ApplyDefaults() {
	if c.Target == nil {
		c.Target = &TargetConfig{}
	}
	if c.Target.Type == "" {
		c.Target.Type = DefaultTargetType
	}
	if c.Target.Type == DefaultTargetType && c.Target.Database == "" {
		c.Target.Database = DefaultTargetDatabase
	}
}

package core

import (
	"fmt"
	"strings"
)

// ErrorKind is a stable tag identifying a failure class. Callers branch
// on kinds; the detail string is for humans.
type ErrorKind string

// Error kind constants.
const (
	KindUnsupportedFormat   ErrorKind = "unsupported_format"
	KindParseFailure        ErrorKind = "parse_failure"
	KindSchemaConflict      ErrorKind = "schema_conflict"
	KindUnresolvedReference ErrorKind = "unresolved_reference"
	KindCyclicDependency    ErrorKind = "cyclic_dependency"
	KindDuplicateModel      ErrorKind = "duplicate_model"
	KindExecutionFailure    ErrorKind = "execution_failure"
	KindTimeout             ErrorKind = "timeout"
	KindEngineUnavailable   ErrorKind = "engine_unavailable"
	KindNotFound            ErrorKind = "not_found"
)

// KindedError is implemented by all taxonomy errors.
type KindedError interface {
	error
	Kind() ErrorKind
}

// StrategyError records one failed parsing-strategy attempt.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// ParseFailureError aggregates the per-strategy failures after the whole
// chain is exhausted.
type ParseFailureError struct {
	SourceID string
	Attempts []*StrategyError
}

func (e *ParseFailureError) Kind() ErrorKind { return KindParseFailure }

func (e *ParseFailureError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return fmt.Sprintf("all parsing strategies failed for %s: [%s]",
		e.SourceID, strings.Join(parts, "; "))
}

// UnsupportedFormatError is returned when the format hint matches no
// strategy chain.
type UnsupportedFormatError struct {
	Hint string
}

func (e *UnsupportedFormatError) Kind() ErrorKind { return KindUnsupportedFormat }

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q: expected %q or %q",
		e.Hint, FormatDelimited, FormatSpreadsheet)
}

// SchemaConflictError is returned when a target table exists and the
// replace policy is configured to fail.
type SchemaConflictError struct {
	Table string
}

func (e *SchemaConflictError) Kind() ErrorKind { return KindSchemaConflict }

func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("table %s already exists and replace policy is %q", e.Table, ReplaceFail)
}

// UnresolvedReferenceError is returned when a ref() names something that
// exists neither in the catalog nor among the models being built.
type UnresolvedReferenceError struct {
	Model string
	Ref   string
}

func (e *UnresolvedReferenceError) Kind() ErrorKind { return KindUnresolvedReference }

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("model %s references %q which does not exist", e.Model, e.Ref)
}

// CyclicDependencyError reports the full cycle found in the model graph.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Kind() ErrorKind { return KindCyclicDependency }

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Cycle, " -> "))
}

// DuplicateModelError is returned when two model files claim the same
// qualified name.
type DuplicateModelError struct {
	Path string
}

func (e *DuplicateModelError) Kind() ErrorKind { return KindDuplicateModel }

func (e *DuplicateModelError) Error() string {
	return fmt.Sprintf("duplicate model name: %s", e.Path)
}

// ExecutionFailureError wraps an engine-level SQL error during model
// materialization.
type ExecutionFailureError struct {
	Model string
	Err   error
}

func (e *ExecutionFailureError) Kind() ErrorKind { return KindExecutionFailure }

func (e *ExecutionFailureError) Error() string {
	return fmt.Sprintf("model %s failed: %v", e.Model, e.Err)
}

func (e *ExecutionFailureError) Unwrap() error { return e.Err }

// TimeoutError marks a unit (model execution or strategy attempt) that
// exceeded its configured deadline. It is that unit's failure, never a
// run-wide fatal error.
type TimeoutError struct {
	Unit    string
	Elapsed string
}

func (e *TimeoutError) Kind() ErrorKind { return KindTimeout }

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Unit, e.Elapsed)
}

// EngineUnavailableError is the only fatal class: the embedded engine
// cannot be reached. It propagates to the caller and aborts the
// in-progress operation entirely.
type EngineUnavailableError struct {
	Err error
}

func (e *EngineUnavailableError) Kind() ErrorKind { return KindEngineUnavailable }

func (e *EngineUnavailableError) Error() string {
	return fmt.Sprintf("engine unavailable: %v", e.Err)
}

func (e *EngineUnavailableError) Unwrap() error { return e.Err }

// NotFoundError is returned by catalog lookups for unknown names.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Kind() ErrorKind { return KindNotFound }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found in catalog: %s", e.Name)
}

// Replace policies for ingestion targets that already exist.
const (
	ReplaceAlways = "replace"
	ReplaceFail   = "fail"
)

// Package engineerr defines the closed error-kind taxonomy used at every I/O
// boundary. Pure engines never return these — they return typed
// recommendations instead (see §7 of SPEC_FULL.md); only the orchestrator,
// HTTP handlers, and warehouse/apply adapters construct them.
package engineerr

import "fmt"

// FieldError is a single validation failure, surfaced verbatim to HTTP callers.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError means the caller supplied malformed input. Never retried.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field error(s)", len(e.Fields))
}

// NewValidationError builds a ValidationError from (field, message) pairs.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// InsufficientDataError means the input set, or a required join, was empty.
// The run completes with empty outputs rather than failing.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s", e.Reason)
}

// PerRecordError wraps a single entity's decision failure. The orchestrator
// catches these, emits a KEEP/NO-OP record carrying the error, and continues
// the batch; it never aborts a run.
type PerRecordError struct {
	EntityID string
	Cause    error
}

func (e *PerRecordError) Error() string {
	return fmt.Sprintf("record %s failed: %v", e.EntityID, e.Cause)
}

func (e *PerRecordError) Unwrap() error { return e.Cause }

// SinkKind distinguishes the failure mode of a SinkError since reads, writes,
// and apply calls are handled differently by callers (§7).
type SinkKind int

const (
	SinkRead SinkKind = iota
	SinkWrite
	SinkApply
)

// SinkError wraps a warehouse or apply-sink failure. Read and write failures
// are fatal to the run; apply failures are captured per-record instead.
type SinkError struct {
	Kind  SinkKind
	Table string
	Cause error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink error (table=%s): %v", e.Table, e.Cause)
}

func (e *SinkError) Unwrap() error { return e.Cause }

// ConfigError means an environment variable was missing or held an invalid
// value at startup. Fatal: no run begins.
type ConfigError struct {
	Variable string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing or invalid configuration: %s", e.Variable)
}

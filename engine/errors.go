/*
errors.go - Centralized error taxonomy for the engine

PURPOSE:
  All error kinds in one place. Callers branch on the three categories
  with errors.Is; the structured types carry the offending field or id.

TAXONOMY:
  ErrValidation  Malformed input (negative hours, out-of-range month,
                 bad override bounds, invalid date range). Caller-fixable,
                 maps to a 4xx response with the field named.
  ErrNotFound    Referenced assignment/project/employee does not exist.
                 Maps to 404.
  ErrConflict    Duplicate assignment, or an optimistic-version mismatch
                 on an allocation cell. Maps to 409; callers should re-read
                 and retry rather than recreate.

No error here is fatal to the process: every operation is independently
retryable after the caller fixes the input.

USAGE:
  if engine.IsNotFound(err) { ... }
  var verr *engine.ValidationError
  if errors.As(err, &verr) { log(verr.Field) }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all caller-fixable input errors.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on uniqueness violations and optimistic
	// concurrency mismatches.
	ErrConflict = errors.New("conflict")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies the missing record.
type NotFoundError struct {
	Kind string // "project", "employee", "assignment", "allocation"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError describes a uniqueness or version conflict.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func notFound(kind string, id any) error {
	return &NotFoundError{Kind: kind, ID: fmt.Sprint(id)}
}

func conflictf(format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

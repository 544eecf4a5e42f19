// Package errors provides centralized error definitions and error handling
// utilities for specsync. It defines the engine's error taxonomy as typed
// errors with context, sentinel errors for errors.Is checks, and
// classification helpers.
//
// # Error Taxonomy
//
//   - CorruptStoreError: the backing store content could not be parsed;
//     recoverable by restoring a prior version ledger entry.
//   - StaleReferenceError: a mutation's target was invalidated by a
//     concurrently committed mutation; the caller should re-read and retry.
//   - CycleError: a proposed dependency edge would create a cycle; rejected
//     before any durable write.
//   - UnknownVersionError: a version index that was evicted or never existed.
//   - LockTimeoutError: the write lock was not acquired within the bounded
//     wait.
//   - ValidationError: an edit rejected before commit for any other reason.
//
// # Usage
//
//	if errors.Is(err, errors.ErrStaleReference) { ... }
//
//	var cycleErr *errors.CycleError
//	if errors.As(err, &cycleErr) {
//	    log.Warn("cycle via", "path", cycleErr.Path)
//	}
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions so callers can import only this
// package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors. Each typed error below unwraps to its sentinel so both
// errors.Is and errors.As work.
var (
	ErrCorruptStore   = errors.New("backing store content is corrupt")
	ErrStaleReference = errors.New("mutation target invalidated by a concurrent commit")
	ErrCycle          = errors.New("dependency cycle")
	ErrUnknownVersion = errors.New("unknown version")
	ErrLockTimeout    = errors.New("write lock acquisition timed out")
	ErrValidation     = errors.New("validation failed")
)

// CorruptStoreError indicates the backing store held unparseable content.
// Prior committed state is untouched; recovery is a rollback to a retained
// version entry.
type CorruptStoreError struct {
	Path  string // store document location
	Cause error  // underlying parse or read error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("corrupt store at %s: %v", e.Path, e.Cause)
}

func (e *CorruptStoreError) Unwrap() []error {
	return []error{ErrCorruptStore, e.Cause}
}

// NewCorruptStoreError creates a CorruptStoreError for the given document.
func NewCorruptStoreError(path string, cause error) *CorruptStoreError {
	return &CorruptStoreError{Path: path, Cause: cause}
}

// StaleReferenceError indicates an edit targeted a feature that no longer
// exists in the committed snapshot the edit was serialized against.
type StaleReferenceError struct {
	FeatureID string // the missing target
	Op        string // edit kind, e.g. "update_feature"
}

func (e *StaleReferenceError) Error() string {
	return fmt.Sprintf("%s: feature %q no longer exists", e.Op, e.FeatureID)
}

func (e *StaleReferenceError) Unwrap() error { return ErrStaleReference }

// NewStaleReferenceError creates a StaleReferenceError.
func NewStaleReferenceError(op, featureID string) *StaleReferenceError {
	return &StaleReferenceError{FeatureID: featureID, Op: op}
}

// CycleError indicates a proposed dependency would create a cycle.
// Path holds the feature IDs along the cycle, starting and ending at the
// same feature.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// NewCycleError creates a CycleError for the given cycle path.
func NewCycleError(path []string) *CycleError {
	return &CycleError{Path: path}
}

// UnknownVersionError indicates a rollback or lookup against a version
// index that was evicted from the ledger or never existed.
type UnknownVersionError struct {
	Index  int
	Oldest int // oldest retained index, -1 when the ledger is empty
	Newest int // newest retained index, -1 when the ledger is empty
}

func (e *UnknownVersionError) Error() string {
	if e.Oldest < 0 {
		return fmt.Sprintf("version %d: ledger is empty", e.Index)
	}
	return fmt.Sprintf("version %d: retained range is %d..%d", e.Index, e.Oldest, e.Newest)
}

func (e *UnknownVersionError) Unwrap() error { return ErrUnknownVersion }

// NewUnknownVersionError creates an UnknownVersionError.
func NewUnknownVersionError(index, oldest, newest int) *UnknownVersionError {
	return &UnknownVersionError{Index: index, Oldest: oldest, Newest: newest}
}

// LockTimeoutError indicates the controller write lock was not acquired
// within the configured bound.
type LockTimeoutError struct {
	Wait string // the bounded wait that elapsed, e.g. "5s"
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("write lock not acquired within %s", e.Wait)
}

func (e *LockTimeoutError) Unwrap() error { return ErrLockTimeout }

// NewLockTimeoutError creates a LockTimeoutError.
func NewLockTimeoutError(wait string) *LockTimeoutError {
	return &LockTimeoutError{Wait: wait}
}

// ValidationError indicates an edit was rejected before commit. Nothing was
// persisted.
type ValidationError struct {
	Field  string // offending field or feature ID
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsRetryable reports whether the error represents a transient condition
// that may succeed on retry. StaleReferenceError is retryable after the
// caller re-reads the current snapshot; LockTimeoutError is retryable
// as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStaleReference) || errors.Is(err, ErrLockTimeout)
}

// IsRejected reports whether the error represents an edit rejected before
// any durable write: validation failures and cycle rejections.
func IsRejected(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrCycle)
}

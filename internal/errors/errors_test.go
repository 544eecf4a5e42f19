package errors

import (
	"fmt"
	"testing"
)

func TestTypedErrors_UnwrapToSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"corrupt store", NewCorruptStoreError("/tmp/spec.json", New("bad json")), ErrCorruptStore},
		{"stale reference", NewStaleReferenceError("update_feature", "auth"), ErrStaleReference},
		{"cycle", NewCycleError([]string{"a", "b", "a"}), ErrCycle},
		{"unknown version", NewUnknownVersionError(3, 5, 14), ErrUnknownVersion},
		{"lock timeout", NewLockTimeoutError("5s"), ErrLockTimeout},
		{"validation", NewValidationError("priority", "invalid"), ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !Is(tt.err, tt.want) {
				t.Errorf("Expected %v to wrap %v", tt.err, tt.want)
			}
		})
	}
}

func TestCorruptStoreError_PreservesCause(t *testing.T) {
	cause := New("unexpected end of JSON input")
	err := NewCorruptStoreError("/tmp/spec.json", cause)

	if !Is(err, cause) {
		t.Error("CorruptStoreError should wrap its cause")
	}

	var cse *CorruptStoreError
	if !As(err, &cse) {
		t.Fatal("Expected errors.As to find CorruptStoreError")
	}
	if cse.Path != "/tmp/spec.json" {
		t.Errorf("Expected path /tmp/spec.json, got %s", cse.Path)
	}
}

func TestAs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading spec: %w", NewCycleError([]string{"a", "b", "a"}))

	var ce *CycleError
	if !As(wrapped, &ce) {
		t.Fatal("Expected errors.As to find CycleError through wrapping")
	}
	if len(ce.Path) != 3 {
		t.Errorf("Expected cycle path of length 3, got %v", ce.Path)
	}
	if !Is(wrapped, ErrCycle) {
		t.Error("Wrapped error should still match the sentinel")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewStaleReferenceError("remove_feature", "x")) {
		t.Error("Stale reference should be retryable")
	}
	if !IsRetryable(NewLockTimeoutError("5s")) {
		t.Error("Lock timeout should be retryable")
	}
	if IsRetryable(NewValidationError("", "nope")) {
		t.Error("Validation failure should not be retryable")
	}
}

func TestIsRejected(t *testing.T) {
	if !IsRejected(NewValidationError("", "nope")) {
		t.Error("Validation failure should be a rejection")
	}
	if !IsRejected(NewCycleError([]string{"a", "a"})) {
		t.Error("Cycle should be a rejection")
	}
	if IsRejected(NewCorruptStoreError("p", New("x"))) {
		t.Error("Corrupt store is not a pre-commit rejection")
	}
}

func TestUnknownVersionError_Message(t *testing.T) {
	err := NewUnknownVersionError(2, 5, 14)
	want := "version 2: retained range is 5..14"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}

	empty := NewUnknownVersionError(0, -1, -1)
	if empty.Error() != "version 0: ledger is empty" {
		t.Errorf("Unexpected message: %q", empty.Error())
	}
}

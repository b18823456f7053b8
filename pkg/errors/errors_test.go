package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidPackage, "bad name: %s", "foo")
	if err.Code != ErrCodeInvalidPackage {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidPackage)
	}
	if err.Message != "bad name: foo" {
		t.Errorf("Message = %q, want %q", err.Message, "bad name: foo")
	}
	if err.Cause != nil {
		t.Errorf("Cause = %v, want nil", err.Cause)
	}
}

func TestErrorString(t *testing.T) {
	err := New(ErrCodeNetwork, "fetch failed")
	want := "NETWORK_ERROR: fetch failed"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := Wrap(ErrCodeNetwork, fmt.Errorf("connection refused"), "fetch failed")
	want = "NETWORK_ERROR: fetch failed: connection refused"
	if got := wrapped.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(ErrCodeInternal, cause, "something broke")
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeNoSatisfyingVersion, "nothing matches")
	if !Is(err, ErrCodeNoSatisfyingVersion) {
		t.Error("Is() should match the error's own code")
	}
	if Is(err, ErrCodePackageNotFound) {
		t.Error("Is() should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("Is() should be false for non-structured errors")
	}

	// Code checks survive wrapping with fmt.Errorf.
	wrapped := fmt.Errorf("context: %w", err)
	if !Is(wrapped, ErrCodeNoSatisfyingVersion) {
		t.Error("Is() should unwrap fmt.Errorf chains")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeTimeout, "slow")); got != ErrCodeTimeout {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeTimeout)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode() = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodePackageNotFound, "package left-pad not found")
	if got := UserMessage(err); got != "package left-pad not found" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Errorf("UserMessage() = %q, want %q", got, "plain")
	}
}

package errors_test

import (
	"errors"
	"testing"

	kerrors "github.com/go-rtk/rtk/pkg/errors"
)

func TestCreateErrorDistinctValues(t *testing.T) {
	a := kerrors.CreateError("boom")
	b := kerrors.CreateError("boom")
	if a.Error() != "boom" || b.Error() != "boom" {
		t.Fatalf("expected both errors to format as %q, got %q and %q", "boom", a.Error(), b.Error())
	}
	if errors.Is(a, b) {
		t.Fatal("expected two CreateError calls to produce distinct error values")
	}
}

func TestNewFormatsCauseThenMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := kerrors.New(cause, "writing manifest")

	if got, want := err.Error(), "disk full: writing manifest"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected New's result to unwrap to the original cause")
	}
}

func TestWrapPassesThroughNil(t *testing.T) {
	if err := kerrors.Wrap(nil, "irrelevant"); err != nil {
		t.Fatalf("expected Wrap(nil, ...) to return nil, got %v", err)
	}
}

func TestWrapAttachesMessage(t *testing.T) {
	cause := errors.New("timeout")
	err := kerrors.Wrap(cause, "listing resources")

	if got, want := err.Error(), "timeout: listing resources"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected Wrap's result to unwrap to the original cause")
	}
}

func TestSentinelsAreDistinguishableViaIs(t *testing.T) {
	wrapped := kerrors.New(kerrors.ErrGVKNotFound, "resolving manifest")
	if !errors.Is(wrapped, kerrors.ErrGVKNotFound) {
		t.Fatal("expected wrapped sentinel to satisfy errors.Is against ErrGVKNotFound")
	}
	if errors.Is(wrapped, kerrors.ErrExportConflict) {
		t.Fatal("expected wrapped ErrGVKNotFound to not match an unrelated sentinel")
	}
}

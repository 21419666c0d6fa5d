package rpcerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nabbar/wirerpc/rpcerr"
)

func TestIsMatchesByCode(t *testing.T) {
	cause := errors.New("boom")
	err := rpcerr.Wrap(rpcerr.ListenFailed, "bind 0.0.0.0:9000", cause)

	if !errors.Is(err, rpcerr.New(rpcerr.ListenFailed, "")) {
		t.Fatalf("expected errors.Is to match on code, got false")
	}
	if errors.Is(err, rpcerr.New(rpcerr.ConfigInvalid, "")) {
		t.Fatalf("expected errors.Is to not match a different code")
	}
}

func TestUnwrapReachesCause(t *testing.T) {
	cause := errors.New("boom")
	err := rpcerr.Wrap(rpcerr.StartupFailed, "starting dispatcher", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to reach the wrapped cause")
	}
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("context: %w", rpcerr.New(rpcerr.MethodConflict, "duplicate method \"add\""))
	if got := rpcerr.CodeOf(err); got != rpcerr.MethodConflict {
		t.Fatalf("CodeOf() = %v, want %v", got, rpcerr.MethodConflict)
	}
	if got := rpcerr.CodeOf(errors.New("plain")); got != rpcerr.Unknown {
		t.Fatalf("CodeOf(plain) = %v, want Unknown", got)
	}
}

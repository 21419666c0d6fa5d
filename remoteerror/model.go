// Package remoteerror implements the RemoteError value type from spec.md §3:
// {type: Identifier, description: String}, serialized as a two-field aggregate
// (spec.md §4.4 "Remote error is an aggregate {identifier string}"). It is
// raised locally by servers (tagged bad_request / method_failed) and
// reconstructed and surfaced by clients as a Go error.
package remoteerror

import (
	"fmt"

	"github.com/nabbar/wirerpc/ident"
)

// Well-known type tags used by the request handler (spec.md §4.5, §7).
const (
	TypeBadRequest   = "bad_request"
	TypeMethodFailed = "method_failed"
)

// RemoteError is the wire-level error value. It implements Go's error
// interface so it can flow through normal error-returning APIs on both the
// client and server.
type RemoteError struct {
	Type        ident.Identifier
	Description string
}

// New builds a RemoteError from a raw type tag (validated as an Identifier)
// and a free-form description.
func New(typeTag string, description string) (RemoteError, error) {
	id, err := ident.Parse(typeTag)
	if err != nil {
		return RemoteError{}, fmt.Errorf("remoteerror: %w", err)
	}
	return RemoteError{Type: id, Description: description}, nil
}

// BadRequest builds a RemoteError tagged bad_request, the tag the request
// handler uses for a malformed method identifier, unknown method, or missing
// end-of-message (spec.md §4.5 steps 1, 2, 4).
func BadRequest(description string) RemoteError {
	e, _ := New(TypeBadRequest, description)
	return e
}

// MethodFailed builds a RemoteError tagged method_failed, the tag the request
// handler uses when the method body itself fails (spec.md §4.5 step 3).
func MethodFailed(description string) RemoteError {
	e, _ := New(TypeMethodFailed, description)
	return e
}

func (e RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type.String(), e.Description)
}

// Equal reports field-wise equality.
func (e RemoteError) Equal(other RemoteError) bool {
	return e.Type.Equal(other.Type) && e.Description == other.Description
}

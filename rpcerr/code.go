// Package rpcerr is the coded error type used by the framework's own
// control-plane code — configuration loading, CLI argument validation,
// dispatcher start-up — as opposed to the wire-facing kinds in wirestatus
// and remoteerror. It gives the ambient (non-wire) parts of the repository
// one consistent error idiom instead of bare fmt.Errorf scattered around.
package rpcerr

import "fmt"

// Code identifies the category of an ambient error.
type Code uint16

const (
	Unknown Code = iota
	ConfigInvalid
	ConfigMissing
	ListenFailed
	MethodConflict
	StartupFailed
	ShutdownFailed
)

func (c Code) String() string {
	switch c {
	case ConfigInvalid:
		return "config_invalid"
	case ConfigMissing:
		return "config_missing"
	case ListenFailed:
		return "listen_failed"
	case MethodConflict:
		return "method_conflict"
	case StartupFailed:
		return "startup_failed"
	case ShutdownFailed:
		return "shutdown_failed"
	default:
		return "unknown"
	}
}

// Error wraps a Code with a message and an optional underlying cause.
type Error struct {
	code  Code
	msg   string
	cause error
}

// New builds an Error with no underlying cause.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Wrap builds an Error that carries cause as its Unwrap target.
func Wrap(code Code, msg string, cause error) *Error {
	return &Error{code: code, msg: msg, cause: cause}
}

func (e *Error) Code() Code { return e.code }

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same Code, so callers can
// write errors.Is(err, rpcerr.New(rpcerr.ConfigInvalid, "")) to classify
// without caring about the message text.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.code == e.code
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error, and
// Unknown otherwise.
func CodeOf(err error) Code {
	var e *Error
	for err != nil {
		if c, ok := err.(*Error); ok {
			e = c
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return Unknown
	}
	return e.code
}

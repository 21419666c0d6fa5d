// Package wirestatus implements the compound error-status value described in
// spec.md §3 "Error status": either "no error", an OS-reported system error, or
// a framework error code (today, only insufficient_throughput). It is
// comparable, printable, truthy iff non-ok, and sticky once set on a buffer.
package wirestatus

// Kind distinguishes the three outcomes a Status can hold.
type Kind uint8

const (
	// KindOK means no error.
	KindOK Kind = iota
	// KindSystem means an OS-reported error (e.g. a read/write syscall failure).
	KindSystem
	// KindFramework means a framework-raised code, currently only
	// insufficient_throughput.
	KindFramework
)

// FrameworkCode enumerates the framework-raised error codes.
type FrameworkCode uint8

const (
	// FrameworkNone is not a real code; it only appears paired with KindOK.
	FrameworkNone FrameworkCode = iota
	// FrameworkInsufficientThroughput is raised by the throughput checker
	// (spec.md §3 "Throughput checker").
	FrameworkInsufficientThroughput
)

func (c FrameworkCode) String() string {
	switch c {
	case FrameworkInsufficientThroughput:
		return "insufficient_throughput"
	default:
		return "none"
	}
}

// Status is a comparable, printable compound error value. The zero Status is OK.
type Status struct {
	kind   Kind
	sysErr error
	fwCode FrameworkCode
}

// OK is the "no error" status.
var OK = Status{}

// FromSystem wraps an OS-reported error. A nil error yields OK.
func FromSystem(err error) Status {
	if err == nil {
		return OK
	}
	return Status{kind: KindSystem, sysErr: err}
}

// FromFramework builds a framework-raised status from one of the FrameworkCode
// constants. FrameworkNone yields OK.
func FromFramework(code FrameworkCode) Status {
	if code == FrameworkNone {
		return OK
	}
	return Status{kind: KindFramework, fwCode: code}
}

// IsOK reports whether this status represents "no error".
func (s Status) IsOK() bool { return s.kind == KindOK }

// IsSystem reports whether this status wraps an OS-reported error.
func (s Status) IsSystem() bool { return s.kind == KindSystem }

// IsFramework reports whether this status is a framework-raised code.
func (s Status) IsFramework() bool { return s.kind == KindFramework }

// IsInsufficientThroughput reports the one framework code spec.md §3 defines.
func (s Status) IsInsufficientThroughput() bool {
	return s.kind == KindFramework && s.fwCode == FrameworkInsufficientThroughput
}

// SystemError returns the wrapped OS error, or nil if this isn't a system status.
func (s Status) SystemError() error {
	if s.kind != KindSystem {
		return nil
	}
	return s.sysErr
}

// Code returns the framework code, or FrameworkNone if this isn't one.
func (s Status) Code() FrameworkCode {
	if s.kind != KindFramework {
		return FrameworkNone
	}
	return s.fwCode
}

// Error implements the error interface; Status is truthy (as an error) iff
// non-ok, matching spec.md's "truthy iff non-ok".
func (s Status) Error() string {
	switch s.kind {
	case KindOK:
		return ""
	case KindSystem:
		if s.sysErr != nil {
			return s.sysErr.Error()
		}
		return "system error"
	case KindFramework:
		return s.fwCode.String()
	default:
		return "unknown error"
	}
}

// AsError returns nil if OK, or the Status itself (as an error) otherwise — the
// idiomatic way to use Status at a Go error-returning boundary.
func (s Status) AsError() error {
	if s.IsOK() {
		return nil
	}
	return s
}

// String renders the status for logging.
func (s Status) String() string {
	if s.IsOK() {
		return "ok"
	}
	return s.Error()
}

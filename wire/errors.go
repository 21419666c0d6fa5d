package wire

import "fmt"

// ParseError is returned by every reader on malformed input, per spec.md
// §4.4's "Integer overflow on input is a parse_error" and "a parser that
// expects C but sees C' reports 'expected C, got C'.'"
type ParseError struct {
	Msg string
}

func (e ParseError) Error() string { return "wire: parse error: " + e.Msg }

func parseErrf(format string, args ...any) error {
	return ParseError{Msg: fmt.Sprintf(format, args...)}
}

func expectedGot(expected byte, got byte) error {
	return parseErrf("expected %q, got %q", expected, got)
}

// Package endpoint holds the immutable, shareable network address record used
// everywhere a remote or local TCP address needs to be compared and logged.
package endpoint

import "net"

// Family distinguishes the address families an Endpoint may carry.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyIPv4
	FamilyIPv6
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ip4"
	case FamilyIPv6:
		return "ip6"
	default:
		return "unknown"
	}
}

// Endpoint is an immutable address record: address family, raw socket address
// bytes, printable IP, port. Two endpoints are equal iff family, IP text, and
// port all match. Empty endpoints are sentinel values and cannot be used for I/O.
type Endpoint interface {
	// Family reports the address family.
	Family() Family

	// IP returns the printable IP address, or "" for the empty/sentinel value.
	IP() string

	// Port returns the port number, or 0 for the empty/sentinel value.
	Port() uint16

	// Raw returns the underlying socket address bytes as reported by the OS,
	// for introspection; nil for endpoints built from a resolved string.
	Raw() []byte

	// Empty reports whether this is the sentinel zero-value endpoint.
	Empty() bool

	// Equal reports whether two endpoints name the same family, IP and port.
	Equal(other Endpoint) bool

	// String renders "ip:port" (or "" for the empty endpoint).
	String() string

	// TCPAddr renders the endpoint as a *net.TCPAddr for use with the net package.
	TCPAddr() *net.TCPAddr
}

// Empty is the sentinel empty endpoint value.
var Empty Endpoint = &ep{}

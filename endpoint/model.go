package endpoint

import (
	"net"
	"strconv"
)

type ep struct {
	family Family
	ip     string
	port   uint16
	raw    []byte
}

func (e *ep) Family() Family { return e.family }
func (e *ep) IP() string     { return e.ip }
func (e *ep) Port() uint16   { return e.port }
func (e *ep) Raw() []byte    { return e.raw }

func (e *ep) Empty() bool {
	return e.ip == "" && e.port == 0
}

func (e *ep) Equal(other Endpoint) bool {
	if other == nil {
		return false
	}
	return e.family == other.Family() && e.ip == other.IP() && e.port == other.Port()
}

func (e *ep) String() string {
	if e.Empty() {
		return ""
	}
	return net.JoinHostPort(e.ip, strconv.FormatUint(uint64(e.port), 10))
}

func (e *ep) TCPAddr() *net.TCPAddr {
	if e.Empty() {
		return nil
	}
	return &net.TCPAddr{IP: net.ParseIP(e.ip), Port: int(e.port)}
}

func familyOf(ip net.IP) Family {
	if ip == nil {
		return FamilyUnknown
	}
	if ip.To4() != nil {
		return FamilyIPv4
	}
	return FamilyIPv6
}

// New builds an Endpoint directly from its already-resolved parts. It is used
// internally by the resolve helpers and by tcpsocket when introspecting an
// accepted or bound connection.
func New(ip string, port uint16, raw []byte) Endpoint {
	parsed := net.ParseIP(ip)
	return &ep{
		family: familyOf(parsed),
		ip:     ip,
		port:   port,
		raw:    raw,
	}
}

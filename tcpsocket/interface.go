// Package tcpsocket is the socket facade from spec.md §6: resolution,
// listening/accepting, and non-blocking TCP connections, all translating
// "would block" into a distinguished sentinel rather than an error, so the
// buffer and engine layers above never special-case EAGAIN.
package tcpsocket

import (
	"time"

	"github.com/nabbar/wirerpc/endpoint"
	"github.com/nabbar/wirerpc/scheduler/types"
	"github.com/nabbar/wirerpc/wirestatus"
)

// Conn is a non-blocking TCP connection. TryRead/TryWrite never block and
// never return an error for "no data/room right now"; that case is reported
// through wouldBlock, matching spec.md §6's "must... never raise on that
// condition". Conn also implements types.ReadySource and, on platforms where
// raw descriptors are available, types.FDAware, so it can be driven directly
// by either Scheduler backend.
type Conn interface {
	types.ReadySource

	// TryRead copies up to len(p) bytes without blocking. wouldBlock is true
	// only when no data is currently available and the connection is healthy;
	// n==0 with wouldBlock==false and status.IsOK() means EOF.
	TryRead(p []byte) (n int, wouldBlock bool, status wirestatus.Status)

	// TryWrite writes up to len(p) bytes without blocking.
	TryWrite(p []byte) (n int, wouldBlock bool, status wirestatus.Status)

	// CloseWriteEnd half-closes the connection's send side (TCP FIN).
	CloseWriteEnd() error

	// Close tears down the connection fully.
	Close() error

	LocalEndpoint() endpoint.Endpoint
	RemoteEndpoint() endpoint.Endpoint

	// Writable returns a ReadySource for the write edge; Conn itself is the
	// readable-edge ReadySource (the common case for nb_inbuf).
	Writable() types.ReadySource
}

// Acceptor listens for inbound connections on one bound endpoint.
type Acceptor interface {
	// Accept returns the next connection without blocking. wouldBlock is true
	// when none is pending yet.
	Accept() (conn Conn, wouldBlock bool, status wirestatus.Status)
	// Readable is the ReadySource that fires when Accept is likely to succeed.
	Readable() types.ReadySource
	LocalEndpoint() endpoint.Endpoint
	Close() error
}

// Facade is the full socket layer spec.md §6 hands to the rest of the core.
type Facade interface {
	ResolveIP(ip string, port uint16) (endpoint.Endpoint, error)
	ResolveHost(host string, port uint16) ([]endpoint.Endpoint, error)
	LocalInterfaces(port uint16) ([]endpoint.Endpoint, error)
	AllInterfaces(port uint16) ([]endpoint.Endpoint, error)

	Bind(ep endpoint.Endpoint) (Acceptor, error)
	// Connect dials ep for the client side; it is the one facade method the
	// reference service's socket layer doesn't name explicitly, needed
	// because a client must originate a connection before it has anything to
	// read or write.
	Connect(ep endpoint.Endpoint, timeout time.Duration) (Conn, error)
}

// NewFacade builds the standard net-package-backed Facade.
func NewFacade() Facade {
	return &facade{resolver: endpoint.NewResolver()}
}

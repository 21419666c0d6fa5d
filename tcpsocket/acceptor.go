package tcpsocket

import (
	"net"

	"github.com/nabbar/wirerpc/endpoint"
	"github.com/nabbar/wirerpc/scheduler/types"
	"github.com/nabbar/wirerpc/wirestatus"
)

type acceptor struct {
	ln    *net.TCPListener
	local endpoint.Endpoint
}

func newAcceptor(ln *net.TCPListener) Acceptor {
	a := &acceptor{ln: ln}
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		a.local = endpoint.FromTCPAddr(addr)
	}
	return a
}

func (a *acceptor) Accept() (Conn, bool, wirestatus.Status) {
	tcp, wouldBlock, err := acceptNonBlocking(a.ln)
	if err != nil {
		return nil, false, wirestatus.FromSystem(err)
	}
	if wouldBlock {
		return nil, true, wirestatus.OK
	}

	c, err := newConn(tcp)
	if err != nil {
		return nil, false, wirestatus.FromSystem(err)
	}
	return c, false, wirestatus.OK
}

func (a *acceptor) Readable() types.ReadySource {
	return &listenerSource{ln: a.ln}
}

func (a *acceptor) LocalEndpoint() endpoint.Endpoint { return a.local }
func (a *acceptor) Close() error                     { return a.ln.Close() }

type listenerSource struct {
	ln *net.TCPListener
}

func (s *listenerSource) Arm(done func()) (cancel func()) {
	return armReadable(s.ln, done)
}

func (s *listenerSource) RawFD() (fd int, ok bool) {
	return rawFD(s.ln)
}

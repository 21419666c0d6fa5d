package tcpsocket

import (
	"net"

	"github.com/nabbar/wirerpc/endpoint"
	"github.com/nabbar/wirerpc/scheduler/types"
	"github.com/nabbar/wirerpc/wirestatus"
)

type conn struct {
	tcp    *net.TCPConn
	local  endpoint.Endpoint
	remote endpoint.Endpoint
	write  types.ReadySource
}

func newConn(tcp *net.TCPConn) (Conn, error) {
	if err := tcp.SetNoDelay(true); err != nil {
		_ = tcp.Close()
		return nil, err
	}
	c := &conn{tcp: tcp}
	if a, ok := tcp.LocalAddr().(*net.TCPAddr); ok {
		c.local = endpoint.FromTCPAddr(a)
	}
	if a, ok := tcp.RemoteAddr().(*net.TCPAddr); ok {
		c.remote = endpoint.FromTCPAddr(a)
	}
	c.write = &writeSide{c: c}
	return c, nil
}

func (c *conn) TryRead(p []byte) (int, bool, wirestatus.Status) {
	n, wb, err := tryReadNonBlocking(c.tcp, p)
	if err != nil {
		return 0, false, wirestatus.FromSystem(err)
	}
	return n, wb, wirestatus.OK
}

func (c *conn) TryWrite(p []byte) (int, bool, wirestatus.Status) {
	n, wb, err := tryWriteNonBlocking(c.tcp, p)
	if err != nil {
		return 0, false, wirestatus.FromSystem(err)
	}
	return n, wb, wirestatus.OK
}

func (c *conn) CloseWriteEnd() error { return c.tcp.CloseWrite() }
func (c *conn) Close() error         { return c.tcp.Close() }

func (c *conn) LocalEndpoint() endpoint.Endpoint  { return c.local }
func (c *conn) RemoteEndpoint() endpoint.Endpoint { return c.remote }

func (c *conn) Writable() types.ReadySource { return c.write }

// Arm implements types.ReadySource for the readable edge.
func (c *conn) Arm(done func()) (cancel func()) {
	return armReadable(c.tcp, done)
}

// RawFD implements types.FDAware for the readable edge, used by the epoll backend.
func (c *conn) RawFD() (fd int, ok bool) {
	return rawFD(c.tcp)
}

type writeSide struct {
	c *conn
}

func (w *writeSide) Arm(done func()) (cancel func()) {
	return armWritable(w.c.tcp, done)
}

func (w *writeSide) RawFD() (fd int, ok bool) {
	return rawFD(w.c.tcp)
}

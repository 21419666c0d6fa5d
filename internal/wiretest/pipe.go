// Package wiretest is test-only scaffolding shared by the wire-level test
// suites across the module: a real loopback TCP pair, since tcpsocket.Conn
// is defined directly over *net.TCPConn and a fake would just reimplement
// the same non-blocking-read/write bookkeeping tcpsocket already has.
package wiretest

import (
	"testing"
	"time"

	"github.com/nabbar/wirerpc/endpoint"
	"github.com/nabbar/wirerpc/tcpsocket"
)

// Pipe binds an ephemeral loopback listener, dials it, and returns the
// server-accepted and client-dialed ends as a connected tcpsocket.Conn
// pair. Both ends are closed automatically via t.Cleanup.
func Pipe(t testing.TB) (server, client tcpsocket.Conn) {
	t.Helper()

	facade := tcpsocket.NewFacade()
	ep := endpoint.New("127.0.0.1", 0, nil)

	acc, err := facade.Bind(ep)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	t.Cleanup(func() { _ = acc.Close() })

	clientConn, err := facade.Connect(acc.LocalEndpoint(), 2*time.Second)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = clientConn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for {
		srvConn, wouldBlock, status := acc.Accept()
		if !status.IsOK() {
			t.Fatalf("Accept: %v", status.AsError())
		}
		if !wouldBlock {
			t.Cleanup(func() { _ = srvConn.Close() })
			return srvConn, clientConn
		}
		if time.Now().After(deadline) {
			t.Fatalf("Accept: timed out waiting for the dialed connection")
		}
		time.Sleep(time.Millisecond)
	}
}

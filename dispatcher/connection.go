package dispatcher

import (
	"container/list"
	"time"

	"github.com/nabbar/wirerpc/logging"
	"github.com/nabbar/wirerpc/nbio"
	"github.com/nabbar/wirerpc/scheduler/types"
	"github.com/nabbar/wirerpc/tcpsocket"
)

// connection is one accepted TCP connection tracked by the dispatcher. It
// lives in exactly one of two places at a time: the monitored list (idle,
// watched for readability by the core) or the served set (handed to a
// worker goroutine), matching spec.md §4.6's connection lifecycle.
type connection struct {
	conn tcpsocket.Conn
	in   *nbio.NBInbuf
	out  *nbio.NBOutbuf

	log       logging.Context
	sessionID string

	lastActive time.Time

	// elem is this connection's node in the monitored list; nil whenever
	// the connection is being served or torn down.
	elem *list.Element

	watchTicket types.Ticket
}

func (c *connection) touch() { c.lastActive = time.Now() }

func (c *connection) close() {
	c.in.Close()
	c.out.Close()
	_ = c.conn.Close()
}

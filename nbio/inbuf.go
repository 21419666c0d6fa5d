// Package nbio implements the non-blocking buffer pair from spec.md §4.2:
// NBInbuf/NBOutbuf own a contiguous byte buffer plus a non-blocking source or
// sink, and BoundInbuf/BoundOutbuf are the scoped adapters a request handler
// binds them to for the lifetime of one request.
package nbio

import (
	"sync"

	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/scheduler/types"
	"github.com/nabbar/wirerpc/tcpsocket"
	"github.com/nabbar/wirerpc/throughput"
	"github.com/nabbar/wirerpc/wirestatus"
)

// NBInbuf owns a contiguous read buffer `[0, len(buf))` with a read pointer
// rp and an end-of-valid pointer ep; readable() iff rp != ep or EOF is
// latched. It owns at most one pending readiness ticket and at most one
// throughput-tick alarm ticket at a time.
type NBInbuf struct {
	mu sync.Mutex

	buf    []byte
	rp, ep int
	atEOF  bool
	status wirestatus.Status

	source tcpsocket.Conn
	sched  scheduler.Scheduler

	readTicket  types.Ticket
	alarmTicket types.Ticket
	checker     *throughput.Checker

	waiting func()
}

// NewNBInbuf builds an NBInbuf of bufSize bytes reading from source on sched.
// chk configures throughput enforcement; a zero-value Config disables it.
func NewNBInbuf(source tcpsocket.Conn, sched scheduler.Scheduler, bufSize int, chk throughput.Config) *NBInbuf {
	return &NBInbuf{
		buf:     make([]byte, bufSize),
		source:  source,
		sched:   sched,
		checker: throughput.New(chk),
	}
}

// Readable reports whether a byte can be read, or read will return EOF,
// without blocking.
func (n *NBInbuf) Readable() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rp != n.ep || n.atEOF
}

// Peek returns the current byte without consuming it, or eof=true if none is
// buffered (callers must have checked Readable first; Peek on a
// not-yet-readable buffer returns eof=true spuriously).
func (n *NBInbuf) Peek() (b byte, eof bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rp != n.ep {
		return n.buf[n.rp], false
	}
	return 0, true
}

// Skip advances past the current byte.
func (n *NBInbuf) Skip() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rp != n.ep {
		n.rp++
	}
}

// Read copies min(len(p), available) bytes and returns the count copied.
func (n *NBInbuf) Read(p []byte) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	avail := n.ep - n.rp
	k := len(p)
	if k > avail {
		k = avail
	}
	copy(p[:k], n.buf[n.rp:n.rp+k])
	n.rp += k
	return k
}

// Status returns the sticky error status of this buffer.
func (n *NBInbuf) Status() wirestatus.Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

// RequestReadable arranges for cb to run once more data (or EOF, or an
// error) is available. Only one request may be pending at a time. If the
// buffer is already readable, cb fires synchronously.
func (n *NBInbuf) RequestReadable(cb func()) {
	n.mu.Lock()
	if n.rp != n.ep || n.atEOF {
		n.mu.Unlock()
		cb()
		return
	}
	n.waiting = cb
	prior := n.readTicket
	n.readTicket = types.Ticket{}
	n.mu.Unlock()

	if !prior.Zero() {
		n.sched.Cancel(prior)
	}

	n.mu.Lock()
	n.readTicket = n.sched.CallWhenReadable(n.source, n.onSourceReady)
	n.mu.Unlock()
}

func (n *NBInbuf) onSourceReady() {
	n.mu.Lock()
	if n.atEOF || !n.status.IsOK() {
		n.mu.Unlock()
		n.fireWaiting()
		return
	}

	if n.ep == len(n.buf) {
		copy(n.buf, n.buf[n.rp:n.ep])
		n.ep -= n.rp
		n.rp = 0
	}
	space := n.buf[n.ep:]

	read, wouldBlock, status := n.source.TryRead(space)
	if n.checker.Enabled() {
		n.checker.RecordBytes(read)
	}

	switch {
	case wouldBlock:
		n.mu.Unlock()
		n.readTicket = n.sched.CallWhenReadable(n.source, n.onSourceReady)
		return
	case !status.IsOK():
		n.status = status
		n.atEOF = true
	case read == 0:
		n.atEOF = true
	default:
		n.ep += read
	}
	n.mu.Unlock()
	n.fireWaiting()
}

func (n *NBInbuf) fireWaiting() {
	n.mu.Lock()
	cb := n.waiting
	n.waiting = nil
	n.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// EnableThroughput starts the per-tick alarm, if a Config was supplied and it
// isn't already running. BoundInbuf calls this on bind.
func (n *NBInbuf) EnableThroughput() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.checker.Enabled() && n.alarmTicket.Zero() {
		n.alarmTicket = n.sched.CallAlarm(n.checker.TickLength(), n.onTick)
	}
}

// DisableThroughput cancels the per-tick alarm. BoundInbuf calls this on
// scope exit, per spec.md §4.2's bound-buffer contract.
func (n *NBInbuf) DisableThroughput() {
	n.mu.Lock()
	t := n.alarmTicket
	n.alarmTicket = types.Ticket{}
	n.mu.Unlock()
	if !t.Zero() {
		n.sched.Cancel(t)
	}
}

func (n *NBInbuf) onTick() {
	n.mu.Lock()
	st := n.checker.Tick()
	if !st.IsOK() {
		n.status = st
		n.atEOF = true
		n.alarmTicket = types.Ticket{}
		n.mu.Unlock()
		n.fireWaiting()
		return
	}
	n.alarmTicket = n.sched.CallAlarm(n.checker.TickLength(), n.onTick)
	n.mu.Unlock()
}

// Rebind retargets this buffer at a different scheduler. It must only be
// called with no ticket outstanding, which holds at a dispatcher hand-off
// boundary: the dispatcher's core never itself calls RequestReadable against
// a monitored connection's NBInbuf (it watches the raw connection
// directly), so no readTicket is outstanding while a connection sits in
// monitored.
func (n *NBInbuf) Rebind(sched scheduler.Scheduler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sched = sched
}

// Preload seeds the buffer with bytes the caller already read off the
// connection, so nothing the OS already handed over is lost.
func (n *NBInbuf) Preload(p []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ep+len(p) > len(n.buf) {
		copy(n.buf, n.buf[n.rp:n.ep])
		n.ep -= n.rp
		n.rp = 0
	}
	n.ep += copy(n.buf[n.ep:], p)
}

// Close cancels any pending tickets; call it when the connection is torn down.
func (n *NBInbuf) Close() {
	n.mu.Lock()
	rt, at := n.readTicket, n.alarmTicket
	n.readTicket, n.alarmTicket = types.Ticket{}, types.Ticket{}
	n.mu.Unlock()
	if !rt.Zero() {
		n.sched.Cancel(rt)
	}
	if !at.Zero() {
		n.sched.Cancel(at)
	}
}

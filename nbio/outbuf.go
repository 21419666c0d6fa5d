package nbio

import (
	"sync"

	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/scheduler/types"
	"github.com/nabbar/wirerpc/tcpsocket"
	"github.com/nabbar/wirerpc/throughput"
	"github.com/nabbar/wirerpc/wirestatus"
)

// NBOutbuf is the write-side mirror of NBInbuf: rp is the next byte to send,
// wp the next free slot, limit initially len(buf). writable() iff wp != limit.
type NBOutbuf struct {
	mu sync.Mutex

	buf           []byte
	rp, wp, limit int
	status        wirestatus.Status

	sink  tcpsocket.Conn
	sched scheduler.Scheduler

	writeTicket types.Ticket
	alarmTicket types.Ticket
	checker     *throughput.Checker

	onFlushed func()
}

// NewNBOutbuf builds an NBOutbuf of bufSize bytes writing to sink on sched.
func NewNBOutbuf(sink tcpsocket.Conn, sched scheduler.Scheduler, bufSize int, chk throughput.Config) *NBOutbuf {
	return &NBOutbuf{
		buf:     make([]byte, bufSize),
		limit:   bufSize,
		sink:    sink,
		sched:   sched,
		checker: throughput.New(chk),
	}
}

// Writable reports whether at least one more byte can be buffered.
func (o *NBOutbuf) Writable() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.wp != o.limit
}

// Put buffers a single byte, returning false if the buffer has no slack.
func (o *NBOutbuf) Put(b byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.wp == o.limit {
		return false
	}
	if !o.status.IsOK() {
		return true // absorbed-then-dropped, per spec.md §4.2
	}
	o.buf[o.wp] = b
	o.wp++
	return true
}

// Write buffers up to len(p) bytes (until the buffer's slack is exhausted)
// and returns the count buffered.
func (o *NBOutbuf) Write(p []byte) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	slack := o.limit - o.wp
	k := len(p)
	if k > slack {
		k = slack
	}
	if o.status.IsOK() {
		copy(o.buf[o.wp:o.wp+k], p[:k])
		o.wp += k
	}
	return k
}

func (o *NBOutbuf) Status() wirestatus.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// StartFlush closes the buffer to further writes (limit = wp) and drains it
// to the sink, invoking onFlushed once fully drained (synchronously if there
// was nothing to drain).
func (o *NBOutbuf) StartFlush(onFlushed func()) {
	o.mu.Lock()
	o.limit = o.wp
	if o.rp == o.wp {
		o.rp, o.wp, o.limit = 0, 0, len(o.buf)
		o.mu.Unlock()
		onFlushed()
		return
	}
	o.onFlushed = onFlushed
	o.mu.Unlock()

	o.writeTicket = o.sched.CallWhenWritable(o.sink.Writable(), o.onSinkWritable)
}

func (o *NBOutbuf) onSinkWritable() {
	o.mu.Lock()
	if !o.status.IsOK() {
		o.rp, o.wp, o.limit = 0, 0, len(o.buf)
		o.mu.Unlock()
		o.fireFlushed()
		return
	}

	written, wouldBlock, status := o.sink.TryWrite(o.buf[o.rp:o.wp])
	if o.checker.Enabled() {
		o.checker.RecordBytes(written)
	}

	switch {
	case wouldBlock:
		o.mu.Unlock()
		o.writeTicket = o.sched.CallWhenWritable(o.sink.Writable(), o.onSinkWritable)
		return
	case !status.IsOK():
		o.status = status
		o.rp, o.wp, o.limit = 0, 0, len(o.buf)
	default:
		o.rp += written
		if o.rp != o.wp {
			o.mu.Unlock()
			o.writeTicket = o.sched.CallWhenWritable(o.sink.Writable(), o.onSinkWritable)
			return
		}
		o.rp, o.wp, o.limit = 0, 0, len(o.buf)
	}
	o.mu.Unlock()
	o.fireFlushed()
}

func (o *NBOutbuf) fireFlushed() {
	o.mu.Lock()
	cb := o.onFlushed
	o.onFlushed = nil
	o.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (o *NBOutbuf) EnableThroughput() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.checker.Enabled() && o.alarmTicket.Zero() {
		o.alarmTicket = o.sched.CallAlarm(o.checker.TickLength(), o.onTick)
	}
}

func (o *NBOutbuf) DisableThroughput() {
	o.mu.Lock()
	t := o.alarmTicket
	o.alarmTicket = types.Ticket{}
	o.mu.Unlock()
	if !t.Zero() {
		o.sched.Cancel(t)
	}
}

func (o *NBOutbuf) onTick() {
	o.mu.Lock()
	st := o.checker.Tick()
	if !st.IsOK() {
		o.status = st
		o.alarmTicket = types.Ticket{}
		o.mu.Unlock()
		return
	}
	o.alarmTicket = o.sched.CallAlarm(o.checker.TickLength(), o.onTick)
	o.mu.Unlock()
}

// Rebind retargets this buffer at a different scheduler. It must only be
// called with no ticket outstanding (i.e. not mid-flush), which holds at a
// dispatcher hand-off boundary since HandleOne always flushes to completion
// before a connection is returned to the monitored set.
func (o *NBOutbuf) Rebind(sched scheduler.Scheduler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sched = sched
}

// Close cancels any pending tickets.
func (o *NBOutbuf) Close() {
	o.mu.Lock()
	wt, at := o.writeTicket, o.alarmTicket
	o.writeTicket, o.alarmTicket = types.Ticket{}, types.Ticket{}
	o.mu.Unlock()
	if !wt.Zero() {
		o.sched.Cancel(wt)
	}
	if !at.Zero() {
		o.sched.Cancel(at)
	}
}

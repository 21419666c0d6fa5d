package nbio

import (
	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/scheduler/types"
	"github.com/nabbar/wirerpc/stackmarker"
	"github.com/nabbar/wirerpc/wirestatus"
)

// BoundInbuf binds an NBInbuf to a scheduler for the lifetime of one
// request. Binding resets and enables throughput checking; Release disables
// it and cancels any readiness wait still outstanding, per spec.md §4.2.
type BoundInbuf struct {
	nb    *NBInbuf
	sched scheduler.Scheduler
	base  stackmarker.Marker
}

// BindInbuf binds nb to sched for one request, anchored at base (the request
// handler's root stack marker).
func BindInbuf(nb *NBInbuf, sched scheduler.Scheduler, base stackmarker.Marker) *BoundInbuf {
	b := &BoundInbuf{nb: nb, sched: sched, base: base}
	nb.checker.Reset()
	nb.EnableThroughput()
	return b
}

func (b *BoundInbuf) Base() stackmarker.Marker  { return b.base }
func (b *BoundInbuf) Readable() bool            { return b.nb.Readable() }
func (b *BoundInbuf) Peek() (byte, bool)        { return b.nb.Peek() }
func (b *BoundInbuf) Skip()                     { b.nb.Skip() }
func (b *BoundInbuf) Read(p []byte) int         { return b.nb.Read(p) }
func (b *BoundInbuf) Status() wirestatus.Status { return b.nb.Status() }
func (b *BoundInbuf) RequestReadable(cb func()) { b.nb.RequestReadable(cb) }

// Release disables throughput checking on the underlying buffer and cancels
// any readiness wait still outstanding; it does not close the buffer itself
// (the connection may be bound again for its next request).
func (b *BoundInbuf) Release() {
	b.nb.DisableThroughput()
	b.nb.mu.Lock()
	t := b.nb.readTicket
	b.nb.readTicket = types.Ticket{}
	b.nb.waiting = nil
	b.nb.mu.Unlock()
	if !t.Zero() {
		b.nb.sched.Cancel(t)
	}
}

// BoundOutbuf is the write-side mirror of BoundInbuf.
type BoundOutbuf struct {
	nb    *NBOutbuf
	sched scheduler.Scheduler
	base  stackmarker.Marker
}

func BindOutbuf(nb *NBOutbuf, sched scheduler.Scheduler, base stackmarker.Marker) *BoundOutbuf {
	b := &BoundOutbuf{nb: nb, sched: sched, base: base}
	nb.checker.Reset()
	nb.EnableThroughput()
	return b
}

func (b *BoundOutbuf) Base() stackmarker.Marker    { return b.base }
func (b *BoundOutbuf) Writable() bool              { return b.nb.Writable() }
func (b *BoundOutbuf) Put(v byte) bool             { return b.nb.Put(v) }
func (b *BoundOutbuf) Write(p []byte) int          { return b.nb.Write(p) }
func (b *BoundOutbuf) Status() wirestatus.Status   { return b.nb.Status() }
func (b *BoundOutbuf) StartFlush(onFlushed func()) { b.nb.StartFlush(onFlushed) }

func (b *BoundOutbuf) Release() {
	b.nb.DisableThroughput()
}

// Package scheduler implements the reactor abstraction from spec.md §4.1: a
// single run loop per worker that multiplexes timer and I/O-readiness
// callbacks without dedicating an OS thread to any one connection. Go already
// gives every goroutine this property for free through its runtime network
// poller; this package exposes that poller through the same
// alarm/readable/writable vocabulary spec.md uses, so nbio and dispatcher can
// be written against the abstraction rather than against goroutines directly,
// and so a connection-count-bounded reactor (not one-goroutine-per-socket)
// remains a configuration choice rather than baked into nbio.
package scheduler

import (
	"time"

	"github.com/nabbar/wirerpc/scheduler/types"
)

// Scheduler multiplexes timers and I/O readiness for one worker. A Scheduler
// is not safe for concurrent use by more than one goroutine driving Wait;
// Call*/Cancel may be invoked from any goroutine (spec.md §4.1: "callbacks
// may be scheduled from any thread; they always run on the reactor thread").
type Scheduler interface {
	// CallAlarm arranges for cb to run once, from the goroutine driving Wait,
	// no sooner than d from now.
	CallAlarm(d time.Duration, cb func()) types.Ticket

	// CallWhenReadable arranges for cb to run once src reports readiness.
	CallWhenReadable(src types.ReadySource, cb func()) types.Ticket

	// CallWhenWritable is CallWhenReadable for the writable edge of src.
	CallWhenWritable(src types.ReadySource, cb func()) types.Ticket

	// Cancel withdraws a ticket. It is a no-op if the ticket already fired or
	// was already canceled; calling it concurrently with the callback firing
	// is a benign race per spec.md §4.1 and may let the callback run anyway.
	Cancel(t types.Ticket)

	// Wait blocks until at least one callback is ready and returns it for the
	// caller to invoke; it returns ok=false once Close has been called and no
	// further callbacks remain pending. Wait is the reactor's run loop body:
	// callers invoke it in a for loop, running each returned callback inline.
	Wait() (cb func(), ok bool)

	// Close stops accepting new registrations and unblocks any pending Wait.
	// Pending alarms and readiness waits are canceled; their callbacks never run.
	Close()
}

// NewNetpoller builds the default Scheduler backend: it rides Go's runtime
// network poller via the ReadySource each connection provides (see
// tcpsocket), spending no OS thread per idle connection, matching spec.md
// §4.1's "does not require a dedicated thread per connection".
func NewNetpoller() Scheduler {
	return newNetpoller()
}

package scheduler

import (
	"sync"
	"time"

	"github.com/nabbar/wirerpc/scheduler/types"
)

// netpoller is the default Scheduler backend. It keeps no fd table of its
// own: alarms ride time.AfterFunc (itself backed by the Go runtime timer
// wheel, not a dedicated thread) and readiness waits ride whatever
// types.ReadySource the caller hands it, which in practice is a one-shot
// goroutine parked in a syscall.RawConn callback — exactly the mechanism the
// runtime's own net package uses internally. Wait() drains a FIFO queue fed
// by whichever of those fires first.
type netpoller struct {
	mu     sync.Mutex
	cond   *sync.Cond
	nextID uint64
	// cancelers holds the withdraw function for every ticket not yet fired.
	cancelers map[uint64]func()
	queue     []func()
	closed    bool
}

func newNetpoller() *netpoller {
	n := &netpoller{
		cancelers: make(map[uint64]func()),
	}
	n.cond = sync.NewCond(&n.mu)
	return n
}

func (n *netpoller) issue(cat types.Category) (id uint64, t types.Ticket) {
	n.mu.Lock()
	n.nextID++
	id = n.nextID
	n.mu.Unlock()
	return id, types.Ticket{ID: id, Category: cat}
}

// fire is called from whatever goroutine detected the alarm/readiness
// condition. It enqueues cb for the Wait loop unless the ticket was canceled
// or the scheduler is already closed.
func (n *netpoller) fire(id uint64, cb func()) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	if _, live := n.cancelers[id]; !live {
		// already canceled
		n.mu.Unlock()
		return
	}
	delete(n.cancelers, id)
	n.queue = append(n.queue, cb)
	n.cond.Signal()
	n.mu.Unlock()
}

func (n *netpoller) CallAlarm(d time.Duration, cb func()) types.Ticket {
	id, t := n.issue(types.CategoryAlarm)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return t
	}
	timer := time.AfterFunc(d, func() { n.fire(id, cb) })
	n.cancelers[id] = func() { timer.Stop() }
	n.mu.Unlock()

	return t
}

func (n *netpoller) callWhen(cat types.Category, src types.ReadySource, cb func()) types.Ticket {
	id, t := n.issue(cat)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return t
	}
	// Publish a placeholder canceler before arming: if done() runs before
	// Arm returns (Arm implementations are external), fire() must find the
	// ticket live to enqueue cb. The real cancel function replaces the
	// placeholder once Arm returns.
	n.cancelers[id] = func() {}
	n.mu.Unlock()

	cancel := src.Arm(func() { n.fire(id, cb) })

	n.mu.Lock()
	if _, live := n.cancelers[id]; live {
		n.cancelers[id] = cancel
	} else {
		// fired between issue and arm completing; withdraw immediately.
		n.mu.Unlock()
		cancel()
		return t
	}
	n.mu.Unlock()

	return t
}

func (n *netpoller) CallWhenReadable(src types.ReadySource, cb func()) types.Ticket {
	return n.callWhen(types.CategoryReadable, src, cb)
}

func (n *netpoller) CallWhenWritable(src types.ReadySource, cb func()) types.Ticket {
	return n.callWhen(types.CategoryWritable, src, cb)
}

func (n *netpoller) Cancel(t types.Ticket) {
	n.mu.Lock()
	cancel, live := n.cancelers[t.ID]
	if live {
		delete(n.cancelers, t.ID)
	}
	n.mu.Unlock()
	if live {
		cancel()
	}
}

func (n *netpoller) Wait() (func(), bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for len(n.queue) == 0 && !n.closed {
		n.cond.Wait()
	}
	if len(n.queue) == 0 {
		return nil, false
	}
	cb := n.queue[0]
	n.queue = n.queue[1:]
	return cb, true
}

func (n *netpoller) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	pending := n.cancelers
	n.cancelers = make(map[uint64]func())
	n.cond.Broadcast()
	n.mu.Unlock()

	for _, cancel := range pending {
		cancel()
	}
}

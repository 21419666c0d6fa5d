//go:build linux

package scheduler

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/wirerpc/scheduler/types"
)

// epollScheduler is the linux-only alternate backend: it drives a single
// epoll(7) instance directly via golang.org/x/sys/unix instead of riding the
// Go runtime poller through a goroutine per registration. Selecting it is a
// configuration knob (spec.md §4.1's "the selector used... is a configuration
// knob"), not a behavioral change: it implements the same Scheduler contract.
//
// Sources that implement types.FDAware are registered directly with
// epoll_ctl; any other ReadySource falls back to its own Arm, exactly as
// netpoller does, so this backend still works against sources that can't
// hand over a raw descriptor (e.g. a non-socket alarm-only source).
type epollScheduler struct {
	epfd int

	mu          sync.Mutex
	cond        *sync.Cond
	nextID      uint64
	cancelers   map[uint64]func()
	fdCallbacks map[int]func()
	queue       []func()
	closed      bool

	wakeR, wakeW int
}

// NewEpoll builds the epoll-backed Scheduler. It returns an error if the
// kernel epoll instance (or its wake pipe) cannot be created.
func NewEpoll() (Scheduler, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}

	e := &epollScheduler{
		epfd:      epfd,
		cancelers: make(map[uint64]func()),
		wakeR:     fds[0],
		wakeW:     fds[1],
	}
	e.cond = sync.NewCond(&e.mu)

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, e.wakeR, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(e.wakeR),
	}); err != nil {
		_ = unix.Close(e.wakeR)
		_ = unix.Close(e.wakeW)
		_ = unix.Close(epfd)
		return nil, err
	}

	go e.loop()

	return e, nil
}

func (e *epollScheduler) wake() {
	var b [1]byte
	_, _ = unix.Write(e.wakeW, b[:])
}

func (e *epollScheduler) loop() {
	events := make([]unix.EpollEvent, 64)
	for {
		n, err := unix.EpollWait(e.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == e.wakeR {
				var buf [64]byte
				for {
					if _, err := unix.Read(e.wakeR, buf[:]); err != nil {
						break
					}
				}
				continue
			}
			e.mu.Lock()
			cb, live := e.fdCallbacks[fd]
			if live {
				delete(e.fdCallbacks, fd)
				_ = unix.EpollCtl(e.epfd, unix.EPOLL_CTL_DEL, fd, nil)
			}
			e.mu.Unlock()
			if live {
				e.enqueue(cb)
			}
		}
		e.mu.Lock()
		closed := e.closed
		e.mu.Unlock()
		if closed {
			return
		}
	}
}

func (e *epollScheduler) enqueue(cb func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, cb)
	e.cond.Signal()
	e.mu.Unlock()
}

func (e *epollScheduler) issue() uint64 {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.mu.Unlock()
	return id
}

func (e *epollScheduler) CallAlarm(d time.Duration, cb func()) types.Ticket {
	id := e.issue()
	t := types.Ticket{ID: id, Category: types.CategoryAlarm}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return t
	}
	timer := time.AfterFunc(d, func() { e.fireTicket(id, cb) })
	e.cancelers[id] = func() { timer.Stop() }
	e.mu.Unlock()

	return t
}

func (e *epollScheduler) fireTicket(id uint64, cb func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if _, live := e.cancelers[id]; !live {
		e.mu.Unlock()
		return
	}
	delete(e.cancelers, id)
	e.mu.Unlock()
	e.enqueue(cb)
}

func (e *epollScheduler) callWhen(cat types.Category, src types.ReadySource, cb func()) types.Ticket {
	id := e.issue()
	t := types.Ticket{ID: id, Category: cat}

	if fdSrc, ok := src.(types.FDAware); ok {
		if fd, ok := fdSrc.RawFD(); ok {
			events := uint32(unix.EPOLLIN | unix.EPOLLONESHOT)
			if cat == types.CategoryWritable {
				events = uint32(unix.EPOLLOUT | unix.EPOLLONESHOT)
			}
			e.mu.Lock()
			if e.closed {
				e.mu.Unlock()
				return t
			}
			if e.fdCallbacks == nil {
				e.fdCallbacks = make(map[int]func())
			}
			e.fdCallbacks[fd] = cb
			e.cancelers[id] = func() {
				e.mu.Lock()
				delete(e.fdCallbacks, fd)
				e.mu.Unlock()
				_ = unix.EpollCtl(e.epfd, unix.EPOLL_CTL_DEL, fd, nil)
			}
			e.mu.Unlock()

			if err := unix.EpollCtl(e.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
				Events: events,
				Fd:     int32(fd),
			}); err != nil {
				e.fireTicket(id, cb)
			}
			return t
		}
	}

	// Fall back to the source's own goroutine-based readiness wait.
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return t
	}
	e.cancelers[id] = func() {}
	e.mu.Unlock()

	cancel := src.Arm(func() { e.fireTicket(id, cb) })

	e.mu.Lock()
	if _, live := e.cancelers[id]; live {
		e.cancelers[id] = cancel
	} else {
		e.mu.Unlock()
		cancel()
		return t
	}
	e.mu.Unlock()

	return t
}

func (e *epollScheduler) CallWhenReadable(src types.ReadySource, cb func()) types.Ticket {
	return e.callWhen(types.CategoryReadable, src, cb)
}

func (e *epollScheduler) CallWhenWritable(src types.ReadySource, cb func()) types.Ticket {
	return e.callWhen(types.CategoryWritable, src, cb)
}

func (e *epollScheduler) Cancel(t types.Ticket) {
	e.mu.Lock()
	cancel, live := e.cancelers[t.ID]
	if live {
		delete(e.cancelers, t.ID)
	}
	e.mu.Unlock()
	if live {
		cancel()
	}
}

func (e *epollScheduler) Wait() (func(), bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) == 0 && !e.closed {
		e.cond.Wait()
	}
	if len(e.queue) == 0 {
		return nil, false
	}
	cb := e.queue[0]
	e.queue = e.queue[1:]
	return cb, true
}

func (e *epollScheduler) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	pending := e.cancelers
	e.cancelers = make(map[uint64]func())
	e.cond.Broadcast()
	e.mu.Unlock()

	e.wake()
	for _, cancel := range pending {
		cancel()
	}
	_ = unix.Close(e.wakeR)
	_ = unix.Close(e.wakeW)
	_ = unix.Close(e.epfd)
}

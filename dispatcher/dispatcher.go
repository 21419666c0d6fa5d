// Package dispatcher implements the connection dispatcher from spec.md
// §4.6: it accepts connections on one or more bound listeners, holds idle
// connections in a monitored list watched for readability, and hands each
// one readable off to a bounded worker pool that runs reqhandler.HandleOne
// against it. A connection that fills its request goes back to the
// monitored list for its next one; a connection-fatal error, EOF, or
// tripped throughput checker removes it for good.
package dispatcher

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nabbar/wirerpc/endpoint"
	"github.com/nabbar/wirerpc/logging"
	"github.com/nabbar/wirerpc/method"
	"github.com/nabbar/wirerpc/metrics"
	"github.com/nabbar/wirerpc/nbio"
	"github.com/nabbar/wirerpc/reqhandler"
	"github.com/nabbar/wirerpc/rpcerr"
	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/tcpsocket"
	"github.com/nabbar/wirerpc/throughput"
	"github.com/nabbar/wirerpc/wirestatus"
)

// Config bundles the tunables a Dispatcher is built with. See
// config.Config for how an operator supplies these at start-up.
type Config struct {
	MaxConnections int
	WorkerPoolSize int
	// MaxInFlight bounds how many connections may be off the monitored list
	// at once (running a request or queued waiting for a worker-pool slot).
	// It admits backpressure independent of WorkerPoolSize: a larger
	// MaxInFlight lets requests queue for a worker instead of being held on
	// the monitored list, while WorkerPoolSize still bounds how many of them
	// actually execute reqhandler.HandleOne concurrently.
	MaxInFlight int
	BufferSize  int
	Throughput  throughput.Config
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = 4096
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 1024
	}
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = 64
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = c.WorkerPoolSize * 4
	}
	return c
}

// Dispatcher is the running server side of wirerpc: listeners plus the
// monitored/served connection bookkeeping described in spec.md §4.6.
type Dispatcher struct {
	facade tcpsocket.Facade
	sched  scheduler.Scheduler
	reg    *method.Registry
	met    *metrics.Collectors
	log    logging.Context
	cfg    Config

	lock *fairLock

	monitored *list.List // of *connection
	served    map[*connection]struct{}

	pool     *semaphore.Weighted
	inFlight *semaphore.Weighted

	acceptors []tcpsocket.Acceptor

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Dispatcher. reg must already hold every method the server
// will expose; the dispatcher never mutates it.
func New(facade tcpsocket.Facade, sched scheduler.Scheduler, reg *method.Registry, met *metrics.Collectors, log logging.Context, cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		facade:    facade,
		sched:     sched,
		reg:       reg,
		met:       met,
		log:       log,
		cfg:       cfg,
		lock:      newFairLock(),
		monitored: list.New(),
		served:    make(map[*connection]struct{}),
		pool:      semaphore.NewWeighted(int64(cfg.WorkerPoolSize)),
		inFlight:  semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		stopCh:    make(chan struct{}),
	}
}

// Serve binds a listener on every endpoint in eps and starts accepting.
// Serve returns once every listener is bound; acceptance itself runs in the
// background until Stop is called.
func (d *Dispatcher) Serve(eps []endpoint.Endpoint) error {
	for _, ep := range eps {
		acc, err := d.facade.Bind(ep)
		if err != nil {
			return rpcerr.Wrap(rpcerr.ListenFailed, "binding "+ep.String(), err)
		}
		d.acceptors = append(d.acceptors, acc)
		d.armAccept(acc)
	}
	return nil
}

func (d *Dispatcher) armAccept(acc tcpsocket.Acceptor) {
	var onReady func()
	onReady = func() {
		select {
		case <-d.stopCh:
			return
		default:
		}
		for {
			conn, wouldBlock, status := acc.Accept()
			if wouldBlock {
				d.sched.CallWhenReadable(acc.Readable(), onReady)
				return
			}
			if !status.IsOK() {
				d.log.Warning("accept failed", status.AsError())
				d.sched.CallWhenReadable(acc.Readable(), onReady)
				return
			}
			d.admit(conn)
		}
	}
	d.sched.CallWhenReadable(acc.Readable(), onReady)
}

// admit wraps a freshly accepted conn and places it in the monitored list,
// evicting the least-recently-active monitored connection first if
// MaxConnections is already reached.
func (d *Dispatcher) admit(conn tcpsocket.Conn) {
	sessLog, sessionID, err := logging.WithSession(d.log)
	if err != nil {
		sessLog, sessionID = d.log, ""
	}
	sessLog = sessLog.WithFields(logging.Fields{"remote": conn.RemoteEndpoint().String()})

	c := &connection{
		conn:      conn,
		in:        nbio.NewNBInbuf(conn, d.sched, d.cfg.BufferSize, d.cfg.Throughput),
		out:       nbio.NewNBOutbuf(conn, d.sched, d.cfg.BufferSize, d.cfg.Throughput),
		log:       sessLog,
		sessionID: sessionID,
	}
	c.touch()

	d.lock.LockNormal()
	if d.monitored.Len() >= d.cfg.MaxConnections {
		d.evictLocked()
	}
	c.elem = d.monitored.PushFront(c)
	d.lock.Unlock()

	if d.met != nil {
		d.met.Monitored.Set(float64(d.monitored.Len()))
	}

	d.armMonitored(c)
}

// evictLocked drops the tail (least recently active) monitored connection.
// Callers must hold d.lock.
func (d *Dispatcher) evictLocked() {
	back := d.monitored.Back()
	if back == nil {
		return
	}
	victim := back.Value.(*connection)
	d.monitored.Remove(back)
	victim.elem = nil
	if !victim.watchTicket.Zero() {
		d.sched.Cancel(victim.watchTicket)
	}
	victim.log.Warning("evicting idle connection to admit a new one", nil)
	if d.met != nil {
		d.met.Evictions.Inc()
	}
	victim.close()
}

// armMonitored watches c for inbound data while it sits idle in the
// monitored list, per spec.md §4.6's "watches readability of every
// monitored connection" requirement.
func (d *Dispatcher) armMonitored(c *connection) {
	c.watchTicket = d.sched.CallWhenReadable(c.conn, func() { d.onMonitoredReadable(c) })
}

func (d *Dispatcher) onMonitoredReadable(c *connection) {
	d.lock.LockNormal()
	if c.elem == nil {
		// already evicted or handed off concurrently.
		d.lock.Unlock()
		return
	}

	if !d.inFlight.TryAcquire(1) {
		// Already at max_in_flight: leave c on the monitored list and
		// re-arm its watch so it's retried once a slot frees up, rather
		// than blocking the reactor goroutine waiting for one.
		d.lock.Unlock()
		d.armMonitored(c)
		return
	}

	d.monitored.Remove(c.elem)
	c.elem = nil
	d.served[c] = struct{}{}
	d.lock.Unlock()

	if d.met != nil {
		d.met.Monitored.Set(float64(d.monitored.Len()))
		d.met.BeingServed.Set(float64(len(d.served)))
	}

	d.wg.Add(1)
	go d.serve(c)
}

// serve runs on its own goroutine per handed-off connection, acquiring a
// worker-pool slot (bounding real concurrency to cfg.WorkerPoolSize) before
// calling reqhandler.HandleOne once. After a successful request the
// connection goes back to the monitored list for its next one (unless the
// dispatcher is stopping); after a connection error it is closed.
func (d *Dispatcher) serve(c *connection) {
	defer d.wg.Done()

	if err := d.pool.Acquire(context.Background(), 1); err != nil {
		d.finish(c, false)
		return
	}
	if d.met != nil {
		d.met.IdleWorkers.Set(float64(d.cfg.WorkerPoolSize) - float64(d.inUse()))
	}
	defer d.pool.Release(1)

	c.touch()
	err := reqhandler.HandleOne(c.in, c.out, d.sched, d.reg)

	if err != nil {
		c.log.Warning("connection closed", err)
		if d.met != nil {
			d.met.RequestsErr.Inc()
			var st wirestatus.Status
			if errors.As(err, &st) && st.IsInsufficientThroughput() {
				d.met.ThroughputKO.Inc()
			}
		}
		d.finish(c, false)
		return
	}

	if d.met != nil {
		d.met.RequestsOK.Inc()
	}

	select {
	case <-d.stopCh:
		d.finish(c, false)
		return
	default:
	}

	d.finish(c, true)
}

// finish removes c from the served set and either returns it to the
// monitored list (keepAlive) or tears it down, using the urgent lock class
// so a flood of new admissions never starves a worker's completion step.
func (d *Dispatcher) finish(c *connection, keepAlive bool) {
	defer d.inFlight.Release(1)

	d.lock.LockUrgent()
	delete(d.served, c)
	if !keepAlive {
		d.lock.Unlock()
		c.close()
		if d.met != nil {
			d.met.BeingServed.Set(float64(len(d.served)))
		}
		return
	}
	c.touch()
	c.elem = d.monitored.PushFront(c)
	d.lock.Unlock()

	if d.met != nil {
		d.met.Monitored.Set(float64(d.monitored.Len()))
		d.met.BeingServed.Set(float64(len(d.served)))
	}
	d.armMonitored(c)
}

func (d *Dispatcher) inUse() int64 {
	// semaphore.Weighted exposes no direct occupancy accessor; use the
	// served-set size, an upper bound on in-use slots: every served
	// connection holds at most one slot, and some may still be waiting for
	// one in serve's pool.Acquire.
	d.lock.LockNormal()
	n := len(d.served)
	d.lock.Unlock()
	return int64(n)
}

// ListenEndpoints returns the actual bound address of every listener Serve
// opened, which may differ from what was requested (e.g. port 0 resolves to
// whatever the OS assigned).
func (d *Dispatcher) ListenEndpoints() []endpoint.Endpoint {
	out := make([]endpoint.Endpoint, 0, len(d.acceptors))
	for _, acc := range d.acceptors {
		out = append(out, acc.LocalEndpoint())
	}
	return out
}

// MonitoredCount implements adminapi.StatusProvider.
func (d *Dispatcher) MonitoredCount() int {
	d.lock.LockNormal()
	defer d.lock.Unlock()
	return d.monitored.Len()
}

// BeingServedCount implements adminapi.StatusProvider.
func (d *Dispatcher) BeingServedCount() int {
	d.lock.LockNormal()
	defer d.lock.Unlock()
	return len(d.served)
}

// WorkerPoolSize implements adminapi.StatusProvider.
func (d *Dispatcher) WorkerPoolSize() int { return d.cfg.WorkerPoolSize }

// WorkerPoolInUse implements adminapi.StatusProvider.
func (d *Dispatcher) WorkerPoolInUse() int { return int(d.inUse()) }

// Stop closes every listener, stops accepting, and waits (up to timeout)
// for in-flight requests to finish before tearing down every remaining
// connection. Workers observe the stop signal between requests on a given
// connection (cooperative, not mid-request, preemption), per spec.md §5's
// "workers observe a stop flag" design note.
func (d *Dispatcher) Stop(timeout time.Duration) {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		for _, acc := range d.acceptors {
			_ = acc.Close()
		}
		d.sched.Close()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		d.log.Warning("stop timed out waiting for in-flight requests; closing remaining connections", nil)
	}

	d.lock.LockNormal()
	for e := d.monitored.Front(); e != nil; e = e.Next() {
		e.Value.(*connection).close()
	}
	d.monitored.Init()
	for c := range d.served {
		c.close()
		delete(d.served, c)
	}
	d.lock.Unlock()
}

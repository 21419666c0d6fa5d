package dispatcher_test

import (
	"sync"
	"testing"
	"time"

	"github.com/nabbar/wirerpc/async"
	"github.com/nabbar/wirerpc/dispatcher"
	"github.com/nabbar/wirerpc/endpoint"
	"github.com/nabbar/wirerpc/ident"
	"github.com/nabbar/wirerpc/internal/calcmethods"
	"github.com/nabbar/wirerpc/logging"
	"github.com/nabbar/wirerpc/method"
	"github.com/nabbar/wirerpc/nbio"
	"github.com/nabbar/wirerpc/rpcengine"
	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/stackmarker"
	"github.com/nabbar/wirerpc/tcpsocket"
	"github.com/nabbar/wirerpc/throughput"
	"github.com/nabbar/wirerpc/wire"
)

// blockMethod takes no arguments and writes a single bool reply only once
// release is closed, letting a test hold a connection in the dispatcher's
// being-served state for as long as it needs.
type blockMethod struct {
	release <-chan struct{}
}

func (m blockMethod) Start(base stackmarker.Marker, r *wire.Reader, w *wire.Writer, result async.Result[struct{}]) {
	<-m.release
	if err := w.WriteBool(true); err != nil {
		result.Fail(err)
		return
	}
	result.Submit(struct{}{})
}

func newDispatcher(t *testing.T, cfg dispatcher.Config) (*dispatcher.Dispatcher, tcpsocket.Facade, scheduler.Scheduler, endpoint.Endpoint) {
	t.Helper()

	facade := tcpsocket.NewFacade()
	sched := scheduler.NewNetpoller()
	t.Cleanup(sched.Close)

	reg := method.NewRegistry()
	calcmethods.Register(reg)

	d := dispatcher.New(facade, sched, reg, nil, logging.New(), cfg)
	if err := d.Serve([]endpoint.Endpoint{endpoint.New("127.0.0.1", 0, nil)}); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	t.Cleanup(func() { d.Stop(2 * time.Second) })

	eps := d.ListenEndpoints()
	if len(eps) != 1 {
		t.Fatalf("expected exactly one bound listener, got %d", len(eps))
	}
	return d, facade, sched, eps[0]
}

func TestAddRoundTripThroughDispatcher(t *testing.T) {
	_, facade, sched, boundEp := newDispatcher(t, dispatcher.Config{
		MaxConnections: 4,
		WorkerPoolSize: 2,
	})

	cli, err := facade.Connect(boundEp, 2*time.Second)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cli.Close()

	cliIn := nbio.NewNBInbuf(cli, sched, 4096, throughput.Config{})
	cliOut := nbio.NewNBOutbuf(cli, sched, 4096, throughput.Config{})

	var sum int64
	outputs := rpcengine.OutputList{
		func(w *wire.Writer) error { return w.WriteInt64(40) },
		func(w *wire.Writer) error { return w.WriteInt64(2) },
	}
	inputs := rpcengine.InputList{
		func(r *wire.Reader) (err error) { sum, err = r.ReadInt64(); return },
	}

	if err := rpcengine.Call(cliIn, cliOut, sched, ident.MustParse("add"), outputs, inputs); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if sum != 42 {
		t.Fatalf("add(40,2) = %d, want 42", sum)
	}
}

func TestEvictsOldestMonitoredConnectionUnderPressure(t *testing.T) {
	d, facade, _, boundEp := newDispatcher(t, dispatcher.Config{
		MaxConnections: 2,
		WorkerPoolSize: 4,
	})

	var conns []tcpsocket.Conn
	for i := 0; i < 3; i++ {
		c, err := facade.Connect(boundEp, 2*time.Second)
		if err != nil {
			t.Fatalf("Connect #%d: %v", i, err)
		}
		conns = append(conns, c)
		defer c.Close()
		time.Sleep(20 * time.Millisecond) // let the dispatcher's accept loop catch up
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.MonitoredCount() > 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := d.MonitoredCount(); got > 2 {
		t.Fatalf("MonitoredCount = %d, want at most 2 after eviction", got)
	}
}

func TestStopClosesMonitoredConnections(t *testing.T) {
	d, facade, _, boundEp := newDispatcher(t, dispatcher.Config{
		MaxConnections: 4,
		WorkerPoolSize: 2,
	})

	cli, err := facade.Connect(boundEp, 2*time.Second)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cli.Close()

	deadline := time.Now().Add(2 * time.Second)
	for d.MonitoredCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	d.Stop(2 * time.Second)

	deadline = time.Now().Add(2 * time.Second)
	buf := make([]byte, 1)
	for time.Now().Before(deadline) {
		n, wouldBlock, status := cli.TryRead(buf)
		if !wouldBlock {
			if !status.IsOK() {
				t.Fatalf("TryRead after Stop: %v", status.AsError())
			}
			if n != 0 {
				t.Fatalf("TryRead after Stop returned %d bytes, want EOF", n)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server side never closed the connection after Stop")
}

// TestBeingServedConnectionsDoNotCountTowardEviction is spec.md §4.6/§8
// scenario S6: eviction triggers once the *monitored* list is full, not once
// monitored+being-served reaches MaxConnections. With one connection parked
// in being-served (blocked inside a method handler) and MaxConnections=2,
// two more idle connections must both land in the monitored list without
// either evicting the other.
func TestBeingServedConnectionsDoNotCountTowardEviction(t *testing.T) {
	release := make(chan struct{})
	var closeOnce sync.Once
	closeRelease := func() { closeOnce.Do(func() { close(release) }) }
	t.Cleanup(closeRelease)

	facade := tcpsocket.NewFacade()
	sched := scheduler.NewNetpoller()
	t.Cleanup(sched.Close)

	reg := method.NewRegistry()
	calcmethods.Register(reg)
	reg.Register(ident.MustParse("block"), func() method.Method { return blockMethod{release: release} })

	d := dispatcher.New(facade, sched, reg, nil, logging.New(), dispatcher.Config{
		MaxConnections: 2,
		WorkerPoolSize: 4,
	})
	if err := d.Serve([]endpoint.Endpoint{endpoint.New("127.0.0.1", 0, nil)}); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	t.Cleanup(func() { d.Stop(2 * time.Second) })
	boundEp := d.ListenEndpoints()[0]

	blocked, err := facade.Connect(boundEp, 2*time.Second)
	if err != nil {
		t.Fatalf("Connect (blocked): %v", err)
	}
	defer blocked.Close()
	blockedIn := nbio.NewNBInbuf(blocked, sched, 4096, throughput.Config{})
	blockedOut := nbio.NewNBOutbuf(blocked, sched, 4096, throughput.Config{})

	callDone := make(chan error, 1)
	go func() {
		var reply bool
		inputs := rpcengine.InputList{
			func(r *wire.Reader) (err error) { reply, err = r.ReadBool(); return },
		}
		callDone <- rpcengine.Call(blockedIn, blockedOut, sched, ident.MustParse("block"), nil, inputs)
		_ = reply
	}()

	deadline := time.Now().Add(2 * time.Second)
	for d.BeingServedCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := d.BeingServedCount(); got != 1 {
		t.Fatalf("BeingServedCount = %d, want 1 before the two idle connections dial in", got)
	}

	var idle []tcpsocket.Conn
	for i := 0; i < 2; i++ {
		c, err := facade.Connect(boundEp, 2*time.Second)
		if err != nil {
			t.Fatalf("Connect (idle #%d): %v", i, err)
		}
		idle = append(idle, c)
		defer c.Close()
		time.Sleep(20 * time.Millisecond) // let the dispatcher's accept loop catch up
	}

	deadline = time.Now().Add(2 * time.Second)
	for d.MonitoredCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := d.MonitoredCount(); got != 2 {
		t.Fatalf("MonitoredCount = %d, want 2 (both idle connections kept; the being-served one must not count toward MaxConnections)", got)
	}

	closeRelease()
	if err := <-callDone; err != nil {
		t.Fatalf("blocked call: %v", err)
	}
}

package calcmethods_test

import (
	"strings"
	"testing"

	"github.com/nabbar/wirerpc/ident"
	"github.com/nabbar/wirerpc/internal/calcmethods"
	"github.com/nabbar/wirerpc/internal/wiretest"
	"github.com/nabbar/wirerpc/method"
	"github.com/nabbar/wirerpc/nbio"
	"github.com/nabbar/wirerpc/remoteerror"
	"github.com/nabbar/wirerpc/reqhandler"
	"github.com/nabbar/wirerpc/rpcengine"
	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/throughput"
	"github.com/nabbar/wirerpc/wire"
)

func newPair(t *testing.T) (reg *method.Registry, sched scheduler.Scheduler, srvIn *nbio.NBInbuf, srvOut *nbio.NBOutbuf, cliIn *nbio.NBInbuf, cliOut *nbio.NBOutbuf) {
	t.Helper()
	srv, cli := wiretest.Pipe(t)
	sched = scheduler.NewNetpoller()
	t.Cleanup(sched.Close)

	reg = method.NewRegistry()
	calcmethods.Register(reg)

	srvIn = nbio.NewNBInbuf(srv, sched, 4096, throughput.Config{})
	srvOut = nbio.NewNBOutbuf(srv, sched, 4096, throughput.Config{})
	cliIn = nbio.NewNBInbuf(cli, sched, 4096, throughput.Config{})
	cliOut = nbio.NewNBOutbuf(cli, sched, 4096, throughput.Config{})
	return
}

func TestAddRoundTrip(t *testing.T) {
	reg, sched, srvIn, srvOut, cliIn, cliOut := newPair(t)

	done := make(chan error, 1)
	go func() { done <- reqhandler.HandleOne(srvIn, srvOut, sched, reg) }()

	var sum int64
	outputs := rpcengine.OutputList{
		func(w *wire.Writer) error { return w.WriteInt64(2) },
		func(w *wire.Writer) error { return w.WriteInt64(3) },
	}
	inputs := rpcengine.InputList{
		func(r *wire.Reader) (err error) { sum, err = r.ReadInt64(); return },
	}

	if err := rpcengine.Call(cliIn, cliOut, sched, ident.MustParse("add"), outputs, inputs); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("HandleOne: %v", err)
	}
	if sum != 5 {
		t.Fatalf("add(2,3) = %d, want 5", sum)
	}
}

func TestSubtractUnderflowReturnsInlineException(t *testing.T) {
	reg, sched, srvIn, srvOut, cliIn, cliOut := newPair(t)

	done := make(chan error, 1)
	go func() { done <- reqhandler.HandleOne(srvIn, srvOut, sched, reg) }()

	outputs := rpcengine.OutputList{
		func(w *wire.Writer) error { return w.WriteInt64(-2147483648) },
		func(w *wire.Writer) error { return w.WriteInt64(1) },
	}
	var result int64
	inputs := rpcengine.InputList{
		func(r *wire.Reader) (err error) { result, err = r.ReadInt64(); return },
	}

	err := rpcengine.Call(cliIn, cliOut, sched, ident.MustParse("subtract"), outputs, inputs)
	if err == nil {
		t.Fatalf("expected an inline exception error, got nil (result=%d)", result)
	}
	sig, ok := err.(*wire.RemoteErrorSignal)
	if !ok {
		t.Fatalf("expected *wire.RemoteErrorSignal, got %T: %v", err, err)
	}
	if !strings.Contains(sig.Err.Description, "underflow") {
		t.Fatalf("expected underflow description, got %q", sig.Err.Description)
	}
	if hErr := <-done; hErr != nil {
		t.Fatalf("HandleOne: %v", hErr)
	}
}

// TestUnknownMethodReturnsBadRequest is spec.md §8 scenario S3: an
// unregistered method name produces an inline exception tagged bad_request
// whose description names the missing method, and the connection itself
// survives (HandleOne reports no connection-level error).
func TestUnknownMethodReturnsBadRequest(t *testing.T) {
	reg, sched, srvIn, srvOut, cliIn, cliOut := newPair(t)

	done := make(chan error, 1)
	go func() { done <- reqhandler.HandleOne(srvIn, srvOut, sched, reg) }()

	outputs := rpcengine.OutputList{
		func(w *wire.Writer) error { return w.WriteInt64(6) },
		func(w *wire.Writer) error { return w.WriteInt64(2) },
	}
	var result int64
	inputs := rpcengine.InputList{
		func(r *wire.Reader) (err error) { result, err = r.ReadInt64(); return },
	}

	err := rpcengine.Call(cliIn, cliOut, sched, ident.MustParse("divide"), outputs, inputs)
	if err == nil {
		t.Fatalf("expected an inline exception error, got nil (result=%d)", result)
	}
	sig, ok := err.(*wire.RemoteErrorSignal)
	if !ok {
		t.Fatalf("expected *wire.RemoteErrorSignal, got %T: %v", err, err)
	}
	if sig.Err.Type.String() != remoteerror.TypeBadRequest {
		t.Fatalf("error type = %q, want %q", sig.Err.Type.String(), remoteerror.TypeBadRequest)
	}
	if !strings.Contains(sig.Err.Description, "method not found") {
		t.Fatalf("expected a method-not-found description, got %q", sig.Err.Description)
	}
	if hErr := <-done; hErr != nil {
		t.Fatalf("HandleOne: %v", hErr)
	}
}

// TestTwoRequestsOnOneConnection is spec.md §8 scenario S6: the server
// replies to successive requests on the same TCP connection in order,
// preserving message boundaries, without pipelining ahead of a reply
// (spec.md §9's open-question decision recorded in DESIGN.md).
func TestTwoRequestsOnOneConnection(t *testing.T) {
	reg, sched, srvIn, srvOut, cliIn, cliOut := newPair(t)

	callAdd := func(a, b int64) int64 {
		done := make(chan error, 1)
		go func() { done <- reqhandler.HandleOne(srvIn, srvOut, sched, reg) }()

		var sum int64
		outputs := rpcengine.OutputList{
			func(w *wire.Writer) error { return w.WriteInt64(a) },
			func(w *wire.Writer) error { return w.WriteInt64(b) },
		}
		inputs := rpcengine.InputList{
			func(r *wire.Reader) (err error) { sum, err = r.ReadInt64(); return },
		}
		if err := rpcengine.Call(cliIn, cliOut, sched, ident.MustParse("add"), outputs, inputs); err != nil {
			t.Fatalf("Call: %v", err)
		}
		if err := <-done; err != nil {
			t.Fatalf("HandleOne: %v", err)
		}
		return sum
	}

	if got := callAdd(2, 3); got != 5 {
		t.Fatalf("first add(2,3) = %d, want 5", got)
	}
	if got := callAdd(40, 2); got != 42 {
		t.Fatalf("second add(40,2) = %d, want 42", got)
	}
}

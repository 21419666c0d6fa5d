// Package rpcengine implements the client-side half of spec.md §4.5: one
// call drives a writer branch (identifier, arguments, end-of-message,
// flush) and a reader branch (reply values, end-of-message) concurrently
// against the same bound buffers, first error wins, and the losing branch
// degrades into its finisher rather than abandoning the stream mid-message.
package rpcengine

import (
	"sync"

	"github.com/nabbar/wirerpc/ident"
	"github.com/nabbar/wirerpc/nbio"
	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/stackmarker"
	"github.com/nabbar/wirerpc/wire"
)

// OutputList supplies one call's request arguments, in declaration order;
// each closure writes exactly one value.
type OutputList []func(w *wire.Writer) error

// InputList receives one call's reply values, in declaration order; each
// closure reads exactly one value.
type InputList []func(r *wire.Reader) error

// Call drives one round-trip for methodName over nbIn/nbOut, writing
// outputs as the request's arguments and reading inputs as the reply's
// values. It blocks until both branches complete.
func Call(nbIn *nbio.NBInbuf, nbOut *nbio.NBOutbuf, sched scheduler.Scheduler, methodName ident.Identifier, outputs OutputList, inputs InputList) error {
	base := stackmarker.Root()

	bin := nbio.BindInbuf(nbIn, sched, base)
	defer bin.Release()
	bout := nbio.BindOutbuf(nbOut, sched, base)
	defer bout.Release()

	r := wire.NewReader(bin)
	w := wire.NewWriter(bout)

	var mu sync.Mutex
	var firstErr error
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		err := writeRequest(w, methodName, outputs)
		if err != nil {
			record(err)
			// Finisher: the reader branch may already be blocked waiting
			// for a reply to a request it never saw; writing EOM and
			// flushing keeps the stream aligned for whatever the peer
			// does send back.
			_ = w.WriteEOM()
			_ = w.Flush()
		}
	}()

	go func() {
		defer wg.Done()
		err := readReply(r, inputs)
		if err != nil {
			record(err)
			_ = r.DrainToEOM()
		}
	}()

	wg.Wait()

	if st := bout.Status(); !st.IsOK() {
		return st.AsError()
	}
	if st := bin.Status(); !st.IsOK() {
		return st.AsError()
	}
	return firstErr
}

func writeRequest(w *wire.Writer, methodName ident.Identifier, outputs OutputList) error {
	if err := w.WriteIdentifier(methodName); err != nil {
		return err
	}
	for _, out := range outputs {
		if err := out(w); err != nil {
			return err
		}
	}
	if err := w.WriteEOM(); err != nil {
		return err
	}
	return w.Flush()
}

func readReply(r *wire.Reader, inputs InputList) error {
	for _, in := range inputs {
		if err := in(r); err != nil {
			return err
		}
	}
	return r.ReadEOM()
}

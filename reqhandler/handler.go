// Package reqhandler implements the server-side request handler from
// spec.md §4.5: read a method identifier, instantiate it from the method
// map, run it, read end-of-message, and on any failure write a structured
// remote error in lieu of the reply that wasn't completed.
package reqhandler

import (
	"io"

	"github.com/nabbar/wirerpc/async"
	"github.com/nabbar/wirerpc/method"
	"github.com/nabbar/wirerpc/nbio"
	"github.com/nabbar/wirerpc/remoteerror"
	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/stackmarker"
	"github.com/nabbar/wirerpc/wire"
	"github.com/nabbar/wirerpc/wirestatus"
)

// HandleOne drives exactly one request to completion against nbIn/nbOut,
// per spec.md §4.5's seven-step sequence. It returns a non-nil error only
// when the connection itself must be dropped (EOF, I/O error, or
// insufficient throughput); a malformed request or unknown method is
// reported to the peer as a remote error and HandleOne returns nil, leaving
// the connection usable for the next request on the same stream (spec.md §8
// invariant 5).
func HandleOne(nbIn *nbio.NBInbuf, nbOut *nbio.NBOutbuf, sched scheduler.Scheduler, reg *method.Registry) error {
	base := stackmarker.Root()

	bin := nbio.BindInbuf(nbIn, sched, base)
	defer bin.Release()
	bout := nbio.BindOutbuf(nbOut, sched, base)
	defer bout.Release()

	r := wire.NewReader(bin)
	w := wire.NewWriter(bout)

	var remoteErr *remoteerror.RemoteError

	methodID, err := r.ReadIdentifier()
	if err != nil {
		if isConnFatal(err) {
			return err
		}
		re := remoteerror.BadRequest(err.Error())
		remoteErr = &re
	}

	var m method.Method
	if remoteErr == nil {
		factory, ok := reg.Lookup(methodID)
		if !ok {
			re := remoteerror.BadRequest("method not found: " + methodID.String())
			remoteErr = &re
		} else {
			m = factory()
		}
	}

	if remoteErr == nil {
		final := async.NewFinalResult[struct{}]()
		m.Start(base, r, w, final)
		if _, startErr := final.Wait(); startErr != nil {
			if isConnFatal(startErr) {
				return startErr
			}
			re := remoteerror.MethodFailed(startErr.Error())
			remoteErr = &re
		}
	}

	if remoteErr == nil {
		if err := r.ReadEOM(); err != nil {
			if isConnFatal(err) {
				return err
			}
			re := remoteerror.BadRequest(err.Error())
			remoteErr = &re
		}
	}

	if remoteErr != nil {
		if err := w.WriteInlineException(*remoteErr); err != nil {
			return err
		}
		// Whatever went wrong left the input stream at an unknown position
		// short of the request's own terminating '\n' (a malformed request,
		// an unread argument list, or a method that failed partway through
		// its own reads); drain to that boundary so the connection is
		// realigned for the next request. When remoteErr is nil, ReadEOM
		// above has already consumed exactly that '\n' and draining again
		// here would block waiting for a request that was never sent
		// (spec.md §9's no-pipelining decision: the peer won't send its
		// next request until it has this reply).
		if err := r.DrainToEOM(); err != nil && isConnFatal(err) {
			return err
		}
	}

	if err := w.WriteEOM(); err != nil {
		return err
	}
	return w.Flush()
}

// isConnFatal distinguishes a connection-level error (EOF, system error,
// tripped throughput checker) from a merely malformed request or a method's
// own business-logic failure, both of which the caller instead reports as a
// remote error and keeps the connection alive. Every error the wire-level
// machinery itself can produce is one of the three recognized types below
// (I/O failures always surface as wirestatus.Status, grammar violations as
// wire.ParseError); anything else reaching here was raised by a method's
// Start implementation describing why its own request failed, which is
// exactly what method_failed exists to report in-band.
func isConnFatal(err error) bool {
	if err == nil {
		return false
	}
	if err == io.EOF {
		return true
	}
	switch err.(type) {
	case wirestatus.Status:
		return true
	case wire.ParseError:
		return false
	case *wire.RemoteErrorSignal:
		return false
	default:
		return false
	}
}

// Package stackmarker implements the bounded-recursion contract from
// spec.md §4.3: continuations that could otherwise recurse synchronously
// (sequence readers, whitespace skippers) check a Marker against a base
// reference and re-enter through the scheduler instead of growing the call
// stack without bound.
//
// Go doesn't expose a safe way to read the actual stack pointer, so Marker
// models the contract with an explicit depth counter rather than real
// stack-pointer arithmetic — it is a faithful stand-in for the same
// threshold test, not a literal translation.
package stackmarker

// DefaultThreshold is spec.md §4.3's "~32 KiB by default", translated into a
// depth-counter budget: call frames in this codebase average well under a
// few hundred bytes, so 256 synchronous hops approximates the same bound.
const DefaultThreshold = 256

// Marker is a local sentinel threaded through a continuation chain. The zero
// Marker is the root of a chain (depth 0); call Child to advance it one hop.
type Marker struct {
	depth int
}

// Root returns a fresh base marker for the start of a new continuation chain
// (e.g. the start of one request's read or write).
func Root() Marker { return Marker{} }

// Child returns the marker for one synchronous hop deeper than m.
func (m Marker) Child() Marker { return Marker{depth: m.depth + 1} }

// InRange reports whether continuing synchronously from m, measured against
// base, is still within threshold hops. A continuation calls this before
// recursing; on false, it must re-enter via the scheduler instead.
func (m Marker) InRange(base Marker, threshold int) bool {
	return m.depth-base.depth < threshold
}

// Depth exposes the raw hop count, for logging and tests.
func (m Marker) Depth() int { return m.depth }

// Trampoline is the helper spec.md §4.3's bounded-recursion contract calls
// for at every synchronous continuation point. step is the next hop of the
// recursion, given the marker it should continue from; as long as m is
// still within threshold hops of base, Trampoline calls step(m.Child())
// directly, growing the Go call stack by one frame exactly as a literal
// recursive call would. Once m falls out of range, it instead calls reenter
// with a resume closure that restarts step from a fresh Root marker;
// reenter is expected to hand that closure to the scheduler already being
// waited on (a zero-delay CallWhenReadable/CallWhenWritable on the bound
// buffer), so the continuation suspends and resumes with an empty call
// stack instead of growing it further.
func Trampoline(m, base Marker, threshold int, step func(Marker), reenter func(resume func())) {
	if m.InRange(base, threshold) {
		step(m.Child())
		return
	}
	reenter(func() { step(Root()) })
}

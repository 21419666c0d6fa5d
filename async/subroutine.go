package async

import "github.com/nabbar/wirerpc/stackmarker"

// FailureMode selects how a Subroutine's child failure is propagated, per
// spec.md §4.3.
type FailureMode uint8

const (
	// ForwardUpwards fails the parent's own Result directly (the default).
	ForwardUpwards FailureMode = iota
	// HandleInParent instead calls a parent-supplied failure handler,
	// letting the parent decide what happens next (e.g. the request
	// handler converting a method failure into a remote error and
	// continuing the session instead of aborting it).
	HandleInParent
)

// Subroutine holds the wiring a parent uses to start a child computation and
// receive its single outcome, without the child needing to know whether its
// success value flows to a real Result or whether its failure should abort
// the parent outright or be absorbed locally.
type Subroutine[T any] struct {
	mode      FailureMode
	onSuccess func(T)
	onFailure func(error)
}

// NewForwardUpwards builds a Subroutine whose child failures fail parent
// directly; successes are delivered to onSuccess.
func NewForwardUpwards[T any](parent Result[T], onSuccess func(T)) *Subroutine[T] {
	return &Subroutine[T]{
		mode:      ForwardUpwards,
		onSuccess: onSuccess,
		onFailure: parent.Fail,
	}
}

// NewHandleInParent builds a Subroutine whose child failures are routed to a
// parent-chosen handler instead of the parent's own Result.
func NewHandleInParent[T any](onSuccess func(T), onFailure func(error)) *Subroutine[T] {
	return &Subroutine[T]{
		mode:      HandleInParent,
		onSuccess: onSuccess,
		onFailure: onFailure,
	}
}

// Start runs child against a base marker and a Result wired back to this
// Subroutine's parent according to its FailureMode. child is given base so it
// can in turn decide, at its own continuation points, whether to proceed
// synchronously (stackmarker.Marker.InRange) or re-enter via a scheduler.
func (s *Subroutine[T]) Start(base stackmarker.Marker, child func(base stackmarker.Marker, result Result[T])) {
	wired := NewCallbackResult(s.onSuccess, s.onFailure)
	child(base, wired)
}

// Package async implements the continuation-passing primitives from
// spec.md §4.3: a Result is the sink every reader/writer/method reports its
// one outcome to, and a Subroutine wires a child computation's result back
// to its parent, either forwarding failures upwards or handling them locally.
package async

import "sync"

// Result is the sink for {submit(value), fail(err)}. Implementations call
// back exactly once; later calls are no-ops.
type Result[T any] interface {
	Submit(value T)
	Fail(err error)
}

// CallbackResult adapts two plain functions into a Result, firing at most
// one of them exactly once. It is the usual way a subroutine reports to its
// parent: the parent supplies closures that know what to do with the child's
// outcome.
type CallbackResult[T any] struct {
	mu       sync.Mutex
	fired    bool
	onSubmit func(T)
	onFail   func(error)
}

// NewCallbackResult builds a Result from the two outcome handlers. Either may
// be nil, in which case that outcome is silently dropped.
func NewCallbackResult[T any](onSubmit func(T), onFail func(error)) *CallbackResult[T] {
	return &CallbackResult[T]{onSubmit: onSubmit, onFail: onFail}
}

func (c *CallbackResult[T]) fire(f func()) {
	c.mu.Lock()
	if c.fired {
		c.mu.Unlock()
		return
	}
	c.fired = true
	c.mu.Unlock()
	f()
}

func (c *CallbackResult[T]) Submit(value T) {
	c.fire(func() {
		if c.onSubmit != nil {
			c.onSubmit(value)
		}
	})
}

func (c *CallbackResult[T]) Fail(err error) {
	c.fire(func() {
		if c.onFail != nil {
			c.onFail(err)
		}
	})
}

// FinalResult additionally records the outcome for synchronous consumption,
// used wherever a caller needs to block waiting on an otherwise
// callback-driven chain (the top of rpcengine's Call, or a test).
type FinalResult[T any] struct {
	mu     sync.Mutex
	done   chan struct{}
	closed bool
	value  T
	err    error
}

// NewFinalResult builds a FinalResult ready to receive one outcome.
func NewFinalResult[T any]() *FinalResult[T] {
	return &FinalResult[T]{done: make(chan struct{})}
}

func (f *FinalResult[T]) finish(value T, err error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.value = value
	f.err = err
	close(f.done)
	f.mu.Unlock()
}

func (f *FinalResult[T]) Submit(value T) { f.finish(value, nil) }
func (f *FinalResult[T]) Fail(err error) {
	var zero T
	f.finish(zero, err)
}

// Wait blocks until the result fires and returns its outcome.
func (f *FinalResult[T]) Wait() (T, error) {
	<-f.done
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Done reports whether the result has already fired, without blocking.
func (f *FinalResult[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

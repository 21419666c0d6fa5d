package scheduler_test

import (
	"sync"
	"testing"
	"time"

	"github.com/nabbar/wirerpc/scheduler"
)

// fakeSource is a manually-triggered types.ReadySource for tests that don't
// want to drive real socket readiness.
type fakeSource struct {
	mu   sync.Mutex
	done func()
}

func (f *fakeSource) Arm(done func()) (cancel func()) {
	f.mu.Lock()
	f.done = done
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.done = nil
		f.mu.Unlock()
	}
}

func (f *fakeSource) trigger() {
	f.mu.Lock()
	d := f.done
	f.done = nil
	f.mu.Unlock()
	if d != nil {
		d()
	}
}

// drainOne runs Wait once in a goroutine with a timeout, returning whether a
// callback arrived and invoking it if so.
func drainOne(t *testing.T, sched scheduler.Scheduler, timeout time.Duration) bool {
	t.Helper()
	type res struct {
		cb func()
		ok bool
	}
	ch := make(chan res, 1)
	go func() {
		cb, ok := sched.Wait()
		ch <- res{cb, ok}
	}()
	select {
	case r := <-ch:
		if r.ok {
			r.cb()
		}
		return r.ok
	case <-time.After(timeout):
		t.Fatal("Wait() never returned")
		return false
	}
}

// TestCancelPreventsDelivery is spec.md §8 invariant 4's cancellation half:
// canceling a ticket before it fires means its callback never runs.
func TestCancelPreventsDelivery(t *testing.T) {
	sched := scheduler.NewNetpoller()
	t.Cleanup(sched.Close)

	fired := false
	ticket := sched.CallAlarm(50*time.Millisecond, func() { fired = true })
	sched.Cancel(ticket)

	// Nothing should ever arrive; Close after a short grace period and
	// confirm the callback never ran.
	time.Sleep(100 * time.Millisecond)
	sched.Close()
	if fired {
		t.Fatal("canceled alarm fired anyway")
	}
}

// TestCancelIsIdempotent verifies calling Cancel twice on the same
// not-yet-fired ticket doesn't panic or misbehave.
func TestCancelIsIdempotent(t *testing.T) {
	sched := scheduler.NewNetpoller()
	t.Cleanup(sched.Close)

	ticket := sched.CallAlarm(time.Hour, func() {})
	sched.Cancel(ticket)
	sched.Cancel(ticket) // must not panic
}

// TestReadableFiresExactlyOnce is spec.md §8 invariant 4: a readiness
// callback is delivered by Wait at most once per registration.
func TestReadableFiresExactlyOnce(t *testing.T) {
	sched := scheduler.NewNetpoller()
	t.Cleanup(sched.Close)

	src := &fakeSource{}
	var calls int
	sched.CallWhenReadable(src, func() { calls++ })

	go src.trigger()
	if !drainOne(t, sched, time.Second) {
		t.Fatal("Wait() did not return the readiness callback")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	// Triggering the (already-fired, unregistered) source again must not
	// enqueue a second callback.
	src.trigger()
	select {
	case <-time.After(50 * time.Millisecond):
	}
	if calls != 1 {
		t.Fatalf("calls = %d after a second trigger, want still 1 (no double delivery)", calls)
	}
}

// TestAlarmsOrderedByDeadline verifies multiple alarms fire in absolute-time
// order, per spec.md §4.1.
func TestAlarmsOrderedByDeadline(t *testing.T) {
	sched := scheduler.NewNetpoller()
	t.Cleanup(sched.Close)

	var mu sync.Mutex
	var order []int

	record := func(n int) func() {
		return func() {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}
	}

	sched.CallAlarm(30*time.Millisecond, record(3))
	sched.CallAlarm(10*time.Millisecond, record(1))
	sched.CallAlarm(20*time.Millisecond, record(2))

	for i := 0; i < 3; i++ {
		if !drainOne(t, sched, time.Second) {
			t.Fatalf("Wait() #%d did not return", i)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("fired order = %v, want [1 2 3]", order)
	}
}

// TestCloseUnblocksWait verifies Close stops the reactor and Wait reports
// ok=false rather than blocking forever.
func TestCloseUnblocksWait(t *testing.T) {
	sched := scheduler.NewNetpoller()

	done := make(chan struct{})
	go func() {
		_, ok := sched.Wait()
		if ok {
			t.Error("Wait() returned ok=true after Close with nothing pending")
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	sched.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait() did not unblock after Close")
	}
}

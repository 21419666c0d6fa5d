// Package throughput implements the rate-limit enforcer described in
// spec.md §3 "Throughput checker": if fewer than min_bytes_per_tick bytes
// transfer during each of low_ticks_limit consecutive ticks, Tick reports
// insufficient_throughput. Meeting the minimum on any tick resets the
// low-tick counter.
package throughput

import (
	"sync"
	"time"

	"github.com/nabbar/wirerpc/wirestatus"
)

// Config holds the checker's settings, read once at construction.
type Config struct {
	// MinBytesPerTick is the minimum number of bytes that must transfer
	// during each tick to count as healthy.
	MinBytesPerTick int64
	// LowTicksLimit is the number of consecutive unhealthy ticks tolerated
	// before Tick reports insufficient_throughput.
	LowTicksLimit int
	// TickLength is the wall-clock duration of one tick.
	TickLength time.Duration
}

// Enabled reports whether this Config describes an active checker; the zero
// Config disables throughput enforcement entirely.
func (c Config) Enabled() bool {
	return c.MinBytesPerTick > 0 && c.LowTicksLimit > 0 && c.TickLength > 0
}

// Checker is the per-buffer throughput enforcer. It is not safe for
// concurrent use by more than one goroutine at a time (matching the
// single-threaded-per-worker contract of spec.md §5); the mutex here guards
// only the rare case of a concurrent Reset when a buffer is bound for a new
// request.
type Checker struct {
	cfg Config

	mu        sync.Mutex
	bytesThis int64
	lowTicks  int
	tripped   bool
}

// New builds a Checker. If cfg is not Enabled, the returned Checker's Tick and
// RecordBytes are no-ops that never trip.
func New(cfg Config) *Checker {
	return &Checker{cfg: cfg}
}

// Enabled reports whether this checker enforces anything.
func (c *Checker) Enabled() bool { return c.cfg.Enabled() }

// TickLength returns the configured tick duration, for the owner to schedule
// its alarm against (nbio schedules one alarm per tick while enabled).
func (c *Checker) TickLength() time.Duration { return c.cfg.TickLength }

// RecordBytes accumulates bytes transferred within the current tick. It does
// not itself evaluate the tick boundary; call Tick at each tick's alarm.
func (c *Checker) RecordBytes(n int) {
	if !c.cfg.Enabled() || n <= 0 {
		return
	}
	c.mu.Lock()
	c.bytesThis += int64(n)
	c.mu.Unlock()
}

// Tick closes out the current tick, evaluates it against MinBytesPerTick, and
// returns the resulting status: wirestatus.OK while healthy, or a sticky
// insufficient_throughput status once LowTicksLimit consecutive ticks have
// each transferred fewer than MinBytesPerTick bytes. Once tripped, a Checker
// stays tripped until Reset.
func (c *Checker) Tick() wirestatus.Status {
	if !c.cfg.Enabled() {
		return wirestatus.OK
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tripped {
		return wirestatus.FromFramework(wirestatus.FrameworkInsufficientThroughput)
	}

	transferred := c.bytesThis
	c.bytesThis = 0

	if transferred >= c.cfg.MinBytesPerTick {
		c.lowTicks = 0
		return wirestatus.OK
	}

	c.lowTicks++
	if c.lowTicks >= c.cfg.LowTicksLimit {
		c.tripped = true
		return wirestatus.FromFramework(wirestatus.FrameworkInsufficientThroughput)
	}

	return wirestatus.OK
}

// Reset clears the tripped state and counters. nbio's BindInbuf/BindOutbuf
// call it when a buffer is handed to a new request, before re-enabling
// checking (their Release disables it on scope exit).
func (c *Checker) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bytesThis = 0
	c.lowTicks = 0
	c.tripped = false
}

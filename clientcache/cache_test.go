package clientcache_test

import (
	"testing"

	"github.com/nabbar/wirerpc/clientcache"
	"github.com/nabbar/wirerpc/endpoint"
)

func dialCounter(t *testing.T) (clientcache.Dialer, *int) {
	t.Helper()
	n := 0
	return func(addr endpoint.Endpoint) (*clientcache.Client, error) {
		n++
		return &clientcache.Client{Addr: addr}, nil
	}, &n
}

func TestObtainMissDials(t *testing.T) {
	dial, dials := dialCounter(t)
	c := clientcache.New(4, dial)
	addr := endpoint.New("127.0.0.1", 9090, nil)

	cl, err := c.Obtain(addr)
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	if !cl.Addr.Equal(addr) {
		t.Fatalf("Obtain returned client for wrong address")
	}
	if *dials != 1 {
		t.Fatalf("dials = %d, want 1", *dials)
	}
}

// TestObtainRemovesMatchFromCache verifies spec.md §4.8's "obtain(addr)
// returns ... a cached instance for that addr (removed from the cache)":
// a second Obtain for the same address must not hand out the same instance
// again without an intervening Store, and must fall back to the dialer.
func TestObtainRemovesMatchFromCache(t *testing.T) {
	dial, dials := dialCounter(t)
	c := clientcache.New(4, dial)
	addr := endpoint.New("127.0.0.1", 9090, nil)

	stored := &clientcache.Client{Addr: addr}
	c.Store(stored)
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after Store", c.Len())
	}

	first, err := c.Obtain(addr)
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	if first != stored {
		t.Fatalf("first Obtain did not return the stored instance")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after Obtain removed the only entry", c.Len())
	}

	if _, err := c.Obtain(addr); err != nil {
		t.Fatalf("second Obtain: %v", err)
	}
	if *dials != 1 {
		t.Fatalf("dials = %d, want 1 (second Obtain must miss and dial fresh)", *dials)
	}
}

func TestStoreEvictsTailBeyondMaxCacheSize(t *testing.T) {
	dial, dials := dialCounter(t)
	c := clientcache.New(2, dial)

	a := &clientcache.Client{Addr: endpoint.New("10.0.0.1", 1, nil)}
	b := &clientcache.Client{Addr: endpoint.New("10.0.0.2", 2, nil)}
	evicted := &clientcache.Client{Addr: endpoint.New("10.0.0.3", 3, nil)}

	c.Store(evicted)
	c.Store(b)
	c.Store(a)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (bounded by maxCacheSize)", c.Len())
	}
	if _, err := c.Obtain(evicted.Addr); err != nil {
		t.Fatalf("Obtain for evicted address: %v", err)
	}
	if *dials != 1 {
		t.Fatalf("dials = %d, want 1 (Obtain for evicted address should have missed and dialed, not found a cached entry)", *dials)
	}
}

// TestInvalidateEntriesRemovesAllForAddr verifies spec.md §8 invariant 8:
// after InvalidateEntries(addr), Obtain(addr) must construct a new
// connection rather than reusing any prior one for that address.
func TestInvalidateEntriesRemovesAllForAddr(t *testing.T) {
	dial, dials := dialCounter(t)
	c := clientcache.New(8, dial)
	addr := endpoint.New("127.0.0.1", 9090, nil)
	other := endpoint.New("127.0.0.1", 9191, nil)

	c.Store(&clientcache.Client{Addr: addr})
	c.Store(&clientcache.Client{Addr: addr})
	c.Store(&clientcache.Client{Addr: other})

	c.InvalidateEntries(addr)

	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (only the other address' entry survives)", c.Len())
	}

	if _, err := c.Obtain(addr); err != nil {
		t.Fatalf("Obtain after invalidate: %v", err)
	}
	if *dials != 1 {
		t.Fatalf("dials = %d, want 1 (invalidated address must miss the cache)", *dials)
	}

	if _, err := c.Obtain(other); err != nil {
		t.Fatalf("Obtain for untouched address: %v", err)
	}
	if *dials != 1 {
		t.Fatalf("dials = %d, want 1 (untouched address should still be cached)", *dials)
	}
}

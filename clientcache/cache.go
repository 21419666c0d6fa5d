// Package clientcache implements the client-side connection cache from
// spec.md §4.8: an LRU intrusive list keyed by server endpoint. Since more
// than one entry may legitimately exist for the same endpoint (obtain scans
// for the first match rather than keying a map), this is a genuine
// container/list intrusive list rather than a key→value cache — a generic
// LRU library like the pack's golang-lru doesn't model "many entries, one
// key, positional eviction", so this one facet is built on the standard
// library (see DESIGN.md).
package clientcache

import (
	"container/list"
	"sync"

	"github.com/nabbar/wirerpc/endpoint"
	"github.com/nabbar/wirerpc/nbio"
	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/tcpsocket"
	"github.com/nabbar/wirerpc/throughput"
)

// Client is one non-blocking client connection: the socket plus its bound
// buffer pair, ready for rpcengine.Call.
type Client struct {
	Addr endpoint.Endpoint
	Conn tcpsocket.Conn
	In   *nbio.NBInbuf
	Out  *nbio.NBOutbuf
}

// Close tears down the underlying connection, if there is one.
func (c *Client) Close() error {
	if c.Conn == nil {
		return nil
	}
	return c.Conn.Close()
}

// Dialer constructs a fresh Client connected to addr; Cache calls it outside
// its lock, per spec.md §4.8 "allocation and destruction happen outside the
// lock."
type Dialer func(addr endpoint.Endpoint) (*Client, error)

// Cache is the LRU connection cache. The zero value is not usable; build one
// with New.
type Cache struct {
	mu     sync.Mutex
	list   *list.List // front = most recently stored
	maxLen int

	dial  Dialer
	sched scheduler.Scheduler
	chk   throughput.Config
}

// New builds an empty Cache bounded at maxCacheSize entries (0 means
// unbounded), using dial to construct new clients on a cache miss.
func New(maxCacheSize int, dial Dialer) *Cache {
	return &Cache{
		list:   list.New(),
		maxLen: maxCacheSize,
		dial:   dial,
	}
}

// Obtain returns the first cached client whose address equals addr, removed
// from the cache so no other caller can hand out the same connection; on a
// miss it dials a new one via Dialer but does not store it (the caller
// decides whether and when to Store it back).
func (c *Cache) Obtain(addr endpoint.Endpoint) (*Client, error) {
	c.mu.Lock()
	for e := c.list.Front(); e != nil; e = e.Next() {
		cl := e.Value.(*Client)
		if cl.Addr.Equal(addr) {
			c.list.Remove(e)
			c.mu.Unlock()
			return cl, nil
		}
	}
	c.mu.Unlock()
	return c.dial(addr)
}

// Store inserts cl at the front of the cache, evicting (and closing) the
// tail entry if this exceeds maxCacheSize.
func (c *Cache) Store(cl *Client) {
	c.mu.Lock()
	c.list.PushFront(cl)
	var evicted *Client
	if c.maxLen > 0 && c.list.Len() > c.maxLen {
		tail := c.list.Back()
		evicted = tail.Value.(*Client)
		c.list.Remove(tail)
	}
	c.mu.Unlock()

	if evicted != nil {
		_ = evicted.Close()
	}
}

// InvalidateEntries removes and closes every cached entry for addr.
func (c *Cache) InvalidateEntries(addr endpoint.Endpoint) {
	var removed []*Client

	c.mu.Lock()
	for e := c.list.Front(); e != nil; {
		next := e.Next()
		cl := e.Value.(*Client)
		if cl.Addr.Equal(addr) {
			removed = append(removed, cl)
			c.list.Remove(e)
		}
		e = next
	}
	c.mu.Unlock()

	for _, cl := range removed {
		_ = cl.Close()
	}
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Len()
}

// Package method implements the method map from spec.md §3/§4.7: a
// read-after-startup mapping from Identifier to a factory that produces a
// fresh Method instance for one request; Start then hands the instance that
// request's wire reader, wire writer, and result.
package method

import (
	"sync"

	"github.com/nabbar/wirerpc/async"
	"github.com/nabbar/wirerpc/ident"
	"github.com/nabbar/wirerpc/stackmarker"
	"github.com/nabbar/wirerpc/wire"
)

// Method is one method instance, bound to a single request. Start reads its
// own arguments from r, does its work, and writes its reply to w, reporting
// exactly one outcome to result.
type Method interface {
	Start(base stackmarker.Marker, r *wire.Reader, w *wire.Writer, result async.Result[struct{}])
}

// Factory produces a fresh Method instance for one request.
type Factory func() Method

// Registry is the read-after-startup Identifier → Factory map. It uses the
// same sync.RWMutex-guarded-map shape nabbar-golib's generic context
// registry uses, simplified: wirerpc's registry is built once at startup and
// never mutated concurrently with lookups in practice, but the lock keeps
// Register safe during tests and hot-reload-driven method additions.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Factory
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name ident.Identifier, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name.String()] = f
}

// Lookup returns the factory for name, by value equality of identifiers, and
// whether one was found.
func (r *Registry) Lookup(name ident.Identifier) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.methods[name.String()]
	return f, ok
}

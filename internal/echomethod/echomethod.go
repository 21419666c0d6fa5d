// Package echomethod provides the echo reference method used by spec.md §8
// scenario S4: a sequence of strings comes back unchanged.
package echomethod

import (
	"github.com/nabbar/wirerpc/async"
	"github.com/nabbar/wirerpc/ident"
	"github.com/nabbar/wirerpc/method"
	"github.com/nabbar/wirerpc/stackmarker"
	"github.com/nabbar/wirerpc/wire"
)

// Register adds "echo" to reg.
func Register(reg *method.Registry) {
	reg.Register(ident.MustParse("echo"), func() method.Method { return &echoMethod{} })
}

type echoMethod struct{}

func (echoMethod) Start(base stackmarker.Marker, r *wire.Reader, w *wire.Writer, result async.Result[struct{}]) {
	words, err := wire.ReadSequence(r, func(r *wire.Reader) (string, error) { return r.ReadString() })
	if err != nil {
		result.Fail(err)
		return
	}
	if err := wire.WriteSequence(w, words, func(w *wire.Writer, v string) error { return w.WriteString(v) }); err != nil {
		result.Fail(err)
		return
	}
	result.Submit(struct{}{})
}

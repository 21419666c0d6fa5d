// Package calcmethods provides the add and subtract reference methods used
// throughout the test suite and the reference CLI, matching spec.md §8's
// scenarios S1 ("add 2 3 -> 5") and S2 ("subtract -2147483648 1 ->
// method_failed: subtraction underflow").
package calcmethods

import (
	"fmt"
	"math"

	"github.com/nabbar/wirerpc/async"
	"github.com/nabbar/wirerpc/ident"
	"github.com/nabbar/wirerpc/method"
	"github.com/nabbar/wirerpc/stackmarker"
	"github.com/nabbar/wirerpc/wire"
)

// Register adds "add" and "subtract" to reg.
func Register(reg *method.Registry) {
	reg.Register(ident.MustParse("add"), func() method.Method { return &addMethod{} })
	reg.Register(ident.MustParse("subtract"), func() method.Method { return &subtractMethod{} })
}

type addMethod struct{}

func (addMethod) Start(base stackmarker.Marker, r *wire.Reader, w *wire.Writer, result async.Result[struct{}]) {
	a, err := r.ReadInt64()
	if err != nil {
		result.Fail(err)
		return
	}
	b, err := r.ReadInt64()
	if err != nil {
		result.Fail(err)
		return
	}
	if err := w.WriteInt64(a + b); err != nil {
		result.Fail(err)
		return
	}
	result.Submit(struct{}{})
}

type subtractMethod struct{}

// subtract operates on the narrower int32 range on purpose: spec.md §8
// scenario S2 sends operands at the int32 boundary (-2147483648, 1) and
// expects an in-band "subtraction underflow" method_failed, not a wire
// value — the wire integer grammar itself is wider (int64), but this
// particular method's domain is int32, matching the arithmetic the
// original reference implementation performed.
func (subtractMethod) Start(base stackmarker.Marker, r *wire.Reader, w *wire.Writer, result async.Result[struct{}]) {
	a, err := r.ReadInt64()
	if err != nil {
		result.Fail(err)
		return
	}
	b, err := r.ReadInt64()
	if err != nil {
		result.Fail(err)
		return
	}
	if a < math.MinInt32 || a > math.MaxInt32 || b < math.MinInt32 || b > math.MaxInt32 {
		result.Fail(fmt.Errorf("subtract: operand out of int32 range"))
		return
	}

	diff := int64(int32(a)) - int64(int32(b))
	if diff < math.MinInt32 || diff > math.MaxInt32 {
		result.Fail(fmt.Errorf("subtract: subtraction underflow"))
		return
	}

	if err := w.WriteInt64(diff); err != nil {
		result.Fail(err)
		return
	}
	result.Submit(struct{}{})
}

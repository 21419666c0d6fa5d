// Package x264stub provides wirerpc's "encode" reference method: a thin
// wire adapter over an Encoder, mirroring the shape of the original
// encode_handler_t from x264_es_utils (session-parameters reader feeding an
// encoding session, one sample per frame, end-of-stream report) but
// collapsed to a single request/reply round trip instead of a long-lived
// streaming session, and with no real x264 binding — Encoder is supplied by
// the caller, so the core module never links against a real encoder.
package x264stub

import (
	"context"

	"github.com/nabbar/wirerpc/async"
	"github.com/nabbar/wirerpc/ident"
	"github.com/nabbar/wirerpc/method"
	"github.com/nabbar/wirerpc/stackmarker"
	"github.com/nabbar/wirerpc/wire"
)

// Settings is the session_params_t equivalent: the encoder configuration
// the request supplies before any frame is encoded.
type Settings struct {
	Width   int64
	Height  int64
	Bitrate int64
	Codec   string
}

// Encoder performs the actual encode. A production binding would wrap
// libx264; the reference service ships a no-op stand-in (see NoopEncoder)
// so the framework's own tests never require a real codec.
type Encoder interface {
	Encode(ctx context.Context, settings Settings) (outputRef string, err error)
}

// NoopEncoder satisfies Encoder without touching any real media pipeline,
// returning a deterministic reference string so callers (and tests) can
// assert on it.
type NoopEncoder struct{}

func (NoopEncoder) Encode(_ context.Context, s Settings) (string, error) {
	return "encoded:" + s.Codec, nil
}

// Register adds "encode" to reg, backed by enc.
func Register(reg *method.Registry, enc Encoder) {
	reg.Register(ident.MustParse("encode"), func() method.Method { return &encodeMethod{enc: enc} })
}

type encodeMethod struct {
	enc Encoder
}

func (m *encodeMethod) Start(base stackmarker.Marker, r *wire.Reader, w *wire.Writer, result async.Result[struct{}]) {
	var s Settings
	err := wire.ReadAggregate(r,
		func(r *wire.Reader) (err error) { s.Width, err = r.ReadInt64(); return },
		func(r *wire.Reader) (err error) { s.Height, err = r.ReadInt64(); return },
		func(r *wire.Reader) (err error) { s.Bitrate, err = r.ReadInt64(); return },
		func(r *wire.Reader) (err error) { s.Codec, err = r.ReadString(); return },
	)
	if err != nil {
		result.Fail(err)
		return
	}

	outputRef, err := m.enc.Encode(context.Background(), s)
	if err != nil {
		result.Fail(err)
		return
	}

	if err := w.WriteString(outputRef); err != nil {
		result.Fail(err)
		return
	}
	result.Submit(struct{}{})
}

package x264stub_test

import (
	"testing"

	"github.com/nabbar/wirerpc/ident"
	"github.com/nabbar/wirerpc/internal/wiretest"
	"github.com/nabbar/wirerpc/internal/x264stub"
	"github.com/nabbar/wirerpc/method"
	"github.com/nabbar/wirerpc/nbio"
	"github.com/nabbar/wirerpc/reqhandler"
	"github.com/nabbar/wirerpc/rpcengine"
	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/throughput"
	"github.com/nabbar/wirerpc/wire"
)

func TestEncodeReturnsOutputRefFromNoopEncoder(t *testing.T) {
	srv, cli := wiretest.Pipe(t)
	sched := scheduler.NewNetpoller()
	t.Cleanup(sched.Close)

	reg := method.NewRegistry()
	x264stub.Register(reg, x264stub.NoopEncoder{})

	srvIn := nbio.NewNBInbuf(srv, sched, 4096, throughput.Config{})
	srvOut := nbio.NewNBOutbuf(srv, sched, 4096, throughput.Config{})
	cliIn := nbio.NewNBInbuf(cli, sched, 4096, throughput.Config{})
	cliOut := nbio.NewNBOutbuf(cli, sched, 4096, throughput.Config{})

	done := make(chan error, 1)
	go func() { done <- reqhandler.HandleOne(srvIn, srvOut, sched, reg) }()

	settings := x264stub.Settings{Width: 1920, Height: 1080, Bitrate: 4_000_000, Codec: "h264"}
	var outputRef string

	outputs := rpcengine.OutputList{
		func(w *wire.Writer) error {
			return wire.WriteAggregate(w,
				func(w *wire.Writer) error { return w.WriteInt64(settings.Width) },
				func(w *wire.Writer) error { return w.WriteInt64(settings.Height) },
				func(w *wire.Writer) error { return w.WriteInt64(settings.Bitrate) },
				func(w *wire.Writer) error { return w.WriteString(settings.Codec) },
			)
		},
	}
	inputs := rpcengine.InputList{
		func(r *wire.Reader) (err error) { outputRef, err = r.ReadString(); return },
	}

	if err := rpcengine.Call(cliIn, cliOut, sched, ident.MustParse("encode"), outputs, inputs); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("HandleOne: %v", err)
	}
	if outputRef != "encoded:h264" {
		t.Fatalf("outputRef = %q, want %q", outputRef, "encoded:h264")
	}
}

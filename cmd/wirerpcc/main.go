// Command wirerpcc is a reference client for wirerpcd: one subcommand per
// example method (add, subtract, echo, encode), each opening a fresh
// connection, making exactly one call, and printing the reply.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nabbar/wirerpc/ident"
	"github.com/nabbar/wirerpc/internal/x264stub"
	"github.com/nabbar/wirerpc/logging"
	"github.com/nabbar/wirerpc/nbio"
	"github.com/nabbar/wirerpc/rpcengine"
	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/tcpsocket"
	"github.com/nabbar/wirerpc/throughput"
	"github.com/nabbar/wirerpc/wire"
)

var serverAddr string
var verbose bool

// log is the CLI's own diagnostic output (debug-level connection progress), separate
// from the reply each subcommand prints to stdout.
var log = logging.New()

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.Red("wirerpcc: %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "wirerpcc",
		Short: "wirerpc reference client",
	}
	root.PersistentFlags().StringVarP(&serverAddr, "server", "s", "127.0.0.1:9090", "wirerpcd address")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level diagnostic output")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logging.DebugLevel)
		}
		logging.BindSPF13(log)
	}

	root.AddCommand(addCommand(), subtractCommand(), echoCommand(), encodeCommand())
	return root
}

func dial() (*nbio.NBInbuf, *nbio.NBOutbuf, scheduler.Scheduler, func(), error) {
	host, portStr, err := net.SplitHostPort(serverAddr)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("server address %q: %w", serverAddr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("server address %q: invalid port: %w", serverAddr, err)
	}

	facade := tcpsocket.NewFacade()
	ep, err := facade.ResolveIP(host, uint16(port))
	if err != nil {
		return nil, nil, nil, nil, err
	}

	conn, err := facade.Connect(ep, 5*time.Second)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	log.Debug("connected", nil, "server", serverAddr)

	sched := scheduler.NewNetpoller()
	in := nbio.NewNBInbuf(conn, sched, 4096, throughput.Config{})
	out := nbio.NewNBOutbuf(conn, sched, 4096, throughput.Config{})

	cleanup := func() {
		_ = conn.Close()
		sched.Close()
	}
	return in, out, sched, cleanup, nil
}

func addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <a> <b>",
		Short: "call the add method",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return calcCall("add", args)
		},
	}
}

func subtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "subtract <a> <b>",
		Short: "call the subtract method",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return calcCall("subtract", args)
		},
	}
}

func calcCall(method string, args []string) error {
	a, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("argument %q: %w", args[0], err)
	}
	b, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("argument %q: %w", args[1], err)
	}

	in, out, sched, cleanup, err := dial()
	if err != nil {
		return err
	}
	defer cleanup()

	var result int64
	outputs := rpcengine.OutputList{
		func(w *wire.Writer) error { return w.WriteInt64(a) },
		func(w *wire.Writer) error { return w.WriteInt64(b) },
	}
	inputs := rpcengine.InputList{
		func(r *wire.Reader) (err error) { result, err = r.ReadInt64(); return },
	}

	if err := rpcengine.Call(in, out, sched, ident.MustParse(method), outputs, inputs); err != nil {
		return err
	}
	color.Green("%d", result)
	return nil
}

func echoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "echo <word>...",
		Short: "call the echo method",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out, sched, cleanup, err := dial()
			if err != nil {
				return err
			}
			defer cleanup()

			var reply []string
			outputs := rpcengine.OutputList{
				func(w *wire.Writer) error {
					return wire.WriteSequence(w, args, func(w *wire.Writer, v string) error { return w.WriteString(v) })
				},
			}
			inputs := rpcengine.InputList{
				func(r *wire.Reader) (err error) {
					reply, err = wire.ReadSequence(r, func(r *wire.Reader) (string, error) { return r.ReadString() })
					return
				},
			}

			if err := rpcengine.Call(in, out, sched, ident.MustParse("echo"), outputs, inputs); err != nil {
				return err
			}
			for _, w := range reply {
				color.Green(w)
			}
			return nil
		},
	}
}

func encodeCommand() *cobra.Command {
	var width, height, bitrate int64
	var codec string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "call the encode method against the x264 stand-in",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out, sched, cleanup, err := dial()
			if err != nil {
				return err
			}
			defer cleanup()

			settings := x264stub.Settings{Width: width, Height: height, Bitrate: bitrate, Codec: codec}
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

			if err := rpcengine.Call(in, out, sched, ident.MustParse("encode"), outputs, inputs); err != nil {
				return err
			}
			color.Green(outputRef)
			return nil
		},
	}

	cmd.Flags().Int64Var(&width, "width", 1920, "frame width")
	cmd.Flags().Int64Var(&height, "height", 1080, "frame height")
	cmd.Flags().Int64Var(&bitrate, "bitrate", 4_000_000, "target bitrate")
	cmd.Flags().StringVar(&codec, "codec", "h264", "codec name")
	return cmd
}

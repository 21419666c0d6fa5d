// Command wirerpcd is the reference wirerpc server: it loads a config file,
// binds the listen endpoints it names, registers the example methods
// (add/subtract/echo/encode), and serves both the wire protocol and the
// read-only admin HTTP surface until it receives a termination signal.
//
// Daemonization, PID files, and user/umask handling are left to whatever
// process supervisor runs this binary; this command only ever runs in the
// foreground, matching SPEC_FULL.md's decision to keep OS-process concerns
// out of the library.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nabbar/wirerpc/adminapi"
	"github.com/nabbar/wirerpc/config"
	"github.com/nabbar/wirerpc/dispatcher"
	"github.com/nabbar/wirerpc/endpoint"
	"github.com/nabbar/wirerpc/internal/calcmethods"
	"github.com/nabbar/wirerpc/internal/echomethod"
	"github.com/nabbar/wirerpc/internal/x264stub"
	"github.com/nabbar/wirerpc/logging"
	"github.com/nabbar/wirerpc/method"
	"github.com/nabbar/wirerpc/metrics"
	"github.com/nabbar/wirerpc/scheduler"
	"github.com/nabbar/wirerpc/tcpsocket"
	"github.com/nabbar/wirerpc/throughput"
)

var cfgFile string
var adminAddr string

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		color.Red("wirerpcd: %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wirerpcd",
		Short: "wirerpc reference server",
		Long:  "wirerpcd binds the endpoints named in its config file and serves wirerpc method calls until stopped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	def, err := defaultConfigPath()
	if err != nil {
		def = "wirerpcd.yaml"
	}
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", def, "path to the config file (yaml/json/toml)")
	cmd.PersistentFlags().StringVar(&adminAddr, "admin-listen", "127.0.0.1:9091", "address for the read-only admin/metrics HTTP surface")

	return cmd
}

func defaultConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".wirerpcd.yaml"), nil
}

func run(ctx context.Context) error {
	loader, err := config.NewLoader(cfgFile)
	if err != nil {
		return err
	}
	cur := loader.Current()

	log := logging.New()
	log.SetLevel(logging.ParseLevel(cur.LogLevel))
	logging.BindSPF13(log)
	log.Info("starting wirerpcd", nil, "config", cur.String())

	loader.Watch(func(c config.Config, err error) {
		if err != nil {
			log.Warning("config reload rejected", err)
			return
		}
		log.SetLevel(logging.ParseLevel(c.LogLevel))
		logging.BindSPF13(log)
		log.Info("config reloaded", nil, "config", c.String())
	})

	sched, err := selectScheduler(cur.Selector)
	if err != nil {
		return err
	}
	defer sched.Close()

	reg := method.NewRegistry()
	calcmethods.Register(reg)
	echomethod.Register(reg)
	x264stub.Register(reg, x264stub.NoopEncoder{})

	met := metrics.New()
	met.MustRegister(prometheus.DefaultRegisterer)

	d := dispatcher.New(tcpsocket.NewFacade(), sched, reg, met, log, dispatcher.Config{
		MaxConnections: cur.MaxConnections,
		WorkerPoolSize: cur.WorkerPoolSize,
		MaxInFlight:    cur.MaxInFlight,
		Throughput: throughput.Config{
			MinBytesPerTick: int64(cur.MinBytesPerTick),
			TickLength:      cur.TickLength,
			LowTicksLimit:   cur.LowTicksLimit,
		},
	})

	eps, err := parseListenEndpoints(cur.Listen)
	if err != nil {
		return err
	}
	if err := d.Serve(eps); err != nil {
		return err
	}
	color.Green("wirerpcd listening on %v (admin surface on %s)", cur.Listen, adminAddr)

	admin := adminRouter(d)
	adminSrv := &http.Server{Addr: adminAddr, Handler: admin}
	go func() {
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin HTTP server stopped unexpectedly", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case s := <-sig:
		log.Info("received signal, stopping", nil, "signal", s.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = adminSrv.Shutdown(shutdownCtx)

	d.Stop(10 * time.Second)
	log.Info("wirerpcd stopped", nil)
	return nil
}

func adminRouter(d *dispatcher.Dispatcher) http.Handler {
	r := adminapi.Router(d)
	r.GET("/metrics", func(c *gin.Context) { promhttp.Handler().ServeHTTP(c.Writer, c.Request) })
	return r
}

func selectScheduler(name string) (scheduler.Scheduler, error) {
	switch name {
	case "", "netpoller":
		return scheduler.NewNetpoller(), nil
	case "epoll":
		return scheduler.NewEpoll()
	default:
		return nil, fmt.Errorf("unknown selector %q (want netpoller or epoll)", name)
	}
}

func parseListenEndpoints(listen []string) ([]endpoint.Endpoint, error) {
	facade := tcpsocket.NewFacade()
	out := make([]endpoint.Endpoint, 0, len(listen))
	for _, l := range listen {
		host, portStr, err := net.SplitHostPort(l)
		if err != nil {
			return nil, fmt.Errorf("listen address %q: %w", l, err)
		}
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("listen address %q: invalid port: %w", l, err)
		}
		if host == "" || host == "0.0.0.0" || host == "::" {
			eps, err := facade.LocalInterfaces(uint16(port))
			if err != nil {
				return nil, err
			}
			out = append(out, eps...)
			continue
		}
		ep, err := facade.ResolveIP(host, uint16(port))
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, nil
}

// Package config loads the dispatcher/scheduler tunables SPEC_FULL.md's
// configuration section names (listen endpoints, connection and in-flight
// limits, throughput thresholds, selector backend, log level) through
// spf13/viper, and watches the backing file with fsnotify so an operator
// can retune a running wirerpcd without restarting it.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/nabbar/wirerpc/rpcerr"
)

// Config is the set of tunables a running dispatcher reads. Values are
// re-read from the backing file on every change notification; callers
// should call Loader.Current again rather than caching one across calls.
type Config struct {
	Listen []string `mapstructure:"listen"`

	MaxConnections int `mapstructure:"max_connections"`
	MaxInFlight    int `mapstructure:"max_in_flight"`
	WorkerPoolSize int `mapstructure:"worker_pool_size"`

	MinBytesPerTick int           `mapstructure:"min_bytes_per_tick"`
	TickLength      time.Duration `mapstructure:"tick_length"`
	LowTicksLimit   int           `mapstructure:"low_ticks_limit"`

	Selector string `mapstructure:"selector"`
	LogLevel string `mapstructure:"log_level"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("listen", []string{"0.0.0.0:9090"})
	v.SetDefault("max_connections", 1024)
	v.SetDefault("max_in_flight", 256)
	v.SetDefault("worker_pool_size", 64)
	v.SetDefault("min_bytes_per_tick", 1)
	v.SetDefault("tick_length", time.Second)
	v.SetDefault("low_ticks_limit", 5)
	v.SetDefault("selector", "netpoller")
	v.SetDefault("log_level", "info")
}

// Loader reads a Config from a file and notifies a callback of every
// subsequent change to that file, debounced by viper's own fsnotify
// integration.
type Loader struct {
	mu sync.RWMutex
	v  *viper.Viper
	cu Config
}

// NewLoader reads path once and returns a Loader holding the parsed Config.
// path's extension selects the format (yaml, json, toml, ...) the way
// viper always does.
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	defaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, rpcerr.Wrap(rpcerr.ConfigMissing, "reading config file "+path, err)
	}

	l := &Loader{v: v}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loader) reload() error {
	var c Config
	if err := l.v.Unmarshal(&c); err != nil {
		return rpcerr.Wrap(rpcerr.ConfigInvalid, "decoding config", err)
	}
	if len(c.Listen) == 0 {
		return rpcerr.New(rpcerr.ConfigInvalid, "listen must name at least one endpoint")
	}
	if c.MaxConnections <= 0 || c.MaxInFlight <= 0 || c.WorkerPoolSize <= 0 {
		return rpcerr.New(rpcerr.ConfigInvalid, "max_connections, max_in_flight and worker_pool_size must be positive")
	}

	l.mu.Lock()
	l.cu = c
	l.mu.Unlock()
	return nil
}

// Current returns the most recently loaded Config.
func (l *Loader) Current() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cu
}

// Watch begins watching the backing file for changes, invoking onChange
// with the current Config and the reload error (nil on success) each time
// it fires; on a bad edit the previously loaded Config is kept and passed
// along with the error. It runs until the loader's viper instance is garbage
// collected; callers that need an explicit stop should use
// fsnotify.NewWatcher directly instead.
func (l *Loader) Watch(onChange func(Config, error)) {
	l.v.OnConfigChange(func(in fsnotify.Event) {
		err := l.reload()
		if onChange != nil {
			onChange(l.Current(), err)
		}
	})
	l.v.WatchConfig()
}

// String renders a human-readable summary, used in start-up log lines.
func (c Config) String() string {
	return fmt.Sprintf("listen=%v max_connections=%d max_in_flight=%d worker_pool_size=%d selector=%s log_level=%s",
		c.Listen, c.MaxConnections, c.MaxInFlight, c.WorkerPoolSize, c.Selector, c.LogLevel)
}

// Package metrics exposes the dispatcher's live counters as
// prometheus/client_golang collectors: how many connections are monitored
// versus actively being served, how many workers are idle, how many
// connections have been evicted, and how many have been dropped for
// violating their throughput floor. None of this sits on the request hot
// path — the dispatcher updates these right after each bookkeeping step,
// once it has released its own lock, and a scrape just reads the current
// gauge value.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors is the set of metrics the dispatcher updates. Register it once
// against a prometheus.Registerer (or prometheus.DefaultRegisterer) at
// start-up.
type Collectors struct {
	Monitored    prometheus.Gauge
	BeingServed  prometheus.Gauge
	IdleWorkers  prometheus.Gauge
	Evictions    prometheus.Counter
	ThroughputKO prometheus.Counter
	RequestsOK   prometheus.Counter
	RequestsErr  prometheus.Counter
}

// New builds a Collectors with the wirerpc_dispatcher_ namespace.
func New() *Collectors {
	return &Collectors{
		Monitored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wirerpc",
			Subsystem: "dispatcher",
			Name:      "monitored_connections",
			Help:      "Connections currently idle and watched for readability.",
		}),
		BeingServed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wirerpc",
			Subsystem: "dispatcher",
			Name:      "being_served_connections",
			Help:      "Connections currently handed to a worker.",
		}),
		IdleWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wirerpc",
			Subsystem: "dispatcher",
			Name:      "idle_workers",
			Help:      "Worker pool slots not currently processing a request.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wirerpc",
			Subsystem: "dispatcher",
			Name:      "evictions_total",
			Help:      "Monitored connections closed to admit a new one under max_connections pressure.",
		}),
		ThroughputKO: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wirerpc",
			Subsystem: "dispatcher",
			Name:      "throughput_violations_total",
			Help:      "Connections dropped for falling below the configured throughput floor.",
		}),
		RequestsOK: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wirerpc",
			Subsystem: "dispatcher",
			Name:      "requests_completed_total",
			Help:      "Requests that completed with a reply (success or in-band remote error).",
		}),
		RequestsErr: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wirerpc",
			Subsystem: "dispatcher",
			Name:      "requests_failed_total",
			Help:      "Requests that ended in a connection-fatal error rather than a reply.",
		}),
	}
}

// MustRegister registers every collector against reg, panicking on a
// duplicate-registration error the way prometheus' own examples do at
// start-up time.
func (c *Collectors) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.Monitored,
		c.BeingServed,
		c.IdleWorkers,
		c.Evictions,
		c.ThroughputKO,
		c.RequestsOK,
		c.RequestsErr,
	)
}

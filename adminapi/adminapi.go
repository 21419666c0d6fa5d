// Package adminapi exposes a small read-only gin-gonic/gin HTTP surface
// over a running dispatcher's state: how many connections are monitored
// versus being served, current worker-pool occupancy, and a liveness probe.
// It never accepts a method call itself — RPC traffic only ever moves over
// the wire protocol's own TCP listener — this is purely an operational
// side-channel, off the request hot path.
package adminapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusProvider is the read-only slice of dispatcher state the admin API
// reports. A *dispatcher.Dispatcher satisfies this without either package
// importing the other's internals.
type StatusProvider interface {
	MonitoredCount() int
	BeingServedCount() int
	WorkerPoolSize() int
	WorkerPoolInUse() int
}

// Status is the JSON body served at GET /status.
type Status struct {
	Monitored    int `json:"monitored"`
	BeingServed  int `json:"being_served"`
	WorkerPool   int `json:"worker_pool_size"`
	WorkersInUse int `json:"workers_in_use"`
}

// Router builds a gin.Engine serving GET /status and GET /healthz against
// sp. gin runs in release mode: this is an internal operator surface, not
// a user-facing API, so the default debug request logging would just be
// noise.
func Router(sp StatusProvider) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, Status{
			Monitored:    sp.MonitoredCount(),
			BeingServed:  sp.BeingServedCount(),
			WorkerPool:   sp.WorkerPoolSize(),
			WorkersInUse: sp.WorkerPoolInUse(),
		})
	})

	return r
}

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/nabbar/wirerpc/metrics"
)

func TestMustRegisterAndObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.New()
	c.MustRegister(reg)

	c.Monitored.Set(3)
	c.Evictions.Inc()

	var m dto.Metric
	if err := c.Monitored.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if m.GetGauge().GetValue() != 3 {
		t.Fatalf("expected monitored gauge 3, got %v", m.GetGauge().GetValue())
	}
}

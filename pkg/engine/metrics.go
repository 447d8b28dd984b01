package engine

import (
	"net/http"
	"time"

	"github.com/recordd/recordd/pkg/metrics"
)

// StageMetrics is the name of the request metrics stage.
const StageMetrics = "metrics"

// MetricsPath serves the Prometheus exposition when metrics are enabled.
const MetricsPath = "/metrics"

// MetricsStage counts requests and their latency. route maps a request to
// the label it is reported under.
func MetricsStage(m *metrics.Collector, route func(*http.Request) string) Stage {
	return Stage{
		Name: StageMetrics,
		Wrap: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				sw := newStatusWriter(w)
				next.ServeHTTP(sw, r)
				m.ObserveRequest(r.Method, route(r), sw.statusCode, time.Since(start))
			})
		},
	}
}

// metricsObserver keeps the per-resource gauges in step with one collection.
type metricsObserver struct {
	resource string
	m        *metrics.Collector
}

func (o *metricsObserver) OnCreate(string, int) {
	o.m.AddRecords(o.resource, 1)
}

func (o *metricsObserver) OnUpdate(string, int) {}

func (o *metricsObserver) OnDelete(_ string, _ int, found bool) {
	o.m.Delete(o.resource, found)
	if found {
		o.m.AddRecords(o.resource, -1)
	}
}

func (o *metricsObserver) OnReject(_, op string, _ error) {
	o.m.Reject(o.resource, op)
}

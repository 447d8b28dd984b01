package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// Collector is the metric set of one server.
type Collector struct {
	registry *Registry

	requests   *Counter
	duration   *Histogram
	records    *Gauge
	rejections *Counter
	deletes    *Counter
}

// NewCollector registers the server metrics in a fresh registry.
func NewCollector() *Collector {
	r := NewRegistry()
	return &Collector{
		registry: r,
		requests: r.NewCounter("recordd_requests_total",
			"Total HTTP requests by method, route and status.", "method", "route", "status"),
		duration: r.NewHistogram("recordd_request_duration_seconds",
			"HTTP request latency in seconds.", DefaultBuckets, "method", "route"),
		records: r.NewGauge("recordd_records",
			"Records currently stored per resource.", "resource"),
		rejections: r.NewCounter("recordd_rejected_writes_total",
			"Writes refused by validation or id assignment.", "resource", "op"),
		deletes: r.NewCounter("recordd_deletes_total",
			"Delete requests per resource, by whether the id was stored.", "resource", "found"),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *Registry { return c.registry }

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler { return c.registry.Handler() }

// methodLabel folds methods outside the served set into "other" so clients
// cannot mint new series.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost,
		http.MethodPut, http.MethodDelete, http.MethodOptions:
		return method
	}
	return "other"
}

// ObserveRequest records one finished HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	method = methodLabel(method)
	if vec, err := c.requests.WithLabels(method, route, strconv.Itoa(status)); err == nil {
		_ = vec.Inc()
	}
	if vec, err := c.duration.WithLabels(method, route); err == nil {
		vec.Observe(d.Seconds())
	}
}

// SetRecords sets the stored record count of resource.
func (c *Collector) SetRecords(resource string, n int) {
	if vec, err := c.records.WithLabels(resource); err == nil {
		vec.Set(float64(n))
	}
}

// AddRecords moves the stored record count of resource by delta.
func (c *Collector) AddRecords(resource string, delta int) {
	if vec, err := c.records.WithLabels(resource); err == nil {
		vec.Add(float64(delta))
	}
}

// Reject counts a refused write.
func (c *Collector) Reject(resource, op string) {
	if vec, err := c.rejections.WithLabels(resource, op); err == nil {
		_ = vec.Inc()
	}
}

// Delete counts a delete request.
func (c *Collector) Delete(resource string, found bool) {
	if vec, err := c.deletes.WithLabels(resource, strconv.FormatBool(found)); err == nil {
		_ = vec.Inc()
	}
}

// Package metrics exposes server metrics in the Prometheus text format
// (text/plain; version=0.0.4).
//
// It provides counters, gauges and histograms with labels, a Registry that
// renders them, and Collector, the fixed metric set of a recordd server:
//
//   - recordd_requests_total{method,route,status}
//   - recordd_request_duration_seconds{method,route}
//   - recordd_records{resource}
//   - recordd_rejected_writes_total{resource,op}
//   - recordd_deletes_total{resource,found}
//
// Routes are reported as patterns such as /notes/:id so label cardinality
// stays bounded.
package metrics

// Package metrics holds the process-wide request counters exposed at /-/metrics.
package metrics

import "sync/atomic"

// Metrics counts requests and injected/handled errors for the ops endpoints.
type Metrics struct {
	requestsTotal atomic.Int64
	errorsTotal   atomic.Int64
}

// New creates a zeroed Metrics.
func New() *Metrics {
	return &Metrics{}
}

// IncrRequests increments the request counter.
func (m *Metrics) IncrRequests() {
	m.requestsTotal.Add(1)
}

// IncrErrors increments the error counter.
func (m *Metrics) IncrErrors() {
	m.errorsTotal.Add(1)
}

// Snapshot returns the current counter values in a stable order.
func (m *Metrics) Snapshot() []Sample {
	return []Sample{
		{Name: "requests_total", Value: m.requestsTotal.Load()},
		{Name: "errors_total", Value: m.errorsTotal.Load()},
	}
}

// Sample is one named counter value.
type Sample struct {
	Name  string
	Value int64
}

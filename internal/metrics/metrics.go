// Package metrics wires two complementary metrics libraries into real
// call sites:
//
//   - rcrowley/go-metrics: library-internal latency timers and a
//     pending-operation gauge, readable through WriteLatencyPercentile/
//     ReadLatencyPercentile, independent of any exporter.
//   - VictoriaMetrics/metrics: a per-Set (one per transport manager),
//     Prometheus-text-exposable counter/gauge set used by the serve
//     CLI's /metrics endpoint.
package metrics

import (
	"io"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

// Set is one manager's worth of instrumentation.
type Set struct {
	writeLatency gometrics.Timer
	readLatency  gometrics.Timer
	pendingGauge gometrics.Gauge

	vmSet       *vm.Set
	requests    *vm.Counter
	responses   *vm.Counter
	dropped     *vm.Counter
	pendingSize *vm.Gauge
}

// NewSet creates a fresh, unregistered instrumentation set. name
// prefixes the VictoriaMetrics series (e.g. "remote_dram_server").
func NewSet(name string) *Set {
	s := &Set{
		writeLatency: gometrics.NewTimer(),
		readLatency:  gometrics.NewTimer(),
		pendingGauge: gometrics.NewGauge(),
		vmSet:        vm.NewSet(),
	}
	s.requests = s.vmSet.NewCounter(name + `_requests_total`)
	s.responses = s.vmSet.NewCounter(name + `_responses_total`)
	s.dropped = s.vmSet.NewCounter(name + `_malformed_dropped_total`)
	s.pendingSize = s.vmSet.NewGauge(name+`_pending_ops`, func() float64 {
		return float64(s.pendingGauge.Value())
	})
	return s
}

// RecordWrite records the latency of one completed Write RPC.
func (s *Set) RecordWrite(d time.Duration) { s.writeLatency.Update(d) }

// RecordRead records the latency of one completed Read RPC.
func (s *Set) RecordRead(d time.Duration) { s.readLatency.Update(d) }

// WriteLatencyPercentile returns the p (0..1) percentile of observed
// Write RPC latencies.
func (s *Set) WriteLatencyPercentile(p float64) time.Duration {
	return time.Duration(s.writeLatency.Percentile(p))
}

// ReadLatencyPercentile is the Read-path analogue of WriteLatencyPercentile.
func (s *Set) ReadLatencyPercentile(p float64) time.Duration {
	return time.Duration(s.readLatency.Percentile(p))
}

// SetPendingCount updates the current size of the pending-operation
// tables (both write and read tables combined).
func (s *Set) SetPendingCount(n int) {
	s.pendingGauge.Update(int64(n))
}

// IncRequests increments the dispatched-request counter.
func (s *Set) IncRequests() { s.requests.Inc() }

// IncResponses increments the emitted-response counter.
func (s *Set) IncResponses() { s.responses.Inc() }

// IncDropped increments the malformed-message-dropped counter.
func (s *Set) IncDropped() { s.dropped.Inc() }

// WritePrometheus writes this set's series in Prometheus text exposition
// format, for the serve CLI's /metrics handler.
func (s *Set) WritePrometheus(w io.Writer) {
	s.vmSet.WritePrometheus(w)
}

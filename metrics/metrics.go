// Package metrics exposes Prometheus collectors for the analytics engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is nil-safe: a nil *Recorder drops every observation.
type Recorder struct {
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	recordsScanned  *prometheus.CounterVec
	snapshotLookups *prometheus.CounterVec
}

// NewRecorder builds the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "challengeflow",
			Subsystem: "analytics",
			Name:      "operations_total",
			Help:      "Analytics operations by outcome",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "challengeflow",
			Subsystem: "analytics",
			Name:      "operation_duration_seconds",
			Help:      "Time spent computing an analytics operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		recordsScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "challengeflow",
			Subsystem: "analytics",
			Name:      "records_scanned_total",
			Help:      "Dispute records read from the record store",
		}, []string{"operation"}),
		snapshotLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "challengeflow",
			Subsystem: "snapshot",
			Name:      "lookups_total",
			Help:      "System snapshot cache lookups by result",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(r.operations, r.duration, r.recordsScanned, r.snapshotLookups)
	}
	return r
}

// Observe records one finished operation that began at start.
func (r *Recorder) Observe(operation string, start time.Time, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.operations.WithLabelValues(operation, result).Inc()
	r.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (r *Recorder) RecordsScanned(operation string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.recordsScanned.WithLabelValues(operation).Add(float64(n))
}

func (r *Recorder) SnapshotLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.snapshotLookups.WithLabelValues(result).Inc()
}

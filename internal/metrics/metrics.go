// Package metrics exposes Prometheus collectors for the binding layer.
//
// A Recorder is created once per registry. Every method is safe on a nil
// *Recorder, so components take an optional recorder without branching.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "grnbind"

// Lock acquisition results.
const (
	LockAcquired = "acquired"
	LockTimeout  = "timeout"
	LockError    = "error"
)

// Select outcomes.
const (
	SelectOK    = "ok"
	SelectError = "error"
)

// Recorder holds the binding layer's collectors.
type Recorder struct {
	binds              prometheus.Counter
	finalizes          prometheus.Counter
	teardownFinalized  prometheus.Counter
	reclaimed          prometheus.Counter
	lockAcquire        *prometheus.CounterVec
	lockWait           prometheus.Histogram
	lockReleaseFailure prometheus.Counter
	selects            *prometheus.CounterVec
	engineErrors       *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		binds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "binds_total",
			Help: "Native handles bound to new proxies.",
		}),
		finalizes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "finalizes_total",
			Help: "Proxies finalized, explicitly or at teardown.",
		}),
		teardownFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "teardown_finalized_total",
			Help: "Proxies still registered when their context closed.",
		}),
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "reclaimed_total",
			Help: "Engine resources released after their proxy was collected unfinalized.",
		}),
		lockAcquire: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "lock_acquire_total",
			Help: "Lock acquisition attempts by result.",
		}, []string{"result"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "lock_wait_seconds",
			Help:    "Time spent acquiring locks.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		lockReleaseFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "lock_release_failures_total",
			Help: "Lock releases that failed during automatic cleanup.",
		}),
		selects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "select_total",
			Help: "Select calls by merge operator and outcome.",
		}, []string{"operator", "outcome"}),
		engineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "engine_errors_total",
			Help: "Engine failures by error kind.",
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{
		r.binds, r.finalizes, r.teardownFinalized, r.reclaimed,
		r.lockAcquire, r.lockWait, r.lockReleaseFailure,
		r.selects, r.engineErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return r, nil
}

// Bind counts a new proxy.
func (r *Recorder) Bind() {
	if r != nil {
		r.binds.Inc()
	}
}

// Finalize counts a finalized proxy.
func (r *Recorder) Finalize() {
	if r != nil {
		r.finalizes.Inc()
	}
}

// TeardownFinalized counts proxies finalized by a context close.
func (r *Recorder) TeardownFinalized(n int) {
	if r != nil && n > 0 {
		r.teardownFinalized.Add(float64(n))
	}
}

// Reclaimed counts proxies collected without Finalize whose engine
// resources were then released.
func (r *Recorder) Reclaimed() {
	if r != nil {
		r.reclaimed.Inc()
	}
}

// LockAcquire records one acquisition attempt and how long it took.
func (r *Recorder) LockAcquire(result string, wait time.Duration) {
	if r == nil {
		return
	}
	r.lockAcquire.WithLabelValues(result).Inc()
	r.lockWait.Observe(wait.Seconds())
}

// LockReleaseFailure counts a release error absorbed during cleanup.
func (r *Recorder) LockReleaseFailure() {
	if r != nil {
		r.lockReleaseFailure.Inc()
	}
}

// Select counts a select call.
func (r *Recorder) Select(operator, outcome string) {
	if r != nil {
		r.selects.WithLabelValues(operator, outcome).Inc()
	}
}

// EngineError counts a translated engine failure.
func (r *Recorder) EngineError(kind string) {
	if r != nil {
		r.engineErrors.WithLabelValues(kind).Inc()
	}
}

// Package metrics exposes run counters as Prometheus metrics.
//
// Batch runs have no scrape endpoint, so the registry is written to a
// node_exporter textfile after each run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ashokraman/ocl-omrs/internal/omrs/sync"
)

// Recorder owns a registry with the sync metrics.
type Recorder struct {
	registry *prometheus.Registry

	records     *prometheus.CounterVec
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "omrs_sync_records_total",
			Help: "Records counted by sync runs, by operation and counter.",
		}, []string{"operation", "counter"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "omrs_sync_runs_total",
			Help: "Sync runs, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "omrs_sync_run_seconds",
			Help:    "Wall time of sync runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "omrs_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}, []string{"operation"}),
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRun records one run. res may be nil when the run failed early.
func (r *Recorder) ObserveRun(operation string, res *sync.Result, elapsed time.Duration, runErr error) {
	outcome := "success"
	if runErr != nil {
		outcome = "failure"
	}
	r.runs.WithLabelValues(operation, outcome).Inc()
	r.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if runErr == nil {
		r.lastSuccess.WithLabelValues(operation).SetToCurrentTime()
	}

	if res == nil {
		return
	}
	fields := res.Fields()
	for i := 0; i+1 < len(fields); i += 2 {
		name, _ := fields[i].(string)
		n, _ := fields[i+1].(int)
		if n > 0 {
			r.records.WithLabelValues(operation, name).Add(float64(n))
		}
	}
}

// WriteTextfile writes the registry in the text exposition format,
// replacing path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

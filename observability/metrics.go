// Package observability exports Prometheus metrics for reconciliation runs.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/warp/attendance-engine/attendance"
)

// Outcome label values for runsCounter.
const (
	OutcomeSuccess       = "success"
	OutcomeConfiguration = "configuration_error"
	OutcomeDataIntegrity = "data_integrity_error"
	OutcomeError         = "error"
)

var (
	runsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "reconciliation_runs_total",
		Help:      "Reconciliation runs by outcome.",
	}, []string{"outcome"})
	rosterGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "attendance",
		Name:      "roster_size",
		Help:      "Roster members in the most recent successful run.",
	})
	presentGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "attendance",
		Name:      "present_total",
		Help:      "Members marked Present in the most recent successful run.",
	})
	absentGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "attendance",
		Name:      "absent_total",
		Help:      "Members marked Absent in the most recent successful run.",
	})
	runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attendance",
		Name:      "reconciliation_duration_seconds",
		Help:      "Wall time of a reconciliation run including input loading.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})
)

func init() {
	prometheus.MustRegister(runsCounter, rosterGauge, presentGauge, absentGauge, runDuration)
}

// Observer feeds engine runs into the package collectors.
type Observer struct{}

var _ attendance.Observer = Observer{}

// ObserveRun records one run. Gauges only move on success so a failed run
// leaves the last good picture in place.
func (Observer) ObserveRun(summary attendance.Summary, elapsed time.Duration, err error) {
	runDuration.Observe(elapsed.Seconds())
	runsCounter.WithLabelValues(Outcome(err)).Inc()
	if err != nil {
		return
	}
	rosterGauge.Set(float64(summary.Total))
	presentGauge.Set(float64(summary.Present))
	absentGauge.Set(float64(summary.Absent))
}

// Outcome classifies a run error for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case attendance.IsConfiguration(err):
		return OutcomeConfiguration
	case attendance.IsDataIntegrity(err):
		return OutcomeDataIntegrity
	default:
		return OutcomeError
	}
}

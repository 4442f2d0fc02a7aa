package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	scansAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scanpipe",
			Subsystem: "pipeline",
			Name:      "scans_accepted_total",
			Help:      "Number of decoded payloads accepted for processing.",
		},
	)
	scansDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scanpipe",
			Subsystem: "pipeline",
			Name:      "scans_dropped_total",
			Help:      "Number of decoded payloads dropped while busy.",
		},
	)
	syncSuccess = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scanpipe",
			Subsystem: "uplink",
			Name:      "sync_success_total",
			Help:      "Number of records confirmed by the remote endpoint.",
		},
	)
	syncFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scanpipe",
			Subsystem: "uplink",
			Name:      "sync_failures_total",
			Help:      "Number of records whose upload attempts were exhausted.",
		},
	)
	persistenceFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scanpipe",
			Subsystem: "store",
			Name:      "persistence_failures_total",
			Help:      "Number of failed durable history writes.",
		},
	)
	historySize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "scanpipe",
			Subsystem: "store",
			Name:      "history_size",
			Help:      "Current number of retained scan records.",
		},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scanpipe",
			Subsystem: "pipeline",
			Name:      "state_transitions_total",
			Help:      "Number of transitions between pipeline states.",
		}, []string{"from", "to"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{scansAccepted, scansDropped, syncSuccess, syncFailures, persistenceFailures, historySize, stateTransitions}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncScanAccepted() {
	if regOK.Load() {
		scansAccepted.Inc()
	}
}
func IncScanDropped() {
	if regOK.Load() {
		scansDropped.Inc()
	}
}
func IncSyncSuccess() {
	if regOK.Load() {
		syncSuccess.Inc()
	}
}
func IncSyncFailure() {
	if regOK.Load() {
		syncFailures.Inc()
	}
}
func IncPersistenceFailure() {
	if regOK.Load() {
		persistenceFailures.Inc()
	}
}
func SetHistorySize(n int) {
	if regOK.Load() {
		historySize.Set(float64(n))
	}
}
func RecordStateTransition(from, to string) {
	if regOK.Load() {
		stateTransitions.WithLabelValues(from, to).Inc()
	}
}

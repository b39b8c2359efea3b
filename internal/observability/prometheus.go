package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	promRegistry = prometheus.NewRegistry()

	accountPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymchain",
		Subsystem: "persistence",
		Name:      "last_account_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent account write.",
	})
	workoutPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymchain",
		Subsystem: "persistence",
		Name:      "last_workout_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout write.",
	})
)

func init() {
	promRegistry.MustRegister(
		accountPersistGauge,
		workoutPersistGauge,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func RecordAccountPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	accountPersistGauge.Set(float64(ts.Unix()))
}

func RecordWorkoutPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	workoutPersistGauge.Set(float64(ts.Unix()))
}

// PrometheusHandler serves the process registry in the text exposition format.
func PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{Registry: promRegistry})
}

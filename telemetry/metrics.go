// Package telemetry holds the Prometheus metrics of the counter refresh.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	passes         *prometheus.CounterVec
	renameFailures *prometheus.CounterVec
	statValue      *prometheus.GaugeVec
	passDuration   prometheus.Histogram
)

// Init registers metrics with the default registry (idempotent).
func Init() {
	once.Do(func() {
		passes = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "counterbot_passes_total",
			Help: "Counter refresh passes by outcome",
		}, []string{"outcome"})
		renameFailures = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "counterbot_rename_failures_total",
			Help: "Display channel renames that failed",
		}, []string{"kind"})
		statValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "counterbot_stat_value",
			Help: "Last computed statistic per counter kind",
		}, []string{"kind"})
		passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "counterbot_pass_duration_seconds",
			Help:    "Counter refresh pass duration seconds",
			Buckets: prometheus.DefBuckets,
		})
	})
}

// ObservePass records one pass; a nil err counts as success.
func ObservePass(d time.Duration, err error) {
	Init()
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	passes.WithLabelValues(outcome).Inc()
	passDuration.Observe(d.Seconds())
}

// RenameFailed counts a failed rename for kind.
func RenameFailed(kind string) {
	Init()
	renameFailures.WithLabelValues(kind).Inc()
}

// SetStats publishes the latest computed values.
func SetStats(all, online, voice int) {
	Init()
	statValue.WithLabelValues("all").Set(float64(all))
	statValue.WithLabelValues("online").Set(float64(online))
	statValue.WithLabelValues("voice").Set(float64(voice))
}

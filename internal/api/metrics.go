package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/internal/cache"
)

// Conversion outcomes as recorded in stbconv_conversions_total.
const (
	outcomeSuccess  = "success"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
)

// Metrics holds the server's prometheus collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	dataLoss    *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stbconv_conversions_total",
				Help: "Conversions handled, by direction and outcome.",
			},
			[]string{"direction", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stbconv_conversion_duration_seconds",
				Help:    "Time spent in the rule pipeline.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"direction"},
		),
		dataLoss: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stbconv_data_loss_total",
				Help: "Elements dropped or approximated by reverse conversions, by category.",
			},
			[]string{"category"},
		),
	}
	m.registry.MustRegister(m.conversions, m.duration, m.dataLoss)
	return m
}

func (m *Metrics) observe(dir report.Direction, outcome string, d time.Duration, loss report.DataLoss) {
	m.conversions.WithLabelValues(string(dir), outcome).Inc()
	if outcome != outcomeSuccess {
		return
	}
	m.duration.WithLabelValues(string(dir)).Observe(d.Seconds())
	for _, c := range report.Categories {
		if n := loss.Count(c); n > 0 {
			m.dataLoss.WithLabelValues(string(c)).Add(float64(n))
		}
	}
}

// watchCache exposes a cache's hit and miss counters as
// stbconv_cache_lookups_total{cache,result}.
func (m *Metrics) watchCache(name string, stats func() cache.Stats) {
	for result, read := range map[string]func(cache.Stats) int64{
		"hit":  func(s cache.Stats) int64 { return s.Hits },
		"miss": func(s cache.Stats) int64 { return s.Misses },
	} {
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name:        "stbconv_cache_lookups_total",
				Help:        "Result cache lookups by cache and result.",
				ConstLabels: prometheus.Labels{"cache": name, "result": result},
			},
			func() float64 { return float64(read(stats())) },
		))
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

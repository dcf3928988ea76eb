package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OverrideLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubstandards_override_loads_total",
		Help: "Total number of override document loads, labelled by status.",
	}, []string{"status"})

	UnknownOverrideFields = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pubstandards_override_unknown_fields_total",
		Help: "Total number of unrecognised keys ignored in override records.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubstandards_http_requests_total",
		Help: "Total number of API requests, labelled by route and status code.",
	}, []string{"route", "code"})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubstandards_exports_total",
		Help: "Total number of static exports, labelled by trigger and status.",
	}, []string{"trigger", "status"})

	ExportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pubstandards_export_duration_ms",
		Help:    "Static export duration in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	ExportedEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pubstandards_exported_events",
		Help: "Number of events written by the last successful export.",
	})

	OverridePulls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubstandards_override_pulls_total",
		Help: "Total number of upstream override pulls, labelled by result.",
	}, []string{"result"})
)

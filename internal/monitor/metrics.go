// Package monitor exposes the service's prometheus collectors.
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal counts simulation ticks.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "twin_ticks_total",
		Help: "Total simulation ticks executed",
	})

	// DetectionCyclesTotal counts detection cycles that refit and scored.
	DetectionCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "twin_detection_cycles_total",
		Help: "Total anomaly detection cycles executed after warm-up",
	})

	// RefitFailuresTotal counts detection cycles aborted by a fit or score error.
	RefitFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "twin_refit_failures_total",
		Help: "Total detection cycles aborted by a model fit/score failure",
	})

	// AnomaliesTotal counts anomalous detection cycles.
	AnomaliesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "twin_anomalies_total",
		Help: "Total anomalies detected",
	})

	// ActiveSubscribers tracks the current number of websocket subscribers.
	ActiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "twin_active_subscribers",
		Help: "Currently attached websocket subscribers",
	})

	// PublishFailuresTotal counts failed subscriber writes.
	PublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "twin_publish_failures_total",
		Help: "Total subscriber writes that failed and caused a detach",
	})

	// ChatRequestsTotal counts chat requests per endpoint.
	ChatRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_chat_requests_total",
		Help: "Total chat requests served",
	}, []string{"endpoint"})
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ForecastsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecopulse_forecasts_generated_total",
		Help: "Total number of forecasts computed, by kind.",
	}, []string{"kind"})
	ForecastsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecopulse_forecasts_failed_total",
		Help: "Total number of forecast requests that failed, by kind.",
	}, []string{"kind"})
	PeerRowsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecopulse_peer_rows_emitted_total",
		Help: "Total number of peer forecast rows returned.",
	})
	ModelCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecopulse_model_cache_lookups_total",
		Help: "Model parameter cache lookups, by result.",
	}, []string{"result"})
	StoreRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecopulse_store_retries_total",
		Help: "Data store operations retried after a failure.",
	}, []string{"operation"})
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ecopulse_http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
	}, []string{"method", "route", "status"})
)

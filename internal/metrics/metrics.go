// Package metrics registers the prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotify_insights_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spotify_insights_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotify_insights_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotify_insights_predictions_total",
			Help: "Total number of simulator predictions by outcome",
		},
		[]string{"result"}, // "ok", "invalid_input", "no_model", "error", "throttled"
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spotify_insights_prediction_duration_seconds",
			Help:    "Time spent scoring one feature vector",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotify_insights_dataset_rows",
			Help: "Rows in the cleaned table loaded at startup",
		},
	)

	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotify_insights_model_loaded",
			Help: "1 when a trained model was loaded at startup",
		},
	)
)

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func TrackActiveRequest(start bool) {
	if start {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

func RecordPrediction(result string, duration time.Duration) {
	Predictions.WithLabelValues(result).Inc()
	if duration > 0 {
		PredictionDuration.Observe(duration.Seconds())
	}
}

// SetAppState publishes what was loaded at startup.
func SetAppState(rows int, modelLoaded bool) {
	DatasetRows.Set(float64(rows))
	if modelLoaded {
		ModelLoaded.Set(1)
	} else {
		ModelLoaded.Set(0)
	}
}

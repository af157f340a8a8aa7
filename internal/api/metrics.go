package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "flashdeck_api_request_duration_seconds",
		Help:    "Time spent on requests to the flashcard backend",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"op", "status"},
)

var requestErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "flashdeck_api_request_errors_total",
		Help: "Requests to the flashcard backend that failed or returned non-2xx",
	},
	[]string{"op"},
)

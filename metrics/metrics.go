// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics registers the Prometheus collectors for swivo.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LikesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swivo_likes_total",
		Help: "Likes processed, by result (recorded, duplicate, rejected, error)",
	}, []string{"result"})

	SessionsMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swivo_sessions_matched_total",
		Help: "Sessions that reached quorum",
	})

	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swivo_sessions_created_total",
		Help: "Sessions created",
	})

	PushesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swivo_push_total",
		Help: "Push deliveries, by result (delivered, transient, permanent)",
	}, []string{"result"})

	TokensPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swivo_push_tokens_pruned_total",
		Help: "Device tokens cleared after a permanent delivery failure",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swivo_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

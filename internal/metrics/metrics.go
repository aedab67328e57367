package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatllm_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatllm_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Cola de envíos
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatllm_send_queue_depth",
			Help: "Pending sends waiting in the dispatch queue",
		},
	)

	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatllm_sends_total",
			Help: "Total dispatched sends by outcome",
		},
		[]string{"outcome"}, // "ok" o "error"
	)

	SendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatllm_send_duration_seconds",
			Help:    "End-to-end processing time of one queued send",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// Adjuntos
	AttachmentsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatllm_attachments_ingested_total",
			Help: "Total attachment ingestions by outcome",
		},
		[]string{"outcome"}, // "ok" o el tipo de fallo
	)

	// Búsqueda web
	SearchQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatllm_search_queries_total",
			Help: "Total search queries sent to the external source",
		},
	)

	SearchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatllm_search_cache_hits_total",
			Help: "Total search queries served from cache",
		},
	)
)

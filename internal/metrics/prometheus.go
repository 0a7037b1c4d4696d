package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChatDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kbchat_chat_duration_seconds",
			Help:    "Chat request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	ChatTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbchat_chat_requests_total",
			Help: "Total chat requests by outcome",
		},
		[]string{"status"},
	)

	RetrievedChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kbchat_retrieved_chunks",
			Help:    "Non-empty chunks retrieved per chat request",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	UploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kbchat_upload_bytes",
			Help:    "Total payload size of knowledge base uploads",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbchat_upstream_requests_total",
			Help: "Upstream retrieval service requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

func Init() {
	prometheus.MustRegister(ChatDuration)
	prometheus.MustRegister(ChatTotal)
	prometheus.MustRegister(RetrievedChunks)
	prometheus.MustRegister(UploadBytes)
	prometheus.MustRegister(UpstreamRequests)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

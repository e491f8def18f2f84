// Package metrics Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Count of HTTP requests"},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"},
	)

	// WebhookEvents 按处理结果统计 webhook：updated/ignored/dropped/rejected/unauthorized
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pipedash_webhook_events_total", Help: "GitLab webhook deliveries by outcome"},
		[]string{"action"},
	)
	// PipelineUpserts 镜像写入次数，source 为 webhook 或 pull
	PipelineUpserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pipedash_pipeline_upserts_total", Help: "Pipeline mirror upserts"},
		[]string{"source", "status"},
	)
	ProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pipedash_provider_errors_total", Help: "Failed GitLab API calls"},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, WebhookEvents, PipelineUpserts, ProviderErrors)
}

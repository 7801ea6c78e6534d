package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_sessions",
	Help: "Number of chat sessions held in memory",
})

var readySessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "ready_sessions",
	Help: "Number of sessions with a built document index",
})

var providerFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "provider_fallbacks_total",
	Help: "How often a paid provider failed and the free one was used",
}, []string{"stage", "kind"})

var generationRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "generation_retries_total",
	Help: "Generation attempts that were retried, by error kind",
}, []string{"provider", "kind"})

var documentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "documents_processed_total",
	Help: "Uploaded files by extraction outcome",
}, []string{"outcome"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses (the MCP endpoint) working behind the recorder.
func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func IncrementActiveSessions() {
	activeSessions.Inc()
}

func DecrementActiveSessions() {
	activeSessions.Dec()
}

func IncrementReadySessions() {
	readySessions.Inc()
}

func DecrementReadySessions() {
	readySessions.Dec()
}

func CaptureFallback(stage string, kind string) {
	providerFallbacks.WithLabelValues(stage, kind).Inc()
}

func CaptureRetry(provider string, kind string) {
	generationRetries.WithLabelValues(provider, kind).Inc()
}

func CaptureDocuments(outcome string, count int) {
	documentsProcessed.WithLabelValues(outcome).Add(float64(count))
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pipeline_duration_seconds",
	Help:    "Total time spent building an index or answering a question.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"operation", "status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CapturePipelineMetrics(operation string, status string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(operation, status).Observe(timeElapsed.Seconds())
}

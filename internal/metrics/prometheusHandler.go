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

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of ingestion jobs queued or running",
})

var chatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chat_turns_total",
	Help: "Chat turns labelled by outcome",
}, []string{"outcome"})

var ingestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingest_runs_total",
	Help: "Ingestion runs labelled by final status",
}, []string{"status"})

var indexedChunks = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "indexed_chunks",
	Help: "Chunks in the collection after the last successful ingestion",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

// Chat outcomes.
const (
	OutcomeAnswered  = "answered"
	OutcomeNoResults = "no_results"
	OutcomeError     = "error"
)

func CaptureChatTurn(outcome string) {
	chatTurns.WithLabelValues(outcome).Inc()
}

func CaptureIngestRun(status string, chunks int) {
	ingestRuns.WithLabelValues(status).Inc()
	if chunks > 0 {
		indexedChunks.Set(float64(chunks))
	}
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "ingest_job_duration_seconds",
	Help:    "Total time spent running an ingestion job.",
	Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 900},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

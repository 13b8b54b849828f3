package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/post-scheduler/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Webhook executor metrics

	WebhookDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postscheduler",
		Name:      "webhook_deliveries_total",
		Help:      "Queue deliveries handled, by outcome.",
	}, []string{"outcome"})

	DuplicateDeliveriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "postscheduler",
		Name:      "webhook_duplicate_deliveries_total",
		Help:      "Deliveries that arrived for an already-published post.",
	})

	PlatformPublishDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "postscheduler",
		Name:      "platform_publish_duration_seconds",
		Help:      "Duration of the platform publish call.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"outcome"})

	// Coordinator metrics

	QueueRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postscheduler",
		Name:      "queue_requests_total",
		Help:      "Calls to the delivery queue, by operation and outcome.",
	}, []string{"op", "outcome"})

	CompensationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postscheduler",
		Name:      "compensations_total",
		Help:      "Compensating queue cancels after a failed step, by stage and outcome.",
	}, []string{"stage", "outcome"})

	// Retention metrics

	PurgedPostsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "postscheduler",
		Name:      "purged_posts_total",
		Help:      "Published posts removed by the retention sweep.",
	})

	PurgeCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "postscheduler",
		Name:      "purge_cycle_duration_seconds",
		Help:      "Time taken for one retention sweep.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "postscheduler",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postscheduler",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		WebhookDeliveriesTotal,
		DuplicateDeliveriesTotal,
		PlatformPublishDuration,
		QueueRequestsTotal,
		CompensationsTotal,
		PurgedPostsTotal,
		PurgeCycleDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, result)
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total number of leads accepted by intake",
		},
	)

	intakeRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_rejections_total",
			Help: "Total number of submissions refused by an abuse check",
		},
		[]string{"reason"},
	)

	statusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_status_transitions_total",
			Help: "Total number of lead status changes",
		},
		[]string{"to", "actor"},
	)

	quotesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quotes_generated_total",
			Help: "Total number of quotes generated",
		},
	)

	quoteResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_responses_total",
			Help: "Total number of customer responses to quotes",
		},
		[]string{"response"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern labels requests by chi route ("/api/leads/{id}") so ids do not
// end up as label values.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordLeadCreated() {
	leadsCreated.Inc()
}

func RecordIntakeRejection(reason string) {
	intakeRejections.WithLabelValues(reason).Inc()
}

func RecordStatusTransition(to, actor string) {
	statusTransitions.WithLabelValues(to, actor).Inc()
}

func RecordQuoteGenerated() {
	quotesGenerated.Inc()
}

func RecordQuoteResponse(response string) {
	quoteResponses.WithLabelValues(response).Inc()
}

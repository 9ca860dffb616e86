package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Transports label coverage metrics by the surface that served them.
const (
	TransportHTTP    = "http"
	TransportGraphQL = "graphql"
	TransportNATS    = "nats"
	TransportCLI     = "cli"
)

// Outcomes of a coverage computation.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeCancelled = "cancelled"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geocover",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geocover",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geocover",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Coverage metrics
	Computations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geocover",
		Subsystem: "coverage",
		Name:      "computations_total",
		Help:      "Total coverage computations by transport and outcome",
	}, []string{"transport", "outcome"})

	ComputationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geocover",
		Subsystem: "coverage",
		Name:      "computation_duration_seconds",
		Help:      "Duration of a full coverage computation",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	}, []string{"transport"})

	CandidatesPerRequest = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geocover",
		Subsystem: "coverage",
		Name:      "candidates_per_request",
		Help:      "Number of intersecting candidates per coverage request",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	NonFinitePercentages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geocover",
		Subsystem: "coverage",
		Name:      "non_finite_percentages_total",
		Help:      "Coverage results whose percentage was NaN or infinite (zero-area subject)",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path // fiber already resolves to route pattern
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

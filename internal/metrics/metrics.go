package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Catalog Metrics
	CatalogErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_errors_total",
			Help: "Total number of rejected catalog requests by error kind",
		},
		[]string{"kind"},
	)

	MoviesAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_movies_added_total",
			Help: "Total number of movies created through the API",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func RecordCatalogError(kind string) {
	CatalogErrors.WithLabelValues(kind).Inc()
}

func RecordMovieAdded() {
	MoviesAdded.Inc()
}

// Middleware records count and latency per route pattern, so /movies/19995/
// and /movies/285/ share one series.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		endpoint := c.Route().Path
		if endpoint == "" || (endpoint == "/" && c.Path() != "/") {
			endpoint = "unmatched"
		}

		RecordAPIRequest(c.Method(), endpoint, strconv.Itoa(status), time.Since(start))
		return err
	}
}

// Handler exposes the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

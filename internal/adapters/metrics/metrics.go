package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	LoansCreated prometheus.Counter
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Default returns the process-wide metrics instance. A singleton avoids
// duplicate collector registration in the default registry.
func Default() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			LoansCreated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "loans_created_total",
				Help: "Total number of loans created in the system",
			}),
			HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests by method, route and status code",
			}, []string{"method", "path", "status"}),
			HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "path"}),
		}
	})
	return instance
}

// Handler serves the Prometheus exposition format for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics collects and exposes the HTTP and error-reporting metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the request middleware needs from the collector.
type Recorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordError(kind string, reported bool)
}

type Collector struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	sweeps   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Failed requests by error kind and whether they were reported upstream.",
		}, []string{"kind", "reported"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_expired_rows_deleted_total",
			Help: "Expired rows removed by the sweeper, by table.",
		}, []string{"table"}),
	}

	reg.MustRegister(c.requests, c.latency, c.errors, c.sweeps)
	return c
}

func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordError(kind string, reported bool) {
	c.errors.WithLabelValues(kind, strconv.FormatBool(reported)).Inc()
}

func (c *Collector) RecordSweep(table string, deleted int64) {
	c.sweeps.WithLabelValues(table).Add(float64(deleted))
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop records nothing.
type Noop struct{}

func (Noop) RecordRequest(string, string, int, time.Duration) {}
func (Noop) RecordError(string, bool)                         {}
func (Noop) RecordSweep(string, int64)                        {}

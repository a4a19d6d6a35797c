// Package metrics provides the Prometheus implementation of the server's
// request and authentication metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records request and authentication outcomes.
type Metrics struct {
	authTotal       *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	reg             prometheus.Registerer
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New registers the server metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		reg: reg,
		authTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsapi_auth_requests_total",
				Help: "Authentication attempts by outcome and reason",
			},
			[]string{"outcome", "reason"},
		),
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsapi_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "fsapi_http_request_duration_milliseconds",
				Help: "Duration of HTTP requests in milliseconds",
				Buckets: []float64{
					1,     // 1ms - public routes, auth failures
					5,     // 5ms
					25,    // 25ms - small listings
					100,   // 100ms
					500,   // 500ms
					2500,  // 2.5s - archives
					10000, // 10s
					60000, // 1m - large uploads
				},
			},
			[]string{"route"},
		),
	}
}

// ObserveAuth counts one authentication attempt.
func (m *Metrics) ObserveAuth(outcome, reason string) {
	m.authTotal.WithLabelValues(outcome, reason).Inc()
}

// ObserveRequest records a completed HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(float64(d.Microseconds()) / 1000)
}

// WatchAuditDrops exposes a counter read from dropped, typically
// (*audit.Recorder).Dropped.
func (m *Metrics) WatchAuditDrops(dropped func() uint64) {
	promauto.With(m.reg).NewCounterFunc(
		prometheus.CounterOpts{
			Name: "fsapi_audit_events_dropped_total",
			Help: "Audit events discarded because the queue was full",
		},
		func() float64 { return float64(dropped()) },
	)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

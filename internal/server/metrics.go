package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the panel's own registry; nothing is registered globally so
// several servers can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	logins   *prometheus.CounterVec
	actions  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voidpanel_http_requests_total",
				Help: "HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voidpanel_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voidpanel_login_attempts_total",
				Help: "Login attempts by result (success, failure, throttled, unconfigured).",
			},
			[]string{"result"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voidpanel_power_actions_total",
				Help: "Reboot and shutdown requests by action and result.",
			},
			[]string{"action", "result"},
		),
	}
	m.registry.MustRegister(
		m.requests, m.duration, m.logins, m.actions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(method, route, code string, d time.Duration) {
	m.requests.WithLabelValues(method, route, code).Inc()
	m.duration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) incLogin(result string) {
	if m != nil {
		m.logins.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) incAction(action string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.actions.WithLabelValues(action, result).Inc()
}

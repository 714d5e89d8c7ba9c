package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rendered *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunescout_installer_http_requests_total",
				Help: "HTTP requests by route pattern and status code.",
			},
			[]string{"route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tunescout_installer_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		rendered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunescout_installer_scripts_rendered_total",
				Help: "Installation scripts rendered by profile.",
			},
			[]string{"profile"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.rendered)
	return m
}

func (m *metrics) observe(route string, status int, seconds float64) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(seconds)
}

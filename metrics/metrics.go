// Package metrics exposes the plant application's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fewr"

// Metrics owns a private registry so tests can build as many as they need.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	messagesTotal       *prometheus.CounterVec
	shiftOEE            *prometheus.GaugeVec
	dischargesTotal     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status_code"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration distribution",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"method", "route"},
		),

		messagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "logbook",
				Name:      "messages_total",
				Help:      "Logbook messages written, by production marker",
			},
			[]string{"calc"},
		),

		shiftOEE: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "shifts",
				Name:      "last_oee_percent",
				Help:      "OEE of the last finished shift per operator",
			},
			[]string{"operator"},
		),

		dischargesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bb",
				Name:      "discharges_total",
				Help:      "Big bags discharged into the warehouse, by origin silo",
			},
			[]string{"origin_silo"},
		),
	}

	m.Registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.messagesTotal,
		m.shiftOEE,
		m.dischargesTotal,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records every request under the ServeMux pattern that served
// it, so path parameters do not explode the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordMessage counts a logbook message; plain messages are counted as
// "none".
func (m *Metrics) RecordMessage(calc string) {
	if calc == "" {
		calc = "none"
	}
	m.messagesTotal.WithLabelValues(calc).Inc()
}

func (m *Metrics) RecordShiftOEE(operator string, oee float64) {
	m.shiftOEE.WithLabelValues(operator).Set(oee)
}

func (m *Metrics) RecordDischarge(originSilo string) {
	if originSilo == "" {
		originSilo = "unknown"
	}
	m.dischargesTotal.WithLabelValues(originSilo).Inc()
}

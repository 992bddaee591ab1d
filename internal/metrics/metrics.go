package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberguard_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cyberguard_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// Advisor metrics
	Completions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberguard_completions_total",
			Help: "Completion calls by outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "service_error", "config_error"
	)

	CompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cyberguard_completion_duration_seconds",
			Help:    "Completion round-trip latency",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberguard_chat_turns_total",
			Help: "Chat sends by outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "busy", "error"
	)

	// Scanner metrics
	Scans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberguard_scans_total",
			Help: "Risk scans by verdict",
		},
		[]string{"verdict"}, // "safe", "unsafe", "parse_error", "connection_error"
	)

	// Monitor metrics
	MonitorTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberguard_monitor_ticks_total",
			Help: "Simulated monitor ticks",
		},
		[]string{"variant"},
	)

	MonitorObservers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cyberguard_monitor_stream_observers",
			Help: "Connected monitor stream observers",
		},
	)
)

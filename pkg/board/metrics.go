package board

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickboard",
			Subsystem: "board",
			Name:      "operations_total",
			Help:      "Total number of handled client operations by outcome.",
		}, []string{"op", "result"})
	banCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickboard",
			Subsystem: "board",
			Name:      "bans_total",
			Help:      "Total number of banned authors.",
		})
	sessionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickboard",
			Subsystem: "board",
			Name:      "sessions_total",
			Help:      "Total number of opened and closed sessions.",
		}, []string{"event"})
)

// InitMetrics registers all metrics in this file
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(operationCounter)
	registry.MustRegister(banCounter)
	registry.MustRegister(sessionCounter)
}

package actor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	tickCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickboard",
			Subsystem: "actor",
			Name:      "ticks_total",
			Help:      "Total number of completed ticks.",
		})
	spawnCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickboard",
			Subsystem: "actor",
			Name:      "spawned_total",
			Help:      "Total number of spawned actors.",
		})
	stopCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickboard",
			Subsystem: "actor",
			Name:      "stopped_total",
			Help:      "Total number of stopped actors.",
		})
	sendCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickboard",
			Subsystem: "actor",
			Name:      "messages_sent_total",
			Help:      "Total number of queued messages by kind.",
		}, []string{"kind"})
	deliverCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickboard",
			Subsystem: "actor",
			Name:      "messages_delivered_total",
			Help:      "Total number of delivered messages by kind.",
		}, []string{"kind"})
)

// InitMetrics registers all metrics in this file
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(tickCounter)
	registry.MustRegister(spawnCounter)
	registry.MustRegister(stopCounter)
	registry.MustRegister(sendCounter)
	registry.MustRegister(deliverCounter)
}

// Package metrics provides Prometheus instrumentation for gompsc channels.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for gompsc components.
type Registry struct {
	// Producer-side metrics
	SendsAccepted    *prometheus.CounterVec
	SendsRejected    *prometheus.CounterVec
	SendsBlocked     *prometheus.CounterVec
	SendWaitDuration *prometheus.HistogramVec

	// Consumer-side metrics
	Deliveries    *prometheus.CounterVec
	DeliveryBytes *prometheus.HistogramVec
	Dropped       *prometheus.CounterVec

	// Channel state metrics
	Producers         *prometheus.GaugeVec
	ProducersWaiting  *prometheus.GaugeVec
	ProducersFinished *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by gompsc components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		SendsAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gompsc",
				Subsystem: "channel",
				Name:      "sends_accepted_total",
				Help:      "Total number of send operations that deposited a message",
			},
			[]string{"channel"},
		),
		SendsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gompsc",
				Subsystem: "channel",
				Name:      "sends_rejected_total",
				Help:      "Total number of send operations rejected because the channel was closed",
			},
			[]string{"channel"},
		),
		SendsBlocked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gompsc",
				Subsystem: "channel",
				Name:      "sends_blocked_total",
				Help:      "Total number of send operations that had to wait in the producer queue",
			},
			[]string{"channel"},
		),
		SendWaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gompsc",
				Subsystem: "channel",
				Name:      "send_wait_duration_seconds",
				Help:      "Time producers spent waiting for slot handoff",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 10, 7),
			},
			[]string{"channel"},
		),
		Deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gompsc",
				Subsystem: "channel",
				Name:      "deliveries_total",
				Help:      "Total number of messages delivered to the consumer callback",
			},
			[]string{"channel"},
		),
		DeliveryBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gompsc",
				Subsystem: "channel",
				Name:      "delivery_bytes",
				Help:      "Size in bytes of delivered messages",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"channel"},
		),
		Dropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gompsc",
				Subsystem: "channel",
				Name:      "dropped_total",
				Help:      "Total number of pending messages dropped after a delivery buffer allocation failure",
			},
			[]string{"channel"},
		),
		Producers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gompsc",
				Subsystem: "channel",
				Name:      "producers",
				Help:      "Number of registered producers",
			},
			[]string{"channel"},
		),
		ProducersWaiting: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gompsc",
				Subsystem: "channel",
				Name:      "producers_waiting",
				Help:      "Number of producers currently blocked in the send wait queue",
			},
			[]string{"channel"},
		),
		ProducersFinished: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gompsc",
				Subsystem: "channel",
				Name:      "producers_finished",
				Help:      "Number of producer tasks that have returned",
			},
			[]string{"channel"},
		),
	}
}

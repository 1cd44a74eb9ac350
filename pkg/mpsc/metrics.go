package mpsc

import (
	"time"

	"github.com/vnykmshr/gompsc/pkg/metrics"
)

// channelMetrics binds a channel to a metrics.Registry under a fixed
// channel label. A nil *channelMetrics is valid and records nothing, so
// the hot paths need no enablement checks.
type channelMetrics struct {
	registry *metrics.Registry
	name     string
}

// NewWithMetrics creates a channel from cfg with Prometheus metrics
// enabled on metrics.DefaultRegistry (registered with
// prometheus.DefaultRegisterer), labeled with name.
func NewWithMetrics(cfg Config, name string) (*Channel, error) {
	return NewWithConfigAndMetrics(cfg, name, metrics.Config{
		Enabled: true,
	})
}

// NewWithConfigAndMetrics creates a channel from cfg and instruments it
// according to metricsConfig. With metrics disabled it behaves exactly
// like NewWithConfig.
func NewWithConfigAndMetrics(cfg Config, name string, metricsConfig metrics.Config) (*Channel, error) {
	c, err := NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !metricsConfig.Enabled {
		return c, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}
	c.metrics = &channelMetrics{
		registry: registry,
		name:     name,
	}
	c.metrics.setProducers(0)
	c.metrics.setProducersWaiting(0)
	c.metrics.setProducersFinished(0)
	return c, nil
}

func (m *channelMetrics) recordSend(accepted bool) {
	if m == nil {
		return
	}
	if accepted {
		m.registry.SendsAccepted.WithLabelValues(m.name).Inc()
	} else {
		m.registry.SendsRejected.WithLabelValues(m.name).Inc()
	}
}

func (m *channelMetrics) recordBlocked() {
	if m == nil {
		return
	}
	m.registry.SendsBlocked.WithLabelValues(m.name).Inc()
}

func (m *channelMetrics) observeSendWait(start time.Time) {
	if m == nil || start.IsZero() {
		return
	}
	m.registry.SendWaitDuration.WithLabelValues(m.name).Observe(time.Since(start).Seconds())
}

func (m *channelMetrics) recordDelivery(n int) {
	if m == nil {
		return
	}
	m.registry.Deliveries.WithLabelValues(m.name).Inc()
	m.registry.DeliveryBytes.WithLabelValues(m.name).Observe(float64(n))
}

func (m *channelMetrics) recordDrop() {
	if m == nil {
		return
	}
	m.registry.Dropped.WithLabelValues(m.name).Inc()
}

func (m *channelMetrics) setProducers(n int) {
	if m == nil {
		return
	}
	m.registry.Producers.WithLabelValues(m.name).Set(float64(n))
}

func (m *channelMetrics) setProducersWaiting(n int) {
	if m == nil {
		return
	}
	m.registry.ProducersWaiting.WithLabelValues(m.name).Set(float64(n))
}

func (m *channelMetrics) setProducersFinished(n int) {
	if m == nil {
		return
	}
	m.registry.ProducersFinished.WithLabelValues(m.name).Set(float64(n))
}

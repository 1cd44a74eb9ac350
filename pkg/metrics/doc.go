// Package metrics provides Prometheus instrumentation for gompsc channels.
//
// The package exposes a Registry of counters, gauges and histograms that
// track channel activity: sends accepted and rejected, producers blocked in
// the wait queue, messages delivered, messages dropped on allocation
// failure, and the current producer population.
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructor:
//
//	ch, err := mpsc.NewWithMetrics(cfg, "jobs")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	config := metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//	}
//	ch, err := mpsc.NewWithConfigAndMetrics(cfg, "jobs", config)
//
// # Available Metrics
//
//   - gompsc_channel_sends_accepted_total: sends that deposited a message
//   - gompsc_channel_sends_rejected_total: sends that observed a closed channel
//   - gompsc_channel_sends_blocked_total: sends that waited in the producer queue
//   - gompsc_channel_send_wait_duration_seconds: slot handoff wait times
//   - gompsc_channel_deliveries_total: messages delivered to the consumer
//   - gompsc_channel_delivery_bytes: delivered message sizes
//   - gompsc_channel_dropped_total: messages dropped on allocation failure
//   - gompsc_channel_producers: registered producers
//   - gompsc_channel_producers_waiting: producers blocked in the wait queue
//   - gompsc_channel_producers_finished: producer tasks that have returned
//
// All metrics carry a "channel" label so multiple channels can share a
// registry.
package metrics

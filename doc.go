/*
Package gompsc provides a single-slot multi-producer, single-consumer
message channel with managed worker goroutines, fair producer handoff,
and cooperative cancellation.

Core (pkg/mpsc):
  - mpsc: the channel, producer and consumer handles, error policies

Observability (pkg/metrics):
  - metrics: Prometheus instrumentation for channel activity

Shared utilities (pkg/common):
  - errors: sentinel errors, ValidationError, OperationError
  - validation: reusable configuration validators

Example usage:

	import "github.com/vnykmshr/gompsc/pkg/mpsc"

	ch := mpsc.New(128, 4, func(c *mpsc.Consumer, data []byte, closed bool) {
		if closed {
			return
		}
		process(data)
	})
	ch.RegisterProducer(mpsc.TaskFunc(func(p *mpsc.Producer) {
		p.Send(payload)
	}), nil)
	ch.Join()
*/
package gompsc

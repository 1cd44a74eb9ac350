/*
Package mpsc provides a single-slot multi-producer, single-consumer message
channel built on mutex and condition-variable synchronization.

Unlike Go's built-in channels, an mpsc Channel manages its own worker
goroutines: every registered producer runs an application-supplied Task on a
dedicated goroutine, and one dedicated consumer goroutine delivers messages
to an application callback, one at a time. Messages are opaque byte payloads
of bounded size copied through a single shared slot, so the channel is
rendezvous-like: a producer's Send completes only once the slot is free and
the producer has been admitted.

Key Components:
  - Channel: the channel object; owns the slot, the producer table and all
    synchronization state
  - Producer: per-task handle exposing Send, SendEmpty, Ping, Context and
    nested registration
  - Consumer: the consumer handle passed to every callback invocation,
    exposing Close and nested registration
  - Config: construction parameters, including the error policy and a
    pluggable allocator

Fairness:

Producers blocked in Send are served in strict FIFO order of arrival. The
consumer elects the next waiting producer explicitly, under the lock, by
signaling that producer's private condition variable. A freshly arriving
producer can never overtake an elected waiter: while an election is
outstanding, new arrivals are forced into the queue as well. This avoids
both thundering-herd wakeups and starvation of queued producers.

Lifecycle:

	ch := mpsc.New(128, 4, onMessage)
	for i := 0; i < 4; i++ {
		if err := ch.RegisterProducer(task, i); err != nil {
			log.Fatal(err)
		}
	}
	ch.Join() // blocks until drained, then releases the channel

A channel closes when either the consumer callback calls Close on its
handle, or Join has been entered and every producer task has returned. The
consumer then fires one final callback invocation with closed=true and
exits. Messages deposited before closure is observed are delivered before
that terminal callback.

Callbacks and locking:

No user callback (consumer callback, consumer error callback, producer
task) is ever invoked while the channel lock is held. The consumer callback
may therefore block arbitrarily, or call back into the channel (Close,
RegisterProducer) without deadlocking producers.

Cancellation:

There is no forcible cancellation. Closure is cooperative: a producer task
performing long computation should call Ping periodically and return
promptly once it reports false. A task that ignores Ping and never sends
blocks Join indefinitely; that is a documented contract, not a bug.

	task := mpsc.TaskFunc(func(p *mpsc.Producer) {
		for p.Ping() {
			if result, ok := step(); ok {
				p.Send(result)
				return
			}
		}
	})

Error Handling:

Two policies, chosen at construction. Abort (the default) treats any
recoverable resource failure as fatal. Report surfaces them instead:
constructors and RegisterProducer return an error, and a failed
per-message buffer allocation invokes the ConsumerErrorCallback outside
the lock, drops that message, and keeps the channel open. Misuse — a nil
consumer callback, MaxProducers below 1, sending more than BufferSize
bytes, joining twice, joining from a foreign goroutine — is a programming
bug and panics regardless of policy.

Ownership:

The payload passed to Send is copied into the slot before Send returns
true, so producer-side storage may be reused immediately. The buffer
handed to the consumer callback is a fresh allocation owned by the
callback.

Observability:

NewWithMetrics and NewWithConfigAndMetrics instrument a channel with
Prometheus metrics (sends, deliveries, drops, queue depth, handoff wait
times); see the metrics package.
*/
package mpsc

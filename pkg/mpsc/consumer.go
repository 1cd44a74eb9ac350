package mpsc

// Consumer identifies the single consumer of a channel. It is passed to
// every consumer callback invocation; its methods are intended to be
// called from inside those callbacks.
type Consumer struct {
	ch *Channel
}

// Close transitions the channel to its terminal closed state. Producers
// blocked in Send are woken so they can observe closure and return
// false; subsequent sends are rejected. A message already pending when
// Close is called is still delivered before the terminal callback.
func (c *Consumer) Close() {
	ch := c.ch
	ch.mu.Lock()
	ch.closed = true
	ch.mainCond.Signal()
	for _, id := range ch.waitQueue {
		ch.producerConds[id].Signal()
	}
	ch.mu.Unlock()
}

// RegisterProducer registers an additional producer on the owning
// channel. It exists so the consumer callback can grow the producer
// population in reaction to received messages.
func (c *Consumer) RegisterProducer(task Task, context any) error {
	return c.ch.RegisterProducer(task, context)
}

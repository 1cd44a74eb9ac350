package mpsc

// Producer is the handle through which a producer task interacts with
// its channel. Handles are stable views into the channel's fixed-size
// producer table and must not outlive Join.
type Producer struct {
	ch      *Channel
	id      int
	context any
	task    Task
	done    bool
}

// Send copies data into the channel slot and wakes the consumer. It
// blocks while the slot is occupied or while earlier producers are
// queued, and returns false if the channel was observed closed before
// the message could be deposited. Once Send returns true the payload has
// been copied, so the caller may reuse data immediately.
//
// Sending more than the channel's BufferSize bytes is fatal: the bound
// is fixed at creation and exceeding it is a programming bug.
func (p *Producer) Send(data []byte) bool {
	c := p.ch
	n := len(data)
	c.mu.Lock()
	if n > c.cfg.BufferSize {
		c.mu.Unlock()
		c.fatalf("send: message length %d exceeds buffer size %d", n, c.cfg.BufferSize)
	}
	if c.closed {
		c.mu.Unlock()
		c.metrics.recordSend(false)
		return false
	}
	// A producer must queue not only while a message is pending but also
	// while an election is outstanding. Skipping the queue on
	// pending=false alone would let a fresh arrival overwrite the slot
	// reserved for the elected waiter.
	if c.pending || c.nextHandoff != noHandoff {
		start := c.sendWaitStart()
		c.subscribeWaitQueue(p.id)
		c.metrics.recordBlocked()
		cond := c.producerConds[p.id]
		for !c.closed && c.nextHandoff != p.id {
			cond.Wait()
		}
		if c.closed {
			c.mu.Unlock()
			c.metrics.observeSendWait(start)
			c.metrics.recordSend(false)
			return false
		}
		c.shiftWaitQueue()
		c.metrics.observeSendWait(start)
	}
	if n > 0 {
		copy(c.slot[:n], data)
	}
	c.slotLen = n
	c.pending = true
	c.mainCond.Signal()
	c.mu.Unlock()
	c.metrics.recordSend(true)
	return true
}

// SendEmpty deposits a zero-length message. It is exactly Send(nil).
func (p *Producer) SendEmpty() bool {
	return p.Send(nil)
}

// Ping reports whether the channel is still open. Long-running tasks
// should call it periodically and return promptly once it reports false,
// so that Join is not held up.
func (p *Producer) Ping() bool {
	c := p.ch
	c.mu.Lock()
	open := !c.closed
	c.mu.Unlock()
	return open
}

// Context returns the opaque application value passed to
// RegisterProducer.
func (p *Producer) Context() any {
	return p.context
}

// RegisterProducer registers an additional producer on the owning
// channel, up to its MaxProducers capacity.
func (p *Producer) RegisterProducer(task Task, context any) error {
	return p.ch.RegisterProducer(task, context)
}

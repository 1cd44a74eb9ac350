package mpsc

import (
	"fmt"
	"sync"
	"time"

	"github.com/vnykmshr/gompsc/internal/goid"
	gferrors "github.com/vnykmshr/gompsc/pkg/common/errors"
)

// noHandoff marks the absence of an elected producer.
const noHandoff = -1

// Channel is a single-slot multi-producer, single-consumer message channel.
//
// Messages are opaque byte payloads of at most Config.BufferSize bytes,
// copied through a single shared slot guarded by one mutex. A dedicated
// consumer goroutine drains the slot and hands each message to the
// configured ConsumerCallback; each registered producer runs its Task on
// a dedicated goroutine. Producers blocked in Send are served in strict
// FIFO order.
//
// A Channel must be created with New, NewWithConfig or NewWithMetrics,
// and terminated with Join. Multiple channels coexist without shared
// state.
type Channel struct {
	cfg Config

	mu       sync.Mutex
	mainCond *sync.Cond

	slot    []byte
	slotLen int
	pending bool
	closed  bool
	joined  bool

	producers     []Producer
	producerConds []*sync.Cond
	producerDone  []chan struct{}
	producerCount int
	producersDone int

	// waitQueue holds the indices of producers blocked in Send, in
	// arrival order. Its backing array never grows past MaxProducers.
	waitQueue   []int
	nextHandoff int

	consumer     Consumer
	consumerDone chan struct{}

	parentGID uint64

	// spawn starts a goroutine and reports spawn failure. Overridable in
	// tests to exercise the resource-exhaustion paths; goroutine creation
	// cannot fail at runtime.
	spawn func(fn func()) error

	metrics *channelMetrics
}

// New creates a channel with the given payload bound, producer capacity
// and consumer callback, using the Abort error policy. It panics on
// invalid arguments.
func New(bufferSize, maxProducers int, cb ConsumerCallback) *Channel {
	cfg := DefaultConfig()
	cfg.BufferSize = bufferSize
	cfg.MaxProducers = maxProducers
	cfg.ConsumerCallback = cb
	c, err := NewWithConfig(cfg)
	if err != nil {
		// Unreachable under Abort policy: resource failures panic there.
		panic(err)
	}
	return c
}

// NewWithConfig creates a channel from cfg and starts its consumer
// goroutine. Invalid configuration panics regardless of policy; a
// recoverable resource failure returns an error under the Report policy
// and panics under Abort. On failure every resource acquired so far is
// released before returning.
func NewWithConfig(cfg Config) (*Channel, error) {
	cfg.validate()
	if cfg.Alloc == nil {
		cfg.Alloc = defaultAlloc
	}

	c := &Channel{
		cfg:          cfg,
		nextHandoff:  noHandoff,
		parentGID:    goid.ID(),
		consumerDone: make(chan struct{}),
	}
	c.mainCond = sync.NewCond(&c.mu)
	c.producers = make([]Producer, cfg.MaxProducers)
	c.producerConds = make([]*sync.Cond, cfg.MaxProducers)
	for i := range c.producerConds {
		c.producerConds[i] = sync.NewCond(&c.mu)
	}
	c.producerDone = make([]chan struct{}, cfg.MaxProducers)
	c.waitQueue = make([]int, 0, cfg.MaxProducers)
	c.consumer = Consumer{ch: c}
	c.spawn = func(fn func()) error {
		go fn()
		return nil
	}

	slot, err := cfg.Alloc(cfg.BufferSize)
	if err != nil {
		return nil, c.resourceFailure("create", err)
	}
	if len(slot) < cfg.BufferSize {
		c.fatalf("create: allocator returned %d bytes, need %d", len(slot), cfg.BufferSize)
	}
	c.slot = slot[:cfg.BufferSize]

	if err := c.spawn(c.runConsumer); err != nil {
		c.slot = nil
		return nil, c.resourceFailure("create", err)
	}
	return c, nil
}

// RegisterProducer records a new producer and starts its task on a
// dedicated goroutine. It returns ErrMaxProducers when the producer
// capacity is exhausted, ErrClosed when the channel is already closed,
// and a resource error when the worker cannot be started under the
// Report policy.
func (c *Channel) RegisterProducer(task Task, context any) error {
	if task == nil {
		panic(gferrors.NewValidationError("mpsc", "task", nil, "cannot be nil"))
	}
	c.mu.Lock()
	if c.producerCount == c.cfg.MaxProducers {
		c.mu.Unlock()
		return ErrMaxProducers
	}
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	i := c.producerCount
	p := &c.producers[i]
	p.ch = c
	p.id = i
	p.task = task
	p.context = context
	p.done = false
	done := make(chan struct{})
	c.producerDone[i] = done
	if err := c.spawn(func() { c.runProducer(p, done) }); err != nil {
		c.mu.Unlock()
		return c.resourceFailure("RegisterProducer", err)
	}
	c.producerCount++
	count := c.producerCount
	c.mu.Unlock()
	c.metrics.setProducers(count)
	return nil
}

// Join blocks until the channel drains and every producer task returns,
// then releases the channel's resources. It must be called exactly once,
// from the goroutine that created the channel (unless
// DisableThreadSafetyChecks is set), and only after at least one producer
// has been registered. Violating any of these is fatal.
func (c *Channel) Join() {
	c.mu.Lock()
	if !c.cfg.DisableThreadSafetyChecks && goid.ID() != c.parentGID {
		c.mu.Unlock()
		c.fatalf("Join: must be called from the goroutine that created the channel")
	}
	if c.joined {
		c.mu.Unlock()
		c.fatalf("Join: can only be called once per channel")
	}
	c.joined = true
	if c.producerCount == 0 {
		c.mu.Unlock()
		c.fatalf("Join: expecting at least one registered producer")
	}
	if c.producersDone == c.producerCount {
		c.closed = true
		c.mainCond.Signal()
	}
	c.mu.Unlock()

	<-c.consumerDone

	c.mu.Lock()
	c.closed = true
	count := c.producerCount
	c.mu.Unlock()
	for i := 0; i < count; i++ {
		<-c.producerDone[i]
	}

	// All goroutines have exited; drop the slot so large payload buffers
	// do not outlive the channel.
	c.mu.Lock()
	c.slot = nil
	c.mu.Unlock()
}

// runProducer executes a producer task and accounts for its completion.
func (c *Channel) runProducer(p *Producer, done chan struct{}) {
	defer close(done)
	p.task.Run(p)
	c.producerFinished(p)
}

// producerFinished marks p done and closes the channel when it was the
// last outstanding producer of a joined channel.
func (c *Channel) producerFinished(p *Producer) {
	c.mu.Lock()
	if !p.done {
		p.done = true
		c.producersDone++
		if c.joined && c.producersDone == c.producerCount {
			c.closed = true
			c.mainCond.Signal()
		}
	}
	finished := c.producersDone
	c.mu.Unlock()
	c.metrics.setProducersFinished(finished)
}

// runConsumer is the consumer goroutine main loop. It drains the slot
// one message at a time, elects the next waiting producer, and invokes
// the consumer callback outside the lock. When the channel closes it
// delivers any still-pending message, then fires the terminal callback
// exactly once.
func (c *Channel) runConsumer() {
	defer close(c.consumerDone)
	for {
		c.mu.Lock()
		for !c.pending && !c.closed {
			c.mainCond.Wait()
		}
		if c.closed && !c.pending {
			c.mu.Unlock()
			break
		}
		n := c.slotLen
		var buf []byte
		if n > 0 {
			b, err := c.cfg.Alloc(n)
			if err != nil {
				c.slotLen = 0
				c.pending = false
				c.mu.Unlock()
				c.metrics.recordDrop()
				// The lock must not be held across the callback.
				c.deliveryFailure(err)
				continue
			}
			if len(b) < n {
				c.mu.Unlock()
				c.fatalf("deliver: allocator returned %d bytes, need %d", len(b), n)
			}
			buf = b[:n]
			copy(buf, c.slot[:n])
		}
		c.slotLen = 0
		c.pending = false
		if len(c.waitQueue) > 0 && !c.closed {
			id := c.waitQueue[0]
			c.nextHandoff = id
			c.producerConds[id].Signal()
		}
		c.mu.Unlock()
		c.metrics.recordDelivery(n)
		// The lock must not be held across the callback.
		c.cfg.ConsumerCallback(&c.consumer, buf, false)
	}
	// The lock must not be held across the callback.
	c.cfg.ConsumerCallback(&c.consumer, nil, true)
}

// deliveryFailure handles a failed delivery-buffer allocation. The
// pending message has already been dropped under the lock.
func (c *Channel) deliveryFailure(cause error) {
	err := resourceError("deliver", cause)
	if c.cfg.ErrorPolicy == Abort {
		panic(err.Error())
	}
	c.cfg.ConsumerErrorCallback(&c.consumer, err)
}

// subscribeWaitQueue appends producer id to the tail of the wait queue.
// Requires the lock.
func (c *Channel) subscribeWaitQueue(id int) {
	if len(c.waitQueue) == c.cfg.MaxProducers {
		c.mu.Unlock()
		c.fatalf("send: producer %d subscribing to a full wait queue", id)
	}
	c.waitQueue = append(c.waitQueue, id)
	c.metrics.setProducersWaiting(len(c.waitQueue))
}

// shiftWaitQueue removes the queue head and clears the election. Only an
// elected producer may shift; the closed path returns without touching
// the queue. Requires the lock.
func (c *Channel) shiftWaitQueue() {
	if len(c.waitQueue) == 0 {
		c.mu.Unlock()
		c.fatalf("send: shifting an empty wait queue")
	}
	copy(c.waitQueue, c.waitQueue[1:])
	c.waitQueue = c.waitQueue[:len(c.waitQueue)-1]
	c.nextHandoff = noHandoff
	c.metrics.setProducersWaiting(len(c.waitQueue))
}

// resourceFailure converts a recoverable resource error according to the
// channel's policy: Abort panics, Report returns the wrapped error.
func (c *Channel) resourceFailure(op string, cause error) error {
	err := resourceError(op, cause)
	if c.cfg.ErrorPolicy == Abort {
		panic(err.Error())
	}
	return err
}

func resourceError(op string, cause error) error {
	return gferrors.NewOperationError("mpsc", op,
		fmt.Errorf("%w: %w", gferrors.ErrResourceExhausted, cause))
}

// fatalf reports an invariant violation or misuse. These are programming
// bugs and abort unconditionally, independent of ErrorPolicy.
func (c *Channel) fatalf(format string, args ...any) {
	panic(fmt.Sprintf("mpsc: "+format, args...))
}

// sendWaitStart returns the wait start time when wait metrics are
// enabled, and the zero time otherwise.
func (c *Channel) sendWaitStart() time.Time {
	if c.metrics == nil {
		return time.Time{}
	}
	return time.Now()
}

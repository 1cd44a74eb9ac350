package mpsc

import (
	"errors"

	gferrors "github.com/vnykmshr/gompsc/pkg/common/errors"
	"github.com/vnykmshr/gompsc/pkg/common/validation"
)

// ErrClosed is returned or reported when an operation observes a closed channel.
var ErrClosed = errors.New("channel is closed")

// ErrMaxProducers is returned when the producer capacity is exhausted.
var ErrMaxProducers = errors.New("maximum number of producers reached")

// ErrorPolicy selects how recoverable resource failures are handled.
type ErrorPolicy int

const (
	// Abort terminates the process (via panic) on any recoverable resource
	// failure. It trades recoverability for simplicity and is the
	// appropriate default for small programs.
	Abort ErrorPolicy = iota

	// Report surfaces recoverable resource failures to the caller:
	// constructors and RegisterProducer return an error, and a failed
	// delivery-buffer allocation invokes the ConsumerErrorCallback
	// instead of terminating the consumer.
	Report
)

// String returns the policy name.
func (p ErrorPolicy) String() string {
	switch p {
	case Abort:
		return "abort"
	case Report:
		return "report"
	default:
		return "unknown"
	}
}

// ConsumerCallback receives every message delivered by the channel.
//
// data is nil for empty messages; otherwise it is a freshly allocated
// buffer whose ownership transfers to the callback. When closed is true,
// data is nil and this is the final invocation for the channel.
//
// The callback is never invoked while the channel lock is held, so it may
// block, sleep, or call back into the channel (Close, RegisterProducer)
// freely.
type ConsumerCallback func(c *Consumer, data []byte, closed bool)

// ConsumerErrorCallback is invoked, outside the channel lock, when a
// delivery-buffer allocation fails under the Report policy. The message
// that could not be delivered is dropped and the channel stays open.
type ConsumerErrorCallback func(c *Consumer, err error)

// Task is a unit of producer work executed on its own goroutine.
type Task interface {
	// Run executes the task. The producer handle stays valid for the
	// lifetime of the channel. Long-running tasks should call p.Ping
	// periodically and return promptly once it reports false.
	Run(p *Producer)
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(p *Producer)

// Run implements the Task interface for TaskFunc.
func (f TaskFunc) Run(p *Producer) {
	f(p)
}

// AllocFunc allocates delivery buffers of length n. It exists so that
// allocation behavior is pluggable: pooled allocators, accounting
// allocators, and failure injection in tests. A nil AllocFunc uses the
// heap.
type AllocFunc func(n int) ([]byte, error)

func defaultAlloc(n int) ([]byte, error) {
	return make([]byte, n), nil
}

// Config holds configuration for a Channel.
type Config struct {
	// BufferSize is the maximum message payload size in bytes. It may be
	// 0 for channels that carry only empty messages.
	BufferSize int

	// MaxProducers is the fixed upper bound on registered producers.
	// Must be at least 1.
	MaxProducers int

	// ConsumerCallback receives delivered messages. Required.
	ConsumerCallback ConsumerCallback

	// ConsumerErrorCallback receives delivery failures. Required when
	// ErrorPolicy is Report; ignored otherwise.
	ConsumerErrorCallback ConsumerErrorCallback

	// ErrorPolicy selects how recoverable resource failures are handled.
	ErrorPolicy ErrorPolicy

	// DisableThreadSafetyChecks skips the check that Join runs on the
	// goroutine that created the channel.
	DisableThreadSafetyChecks bool

	// Alloc allocates the slot buffer and per-message delivery buffers.
	// Nil uses the heap.
	Alloc AllocFunc
}

// DefaultConfig returns a default channel configuration. The consumer
// callback must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		BufferSize:   1024,
		MaxProducers: 8,
		ErrorPolicy:  Abort,
	}
}

// validate panics on misuse. Invalid construction parameters are
// programming bugs, not runtime errors, so they are fatal regardless of
// the configured ErrorPolicy.
func (cfg *Config) validate() {
	if cfg.ConsumerCallback == nil {
		panic(gferrors.NewValidationError("mpsc", "consumer_callback", nil, "cannot be nil"))
	}
	if err := validation.ValidatePositive("mpsc", "max_producers", cfg.MaxProducers); err != nil {
		panic(err)
	}
	if err := validation.ValidateNonNegative("mpsc", "buffer_size", cfg.BufferSize); err != nil {
		panic(err)
	}
	if cfg.ErrorPolicy == Report && cfg.ConsumerErrorCallback == nil {
		panic(gferrors.NewValidationError("mpsc", "consumer_error_callback", nil,
			"cannot be nil when error_policy is report"))
	}
}

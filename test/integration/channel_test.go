// Package integration contains end-to-end scenarios exercising the mpsc
// channel the way demo applications use it: many producers, slow or
// closing consumers, contention, and injected failures.
package integration

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	gferrors "github.com/vnykmshr/gompsc/pkg/common/errors"
	"github.com/vnykmshr/gompsc/pkg/mpsc"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestHelloEight registers eight producers that each send one short text
// message: all eight must arrive, followed by exactly one terminal
// callback.
func TestHelloEight(t *testing.T) {
	const producers = 8

	var mu sync.Mutex
	var got []string
	var terminal int

	ch := mpsc.New(100, producers, func(c *mpsc.Consumer, data []byte, closed bool) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			terminal++
			return
		}
		got = append(got, string(data))
	})

	want := make([]string, 0, producers)
	for i := 0; i < producers; i++ {
		msg := []byte("hello from producer number " + string(rune('0'+i)))
		want = append(want, string(msg))
		err := ch.RegisterProducer(mpsc.TaskFunc(func(p *mpsc.Producer) {
			if !p.Send(msg) {
				t.Error("send rejected on open channel")
			}
		}), nil)
		if err != nil {
			t.Fatalf("register producer %d: %v", i, err)
		}
	}
	ch.Join()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != producers {
		t.Fatalf("delivered %d messages, want %d", len(got), producers)
	}
	if terminal != 1 {
		t.Fatalf("terminal callback fired %d times, want 1", terminal)
	}

	// Every payload must arrive intact, independent of delivery order.
	seen := make(map[string]int)
	for _, msg := range got {
		seen[msg]++
	}
	wantSeen := make(map[string]int)
	for _, msg := range want {
		wantSeen[msg]++
	}
	if diff := cmp.Diff(wantSeen, seen); diff != "" {
		t.Errorf("delivered payloads mismatch (-want +got):\n%s", diff)
	}
}

// TestEmptyMessageThreshold runs empty-payload producers against a
// consumer that closes the channel after twenty deliveries.
func TestEmptyMessageThreshold(t *testing.T) {
	const producers = 4
	const threshold = 20

	var received atomic.Int64
	var terminal atomic.Int64

	ch := mpsc.New(0, producers, func(c *mpsc.Consumer, data []byte, closed bool) {
		if closed {
			terminal.Add(1)
			return
		}
		if received.Add(1) == threshold {
			c.Close()
		}
	})

	var sent atomic.Int64
	for i := 0; i < producers; i++ {
		err := ch.RegisterProducer(mpsc.TaskFunc(func(p *mpsc.Producer) {
			// Keep producing until the channel refuses the message, so
			// the consumer is guaranteed to reach its threshold.
			for {
				if !p.SendEmpty() {
					return
				}
				sent.Add(1)
			}
		}), nil)
		if err != nil {
			t.Fatalf("register producer %d: %v", i, err)
		}
	}
	ch.Join()

	if got := received.Load(); got < threshold {
		t.Errorf("received %d messages, want at least %d", got, threshold)
	}
	if got, want := received.Load(), sent.Load(); got != want {
		t.Errorf("received %d messages, producers delivered %d", got, want)
	}
	if got := terminal.Load(); got != 1 {
		t.Errorf("terminal callback fired %d times, want 1", got)
	}
}

// TestFirstWins races producers that sleep random durations before
// sending; the consumer keeps the first message and closes. Laggards
// observe closure through Ping and return.
func TestFirstWins(t *testing.T) {
	const producers = 4

	var deliveries atomic.Int64
	ch := mpsc.New(8, producers, func(c *mpsc.Consumer, data []byte, closed bool) {
		if closed {
			return
		}
		deliveries.Add(1)
		c.Close()
	})

	for i := 0; i < producers; i++ {
		// Staggered delays keep the winner well clear of the field, so
		// closure is observable before any laggard reaches its Send.
		delay := time.Duration(10+i*50+rand.Intn(10)) * time.Millisecond
		err := ch.RegisterProducer(mpsc.TaskFunc(func(p *mpsc.Producer) {
			deadline := time.Now().Add(delay)
			for time.Now().Before(deadline) {
				if !p.Ping() {
					return
				}
				time.Sleep(time.Millisecond)
			}
			var payload [8]byte
			binary.BigEndian.PutUint64(payload[:], uint64(delay))
			p.Send(payload[:])
		}), nil)
		if err != nil {
			t.Fatalf("register producer %d: %v", i, err)
		}
	}
	ch.Join()

	if got := deliveries.Load(); got != 1 {
		t.Errorf("delivered %d messages, want exactly 1", got)
	}
}

// TestSleepingConsumer verifies that a blocking consumer callback only
// slows producers down, without busy waiting or unbounded stack growth.
func TestSleepingConsumer(t *testing.T) {
	const messages = 3
	const nap = 100 * time.Millisecond

	var count atomic.Int64
	ch := mpsc.New(0, 1, func(c *mpsc.Consumer, data []byte, closed bool) {
		if closed {
			return
		}
		count.Add(1)
		time.Sleep(nap)
	})

	start := time.Now()
	err := ch.RegisterProducer(mpsc.TaskFunc(func(p *mpsc.Producer) {
		for i := 0; i < messages; i++ {
			if !p.SendEmpty() {
				t.Error("send rejected on open channel")
			}
		}
	}), nil)
	if err != nil {
		t.Fatalf("register producer: %v", err)
	}
	ch.Join()
	elapsed := time.Since(start)

	if got := count.Load(); got != messages {
		t.Errorf("delivered %d messages, want %d", got, messages)
	}
	// Join returns once the consumer drains; total time is bounded by
	// the consumer naps plus scheduling noise.
	if elapsed > messages*nap+2*time.Second {
		t.Errorf("join took %v, expected roughly %v", elapsed, messages*nap)
	}
}

// TestContentionHandoff floods the channel from 16 producers sending
// 1000 sequence-numbered messages each. Per-producer delivery order must
// be strictly ascending and nothing may be lost.
func TestContentionHandoff(t *testing.T) {
	if testing.Short() {
		t.Skip("contention scenario is slow")
	}

	const producers = 16
	const perProducer = 1000

	lastSeq := make([]int64, producers)
	for i := range lastSeq {
		lastSeq[i] = -1
	}
	var total int64
	var orderErr error

	ch := mpsc.New(8, producers, func(c *mpsc.Consumer, data []byte, closed bool) {
		if closed {
			return
		}
		id := binary.BigEndian.Uint32(data[0:4])
		seq := int64(binary.BigEndian.Uint32(data[4:8]))
		if seq <= lastSeq[id] && orderErr == nil {
			orderErr = errors.New("out-of-order delivery")
		}
		lastSeq[id] = seq
		total++
	})

	for i := 0; i < producers; i++ {
		id := uint32(i)
		err := ch.RegisterProducer(mpsc.TaskFunc(func(p *mpsc.Producer) {
			var payload [8]byte
			binary.BigEndian.PutUint32(payload[0:4], id)
			for seq := uint32(0); seq < perProducer; seq++ {
				binary.BigEndian.PutUint32(payload[4:8], seq)
				if !p.Send(payload[:]) {
					t.Errorf("producer %d: send %d rejected", id, seq)
					return
				}
			}
		}), nil)
		if err != nil {
			t.Fatalf("register producer %d: %v", i, err)
		}
	}
	ch.Join()

	if orderErr != nil {
		t.Error(orderErr)
	}
	if total != producers*perProducer {
		t.Errorf("delivered %d messages, want %d", total, producers*perProducer)
	}
	for i, seq := range lastSeq {
		if seq != perProducer-1 {
			t.Errorf("producer %d: last sequence %d, want %d", i, seq, perProducer-1)
		}
	}
}

// TestReportPolicyAllocationFailure injects an allocation failure into
// the fifth per-message delivery buffer: the consumer error callback
// fires once, that message is dropped, and the channel keeps going.
func TestReportPolicyAllocationFailure(t *testing.T) {
	const messages = 10
	const failing = 5

	var allocs atomic.Int64
	var mu sync.Mutex
	var delivered []string
	var errCalls atomic.Int64
	var terminal atomic.Int64

	cfg := mpsc.Config{
		BufferSize:   32,
		MaxProducers: 1,
		ErrorPolicy:  mpsc.Report,
		ConsumerCallback: func(c *mpsc.Consumer, data []byte, closed bool) {
			if closed {
				terminal.Add(1)
				return
			}
			mu.Lock()
			delivered = append(delivered, string(data))
			mu.Unlock()
		},
		ConsumerErrorCallback: func(c *mpsc.Consumer, err error) {
			if !errors.Is(err, gferrors.ErrResourceExhausted) {
				t.Errorf("error callback got %v, want ErrResourceExhausted", err)
			}
			errCalls.Add(1)
		},
		// Allocation 1 backs the slot; delivery buffers start at 2.
		Alloc: func(n int) ([]byte, error) {
			if allocs.Add(1) == failing+1 {
				return nil, errors.New("injected allocation failure")
			}
			return make([]byte, n), nil
		},
	}
	ch, err := mpsc.NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}

	err = ch.RegisterProducer(mpsc.TaskFunc(func(p *mpsc.Producer) {
		for i := 0; i < messages; i++ {
			payload := []byte{'m', byte('0' + i)}
			if !p.Send(payload) {
				t.Errorf("send %d rejected on open channel", i)
			}
		}
	}), nil)
	if err != nil {
		t.Fatalf("register producer: %v", err)
	}
	ch.Join()

	if got := errCalls.Load(); got != 1 {
		t.Errorf("error callback fired %d times, want 1", got)
	}
	if got := terminal.Load(); got != 1 {
		t.Errorf("terminal callback fired %d times, want 1", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != messages-1 {
		t.Fatalf("delivered %d messages, want %d", len(delivered), messages-1)
	}
	want := []string{"m0", "m1", "m2", "m3", "m5", "m6", "m7", "m8", "m9"}
	if diff := cmp.Diff(want, delivered); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}
}

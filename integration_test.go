package disruptor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type intEvent struct {
	value int64
}

// S1: bufferSize=4, single producer, single consumer. Publish 0..6 and
// confirm the consumer observes them in order and that the final
// delivery carries endOfBatch true.
func TestIntegrationSingleProducerSingleConsumerInOrder(t *testing.T) {
	ring, err := NewRingBuffer[intEvent](SingleProducer, func() intEvent { return intEvent{} }, 4, NewYieldingWaitStrategy())
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []int64
	var lastWasEndOfBatch bool
	done := make(chan struct{})

	handler := EventHandlerFunc[intEvent](func(e *intEvent, sequence int64, endOfBatch bool) error {
		mu.Lock()
		seen = append(seen, sequence)
		lastWasEndOfBatch = endOfBatch
		mu.Unlock()
		if sequence == 6 {
			close(done)
		}
		return nil
	})

	processor := NewBatchEventProcessor[intEvent]("s1", ring, ring.NewBarrier(), handler, HandlerCapabilities[intEvent]{}, nil)
	ring.AddGatingSequences(processor.Sequence())

	executor := newTestExecutor(t, 2)
	require.NoError(t, processor.Start(executor))

	for i := int64(0); i <= 6; i++ {
		seq, err := ring.Next()
		require.NoError(t, err)
		ring.Get(seq).value = i
		ring.Publish(seq)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer never reached sequence 6")
	}
	processor.Halt()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6}, seen)
	require.True(t, lastWasEndOfBatch)
}

// S2: bufferSize=2, consumer sleeping 10ms per event, producer publishes
// 6 events back to back. Next() must block on events 3+ until the
// consumer catches up, and no slot is ever overwritten before its
// prior occupant is consumed.
func TestIntegrationSlowConsumerBackpressuresProducer(t *testing.T) {
	ring, err := NewRingBuffer[intEvent](SingleProducer, func() intEvent { return intEvent{} }, 2, NewYieldingWaitStrategy())
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []int64
	done := make(chan struct{})

	handler := EventHandlerFunc[intEvent](func(e *intEvent, sequence int64, endOfBatch bool) error {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		seen = append(seen, sequence)
		mu.Unlock()
		if sequence == 5 {
			close(done)
		}
		return nil
	})

	processor := NewBatchEventProcessor[intEvent]("s2", ring, ring.NewBarrier(), handler, HandlerCapabilities[intEvent]{}, nil)
	ring.AddGatingSequences(processor.Sequence())

	executor := newTestExecutor(t, 2)
	require.NoError(t, processor.Start(executor))

	publishStarted := time.Now()
	for i := int64(0); i < 6; i++ {
		seq, err := ring.Next()
		require.NoError(t, err)
		ring.Get(seq).value = i
		ring.Publish(seq)
	}
	publishElapsed := time.Since(publishStarted)

	// The ring only holds 2 slots; with a 10ms consumer, publishing all
	// 6 events without overwriting anything takes at least ~40ms of
	// blocking on the producer side (events 3..6 must each wait a slot).
	require.GreaterOrEqual(t, publishElapsed, 30*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer never reached sequence 5")
	}
	processor.Halt()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int64{0, 1, 2, 3, 4, 5}, seen, "no event was skipped or overwritten")
}

// S3: bufferSize=8, 4 producer threads each publishing 1000 sequential
// integers, one consumer. Consumer must receive exactly 4000 events,
// each distinct, in ascending order, no duplicates or gaps.
func TestIntegrationMultiProducerSingleConsumerNoGapsOrDuplicates(t *testing.T) {
	const producers = 4
	const perProducer = 1000
	const total = producers * perProducer

	ring, err := NewRingBuffer[intEvent](MultiProducer, func() intEvent { return intEvent{} }, 8, NewYieldingWaitStrategy())
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []int64
	var processedCount int64
	done := make(chan struct{})

	handler := EventHandlerFunc[intEvent](func(e *intEvent, sequence int64, endOfBatch bool) error {
		mu.Lock()
		seen = append(seen, sequence)
		mu.Unlock()
		if atomic.AddInt64(&processedCount, 1) == total {
			close(done)
		}
		return nil
	})

	processor := NewBatchEventProcessor[intEvent]("s3", ring, ring.NewBarrier(), handler, HandlerCapabilities[intEvent]{}, nil)
	ring.AddGatingSequences(processor.Sequence())

	executor := newTestExecutor(t, 2)
	require.NoError(t, processor.Start(executor))

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				seq, err := ring.Next()
				require.NoError(t, err)
				ring.Get(seq).value = seq
				ring.Publish(seq)
			}
		}()
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer never processed all 4000 events")
	}
	processor.Halt()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, total)
	for i, s := range seen {
		require.Equal(t, int64(i), s, "sequences must arrive strictly in ascending order with no gaps or duplicates")
	}
}

// S4: bufferSize=16, worker pool of 3 workers, producer publishes 100
// events. The union of events seen by workers equals {0..99} and the
// per-worker sets are pairwise disjoint.
func TestIntegrationWorkerPoolPartitionsWithoutOverlap(t *testing.T) {
	const bufferSize = 16
	const total = 100
	const workers = 3

	ring, err := NewRingBuffer[intEvent](SingleProducer, func() intEvent { return intEvent{} }, bufferSize, NewYieldingWaitStrategy())
	require.NoError(t, err)

	var mu sync.Mutex
	perWorker := make([]map[int64]bool, workers)
	for i := range perWorker {
		perWorker[i] = make(map[int64]bool)
	}
	var processedCount int64
	done := make(chan struct{})

	handlers := make([]EventHandler[intEvent], workers)
	for w := 0; w < workers; w++ {
		w := w
		handlers[w] = EventHandlerFunc[intEvent](func(e *intEvent, sequence int64, endOfBatch bool) error {
			mu.Lock()
			perWorker[w][sequence] = true
			mu.Unlock()
			if atomic.AddInt64(&processedCount, 1) == total {
				close(done)
			}
			return nil
		})
	}

	pool := NewWorkerPool[intEvent]("s4", ring, handlers, nil)
	executor := newTestExecutor(t, workers+1)
	require.NoError(t, pool.Start(executor))

	for i := int64(0); i < total; i++ {
		seq, err := ring.Next()
		require.NoError(t, err)
		ring.Get(seq).value = i
		ring.Publish(seq)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("worker pool never processed all 100 events")
	}
	pool.Halt()

	mu.Lock()
	defer mu.Unlock()

	union := make(map[int64]bool)
	for a := 0; a < workers; a++ {
		for seq := range perWorker[a] {
			require.False(t, union[seq], "sequence %d seen by more than one worker", seq)
			union[seq] = true
		}
	}
	require.Len(t, union, total)
	for s := int64(0); s < total; s++ {
		require.True(t, union[s], "sequence %d never handled by any worker", s)
	}
}

// S5: TimeoutBlockingWaitStrategy with a 10ms timeout, no producer
// activity, consumer with a timeout handler. The timeout handler must
// fire at least once (the test allows 200ms for scheduling slack) and
// the consumer's Sequence must stay put.
func TestIntegrationTimeoutHandlerFiresWithoutPublish(t *testing.T) {
	ring, err := NewRingBuffer[intEvent](SingleProducer, func() intEvent { return intEvent{} }, 8, NewTimeoutBlockingWaitStrategy(10*time.Millisecond))
	require.NoError(t, err)

	var timeoutCount int64
	timedOut := make(chan struct{})
	var closeOnce sync.Once

	handler := EventHandlerFunc[intEvent](func(e *intEvent, sequence int64, endOfBatch bool) error {
		t.Fatal("no event was ever published, OnEvent should never run")
		return nil
	})
	caps := HandlerCapabilities[intEvent]{
		OnTimeout: func(sequence int64) {
			if atomic.AddInt64(&timeoutCount, 1) == 1 {
				closeOnce.Do(func() { close(timedOut) })
			}
		},
	}

	processor := NewBatchEventProcessor[intEvent]("s5", ring, ring.NewBarrier(), handler, caps, nil)
	ring.AddGatingSequences(processor.Sequence())

	executor := newTestExecutor(t, 2)
	require.NoError(t, processor.Start(executor))

	select {
	case <-timedOut:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout handler never fired")
	}
	processor.Halt()

	require.Equal(t, InitialSequenceValue, processor.Sequence().Get())
}

// S6: handler throws on every 10th event. The exception handler
// receives the failure, the consumer continues, and after 100 events
// the final Sequence is 99 with no event redelivered.
func TestIntegrationExceptionOnEveryTenthEventDoesNotStallConsumer(t *testing.T) {
	const total = 100

	ring, err := NewRingBuffer[intEvent](SingleProducer, func() intEvent { return intEvent{} }, 16, NewYieldingWaitStrategy())
	require.NoError(t, err)

	var mu sync.Mutex
	deliveries := make(map[int64]int)
	var processedCount int64
	done := make(chan struct{})

	handler := EventHandlerFunc[intEvent](func(e *intEvent, sequence int64, endOfBatch bool) error {
		mu.Lock()
		deliveries[sequence]++
		mu.Unlock()
		if atomic.AddInt64(&processedCount, 1) == total {
			close(done)
		}
		if (sequence+1)%10 == 0 {
			return errBoom
		}
		return nil
	})

	exceptionHandler := &countingExceptionHandler[intEvent]{}
	processor := NewBatchEventProcessor[intEvent]("s6", ring, ring.NewBarrier(), handler, HandlerCapabilities[intEvent]{}, exceptionHandler)
	ring.AddGatingSequences(processor.Sequence())

	executor := newTestExecutor(t, 2)
	require.NoError(t, processor.Start(executor))

	for i := int64(0); i < total; i++ {
		seq, err := ring.Next()
		require.NoError(t, err)
		ring.Get(seq).value = i
		ring.Publish(seq)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("consumer never processed all 100 events")
	}
	require.Eventually(t, func() bool { return processor.Sequence().Get() == total-1 }, time.Second, time.Millisecond)
	processor.Halt()

	require.Equal(t, int64(10), atomic.LoadInt64(&exceptionHandler.count), "one exception per every 10th event")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, deliveries, total)
	for seq, count := range deliveries {
		require.Equal(t, 1, count, "sequence %d was delivered more than once", seq)
	}
}

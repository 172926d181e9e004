package disruptor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExchangeStartRunsRegisteredProcessorAndConsumesPublishedEvents(t *testing.T) {
	ring, err := NewRingBuffer[intEvent](SingleProducer, func() intEvent { return intEvent{} }, 8, NewYieldingWaitStrategy())
	require.NoError(t, err)

	executor, err2 := NewExecutor(2)
	require.NoError(t, err2)
	exchange := NewExchange[intEvent](ring, executor)

	var count int64
	done := make(chan struct{})
	handler := EventHandlerFunc[intEvent](func(e *intEvent, sequence int64, endOfBatch bool) error {
		if atomic.AddInt64(&count, 1) == 5 {
			close(done)
		}
		return nil
	})
	processor := NewBatchEventProcessor[intEvent]("exchange-proc", ring, ring.NewBarrier(), handler, HandlerCapabilities[intEvent]{}, nil)
	exchange.HandleEventsWith(processor)

	require.Equal(t, ExchangeReady, exchange.Status())
	require.NoError(t, exchange.Start())
	require.Equal(t, ExchangeRunning, exchange.Status())

	for i := int64(0); i < 5; i++ {
		seq, err := exchange.RingBuffer().Next()
		require.NoError(t, err)
		exchange.RingBuffer().Get(seq).value = i
		exchange.RingBuffer().Publish(seq)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("exchange never delivered all 5 events")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, exchange.Close(ctx))
	require.Equal(t, ExchangeReady, exchange.Status())
}

func TestExchangeStartTwiceFailsWithAlreadyRunning(t *testing.T) {
	ring, err := NewRingBuffer[intEvent](SingleProducer, func() intEvent { return intEvent{} }, 8, NewBlockingWaitStrategy())
	require.NoError(t, err)

	executor, err2 := NewExecutor(2)
	require.NoError(t, err2)
	exchange := NewExchange[intEvent](ring, executor)
	handler := EventHandlerFunc[intEvent](func(e *intEvent, sequence int64, endOfBatch bool) error { return nil })
	exchange.HandleEventsWith(NewBatchEventProcessor[intEvent]("dup", ring, ring.NewBarrier(), handler, HandlerCapabilities[intEvent]{}, nil))

	require.NoError(t, exchange.Start())
	err = exchange.Start()
	require.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, exchange.Close(ctx))
}

func TestExchangeCloseIsIdempotent(t *testing.T) {
	ring, err := NewRingBuffer[intEvent](SingleProducer, func() intEvent { return intEvent{} }, 8, NewBlockingWaitStrategy())
	require.NoError(t, err)

	executor, err2 := NewExecutor(2)
	require.NoError(t, err2)
	exchange := NewExchange[intEvent](ring, executor)
	handler := EventHandlerFunc[intEvent](func(e *intEvent, sequence int64, endOfBatch bool) error { return nil })
	exchange.HandleEventsWith(NewBatchEventProcessor[intEvent]("idempotent", ring, ring.NewBarrier(), handler, HandlerCapabilities[intEvent]{}, nil))

	require.NoError(t, exchange.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, exchange.Close(ctx))
	require.NoError(t, exchange.Close(ctx), "closing an already-ready exchange is a no-op, not an error")
}

func TestExchangeWithWorkerPoolStage(t *testing.T) {
	ring, err := NewRingBuffer[intEvent](SingleProducer, func() intEvent { return intEvent{} }, 16, NewYieldingWaitStrategy())
	require.NoError(t, err)

	executor, err2 := NewExecutor(4)
	require.NoError(t, err2)
	exchange := NewExchange[intEvent](ring, executor)

	var count int64
	done := make(chan struct{})
	handlers := []EventHandler[intEvent]{
		EventHandlerFunc[intEvent](func(e *intEvent, sequence int64, endOfBatch bool) error {
			if atomic.AddInt64(&count, 1) == 20 {
				close(done)
			}
			return nil
		}),
		EventHandlerFunc[intEvent](func(e *intEvent, sequence int64, endOfBatch bool) error {
			if atomic.AddInt64(&count, 1) == 20 {
				close(done)
			}
			return nil
		}),
	}
	pool := NewWorkerPool[intEvent]("exchange-pool", ring, handlers, nil)
	exchange.HandleEventsWithWorkerPool(pool)

	require.NoError(t, exchange.Start())

	for i := int64(0); i < 20; i++ {
		seq, err := exchange.RingBuffer().Next()
		require.NoError(t, err)
		exchange.RingBuffer().Get(seq).value = i
		exchange.RingBuffer().Publish(seq)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker pool stage never processed all 20 events")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, exchange.Close(ctx))
}

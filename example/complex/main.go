package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ringflow/disruptor"

	derrors "github.com/ringflow/disruptor/errors"
)

type tick struct {
	value uint64
}

func main() {
	fmt.Println("========== start write with discard-on-backpressure ==========")
	writeByDiscard()
	fmt.Println("========== complete write with discard-on-backpressure ==========")

	fmt.Println("========== start write with bounded blocking ==========")
	writeByTimeout()
	fmt.Println("========== complete write with bounded blocking ==========")
}

// writeByDiscard uses a tiny two-slot ring and TryNext: producers that
// can't claim a slot immediately (the slow handler hasn't caught up)
// drop the value instead of blocking, mirroring a caller that would
// rather lose data than add latency.
func writeByDiscard() {
	var counter uint64

	handler := disruptor.EventHandlerFunc[tick](func(e *tick, sequence int64, endOfBatch bool) error {
		time.Sleep(10 * time.Millisecond)
		fmt.Println("consumed", e.value)
		return nil
	})

	ring, err := disruptor.NewRingBuffer[tick](
		disruptor.MultiProducer,
		func() tick { return tick{} },
		2,
		disruptor.NewSleepingWaitStrategy(time.Microsecond),
	)
	if err != nil {
		panic(err)
	}
	executor, err := disruptor.NewExecutor(2)
	if err != nil {
		panic(err)
	}
	processor := disruptor.NewBatchEventProcessor[tick]("discard-consumer", ring, ring.NewBarrier(), handler, disruptor.HandlerCapabilities[tick]{}, nil)
	exchange := disruptor.NewExchange[tick](ring, executor)
	exchange.HandleEventsWith(processor)
	if err := exchange.Start(); err != nil {
		panic(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				v := atomic.AddUint64(&counter, 1)
				seq, err := ring.TryNext()
				if err != nil {
					fmt.Println("discard", v)
					continue
				}
				ring.Get(seq).value = v
				ring.Publish(seq)
				fmt.Println("write", v)
			}
		}()
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := exchange.Close(ctx); err != nil {
		panic(err)
	}
}

// writeByTimeout uses a TimeoutBlockingWaitStrategy so the consumer's
// OnTimeout callback fires whenever the ring runs dry for a stretch,
// while producers just block on Next under backpressure from a
// randomly slow handler.
func writeByTimeout() {
	var counter uint64
	var consumedCount int32

	handler := disruptor.EventHandlerFunc[tick](func(e *tick, sequence int64, endOfBatch bool) error {
		time.Sleep(time.Duration(rand.Intn(1000)) * time.Microsecond)
		fmt.Println("consumed count", atomic.AddInt32(&consumedCount, 1))
		return nil
	})

	caps := disruptor.HandlerCapabilities[tick]{
		OnTimeout: func(sequence int64) {
			fmt.Println("consumer idle, no event past sequence", sequence)
		},
	}

	ring, err := disruptor.NewRingBuffer[tick](
		disruptor.MultiProducer,
		func() tick { return tick{} },
		2,
		disruptor.NewTimeoutBlockingWaitStrategy(50*time.Millisecond),
	)
	if err != nil {
		panic(err)
	}
	executor, err := disruptor.NewExecutor(2)
	if err != nil {
		panic(err)
	}
	processor := disruptor.NewBatchEventProcessor[tick]("timeout-consumer", ring, ring.NewBarrier(), handler, caps, nil)
	exchange := disruptor.NewExchange[tick](ring, executor)
	exchange.HandleEventsWith(processor)
	if err := exchange.Start(); err != nil {
		panic(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				v := atomic.AddUint64(&counter, 1)
				seq, err := ring.Next()
				if err != nil {
					if derrors.IsAlert(err) {
						return
					}
					panic(err)
				}
				ring.Get(seq).value = v
				ring.Publish(seq)
				fmt.Println("write", v, "with 1 time")
			}
		}()
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := exchange.Close(ctx); err != nil {
		panic(err)
	}
}

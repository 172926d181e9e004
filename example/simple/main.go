package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ringflow/disruptor"
)

const (
	goSize     = 10000
	sizePerGo  = 10000
	total      = goSize * sizePerGo
	bufferSize = 1 << 20
)

type event struct {
	value uint64
}

func main() {
	now := time.Now()

	var consumed uint64
	done := make(chan struct{})

	handler := disruptor.EventHandlerFunc[event](func(e *event, sequence int64, endOfBatch bool) error {
		cur := atomic.AddUint64(&consumed, 1)
		if cur == uint64(total) {
			fmt.Printf("consumer has drained everything, read count: %d, time cost: %v\n", total, time.Since(now))
			close(done)
		} else if cur%10_000_000 == 0 {
			fmt.Printf("consumer at %d\n", cur)
		}
		return nil
	})

	ring, err := disruptor.NewRingBuffer[event](
		disruptor.MultiProducer,
		func() event { return event{} },
		bufferSize,
		disruptor.NewSleepingWaitStrategy(time.Microsecond),
	)
	if err != nil {
		panic(err)
	}

	executor, err := disruptor.NewExecutor(4)
	if err != nil {
		panic(err)
	}

	processor := disruptor.NewBatchEventProcessor[event](
		"simple-consumer",
		ring,
		ring.NewBarrier(),
		handler,
		disruptor.HandlerCapabilities[event]{},
		nil,
	)

	exchange := disruptor.NewExchange[event](ring, executor)
	exchange.HandleEventsWith(processor)

	if err := exchange.Start(); err != nil {
		panic(err)
	}

	var wg sync.WaitGroup
	wg.Add(goSize)
	for i := 0; i < goSize; i++ {
		go func(start int) {
			defer wg.Done()
			for j := 0; j < sizePerGo; j++ {
				seq, err := ring.Next()
				if err != nil {
					panic(err)
				}
				ring.Get(seq).value = uint64(start*sizePerGo + j + 1)
				ring.Publish(seq)
			}
		}(i)
	}
	wg.Wait()

	fmt.Printf("producers have finished writing, write count: %d, time cost: %v\n", total, time.Since(now))

	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exchange.Close(ctx); err != nil {
		panic(err)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/ringflow/disruptor"
)

var (
	goSize    = 10000
	sizePerGo = 10000
	capacity  = 1024 * 1024
)

type longEvent struct {
	value uint64
}

func main() {
	f, _ := os.OpenFile("cpu.pprof", os.O_CREATE|os.O_RDWR, 0644)
	defer f.Close()
	pprof.StartCPUProfile(f)
	defer pprof.StopCPUProfile()

	arg := ""
	if len(os.Args) > 1 {
		arg = os.Args[1]
	}

	switch arg {
	case "chan":
		fmt.Println("start channel test")
		chanMain()
	case "disruptor":
		fmt.Println("start disruptor test")
		disruptorMain()
	default:
		fmt.Println("start disruptor and channel test")
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); disruptorMain() }()
		go func() { defer wg.Done(); chanMain() }()
		wg.Wait()
	}
	fmt.Println("all queues are over")
}

func disruptorMain() {
	ring, err := disruptor.NewRingBuffer[longEvent](
		disruptor.MultiProducer,
		func() longEvent { return longEvent{} },
		capacity,
		disruptor.NewSleepingWaitStrategy(time.Millisecond),
	)
	if err != nil {
		panic(err)
	}
	executor, err := disruptor.NewExecutor(4)
	if err != nil {
		panic(err)
	}

	handler := disruptor.EventHandlerFunc[longEvent](func(e *longEvent, sequence int64, endOfBatch bool) error {
		if e.value%10000000 == 0 {
			fmt.Println("disruptor [", e.value, "]")
		}
		return nil
	})
	processor := disruptor.NewBatchEventProcessor[longEvent]("bench-consumer", ring, ring.NewBarrier(), handler, disruptor.HandlerCapabilities[longEvent]{}, nil)

	exchange := disruptor.NewExchange[longEvent](ring, executor)
	exchange.HandleEventsWith(processor)
	if err := exchange.Start(); err != nil {
		panic(err)
	}

	ts := time.Now()
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
	fmt.Println("=====disruptor[", time.Since(ts), "]=====")
	fmt.Println("----- disruptor write complete -----")
	time.Sleep(3 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exchange.Close(ctx)
}

func chanMain() {
	c := make(chan uint64, capacity)
	go func() {
		for {
			x, ok := <-c
			if !ok {
				return
			}
			if x%10000000 == 0 {
				fmt.Println("chan [", x, "]")
			}
		}
	}()

	ts := time.Now()
	var wg sync.WaitGroup
	wg.Add(goSize)
	for i := 0; i < goSize; i++ {
		go func(start int) {
			defer wg.Done()
			for j := 0; j < sizePerGo; j++ {
				c <- uint64(start*sizePerGo + j + 1)
			}
		}(i)
	}
	wg.Wait()
	fmt.Println("=====channel[", time.Since(ts), "]=====")
	fmt.Println("----- channel write complete -----")
	time.Sleep(3 * time.Second)
	close(c)
}

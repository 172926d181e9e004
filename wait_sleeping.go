package disruptor

import (
	"runtime"
	"time"

	derrors "github.com/ringflow/disruptor/errors"
)

const (
	sleepingRetries   = 200
	sleepingYieldFrom = 100
)

// SleepingWaitStrategy busy-spins briefly, then yields, then parks for
// a fixed nanosecond interval between checks — quieter on CPU than
// Yielding at the cost of a little more latency once it reaches the
// park phase.
type SleepingWaitStrategy struct {
	sleepFor time.Duration
}

// NewSleepingWaitStrategy returns a strategy that parks for sleepFor
// once its spin and yield budgets are exhausted.
func NewSleepingWaitStrategy(sleepFor time.Duration) *SleepingWaitStrategy {
	return &SleepingWaitStrategy{sleepFor: sleepFor}
}

func (w *SleepingWaitStrategy) WaitFor(target int64, _, dependent SequenceReader, barrier SequenceBarrier) (int64, error) {
	counter := sleepingRetries
	for {
		if available := dependent.Get(); available >= target {
			return available, nil
		}
		if barrier.IsAlerted() {
			return 0, derrors.Alert()
		}
		switch {
		case counter > sleepingYieldFrom:
			counter--
		case counter > 0:
			counter--
			runtime.Gosched()
		default:
			time.Sleep(w.sleepFor)
		}
	}
}

func (w *SleepingWaitStrategy) SignalAllWhenBlocking() {}

package disruptor

import (
	"runtime"

	derrors "github.com/ringflow/disruptor/errors"
)

const yieldingSpinTries = 100

// YieldingWaitStrategy spins for a fixed number of iterations, then
// falls back to yielding the goroutine every iteration thereafter. A
// balanced middle ground: lower latency than Sleeping, less CPU
// pressure than BusySpin.
type YieldingWaitStrategy struct{}

// NewYieldingWaitStrategy returns a YieldingWaitStrategy.
func NewYieldingWaitStrategy() *YieldingWaitStrategy {
	return &YieldingWaitStrategy{}
}

func (w *YieldingWaitStrategy) WaitFor(target int64, _, dependent SequenceReader, barrier SequenceBarrier) (int64, error) {
	counter := yieldingSpinTries
	for {
		if available := dependent.Get(); available >= target {
			return available, nil
		}
		if barrier.IsAlerted() {
			return 0, derrors.Alert()
		}
		if counter == 0 {
			runtime.Gosched()
		} else {
			counter--
		}
	}
}

func (w *YieldingWaitStrategy) SignalAllWhenBlocking() {}

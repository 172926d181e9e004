package disruptor

import derrors "github.com/ringflow/disruptor/errors"

// BusySpinWaitStrategy never yields to the Go scheduler: it spins
// reading the dependent sequence with a CPU pause hint between
// checks. Lowest possible latency, at the cost of pinning an entire
// OS thread per waiting goroutine — only appropriate when a core can
// be dedicated to the consumer.
type BusySpinWaitStrategy struct{}

// NewBusySpinWaitStrategy returns a BusySpinWaitStrategy.
func NewBusySpinWaitStrategy() *BusySpinWaitStrategy {
	return &BusySpinWaitStrategy{}
}

func (w *BusySpinWaitStrategy) WaitFor(target int64, _, dependent SequenceReader, barrier SequenceBarrier) (int64, error) {
	for {
		if available := dependent.Get(); available >= target {
			return available, nil
		}
		if barrier.IsAlerted() {
			return 0, derrors.Alert()
		}
		procyield(1)
	}
}

func (w *BusySpinWaitStrategy) SignalAllWhenBlocking() {}

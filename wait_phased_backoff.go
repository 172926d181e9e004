package disruptor

import (
	"runtime"
	"time"

	derrors "github.com/ringflow/disruptor/errors"
)

// PhasedBackoffWaitStrategy spins, then yields, then delegates to an
// inner strategy (typically Sleeping or Blocking) once both budgets
// are exhausted — a tunable mix of the latency/CPU tradeoff the other
// variants each commit to fully.
type PhasedBackoffWaitStrategy struct {
	spinTimeout  time.Duration
	yieldTimeout time.Duration
	fallback     WaitStrategy
}

// NewPhasedBackoffWaitStrategy returns a strategy that spins for
// spinTimeout, then yields for an additional yieldTimeout, then
// delegates to fallback for both waiting and signaling.
func NewPhasedBackoffWaitStrategy(spinTimeout, yieldTimeout time.Duration, fallback WaitStrategy) *PhasedBackoffWaitStrategy {
	return &PhasedBackoffWaitStrategy{
		spinTimeout:  spinTimeout,
		yieldTimeout: yieldTimeout,
		fallback:     fallback,
	}
}

func (w *PhasedBackoffWaitStrategy) WaitFor(target int64, cursor, dependent SequenceReader, barrier SequenceBarrier) (int64, error) {
	started := time.Now()
	for {
		if available := dependent.Get(); available >= target {
			return available, nil
		}
		if barrier.IsAlerted() {
			return 0, derrors.Alert()
		}

		elapsed := time.Since(started)
		switch {
		case elapsed < w.spinTimeout:
			procyield(1)
		case elapsed < w.spinTimeout+w.yieldTimeout:
			runtime.Gosched()
		default:
			return w.fallback.WaitFor(target, cursor, dependent, barrier)
		}
	}
}

func (w *PhasedBackoffWaitStrategy) SignalAllWhenBlocking() {
	w.fallback.SignalAllWhenBlocking()
}

package disruptor

import (
	"sync"
	"time"

	derrors "github.com/ringflow/disruptor/errors"
)

// TimeoutBlockingWaitStrategy behaves like BlockingWaitStrategy but
// bounds each wait by a fixed budget, failing with errors.Timeout()
// if it elapses. This is what lets a BatchEventProcessor drive a
// periodic timeout callback even with no producer activity.
type TimeoutBlockingWaitStrategy struct {
	mu      sync.Mutex
	cond    *sync.Cond
	timeout time.Duration
}

// NewTimeoutBlockingWaitStrategy returns a strategy bounding each wait
// to timeout.
func NewTimeoutBlockingWaitStrategy(timeout time.Duration) *TimeoutBlockingWaitStrategy {
	w := &TimeoutBlockingWaitStrategy{timeout: timeout}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *TimeoutBlockingWaitStrategy) WaitFor(target int64, _, dependent SequenceReader, barrier SequenceBarrier) (int64, error) {
	if available := dependent.Get(); available >= target {
		return available, nil
	}

	deadline := time.Now().Add(w.timeout)

	w.mu.Lock()
	for dependent.Get() < target && !barrier.IsAlerted() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			w.mu.Unlock()
			return 0, derrors.Timeout()
		}
		timer := time.AfterFunc(remaining, w.SignalAllWhenBlocking)
		w.cond.Wait()
		timer.Stop()
	}
	w.mu.Unlock()

	if barrier.IsAlerted() {
		return 0, derrors.Alert()
	}
	if available := dependent.Get(); available >= target {
		return available, nil
	}
	return 0, derrors.Timeout()
}

func (w *TimeoutBlockingWaitStrategy) SignalAllWhenBlocking() {
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}

package disruptor

import (
	"runtime"
	"sync"

	uatomic "go.uber.org/atomic"

	derrors "github.com/ringflow/disruptor/errors"
)

// LiteBlockingWaitStrategy behaves like BlockingWaitStrategy but skips
// the mutex entirely on the publisher's common path: SignalAllWhenBlocking
// only locks and broadcasts if a waiter has flagged that it actually
// needs one, via a CAS-guarded signalNeeded flag.
type LiteBlockingWaitStrategy struct {
	mu           sync.Mutex
	cond         *sync.Cond
	signalNeeded uatomic.Bool
}

// NewLiteBlockingWaitStrategy returns a LiteBlockingWaitStrategy.
func NewLiteBlockingWaitStrategy() *LiteBlockingWaitStrategy {
	w := &LiteBlockingWaitStrategy{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *LiteBlockingWaitStrategy) WaitFor(target int64, _, dependent SequenceReader, barrier SequenceBarrier) (int64, error) {
	if available := dependent.Get(); available >= target {
		return available, nil
	}

	w.mu.Lock()
	for {
		// Flag first, then re-check under the lock: if a publish lands
		// between our fast-path check above and here, this re-check
		// (not the flag) is what catches it, since the flag only
		// controls whether a *future* publish bothers to broadcast.
		w.signalNeeded.Store(true)
		if dependent.Get() >= target || barrier.IsAlerted() {
			break
		}
		w.cond.Wait()
	}
	w.mu.Unlock()

	for {
		if barrier.IsAlerted() {
			return 0, derrors.Alert()
		}
		if available := dependent.Get(); available >= target {
			return available, nil
		}
		runtime.Gosched()
	}
}

func (w *LiteBlockingWaitStrategy) SignalAllWhenBlocking() {
	if !w.signalNeeded.CompareAndSwap(true, false) {
		return
	}
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}

package disruptor

import (
	"runtime"
	"sync"

	derrors "github.com/ringflow/disruptor/errors"
)

// BlockingWaitStrategy parks the waiting goroutine on a condition
// variable until a producer publishes, then spins reading the
// dependent sequence directly once woken rather than re-acquiring the
// lock on every check. Lowest CPU use of the required variants; also
// the highest latency, since waking a parked goroutine costs a
// scheduler round-trip.
type BlockingWaitStrategy struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// NewBlockingWaitStrategy returns a ready-to-use BlockingWaitStrategy.
func NewBlockingWaitStrategy() *BlockingWaitStrategy {
	w := &BlockingWaitStrategy{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *BlockingWaitStrategy) WaitFor(target int64, _, dependent SequenceReader, barrier SequenceBarrier) (int64, error) {
	if available := dependent.Get(); available >= target {
		return available, nil
	}

	w.mu.Lock()
	for dependent.Get() < target && !barrier.IsAlerted() {
		w.cond.Wait()
	}
	w.mu.Unlock()

	// Post-wakeup spin: a Broadcast fires on every publish and on
	// alert alike, so the predicate may still be false the instant we
	// wake (another consumer's slower dependent, a spurious wakeup).
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

func (w *BlockingWaitStrategy) SignalAllWhenBlocking() {
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}

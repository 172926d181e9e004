package disruptor

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	derrors "github.com/ringflow/disruptor/errors"
)

// Executor is the concrete host-thread provider spec.md §6 leaves
// abstract: something that accepts a runnable and starts it on a
// dedicated goroutine, tracking live runnables for diagnostics. It is
// backed by an ants.Pool so a whole exchange's processors and worker
// pools share one bounded set of OS-schedulable goroutines instead of
// spawning unboundedly, mirroring gnet's pool.WorkerPool wrapper.
type Executor struct {
	pool *ants.Pool

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewExecutor builds an Executor whose pool can run up to poolSize
// tasks concurrently. Submissions beyond that block until a slot frees
// up — a BatchEventProcessor loop occupies its slot for as long as it
// runs, so poolSize should be at least the number of processors and
// worker-pool members the caller intends to start.
func NewExecutor(poolSize int) (*Executor, error) {
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Executor{pool: pool}, nil
}

// Submit schedules task to run on a pool goroutine. name identifies the
// task at the call site only: Submit neither records nor logs it, and a
// panic raised by task is not recovered here. Returns
// ErrExecutorClosed once Close has been called.
func (e *Executor) Submit(name string, task func()) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return derrors.ErrExecutorClosed
	}
	e.wg.Add(1)
	e.mu.Unlock()

	err := e.pool.Submit(func() {
		defer e.wg.Done()
		task()
	})
	if err != nil {
		e.wg.Done()
		return err
	}
	return nil
}

// Running reports how many submitted tasks are currently executing.
func (e *Executor) Running() int {
	return e.pool.Running()
}

// Close marks the executor closed to new submissions and waits
// (bounded by ctx) for every already-submitted task to return. Callers
// are expected to have already called Halt on whatever processors or
// worker pools they submitted, since Close itself does not stop
// running tasks — it only waits for them.
func (e *Executor) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.pool.Release()
		return nil
	case <-ctx.Done():
		return derrors.ErrShutdownTimeout
	}
}

package disruptor

import (
	"context"
	"sync"

	uatomic "go.uber.org/atomic"
	"go.uber.org/multierr"

	derrors "github.com/ringflow/disruptor/errors"
)

// ExchangeStatus is an Exchange's coarse lifecycle: READY before Start,
// RUNNING after, back to READY as soon as Close is called (or when
// Start fails).
type ExchangeStatus int32

const (
	ExchangeReady ExchangeStatus = iota
	ExchangeRunning
)

type stage interface {
	Start(executor *Executor) error
	Halt()
}

// Exchange is the top-level wiring a caller actually holds: a
// RingBuffer plus every consumer stage registered against it (any mix
// of BatchEventProcessors and WorkerPools) plus the Executor that runs
// them, with a single Start/Close lifecycle. Grounded on the
// producer+consumer+status wrapper the teacher's own top-level
// Disruptor type used, generalized here from exactly one consumer to
// an arbitrary registered stage list.
type Exchange[T any] struct {
	ring     *RingBuffer[T]
	executor *Executor

	mu     sync.Mutex
	stages []stage
	status uatomic.Int32
}

// NewExchange wires an Exchange over ring, running its stages on
// executor.
func NewExchange[T any](ring *RingBuffer[T], executor *Executor) *Exchange[T] {
	return &Exchange[T]{ring: ring, executor: executor}
}

// RingBuffer returns the underlying ring, for producers to claim and
// publish against directly.
func (e *Exchange[T]) RingBuffer() *RingBuffer[T] {
	return e.ring
}

// HandleEventsWith registers a BatchEventProcessor as a consumer stage.
// Returns the Exchange for chaining. Must be called before Start.
func (e *Exchange[T]) HandleEventsWith(p *BatchEventProcessor[T]) *Exchange[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stages = append(e.stages, p)
	e.ring.AddGatingSequences(p.Sequence())
	return e
}

// HandleEventsWithWorkerPool registers a WorkerPool as a consumer
// stage. Returns the Exchange for chaining. Must be called before
// Start. The pool's member sequences are already registered as gating
// sequences by NewWorkerPool.
func (e *Exchange[T]) HandleEventsWithWorkerPool(p *WorkerPool[T]) *Exchange[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stages = append(e.stages, p)
	return e
}

// Start transitions READY -> RUNNING and submits every registered
// stage to the executor. Fails with ErrAlreadyRunning if already
// running. If more than one stage fails to submit, Start still
// attempts every remaining stage and returns their combined errors via
// go.uber.org/multierr rather than stopping at the first.
func (e *Exchange[T]) Start() error {
	if !e.status.CompareAndSwap(int32(ExchangeReady), int32(ExchangeRunning)) {
		return derrors.ErrAlreadyRunning
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	for _, s := range e.stages {
		err = multierr.Append(err, s.Start(e.executor))
	}
	if err != nil {
		e.status.Store(int32(ExchangeReady))
	}
	return err
}

// Status reports the Exchange's current lifecycle state.
func (e *Exchange[T]) Status() ExchangeStatus {
	return ExchangeStatus(e.status.Load())
}

// Close transitions back to READY, then halts every registered stage
// and waits (bounded by ctx) for their executor tasks to return.
func (e *Exchange[T]) Close(ctx context.Context) error {
	if !e.status.CompareAndSwap(int32(ExchangeRunning), int32(ExchangeReady)) {
		return nil
	}
	e.mu.Lock()
	for _, s := range e.stages {
		s.Halt()
	}
	e.mu.Unlock()
	return e.executor.Close(ctx)
}

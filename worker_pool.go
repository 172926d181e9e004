package disruptor

import (
	"fmt"

	uatomic "go.uber.org/atomic"

	derrors "github.com/ringflow/disruptor/errors"
	"github.com/ringflow/disruptor/logging"
)

// WorkerPool is the competing-consumer counterpart to
// BatchEventProcessor: N members share one ring buffer and race, via a
// single CAS-guarded workSequence, to claim individual sequences —
// each event is handled by exactly one member, in no particular
// member-to-sequence assignment. Grounded on spec.md §4.8's
// description of the real Disruptor's WorkerPool/WorkerPoolProcessor
// pair.
type WorkerPool[T any] struct {
	name         string
	ringBuffer   *RingBuffer[T]
	barrier      SequenceBarrier
	workSequence *Sequence
	members      []*workerPoolMember[T]
}

// NewWorkerPool builds a pool of len(handlers) members over ringBuffer.
// Each member gets its own gating Sequence, registered with the ring
// so producers cannot lap the slowest member. A nil exceptionHandler
// defaults to a LoggingExceptionHandler shared by all members.
func NewWorkerPool[T any](
	name string,
	ringBuffer *RingBuffer[T],
	handlers []EventHandler[T],
	exceptionHandler ExceptionHandler[T],
) *WorkerPool[T] {
	if exceptionHandler == nil {
		exceptionHandler = NewLoggingExceptionHandler[T](name)
	}

	p := &WorkerPool[T]{
		name:         name,
		ringBuffer:   ringBuffer,
		workSequence: NewSequence(InitialSequenceValue),
	}
	p.barrier = ringBuffer.NewBarrier()

	sequences := make([]*Sequence, len(handlers))
	p.members = make([]*workerPoolMember[T], len(handlers))
	for i, h := range handlers {
		m := &workerPoolMember[T]{
			name:       fmt.Sprintf("%s-%d", name, i),
			pool:       p,
			handler:    h,
			exceptions: exceptionHandler,
			sequence:   NewSequence(InitialSequenceValue),
		}
		p.members[i] = m
		sequences[i] = m.sequence
	}
	ringBuffer.AddGatingSequences(sequences...)
	return p
}

// Sequences returns each member's owned gating Sequence, in member
// order, for a downstream stage that must wait for the whole pool to
// have consumed a sequence rather than any single member.
func (p *WorkerPool[T]) Sequences() []*Sequence {
	out := make([]*Sequence, len(p.members))
	for i, m := range p.members {
		out[i] = m.sequence
	}
	return out
}

// Start submits every member's run loop to executor, returning the
// first submission error (if any) after attempting all of them.
func (p *WorkerPool[T]) Start(executor *Executor) error {
	var firstErr error
	for _, m := range p.members {
		if err := m.start(executor); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Halt requests every member to stop after its in-flight event, then
// alerts the shared barrier once so any member parked in WaitFor wakes
// promptly.
func (p *WorkerPool[T]) Halt() {
	for _, m := range p.members {
		m.running.Store(false)
	}
	p.barrier.Alert()
}

type workerPoolMember[T any] struct {
	name       string
	pool       *WorkerPool[T]
	handler    EventHandler[T]
	exceptions ExceptionHandler[T]
	sequence   *Sequence
	running    uatomic.Bool
}

func (m *workerPoolMember[T]) start(executor *Executor) error {
	m.running.Store(true)
	return executor.Submit(m.name, m.run)
}

func (m *workerPoolMember[T]) run() {
	logger := logging.Named(m.name)
	p := m.pool

	defer func() {
		m.running.Store(false)
		logger.Info("worker idle")
	}()

	nextSequence := m.sequence.Get() + 1
	logger.Info("worker running")

	for {
		available, err := p.barrier.WaitFor(nextSequence)
		if err != nil {
			if derrors.IsAlert(err) {
				if !m.running.Load() {
					return
				}
				continue
			}
			if derrors.IsTimeout(err) {
				continue
			}
			return
		}

		for nextSequence <= available {
			// Race every other member for this sequence: only the
			// winner of the CAS actually processes it, everyone else
			// treats it as already done and moves on.
			if p.workSequence.CompareAndSet(nextSequence-1, nextSequence) {
				event := p.ringBuffer.Get(nextSequence)
				endOfBatch := nextSequence == available
				if failure := m.invokeOnEvent(event, nextSequence, endOfBatch); failure != nil {
					m.exceptions.HandleEventException(failure, nextSequence, event)
				}
			}
			// Publish this member's own progress regardless of who won
			// the claim, so its gating sequence never stalls behind
			// sequences other members have already retired.
			m.sequence.Set(nextSequence)
			nextSequence = p.workSequence.Get() + 1
		}
	}
}

func (m *workerPoolMember[T]) invokeOnEvent(event *T, sequence int64, endOfBatch bool) (failure error) {
	defer func() {
		if r := recover(); r != nil {
			failure = derrors.NewHandlerFailure("onEvent", sequence, event, r)
		}
	}()
	if err := m.handler.OnEvent(event, sequence, endOfBatch); err != nil {
		failure = derrors.NewHandlerFailure("onEvent", sequence, event, err)
	}
	return failure
}

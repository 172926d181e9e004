package disruptor

import (
	uatomic "go.uber.org/atomic"

	derrors "github.com/ringflow/disruptor/errors"
	"github.com/ringflow/disruptor/logging"
)

// ProcessorState is a BatchEventProcessor's lifecycle state, per
// spec.md §3: IDLE -> RUNNING (Start) -> HALTED (Halt or alert) ->
// IDLE (loop exit).
type ProcessorState int32

const (
	ProcessorIdle ProcessorState = iota
	ProcessorRunning
	ProcessorHalted
)

func (s ProcessorState) String() string {
	switch s {
	case ProcessorIdle:
		return "IDLE"
	case ProcessorRunning:
		return "RUNNING"
	case ProcessorHalted:
		return "HALTED"
	default:
		return "UNKNOWN"
	}
}

// BatchEventProcessor is the single-threaded consumer loop: it pulls
// ranges of ready sequences from a SequenceBarrier and dispatches them
// to a user EventHandler with batch framing, advancing its own
// Sequence (which downstream barriers and producer gating checks
// treat as a dependency) as it goes.
type BatchEventProcessor[T any] struct {
	name       string
	ringBuffer *RingBuffer[T]
	barrier    SequenceBarrier
	handler    EventHandler[T]
	caps       HandlerCapabilities[T]
	exceptions ExceptionHandler[T]

	sequence *Sequence
	state    uatomic.Int32
}

// NewBatchEventProcessor wires a processor over ringBuffer, gated by
// barrier, dispatching to handler. caps may be the zero value if the
// handler needs none of the optional callbacks. A nil exceptionHandler
// defaults to a LoggingExceptionHandler named after the processor.
func NewBatchEventProcessor[T any](
	name string,
	ringBuffer *RingBuffer[T],
	barrier SequenceBarrier,
	handler EventHandler[T],
	caps HandlerCapabilities[T],
	exceptionHandler ExceptionHandler[T],
) *BatchEventProcessor[T] {
	if exceptionHandler == nil {
		exceptionHandler = NewLoggingExceptionHandler[T](name)
	}
	p := &BatchEventProcessor[T]{
		name:       name,
		ringBuffer: ringBuffer,
		barrier:    barrier,
		handler:    handler,
		caps:       caps,
		exceptions: exceptionHandler,
		sequence:   NewSequence(InitialSequenceValue),
	}
	if caps.SequenceCallback != nil {
		caps.SequenceCallback(p.sequence)
	}
	return p
}

// Sequence returns the processor's own progress Sequence, suitable for
// registering as a gating sequence or as an upstream dependent for a
// downstream barrier.
func (p *BatchEventProcessor[T]) Sequence() *Sequence { return p.sequence }

// State returns the processor's current lifecycle state.
func (p *BatchEventProcessor[T]) State() ProcessorState {
	return ProcessorState(p.state.Load())
}

// Start submits the processor's run loop to executor. Fails with
// ErrAlreadyRunning if the processor is already RUNNING; if the
// processor is HALTED (a Halt is in flight but the loop hasn't yet
// observed it), Start fires the start/shutdown lifecycle callbacks and
// returns without submitting a second loop.
func (p *BatchEventProcessor[T]) Start(executor *Executor) error {
	if !p.state.CompareAndSwap(int32(ProcessorIdle), int32(ProcessorRunning)) {
		switch ProcessorState(p.state.Load()) {
		case ProcessorRunning:
			return derrors.ErrAlreadyRunning
		default: // ProcessorHalted
			p.notifyStart()
			p.notifyShutdown()
			return nil
		}
	}
	return executor.Submit(p.name, p.run)
}

// Halt requests a clean stop: the run loop finishes its current event
// (if any) and exits after observing the alert. Idempotent.
func (p *BatchEventProcessor[T]) Halt() {
	if p.state.CompareAndSwap(int32(ProcessorRunning), int32(ProcessorHalted)) {
		p.barrier.Alert()
	}
}

func (p *BatchEventProcessor[T]) run() {
	logger := logging.Named(p.name)

	p.barrier.ClearAlert()
	p.notifyStart()
	logger.Info("processor running")

	defer func() {
		p.notifyShutdown()
		p.state.Store(int32(ProcessorIdle))
		logger.Info("processor idle")
	}()

	nextSequence := p.sequence.Get() + 1

	for {
		available, err := p.barrier.WaitFor(nextSequence)
		switch {
		case err == nil:
			if available >= nextSequence && p.caps.OnBatchStart != nil {
				p.invokeOnBatchStart(available-nextSequence+1, nextSequence)
			}
			for nextSequence <= available {
				event := p.ringBuffer.Get(nextSequence)
				endOfBatch := nextSequence == available
				if failure := p.invokeOnEvent(event, nextSequence, endOfBatch); failure != nil {
					p.exceptions.HandleEventException(failure, nextSequence, event)
					p.sequence.Set(nextSequence)
					nextSequence++
					continue
				}
				nextSequence++
			}
			p.sequence.Set(available)

		case derrors.IsTimeout(err):
			p.invokeOnTimeout(nextSequence)

		case derrors.IsAlert(err):
			if p.State() != ProcessorRunning {
				return
			}
			// Alerted by something other than our own Halt (e.g. a
			// shared barrier alerted for a sibling consumer); clear
			// and keep running.
			p.barrier.ClearAlert()

		default:
			logger.Sugar().Errorw("unexpected wait strategy error, stopping processor", "error", err)
			return
		}
	}
}

func (p *BatchEventProcessor[T]) invokeOnEvent(event *T, sequence int64, endOfBatch bool) (failure error) {
	defer func() {
		if r := recover(); r != nil {
			failure = derrors.NewHandlerFailure("onEvent", sequence, event, r)
		}
	}()
	if err := p.handler.OnEvent(event, sequence, endOfBatch); err != nil {
		failure = derrors.NewHandlerFailure("onEvent", sequence, event, err)
	}
	return failure
}

func (p *BatchEventProcessor[T]) invokeOnBatchStart(batchSize, sequence int64) {
	defer func() {
		if r := recover(); r != nil {
			p.exceptions.HandleEventException(derrors.NewHandlerFailure("onBatchStart", sequence, nil, r), sequence, nil)
		}
	}()
	p.caps.OnBatchStart(batchSize)
}

func (p *BatchEventProcessor[T]) invokeOnTimeout(sequence int64) {
	if p.caps.OnTimeout == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.exceptions.HandleEventException(derrors.NewHandlerFailure("onTimeout", sequence, nil, r), sequence, nil)
		}
	}()
	p.caps.OnTimeout(sequence)
}

func (p *BatchEventProcessor[T]) notifyStart() {
	if p.caps.OnStart == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.exceptions.HandleOnStartException(derrors.NewHandlerFailure("onStart", 0, nil, r))
		}
	}()
	p.caps.OnStart()
}

func (p *BatchEventProcessor[T]) notifyShutdown() {
	if p.caps.OnShutdown == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.exceptions.HandleOnShutdownException(derrors.NewHandlerFailure("onShutdown", 0, nil, r))
		}
	}()
	p.caps.OnShutdown()
}

package disruptor

import (
	derrors "github.com/ringflow/disruptor/errors"
)

// EventFactory creates one event instance. It is invoked bufferSize
// times at RingBuffer construction so slots are pre-allocated and
// never re-allocated for the lifetime of the exchange; producers and
// consumers mutate the same backing objects in place.
type EventFactory[T any] func() T

// ProducerType selects which Sequencer variant a RingBuffer builds:
// single-writer (cheaper, cached gating scan) or multi-writer
// (CAS-based claim, per-slot availability table).
type ProducerType int

const (
	// SingleProducer must only ever be driven from one producer
	// goroutine.
	SingleProducer ProducerType = iota
	// MultiProducer supports any number of concurrent producer
	// goroutines.
	MultiProducer
)

// RingBuffer owns the pre-allocated slot array and the Sequencer that
// coordinates access to it. It is the entry point applications use to
// claim, publish, and read events, and to build SequenceBarriers for
// downstream consumers.
type RingBuffer[T any] struct {
	entries   []T
	mask      int64
	sequencer Sequencer
}

// NewRingBuffer allocates a ring of bufferSize slots (must be a power
// of two, >= 1), filling each via factory, and wires it to a Sequencer
// of the given producer type driven by waitStrategy.
func NewRingBuffer[T any](producerType ProducerType, factory EventFactory[T], bufferSize int, waitStrategy WaitStrategy) (*RingBuffer[T], error) {
	if bufferSize < 1 || bufferSize&(bufferSize-1) != 0 {
		return nil, derrors.ErrIllegalConfiguration
	}
	entries := make([]T, bufferSize)
	for i := range entries {
		entries[i] = factory()
	}
	var seqr Sequencer
	switch producerType {
	case SingleProducer:
		seqr = NewSingleProducerSequencer(bufferSize, waitStrategy)
	case MultiProducer:
		seqr = NewMultiProducerSequencer(bufferSize, waitStrategy)
	default:
		return nil, derrors.ErrIllegalConfiguration
	}
	return &RingBuffer[T]{
		entries:   entries,
		mask:      int64(bufferSize - 1),
		sequencer: seqr,
	}, nil
}

// Get returns the event slot for sequence (index-masked lookup). The
// caller is responsible for only reading slots it has proven are
// published (via a SequenceBarrier) and only writing slots it has
// claimed.
func (r *RingBuffer[T]) Get(sequence int64) *T {
	return &r.entries[sequence&r.mask]
}

// BufferSize returns the fixed ring capacity.
func (r *RingBuffer[T]) BufferSize() int {
	return int(r.mask + 1)
}

// Sequencer returns the underlying Sequencer, for producers and
// processors that need direct access (claiming, publishing,
// registering gating sequences).
func (r *RingBuffer[T]) Sequencer() Sequencer {
	return r.sequencer
}

// Cursor returns the Sequencer's cursor value: the last published
// sequence for a single producer, the highest claimed sequence for
// multiple producers (see Sequencer.GetCursor).
func (r *RingBuffer[T]) Cursor() int64 {
	return r.sequencer.GetCursor()
}

// AddGatingSequences registers consumer sequences that this ring's
// producers must not overtake by more than one lap.
func (r *RingBuffer[T]) AddGatingSequences(sequences ...*Sequence) {
	r.sequencer.AddGatingSequences(sequences...)
}

// RemoveGatingSequence deregisters a previously-added gating sequence.
func (r *RingBuffer[T]) RemoveGatingSequence(sequence *Sequence) bool {
	return r.sequencer.RemoveGatingSequence(sequence)
}

// NewBarrier builds a SequenceBarrier gated on this ring's cursor and,
// if provided, an ordered list of upstream dependent sequences (e.g.
// a prior stage's processor sequences in a dependency chain). An
// empty dependents list means this consumer is a first-stage reader
// of the ring itself.
func (r *RingBuffer[T]) NewBarrier(dependents ...*Sequence) SequenceBarrier {
	return newProcessingSequenceBarrier(r.sequencer, dependents...)
}

// Next claims the next available slot index; see Sequencer.Next.
func (r *RingBuffer[T]) Next() (int64, error) {
	return r.sequencer.Next(1)
}

// NextN claims n contiguous slot indices, returning the highest.
func (r *RingBuffer[T]) NextN(n int64) (int64, error) {
	return r.sequencer.Next(n)
}

// TryNext claims the next slot without blocking, failing fast with
// ErrInsufficientCapacity.
func (r *RingBuffer[T]) TryNext() (int64, error) {
	return r.sequencer.TryNext(1)
}

// Publish makes sequence visible to consumers.
func (r *RingBuffer[T]) Publish(sequence int64) {
	r.sequencer.Publish(sequence)
}

// PublishRange makes the contiguous range [lo, hi] visible in one
// step.
func (r *RingBuffer[T]) PublishRange(lo, hi int64) {
	r.sequencer.PublishRange(lo, hi)
}

package disruptor

// Sequencer is the shared contract between the single- and
// multi-producer claim/publish protocols. RingBuffer, BatchEventProcessor,
// and WorkerPool all program against this interface rather than a
// concrete variant.
type Sequencer interface {
	// Next claims n contiguous slots (1 <= n <= buffer size), blocking
	// (per the sequencer's wait policy) until capacity is available.
	// Returns the highest of the claimed sequence numbers.
	Next(n int64) (int64, error)

	// TryNext behaves like Next but fails fast with
	// ErrInsufficientCapacity instead of waiting.
	TryNext(n int64) (int64, error)

	// Publish makes sequence visible to consumers. For the
	// single-producer sequencer this also exposes everything claimed
	// before it; the multi-producer sequencer marks only sequence
	// itself.
	Publish(sequence int64)

	// PublishRange makes every sequence in [lo, hi] visible.
	PublishRange(lo, hi int64)

	// IsAvailable reports whether sequence has been published.
	IsAvailable(sequence int64) bool

	// GetHighestPublishedSequence scans forward from lowerBound,
	// stopping at the first unpublished sequence, and returns the
	// last one confirmed published (at most availableSequence). For
	// the single-producer sequencer this is always availableSequence;
	// for the multi-producer sequencer it closes claim-order gaps.
	GetHighestPublishedSequence(lowerBound, availableSequence int64) int64

	// GetCursor returns the sequencer's cursor value: the last
	// published sequence (single-producer) or the highest claimed
	// sequence, which may include claimed-but-unpublished slots
	// (multi-producer). SequenceBarrier.GetCursor reduces the latter to
	// the highest contiguously published sequence.
	GetCursor() int64

	// Cursor returns the sequencer's own live cursor Sequence — the
	// same object Publish (single-producer) or the claim CAS
	// (multi-producer) updates, not a point-in-time copy. A
	// SequenceBarrier with no upstream dependents hands this straight
	// to its wait strategy, so a first-stage consumer's wait can
	// observe producer progress made while it is waiting.
	Cursor() *Sequence

	// AddGatingSequences registers consumer sequences the sequencer
	// must not overtake by more than one ring lap.
	AddGatingSequences(sequences ...*Sequence)

	// RemoveGatingSequence deregisters a previously added gating
	// sequence, reporting whether it was present.
	RemoveGatingSequence(sequence *Sequence) bool

	// WaitStrategy returns the configured wait strategy, so a
	// SequenceBarrier built over this sequencer can share it.
	WaitStrategy() WaitStrategy

	// BufferSize returns the ring capacity this sequencer was built
	// for.
	BufferSize() int
}

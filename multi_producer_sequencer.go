package disruptor

import (
	"math/bits"
	"sync/atomic"
	"time"

	derrors "github.com/ringflow/disruptor/errors"
)

// MultiProducerSequencer is the CAS-based slot claim/publish protocol
// for any number of concurrent producer goroutines. A single shared
// cursor cannot express "slot 7 published while slot 6 is still in
// flight", so publication visibility is tracked per-slot in an
// availability table storing the lap number (sequence >>
// log2(bufferSize)) at which that slot was last published — the same
// technique as the pack's four-fq barrier and five-vee-go-disruptor
// availableBuffer, expressed without unsafe.
type MultiProducerSequencer struct {
	bufferSize int
	indexMask  int64
	indexShift uint

	waitStrat WaitStrategy
	gating    *SequenceGroup

	cursor *Sequence

	gatingSequenceCache *Sequence

	availableBuffer []int32
}

// NewMultiProducerSequencer builds a sequencer for a ring of the given
// size (must be a power of two).
func NewMultiProducerSequencer(bufferSize int, waitStrategy WaitStrategy) *MultiProducerSequencer {
	avail := make([]int32, bufferSize)
	for i := range avail {
		avail[i] = -1
	}
	return &MultiProducerSequencer{
		bufferSize:          bufferSize,
		indexMask:           int64(bufferSize - 1),
		indexShift:          uint(bits.TrailingZeros(uint(bufferSize))),
		waitStrat:           waitStrategy,
		gating:              NewSequenceGroup(),
		cursor:              NewSequence(InitialSequenceValue),
		gatingSequenceCache: NewSequence(InitialSequenceValue),
		availableBuffer:     avail,
	}
}

func (s *MultiProducerSequencer) BufferSize() int            { return s.bufferSize }
func (s *MultiProducerSequencer) WaitStrategy() WaitStrategy { return s.waitStrat }

func (s *MultiProducerSequencer) AddGatingSequences(sequences ...*Sequence) {
	for _, seq := range sequences {
		s.gating.Add(seq)
	}
}

func (s *MultiProducerSequencer) RemoveGatingSequence(sequence *Sequence) bool {
	before := s.gating.Len()
	s.gating.Remove(sequence)
	return s.gating.Len() < before
}

// GetCursor returns the highest claimed sequence. Callers that need
// the highest contiguously published sequence should go through a
// SequenceBarrier, which reduces this via
// GetHighestPublishedSequence.
func (s *MultiProducerSequencer) GetCursor() int64 { return s.cursor.Get() }

// Cursor returns the live claim cursor Sequence Next's CAS loop
// advances. A waiter parked on it via a SequenceBarrier still clips
// the result through GetHighestPublishedSequence before trusting it,
// since claim order can outrun publish order under contention.
func (s *MultiProducerSequencer) Cursor() *Sequence { return s.cursor }

// Next implements spec.md §4.6: a CAS loop over the shared cursor,
// checking that claiming n more slots would not overtake the gating
// minimum by more than one lap.
func (s *MultiProducerSequencer) Next(n int64) (int64, error) {
	if n < 1 || int64(n) > int64(s.bufferSize) {
		return 0, derrors.ErrIllegalConfiguration
	}

	var spins int
	for {
		current := s.cursor.Get()
		next := current + n
		wrapPoint := next - int64(s.bufferSize)

		cachedGating := s.gatingSequenceCache.Get()
		if wrapPoint > cachedGating || cachedGating > current {
			minGating := s.gating.Min(current)
			s.gatingSequenceCache.Set(minGating)
			if wrapPoint > minGating {
				spins++
				s.spinForCapacity(spins)
				continue
			}
		}

		if s.cursor.CompareAndSet(current, next) {
			return next, nil
		}
		// Lost the race with another producer; retry without
		// treating it as a capacity failure.
	}
}

func (s *MultiProducerSequencer) spinForCapacity(spins int) {
	if spins < 100 {
		return
	}
	time.Sleep(time.Nanosecond)
}

// TryNext behaves like Next but fails fast instead of spinning when
// capacity is unavailable.
func (s *MultiProducerSequencer) TryNext(n int64) (int64, error) {
	if n < 1 || int64(n) > int64(s.bufferSize) {
		return 0, derrors.ErrIllegalConfiguration
	}

	for {
		current := s.cursor.Get()
		next := current + n
		wrapPoint := next - int64(s.bufferSize)

		minGating := s.gating.Min(current)
		if wrapPoint > minGating {
			return 0, derrors.ErrInsufficientCapacity
		}

		if s.cursor.CompareAndSet(current, next) {
			return next, nil
		}
	}
}

func (s *MultiProducerSequencer) index(sequence int64) int64 {
	return sequence & s.indexMask
}

func (s *MultiProducerSequencer) availabilityFlag(sequence int64) int32 {
	return int32(sequence >> s.indexShift)
}

// Publish marks seq available by writing its lap number into the
// availability table with release semantics, then wakes waiters. The
// per-slot lap marker changes every lap of the ring, which is what
// defeats ABA here: a consumer can never mistake a stale publication
// of the same slot index for a fresh one, because the lap number
// differs.
func (s *MultiProducerSequencer) Publish(seq int64) {
	atomic.StoreInt32(&s.availableBuffer[s.index(seq)], s.availabilityFlag(seq))
	s.waitStrat.SignalAllWhenBlocking()
}

// PublishRange marks every sequence in [lo, hi] available.
func (s *MultiProducerSequencer) PublishRange(lo, hi int64) {
	for seq := lo; seq <= hi; seq++ {
		atomic.StoreInt32(&s.availableBuffer[s.index(seq)], s.availabilityFlag(seq))
	}
	s.waitStrat.SignalAllWhenBlocking()
}

// IsAvailable reports whether seq has been published, via an acquire
// load pairing with Publish's release store.
func (s *MultiProducerSequencer) IsAvailable(seq int64) bool {
	return atomic.LoadInt32(&s.availableBuffer[s.index(seq)]) == s.availabilityFlag(seq)
}

// GetHighestPublishedSequence scans forward from lowerBound until the
// first sequence that is not yet available, returning the previous
// one. Multiple producers may leave claim-order holes, so a consumer
// cannot simply trust availableSequence the way it can under a single
// producer.
func (s *MultiProducerSequencer) GetHighestPublishedSequence(lowerBound, availableSequence int64) int64 {
	for seq := lowerBound; seq <= availableSequence; seq++ {
		if !s.IsAvailable(seq) {
			return seq - 1
		}
	}
	return availableSequence
}

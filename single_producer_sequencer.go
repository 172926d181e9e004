package disruptor

import (
	"time"

	derrors "github.com/ringflow/disruptor/errors"
)

// SingleProducerSequencer is the slot claim/publish protocol for
// exactly one writer goroutine. nextValue and cachedValue are plain
// (non-atomic) fields — only the producer goroutine ever touches
// them — while cursor, the shared published-progress Sequence, is
// atomic so consumers can observe it safely.
//
// Not safe for concurrent use by multiple producers; see
// MultiProducerSequencer for that case.
type SingleProducerSequencer struct {
	bufferSize int
	waitStrat  WaitStrategy
	gating     *SequenceGroup

	cursor *Sequence

	nextValue   int64 // last claimed sequence, plain field
	cachedValue int64 // last observed min(gating), plain field
}

// NewSingleProducerSequencer builds a sequencer for a ring of the
// given size (must be a power of two, checked by the caller /
// RingBuffer constructor).
func NewSingleProducerSequencer(bufferSize int, waitStrategy WaitStrategy) *SingleProducerSequencer {
	return &SingleProducerSequencer{
		bufferSize:  bufferSize,
		waitStrat:   waitStrategy,
		gating:      NewSequenceGroup(),
		cursor:      NewSequence(InitialSequenceValue),
		nextValue:   InitialSequenceValue,
		cachedValue: InitialSequenceValue,
	}
}

func (s *SingleProducerSequencer) BufferSize() int            { return s.bufferSize }
func (s *SingleProducerSequencer) WaitStrategy() WaitStrategy { return s.waitStrat }

func (s *SingleProducerSequencer) AddGatingSequences(sequences ...*Sequence) {
	for _, seq := range sequences {
		s.gating.Add(seq)
	}
}

func (s *SingleProducerSequencer) RemoveGatingSequence(sequence *Sequence) bool {
	before := s.gating.Len()
	s.gating.Remove(sequence)
	return s.gating.Len() < before
}

func (s *SingleProducerSequencer) GetCursor() int64 { return s.cursor.Get() }

// Cursor returns the live cursor Sequence Publish writes through.
func (s *SingleProducerSequencer) Cursor() *Sequence { return s.cursor }

// Next implements spec.md §4.5: claim n contiguous slots, spinning
// against the gating minimum (with a cached fast path) until there is
// room, per the wrap-point capacity check.
func (s *SingleProducerSequencer) Next(n int64) (int64, error) {
	if n < 1 || int64(n) > int64(s.bufferSize) {
		return 0, derrors.ErrIllegalConfiguration
	}

	nextSequence := s.nextValue + n
	wrapPoint := nextSequence - int64(s.bufferSize)
	cachedGatingSequence := s.cachedValue

	// cachedGatingSequence > nextValue is the Open Question sentinel:
	// a cached gating value ahead of the producer's own last claim is
	// treated as invalid and forces a real scan rather than being
	// trusted. At startup both fields are -1, so this half of the check
	// is false then and the wrapPoint comparison alone decides. See
	// DESIGN.md.
	if wrapPoint > cachedGatingSequence || cachedGatingSequence > s.nextValue {
		s.cursor.SetOpaque(s.nextValue)
		// Store-load fence: publish the current cursor before
		// rescanning the gating minimum, so consumers observe
		// producer progress even while this call spins below.
		s.cursor.Get()

		var spins int
		for {
			minGating := s.gating.Min(s.nextValue)
			if minGating >= wrapPoint {
				s.cachedValue = minGating
				break
			}
			spins++
			s.spinForCapacity(spins)
		}
	}

	s.nextValue = nextSequence
	return nextSequence, nil
}

func (s *SingleProducerSequencer) spinForCapacity(spins int) {
	if spins < 100 {
		return
	}
	time.Sleep(time.Nanosecond)
}

// TryNext implements the non-blocking variant of the same capacity
// check.
func (s *SingleProducerSequencer) TryNext(n int64) (int64, error) {
	if n < 1 || int64(n) > int64(s.bufferSize) {
		return 0, derrors.ErrIllegalConfiguration
	}

	nextSequence := s.nextValue + n
	wrapPoint := nextSequence - int64(s.bufferSize)
	cachedGatingSequence := s.cachedValue

	if wrapPoint > cachedGatingSequence || cachedGatingSequence > s.nextValue {
		minGating := s.gating.Min(s.nextValue)
		s.cachedValue = minGating
		if minGating < wrapPoint {
			return 0, derrors.ErrInsufficientCapacity
		}
	}

	s.nextValue = nextSequence
	return nextSequence, nil
}

// Publish exposes seq (and everything claimed before it) to
// consumers via a release store on the cursor, then wakes any
// goroutines parked in a blocking wait strategy.
func (s *SingleProducerSequencer) Publish(seq int64) {
	s.cursor.Set(seq)
	s.waitStrat.SignalAllWhenBlocking()
}

// PublishRange is equivalent to Publish(hi): the cursor jump exposes
// the whole range atomically since claim order equals publish order
// for a single producer.
func (s *SingleProducerSequencer) PublishRange(_, hi int64) {
	s.Publish(hi)
}

func (s *SingleProducerSequencer) IsAvailable(seq int64) bool {
	return seq <= s.cursor.Get()
}

// GetHighestPublishedSequence trivially returns availableSequence: a
// single producer can never leave a claimed-but-unpublished hole
// below its cursor.
func (s *SingleProducerSequencer) GetHighestPublishedSequence(_, availableSequence int64) int64 {
	return availableSequence
}

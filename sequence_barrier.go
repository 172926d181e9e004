package disruptor

import (
	"sync"

	uatomic "go.uber.org/atomic"

	derrors "github.com/ringflow/disruptor/errors"
)

// SequenceBarrier is a per-consumer coordinator: it aggregates the
// sequencer's cursor, an ordered list of upstream dependent sequences
// (empty for first-stage consumers), a wait strategy, and a sticky
// alert flag.
type SequenceBarrier interface {
	// WaitFor blocks (per the configured wait strategy) until sequence
	// is available, returning the highest confirmed-available
	// sequence, which may exceed the request. Checks the alert flag
	// both before waiting and after waking, failing with
	// errors.Alert() either way if set.
	WaitFor(sequence int64) (int64, error)

	// GetCursor returns the highest sequence a consumer of this
	// barrier may safely read: for single-producer this is the
	// sequencer cursor directly, for multi-producer it is the highest
	// contiguously published sequence.
	GetCursor() int64

	// Alert sets the sticky alert flag and wakes any goroutine parked
	// in WaitFor so it observes the alert promptly.
	Alert()

	// ClearAlert resets the alert flag. Called at the top of a
	// processor's run loop, since alerts are sticky until explicitly
	// cleared.
	ClearAlert()

	// IsAlerted reports the current alert state without side effects.
	IsAlerted() bool
}

// processingSequenceBarrier is the concrete SequenceBarrier used by
// BatchEventProcessor and worker-pool members. Grounded on the
// availability-scan technique in the pack's four-fq barrier and the
// LMAX-style barrier contract in spec.md §4.3.
type processingSequenceBarrier struct {
	sequencer  Sequencer
	waitStrat  WaitStrategy
	dependents []*Sequence
	alerted    uatomic.Bool

	// cursorMu guards lastConfirmed, an incremental low-water mark
	// used by GetCursor so introspection callers don't re-scan the
	// availability table from zero on every call.
	cursorMu      sync.Mutex
	lastConfirmed int64
}

func newProcessingSequenceBarrier(sequencer Sequencer, dependents ...*Sequence) *processingSequenceBarrier {
	return &processingSequenceBarrier{
		sequencer:     sequencer,
		waitStrat:     sequencer.WaitStrategy(),
		dependents:    dependents,
		lastConfirmed: InitialSequenceValue,
	}
}

func (b *processingSequenceBarrier) WaitFor(sequence int64) (int64, error) {
	if b.IsAlerted() {
		return 0, derrors.Alert()
	}

	// The "dependent" a wait strategy consults: the sequencer cursor
	// itself when there are no upstream consumers, otherwise the
	// minimum across upstream dependent sequences (this consumer
	// cannot outrun a stage it depends on). Both this and the cursor
	// passed below are live views, not snapshots — a wait strategy
	// loops calling Get() on them for as long as it waits, and a
	// snapshot frozen below the target would never move.
	dependent := b.dependentSequence()

	available, err := b.waitStrat.WaitFor(sequence, b.sequencer.Cursor(), dependent, b)
	if err != nil {
		return 0, err
	}

	if b.IsAlerted() {
		return 0, derrors.Alert()
	}

	if available < sequence {
		return available, nil
	}
	return b.sequencer.GetHighestPublishedSequence(sequence, available), nil
}

// dependentSequence materializes a single live SequenceReader view over
// the upstream dependents: the sequencer's own cursor when there are
// none, the one dependent directly when there is exactly one, or a
// dependentGroup computing the live minimum otherwise. A wait strategy
// calls Get() on whatever is returned in a loop for as long as it
// waits, so this must never be a frozen snapshot — a first-stage
// consumer would otherwise wait on a cursor value that can no longer
// move, deadlocking until the next Alert.
func (b *processingSequenceBarrier) dependentSequence() SequenceReader {
	if len(b.dependents) == 0 {
		return b.sequencer.Cursor()
	}
	if len(b.dependents) == 1 {
		return b.dependents[0]
	}
	return dependentGroup(b.dependents)
}

// dependentGroup is a live view over more than one upstream dependent:
// Get() recomputes the minimum across all of them on every call, the
// same way SequenceGroup.Min does for gating sequences.
type dependentGroup []*Sequence

func (g dependentGroup) Get() int64 {
	min := g[0].Get()
	for _, d := range g[1:] {
		if v := d.Get(); v < min {
			min = v
		}
	}
	return min
}

// GetCursor returns the highest sequence a consumer of this barrier
// may safely read: for single-producer this is the sequencer cursor
// directly (claim order equals publish order), for multi-producer it
// is the highest contiguously published sequence, computed
// incrementally from the last confirmed point rather than rescanning
// the availability table from the start every call.
func (b *processingSequenceBarrier) GetCursor() int64 {
	claimed := b.sequencer.GetCursor()

	b.cursorMu.Lock()
	defer b.cursorMu.Unlock()

	if b.lastConfirmed >= claimed {
		return b.lastConfirmed
	}
	confirmed := b.sequencer.GetHighestPublishedSequence(b.lastConfirmed+1, claimed)
	if confirmed > b.lastConfirmed {
		b.lastConfirmed = confirmed
	}
	return b.lastConfirmed
}

func (b *processingSequenceBarrier) Alert() {
	b.alerted.Store(true)
	b.waitStrat.SignalAllWhenBlocking()
}

func (b *processingSequenceBarrier) ClearAlert() {
	b.alerted.Store(false)
}

func (b *processingSequenceBarrier) IsAlerted() bool {
	return b.alerted.Load()
}

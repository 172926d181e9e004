/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package disruptor

import "sync/atomic"

// InitialSequenceValue is the value a Sequence holds before anything
// has been claimed or consumed through it.
const InitialSequenceValue int64 = -1

// SequenceReader is the read side of a Sequence: a live, volatile
// 64-bit progress marker. Wait strategies only ever need to read a
// cursor or dependent, never advance it, so they consult this
// interface rather than a concrete *Sequence — letting a barrier hand
// over a multi-sequence live minimum as easily as a single Sequence.
type SequenceReader interface {
	Get() int64
}

// Sequence is a padded, atomically-readable 64-bit counter marking
// progress through the ring: a producer's cursor, a consumer's own
// position, or a gating sequence registered against a sequencer.
//
// The value is padded on both sides with cache-line-sized filler so
// that two Sequences allocated adjacently on the heap (as in a
// SequenceGroup's backing slice) never share a 64-byte cache line with
// each other or with unrelated data. Without this, one goroutine
// hammering its own Sequence would invalidate a neighboring
// goroutine's cache line on every write — false sharing.
type Sequence struct {
	_ [7]uint64 // pad, before v
	v int64
	_ [7]uint64 // pad, after v
}

// NewSequence returns a Sequence initialized to initial. Most callers
// want InitialSequenceValue.
func NewSequence(initial int64) *Sequence {
	return &Sequence{v: initial}
}

// Get performs a volatile (acquire-ordered) load of the current value.
func (s *Sequence) Get() int64 {
	return atomic.LoadInt64(&s.v)
}

// Set performs a volatile (release-ordered) store of value.
func (s *Sequence) Set(value int64) {
	atomic.StoreInt64(&s.v, value)
}

// SetOpaque stores value without an ordering guarantee. It exists for
// fast publisher paths that issue a separate fence (see
// SingleProducerSequencer.Next) after a run of opaque stores, rather
// than paying a release fence on every intermediate write.
//
// On the current Go memory model there is no weaker-than-atomic store
// exposed by sync/atomic, so this delegates to the same atomic store;
// the method exists to document the intent at call sites and to give
// a single place to retarget if a genuinely relaxed store becomes
// available.
func (s *Sequence) SetOpaque(value int64) {
	atomic.StoreInt64(&s.v, value)
}

// CompareAndSet atomically sets the value to next if it currently
// equals expected, reporting whether the swap happened.
func (s *Sequence) CompareAndSet(expected, next int64) bool {
	return atomic.CompareAndSwapInt64(&s.v, expected, next)
}

// IncrementAndGet atomically adds one and returns the new value.
func (s *Sequence) IncrementAndGet() int64 {
	return atomic.AddInt64(&s.v, 1)
}

// AddAndGet atomically adds n and returns the new value.
func (s *Sequence) AddAndGet(n int64) int64 {
	return atomic.AddInt64(&s.v, n)
}

package disruptor

import (
	"testing"

	"github.com/stretchr/testify/require"

	derrors "github.com/ringflow/disruptor/errors"
)

type ringEvent struct {
	value int64
}

func TestNewRingBufferRejectsNonPowerOfTwo(t *testing.T) {
	_, err := NewRingBuffer[ringEvent](SingleProducer, func() ringEvent { return ringEvent{} }, 3, NewYieldingWaitStrategy())
	require.ErrorIs(t, err, derrors.ErrIllegalConfiguration)
}

func TestRingBufferGetIsMaskedByBufferSize(t *testing.T) {
	ring, err := NewRingBuffer[ringEvent](SingleProducer, func() ringEvent { return ringEvent{} }, 4, NewYieldingWaitStrategy())
	require.NoError(t, err)
	require.Equal(t, 4, ring.BufferSize())

	ring.Get(0).value = 100
	require.Equal(t, int64(100), ring.Get(4).value, "sequence 4 wraps to the same slot as sequence 0")
}

func TestRingBufferPublishRangeExposesWholeRange(t *testing.T) {
	ring, err := NewRingBuffer[ringEvent](SingleProducer, func() ringEvent { return ringEvent{} }, 8, NewYieldingWaitStrategy())
	require.NoError(t, err)

	hi, err := ring.NextN(4)
	require.NoError(t, err)
	require.Equal(t, int64(3), hi)
	for i := int64(0); i <= hi; i++ {
		ring.Get(i).value = i
	}
	ring.PublishRange(0, hi)
	require.Equal(t, hi, ring.Cursor())
}

func TestRingBufferAddAndRemoveGatingSequence(t *testing.T) {
	ring, err := NewRingBuffer[ringEvent](SingleProducer, func() ringEvent { return ringEvent{} }, 2, NewYieldingWaitStrategy())
	require.NoError(t, err)

	gating := NewSequence(InitialSequenceValue)
	ring.AddGatingSequences(gating)
	require.True(t, ring.RemoveGatingSequence(gating))
	require.False(t, ring.RemoveGatingSequence(gating))
}

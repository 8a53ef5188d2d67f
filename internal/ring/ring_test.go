package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRingNotReadyUntilEveryChannelHasN(t *testing.T) {
	r := New(4, []int{0, 1}, nil)

	assert.False(t, r.Ready())

	r.Push(0, []float64{1, 2, 3, 4})
	assert.False(t, r.Ready(), "channel 1 still short")

	r.Push(1, []float64{5, 6, 7, 8})
	assert.True(t, r.Ready())
}

func TestRingTakeFailsWhenNotReady(t *testing.T) {
	r := New(4, []int{0}, nil)

	_, err := r.Take()
	require.ErrorIs(t, err, ErrNotReady)
}

func TestRingTakeIsAtomicAcrossChannels(t *testing.T) {
	r := New(2, []int{0, 1}, nil)
	r.Push(0, []float64{1, 2, 3})
	r.Push(1, []float64{9, 8})

	epoch, err := r.Take()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, epoch[0])
	assert.Equal(t, []float64{9, 8}, epoch[1])

	// Channel 0 has a leftover sample, channel 1 is now empty; per-channel
	// lengths differ after Take, which is expected since push sizes differed.
	assert.False(t, r.Ready())
}

func TestRingOverflowDropsOldest(t *testing.T) {
	r := New(2, []int{0}, nil)

	for i := 0; i < 50; i++ {
		r.Push(0, []float64{float64(i)})
	}

	epoch, err := r.Take()
	require.NoError(t, err)
	// Buffer capped at 20*N=40; after dropping to 40 and taking 2 the
	// oldest surviving sample is 50-40=10.
	assert.Equal(t, []float64{10, 11}, epoch)
}

func TestRingResetClearsAllChannels(t *testing.T) {
	r := New(2, []int{0, 1}, nil)
	r.Push(0, []float64{1, 2})
	r.Push(1, []float64{3, 4})
	require.True(t, r.Ready())

	r.Reset()

	assert.False(t, r.Ready())
	for _, n := range r.Fill() {
		assert.Zero(t, n)
	}
}

// TestRingTakeInvariant is a property test: after Take, every channel's
// remaining length equals prev_len - N, per the ring invariant in the
// testable properties list.
func TestRingTakeInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 16).Draw(t, "n")
		pushed := rapid.IntRange(n, n*3).Draw(t, "pushed")

		r := New(n, []int{0}, nil)
		samples := make([]float64, pushed)

		for i := range samples {
			samples[i] = float64(i)
		}

		r.Push(0, samples)

		prevLen := r.Fill()[0]

		_, err := r.Take()
		require.NoError(t, err)

		gotLen := r.Fill()[0]
		assert.Equal(t, prevLen-n, gotLen)
	})
}

package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eegstream/eegstream/internal/features"
)

func syntheticEpoch(n int, fs float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		// A mix of delta drift, an alpha-band tone and 50 Hz mains noise,
		// the kind of signal the bandpass/notch/cleanup stages must clean up.
		t := float64(i) / fs
		out[i] = 5*math.Sin(2*math.Pi*2*t) + 15*math.Sin(2*math.Pi*10*t) + 3*math.Sin(2*math.Pi*50*t)
	}

	return out
}

func TestChainRunProducesAFullyPopulatedPerChannelRecord(t *testing.T) {
	const n = features.SamplesPerEpoch
	const fs = 250.0

	chain := NewChain(fs, nil)
	ch := features.Channel{Index: 0, Name: "Fp1"}

	pc := chain.Run(ch, syntheticEpoch(n, fs))

	require.Len(t, pc.Raw, n)
	require.Len(t, pc.Filtered, n)
	assert.Equal(t, ch.Index, pc.ChannelIdx)
	assert.Equal(t, ch.Name, pc.ChannelName)

	assert.NotEmpty(t, pc.FFTRaw.Freq)
	assert.NotEmpty(t, pc.FFTFiltered.Freq)

	for i := 1; i < len(pc.FFTFiltered.Freq); i++ {
		assert.Greater(t, pc.FFTFiltered.Freq[i], pc.FFTFiltered.Freq[i-1])
		assert.LessOrEqual(t, pc.FFTFiltered.Freq[i], features.MaxPSDFrequencyHz)
	}

	for _, idx := range pc.OverThresholdIndices {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, n)
	}

	assert.False(t, pc.Complexity.Empty())
}

func TestChainAttenuatesMainsAndDeltaRelativeToAlpha(t *testing.T) {
	const n = features.SamplesPerEpoch
	const fs = 250.0

	chain := NewChain(fs, nil)
	ch := features.Channel{Index: 0, Name: "Fp1"}

	pc := chain.Run(ch, syntheticEpoch(n, fs))

	// The 2 Hz delta component falls in fdelta.
	bp := pc.BandPowers
	assert.Greater(t, bp.Get("alpha"), bp.Get("fdelta"))

	// Mains (50 Hz) has no band of its own: compare filtered PSD bins.
	var alphaPSD, mainsPSD float64

	for i, f := range pc.FFTFiltered.Freq {
		switch {
		case f >= 8 && f < 12:
			alphaPSD += pc.FFTFiltered.Power[i]
		case f >= 45 && f < 55:
			mainsPSD += pc.FFTFiltered.Power[i]
		}
	}

	assert.Greater(t, alphaPSD, mainsPSD)
}

func TestRunEpochPreservesChannelOrderAndStampsEpochEnd(t *testing.T) {
	const n = features.SamplesPerEpoch
	const fs = 250.0

	chain := NewChain(fs, nil)

	order := []features.Channel{
		{Index: 2, Name: "Fp1"},
		{Index: 0, Name: "Fp2"},
	}

	samples := map[int][]float64{
		0: syntheticEpoch(n, fs),
		2: syntheticEpoch(n, fs),
	}

	batch := RunEpoch(chain, order, samples, 12345)

	require.Len(t, batch.Channels, 2)
	assert.Equal(t, int64(12345), batch.EpochEndMs)
	assert.Equal(t, "Fp1", batch.Channels[0].ChannelName)
	assert.Equal(t, "Fp2", batch.Channels[1].ChannelName)
}

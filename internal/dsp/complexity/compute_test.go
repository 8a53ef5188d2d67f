package complexity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eegstream/eegstream/internal/features"
)

func sineSamples(n int, freq, fs float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 10 * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}

	return out
}

func TestComputeReturnsEveryMetricForANonDegenerateSignal(t *testing.T) {
	x := sineSamples(250, 10, 250)
	power := make([]float64, 64)
	for i := range power {
		power[i] = 1.0 / float64(i+1)
	}

	metrics, err := Compute(x, power)
	require.NoError(t, err)
	assert.False(t, metrics.Empty())

	for key := features.PermutationEntropy; key < features.DetrendedFluctuationAnalysis+1; key++ {
		_, ok := metrics.Get(key)
		assert.True(t, ok, "expected %s to be set", key)
	}
}

func TestComputeBlanksTheWholeMapOnADegenerateSignal(t *testing.T) {
	// A constant signal has zero variance, which drives ApEn/SampEn's r to
	// zero and several ratios to NaN; the whole block must come back empty,
	// not partially populated.
	x := make([]float64, 250)

	metrics, err := Compute(x, nil)
	require.Error(t, err)
	assert.True(t, metrics.Empty())
}

package complexity

import (
	"fmt"
	"math"

	"github.com/eegstream/eegstream/internal/errs"
	"github.com/eegstream/eegstream/internal/features"
)

// Compute evaluates every metric in the closed complexity enumeration
// against filtered (the channel's filtered window) and
// filteredPSDPower (its Welch power spectrum). Per the chain contract,
// if any single metric fails — panics, or produces a non-finite result
// on a degenerate signal — the whole map is left empty and the error
// names which metric failed, for the caller to log.
func Compute(filtered []float64, filteredPSDPower []float64) (metrics features.ComplexityMetrics, err error) {
	type entry struct {
		key features.ComplexityKey
		fn  func() float64
	}

	entries := []entry{
		{features.PermutationEntropy, func() float64 { return PermutationEntropy(filtered) }},
		{features.SpectralEntropy, func() float64 { return SpectralEntropy(filteredPSDPower) }},
		{features.SVDEntropy, func() float64 { return SVDEntropy(filtered) }},
		{features.ApproximateEntropy, func() float64 { return ApproximateEntropy(filtered) }},
		{features.SampleEntropy, func() float64 { return SampleEntropy(filtered) }},
		{features.HjorthMobility, func() float64 { return HjorthMobility(filtered) }},
		{features.HjorthComplexity, func() float64 { return HjorthComplexity(filtered) }},
		{features.NumZeroCrossings, func() float64 { return NumZeroCrossings(filtered) }},
		{features.PetrosianFD, func() float64 { return PetrosianFD(filtered) }},
		{features.KatzFD, func() float64 { return KatzFD(filtered) }},
		{features.HiguchiFD, func() float64 { return HiguchiFD(filtered) }},
		{features.DetrendedFluctuationAnalysis, func() float64 { return DetrendedFluctuationAnalysis(filtered) }},
	}

	for _, e := range entries {
		v, failErr := safeEval(e.fn)
		if failErr != nil {
			return features.ComplexityMetrics{}, errs.Dsp(fmt.Sprintf("metric %s", e.key), failErr)
		}

		metrics.Set(e.key, v)
	}

	return metrics, nil
}

func safeEval(fn func() float64) (v float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	v = fn()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite result")
	}

	return v, nil
}

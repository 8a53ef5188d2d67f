package dsp

import "github.com/eegstream/eegstream/internal/features"

// OverThreshold returns the strictly increasing indices where |filtered|
// exceeds features.OverThresholdMicrovolts.
func OverThreshold(filtered []float64) []int {
	var idx []int

	for i, v := range filtered {
		if v > features.OverThresholdMicrovolts || v < -features.OverThresholdMicrovolts {
			idx = append(idx, i)
		}
	}

	return idx
}

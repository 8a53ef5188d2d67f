package dsp

import "gonum.org/v1/gonum/stat"

// Detrend subtracts the best-fit line from x, in place on a copy.
// Grounded on gonum/stat's linear regression, the same package the
// rest of the pack's DSP-adjacent repos (madpsy-ka9q_ubersdr,
// farcloser-haustorium, rayboyd-audio-engine) depend on directly.
func Detrend(x []float64) []float64 {
	n := len(x)
	idx := make([]float64, n)

	for i := range idx {
		idx[i] = float64(i)
	}

	alpha, beta := stat.LinearRegression(idx, x, nil, false)

	out := make([]float64, n)
	for i, v := range x {
		out[i] = v - (alpha + beta*float64(i))
	}

	return out
}

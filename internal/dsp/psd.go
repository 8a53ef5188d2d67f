package dsp

import (
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/eegstream/eegstream/internal/features"
)

// segmentCount picks the number of 50%-overlapped Welch segments for a
// window of length n; short epochs fall back to a single periodogram.
func segmentCount(n int) int {
	switch {
	case n < 64:
		return 1
	case n < 256:
		return 2
	default:
		return 4
	}
}

// PowerSpectralDensity computes a Welch-averaged, Hamming-windowed
// one-sided power spectral density of x (sampled at fs Hz), truncated
// to features.MaxPSDFrequencyHz.
func PowerSpectralDensity(x []float64, fs float64) features.PSD {
	segs := welchSegments(x, segmentCount(len(x)))

	segLen := len(segs[0])
	fft := fourier.NewFFT(segLen)

	ones := make([]float64, segLen)
	for i := range ones {
		ones[i] = 1
	}

	winCoeffs := window.Hamming(ones)

	winPowerSum := 0.0
	for _, w := range winCoeffs {
		winPowerSum += w * w
	}

	nBins := segLen/2 + 1
	avgPower := make([]float64, nBins)

	for _, seg := range segs {
		windowed := make([]float64, segLen)
		for i, v := range seg {
			windowed[i] = v * winCoeffs[i]
		}

		coeffs := fft.Coefficients(nil, windowed)

		for i, c := range coeffs {
			mag2 := real(c)*real(c) + imag(c)*imag(c)

			scale := 2.0
			if i == 0 || (segLen%2 == 0 && i == nBins-1) {
				scale = 1.0
			}

			avgPower[i] += scale * mag2 / (fs * winPowerSum)
		}
	}

	for i := range avgPower {
		avgPower[i] /= float64(len(segs))
	}

	freq := make([]float64, 0, nBins)
	power := make([]float64, 0, nBins)

	for i := 0; i < nBins; i++ {
		f := fft.Freq(i) * fs
		if f > features.MaxPSDFrequencyHz {
			break
		}

		freq = append(freq, f)
		power = append(power, avgPower[i])
	}

	return features.PSD{Freq: freq, Power: power}
}

// welchSegments splits x into segments of 2*len(x)/(segments+1) samples
// with 50% overlap, which yields about `segments` of them. If
// segments == 1, or the segments would be shorter than 8 samples, the
// whole window is returned as the only segment.
func welchSegments(x []float64, segments int) [][]float64 {
	if segments <= 1 {
		return [][]float64{x}
	}

	segLen := 2 * len(x) / (segments + 1)
	if segLen < 8 {
		return [][]float64{x}
	}

	step := segLen / 2

	out := make([][]float64, 0, segments)

	for start := 0; start+segLen <= len(x); start += step {
		out = append(out, x[start:start+segLen])
	}

	if len(out) == 0 {
		return [][]float64{x}
	}

	return out
}

package dsp

import "github.com/eegstream/eegstream/internal/features"

// BandPowers integrates psd over each canonical band, left-closed,
// right-open except the final band (beta), which is closed on both
// ends, so adjacent bands never double-count a boundary bin.
func BandPowers(psd features.PSD) features.BandPowers {
	var bp features.BandPowers

	for _, band := range features.BandTable {
		bp.Set(band.Name, integrateBand(psd, band))
	}

	return bp
}

func integrateBand(psd features.PSD, band features.Band) float64 {
	isLast := band.Name == features.BandTable[len(features.BandTable)-1].Name

	var total float64

	for i := 0; i < len(psd.Freq); i++ {
		f := psd.Freq[i]

		in := f >= band.Low && f < band.High
		if isLast {
			in = f >= band.Low && f <= band.High
		}

		if !in {
			continue
		}

		// Trapezoidal integration against the next bin, or treat the
		// last in-band bin as a point sample at the native bin width
		// when there is no following bin to pair with.
		if i+1 < len(psd.Freq) {
			df := psd.Freq[i+1] - f
			total += 0.5 * (psd.Power[i] + psd.Power[i+1]) * df
		} else if i > 0 {
			df := f - psd.Freq[i-1]
			total += psd.Power[i] * df
		}
	}

	return total
}

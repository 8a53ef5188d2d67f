package complexity

import "math"

// PetrosianFD estimates the Petrosian fractal dimension: a cheap proxy
// based on the number of sign changes in the first difference.
func PetrosianFD(x []float64) float64 {
	n := float64(len(x))

	d1 := diff(x)

	var nDelta float64
	for i := 1; i < len(d1); i++ {
		if (d1[i-1] < 0 && d1[i] >= 0) || (d1[i-1] >= 0 && d1[i] < 0) {
			nDelta++
		}
	}

	logN := math.Log10(n)

	return logN / (logN + math.Log10(n/(n+0.4*nDelta)))
}

// KatzFD estimates the Katz fractal dimension from the total path
// length and the diameter of the curve (i, x[i]).
func KatzFD(x []float64) float64 {
	n := float64(len(x))

	var length float64
	for i := 1; i < len(x); i++ {
		length += math.Hypot(1, x[i]-x[i-1])
	}

	var diameter float64
	for i := 1; i < len(x); i++ {
		d := math.Hypot(float64(i), x[i]-x[0])
		if d > diameter {
			diameter = d
		}
	}

	return math.Log10(n) / (math.Log10(diameter/length) + math.Log10(n))
}

// HiguchiFD estimates the Higuchi fractal dimension via the standard
// multi-scale curve-length algorithm, kMax defaulting to 8 (a common
// choice for short EEG epochs).
func HiguchiFD(x []float64) float64 {
	const kMax = 8

	n := len(x)

	logK := make([]float64, 0, kMax)
	logL := make([]float64, 0, kMax)

	for k := 1; k <= kMax; k++ {
		var lk float64

		count := 0

		for m := 0; m < k; m++ {
			var lm float64

			maxI := (n - m - 1) / k
			for i := 1; i <= maxI; i++ {
				lm += math.Abs(x[m+i*k] - x[m+(i-1)*k])
			}

			if maxI > 0 {
				lm = lm * float64(n-1) / (float64(maxI) * float64(k)) / float64(k)
				lk += lm
				count++
			}
		}

		if count == 0 {
			continue
		}

		lk /= float64(count)

		if lk <= 0 {
			continue
		}

		logK = append(logK, math.Log(1.0/float64(k)))
		logL = append(logL, math.Log(lk))
	}

	_, slope := linFit(logK, logL)

	return slope
}

// DetrendedFluctuationAnalysis estimates the DFA scaling exponent over
// box sizes from 4 to len(x)/4, in equal linear steps of one eighth of
// that range (at least 1).
func DetrendedFluctuationAnalysis(x []float64) float64 {
	n := len(x)

	m := mean(x)

	profile := make([]float64, n)

	var cum float64
	for i, v := range x {
		cum += v - m
		profile[i] = cum
	}

	minBox := 4
	maxBox := n / 4
	if maxBox < minBox+1 {
		maxBox = minBox + 1
	}

	var logN, logF []float64

	for box := minBox; box <= maxBox; box += maxInt(1, (maxBox-minBox)/8) {
		segments := n / box
		if segments < 2 {
			continue
		}

		var fluct float64

		for s := 0; s < segments; s++ {
			seg := profile[s*box : (s+1)*box]

			idx := make([]float64, box)
			for i := range idx {
				idx[i] = float64(i)
			}

			alpha, beta := linFit(idx, seg)

			var ss float64

			for i, v := range seg {
				fit := alpha + beta*float64(i)
				d := v - fit
				ss += d * d
			}

			fluct += ss / float64(box)
		}

		fluct = math.Sqrt(fluct / float64(segments))

		if fluct <= 0 {
			continue
		}

		logN = append(logN, math.Log(float64(box)))
		logF = append(logF, math.Log(fluct))
	}

	_, slope := linFit(logN, logF)

	return slope
}

// linFit returns the OLS intercept/slope of y = alpha + beta*x.
func linFit(x, y []float64) (alpha, beta float64) {
	n := float64(len(x))
	if n < 2 {
		return 0, 0
	}

	var sx, sy, sxx, sxy float64

	for i := range x {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
	}

	denom := n*sxx - sx*sx
	if denom == 0 {
		return 0, 0
	}

	beta = (n*sxy - sx*sy) / denom
	alpha = (sy - beta*sx) / n

	return alpha, beta
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

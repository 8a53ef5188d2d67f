// Package butter designs and applies digital Butterworth bandpass and
// bandstop filters via the analog-prototype + bilinear-transform
// method, the same numerical route as a reference Butterworth design
// (prototype poles -> frequency transform -> bilinear transform ->
// second-order sections). The teacher's DSP code (src/dsp.go) builds
// FIR window filters from closed-form coefficient tables; this
// generalizes that "build a coefficient table once, apply it every
// epoch" shape to the true IIR Butterworth response the chain
// requires.
package butter

import (
	"math"
	"math/cmplx"
)

// Biquad is one second-order section, applied in direct-form II
// transposed: a0 is implicitly 1.
type Biquad struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Apply runs x through the biquad with zero initial state and returns
// a new slice; the teacher's filters are similarly stateless between
// calls since each DSP pass operates on one self-contained window.
func (bq Biquad) Apply(x []float64) []float64 {
	y := make([]float64, len(x))

	var z1, z2 float64 // transposed direct form II state

	for i, xn := range x {
		yn := bq.B0*xn + z1
		z1 = bq.B1*xn - bq.A1*yn + z2
		z2 = bq.B2*xn - bq.A2*yn
		y[i] = yn
	}

	return y
}

// Cascade is an ordered list of sections applied in sequence.
type Cascade []Biquad

// Apply runs x through every section in order.
func (c Cascade) Apply(x []float64) []float64 {
	out := x
	for _, bq := range c {
		out = bq.Apply(out)
	}

	return out
}

// Bandpass designs an order-order Butterworth bandpass (loHz, hiHz)
// for signals sampled at fs Hz. order must be even.
func Bandpass(order int, loHz, hiHz, fs float64) Cascade {
	proto := order / 2

	poles := prototypePoles(proto)

	wl := prewarp(loHz, fs)
	wh := prewarp(hiHz, fs)
	wo := math.Sqrt(wl * wh)
	bw := wh - wl

	zBP, pBP, kBP := lpToBP(poles, wo, bw)

	zD, pD, kD := bilinear(zBP, pBP, kBP, fs)

	return toSections(zD, pD, kD)
}

// Bandstop designs an order-order Butterworth bandstop (notch) over
// (loHz, hiHz) for signals sampled at fs Hz. order must be even. loHz
// is clamped away from exactly zero to avoid a singular transform (a
// "0 Hz" stopband edge is, physically, just "as low as representable").
func Bandstop(order int, loHz, hiHz, fs float64) Cascade {
	proto := order / 2

	poles := prototypePoles(proto)

	if loHz <= 0 {
		loHz = 1e-3
	}

	wl := prewarp(loHz, fs)
	wh := prewarp(hiHz, fs)
	wo := math.Sqrt(wl * wh)
	bw := wh - wl

	zBS, pBS, kBS := lpToBS(poles, wo, bw)

	zD, pD, kD := bilinear(zBS, pBS, kBS, fs)

	return toSections(zD, pD, kD)
}

// prototypePoles returns the n poles of a normalized (Wc=1 rad/s)
// analog Butterworth lowpass prototype.
func prototypePoles(n int) []complex128 {
	poles := make([]complex128, n)
	for k := 1; k <= n; k++ {
		theta := math.Pi * float64(2*k+n-1) / float64(2*n)
		poles[k-1] = -cmplx.Exp(complex(0, theta)) // left half-plane pole on the unit circle
	}

	return poles
}

// prewarp maps an edge frequency in Hz to the pre-warped analog
// angular frequency used so the bilinear transform lands critical
// frequencies exactly where intended.
func prewarp(fHz, fs float64) float64 {
	return 2 * fs * math.Tan(math.Pi*fHz/fs)
}

// lpToBP applies the classical lowpass-to-bandpass frequency
// transform to an all-pole prototype (k=1, z=none).
func lpToBP(poles []complex128, wo, bw float64) (zeros, outPoles []complex128, gain float64) {
	degree := len(poles)

	outPoles = make([]complex128, 0, 2*len(poles))

	for _, p := range poles {
		pLP := p * complex(bw/2, 0)
		disc := cmplx.Sqrt(pLP*pLP - complex(wo*wo, 0))
		outPoles = append(outPoles, pLP+disc, pLP-disc)
	}

	zeros = make([]complex128, degree) // zeros at the origin

	gain = math.Pow(bw, float64(degree))

	return zeros, outPoles, gain
}

// lpToBS applies the classical lowpass-to-bandstop frequency
// transform to an all-pole prototype (k=1, z=none).
func lpToBS(poles []complex128, wo, bw float64) (zeros, outPoles []complex128, gain float64) {
	degree := len(poles)

	outPoles = make([]complex128, 0, 2*len(poles))

	prodNegP := complex(1, 0)

	for _, p := range poles {
		pHP := complex(bw/2, 0) / p
		disc := cmplx.Sqrt(pHP*pHP - complex(wo*wo, 0))
		outPoles = append(outPoles, pHP+disc, pHP-disc)
		prodNegP *= -p
	}

	zeros = make([]complex128, 0, 2*degree)
	for i := 0; i < degree; i++ {
		zeros = append(zeros, complex(0, wo))
	}

	for i := 0; i < degree; i++ {
		zeros = append(zeros, complex(0, -wo))
	}

	gain = real(complex(1, 0) / prodNegP)

	return zeros, outPoles, gain
}

// bilinear applies the bilinear transform (with frequencies already
// pre-warped by the caller) to an analog zero-pole-gain system,
// appending zeros at z=-1 for any relative-degree deficit (zeros at
// infinity in the analog domain).
func bilinear(zeros, poles []complex128, gain, fs float64) (zD, pD []complex128, kD float64) {
	fs2 := complex(2*fs, 0)

	zD = make([]complex128, 0, len(poles))
	pD = make([]complex128, 0, len(poles))

	numProd := complex(1, 0)
	denProd := complex(1, 0)

	for _, z := range zeros {
		zD = append(zD, (fs2+z)/(fs2-z))
		numProd *= fs2 - z
	}

	for _, p := range poles {
		pD = append(pD, (fs2+p)/(fs2-p))
		denProd *= fs2 - p
	}

	degree := len(poles) - len(zeros)
	for i := 0; i < degree; i++ {
		zD = append(zD, complex(-1, 0))
	}

	kD = gain * real(numProd/denProd)

	return zD, pD, kD
}

// toSections pairs digital zeros and poles into conjugate couples and
// forms one biquad per couple, distributing the overall gain across
// the first section.
func toSections(zeros, poles []complex128, gain float64) Cascade {
	zPairs := pairConjugates(zeros)
	pPairs := pairConjugates(poles)

	n := len(pPairs)
	sections := make(Cascade, n)

	for i := 0; i < n; i++ {
		z1, z2 := complex(0, 0), complex(0, 0)
		if i < len(zPairs) {
			z1, z2 = zPairs[i][0], zPairs[i][1]
		}

		p1, p2 := pPairs[i][0], pPairs[i][1]

		b0, b1, b2 := 1.0, real(-(z1 + z2)), real(z1*z2)
		a1, a2 := real(-(p1+p2)), real(p1*p2)

		if i == 0 {
			b0 *= gain
			b1 *= gain
			b2 *= gain
		}

		sections[i] = Biquad{B0: b0, B1: b1, B2: b2, A1: a1, A2: a2}
	}

	return sections
}

// pairConjugates greedily pairs each value with its nearest remaining
// conjugate partner (itself, for real values). Assumes an even-length
// input, which holds for every zero/pole set this package produces.
func pairConjugates(vals []complex128) [][2]complex128 {
	remaining := append([]complex128(nil), vals...)

	var pairs [][2]complex128

	for len(remaining) > 0 {
		v := remaining[0]
		target := cmplx.Conj(v)

		best := 1
		bestDist := math.Inf(1)

		for i := 1; i < len(remaining); i++ {
			d := cmplx.Abs(remaining[i] - target)
			if d < bestDist {
				bestDist = d
				best = i
			}
		}

		if len(remaining) == 1 {
			pairs = append(pairs, [2]complex128{v, v})
			remaining = remaining[1:]

			continue
		}

		pairs = append(pairs, [2]complex128{v, remaining[best]})

		remaining = removeAt(removeAt(remaining, best), 0)
	}

	return pairs
}

func removeAt(s []complex128, i int) []complex128 {
	out := append([]complex128(nil), s[:i]...)
	return append(out, s[i+1:]...)
}

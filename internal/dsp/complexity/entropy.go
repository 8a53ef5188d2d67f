package complexity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// PermutationEntropy computes the normalized permutation entropy
// (embedding dimension 3, delay 1): the Shannon entropy of the
// distribution of ordinal patterns, divided by log(3!).
func PermutationEntropy(x []float64) float64 {
	const order = 3

	if len(x) < order+1 {
		return 0
	}

	counts := map[[order]int]int{}

	for i := 0; i+order <= len(x); i++ {
		window := x[i : i+order]

		idx := [order]int{0, 1, 2}
		sort.Slice(idx[:], func(a, b int) bool { return window[idx[a]] < window[idx[b]] })

		counts[idx]++
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	var h float64

	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log(p)
	}

	maxH := math.Log(factorial(order))

	return h / maxH
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}

	return f
}

// SpectralEntropy computes the normalized Shannon entropy of an
// already-computed Welch power spectral density (see internal/dsp's
// PowerSpectralDensity, which is sampled at the session's rate F).
func SpectralEntropy(power []float64) float64 {
	if len(power) == 0 {
		return 0
	}

	var total float64
	for _, p := range power {
		total += p
	}

	if total <= 0 {
		return 0
	}

	var h float64

	for _, p := range power {
		if p <= 0 {
			continue
		}

		pr := p / total
		h -= pr * math.Log(pr)
	}

	return h / math.Log(float64(len(power)))
}

// SVDEntropy computes the normalized Shannon entropy of the normalized
// singular value spectrum of a delay embedding of x (embedding
// dimension 3, delay 1).
func SVDEntropy(x []float64) float64 {
	const (
		dim   = 3
		delay = 1
	)

	rows := len(x) - (dim-1)*delay
	if rows < dim {
		return 0
	}

	data := make([]float64, rows*dim)
	for i := 0; i < rows; i++ {
		for j := 0; j < dim; j++ {
			data[i*dim+j] = x[i+j*delay]
		}
	}

	m := mat.NewDense(rows, dim, data)

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDNone); !ok {
		return 0
	}

	values := svd.Values(nil)

	var total float64
	for _, v := range values {
		total += v
	}

	if total <= 0 {
		return 0
	}

	var h float64

	for _, v := range values {
		if v <= 0 {
			continue
		}

		p := v / total
		h -= p * math.Log(p)
	}

	return h / math.Log(float64(len(values)))
}

// ApproximateEntropy computes ApEn(m=2, r=0.2*std(x)).
func ApproximateEntropy(x []float64) float64 {
	r := 0.2 * math.Sqrt(variance(x))

	return phi(x, 2, r) - phi(x, 3, r)
}

// SampleEntropy computes SampEn(m=2, r=0.2*std(x)), the self-match-free
// counterpart of ApproximateEntropy.
func SampleEntropy(x []float64) float64 {
	r := 0.2 * math.Sqrt(variance(x))

	b := countMatches(x, 2, r, false)
	a := countMatches(x, 3, r, false)

	if b == 0 || a == 0 {
		return 0
	}

	return -math.Log(a / b)
}

// phi is the ApEn correlation-sum helper: average log proportion of
// template matches within tolerance r, including self-matches.
func phi(x []float64, m int, r float64) float64 {
	n := len(x)
	count := n - m + 1

	if count <= 0 {
		return 0
	}

	templates := make([][]float64, count)
	for i := range templates {
		templates[i] = x[i : i+m]
	}

	var sum float64

	for i := 0; i < count; i++ {
		matches := 0

		for j := 0; j < count; j++ {
			if chebyshevWithin(templates[i], templates[j], r) {
				matches++
			}
		}

		sum += math.Log(float64(matches) / float64(count))
	}

	return sum / float64(count)
}

// countMatches counts template-pair matches for SampEn, at embedding
// dimension m, excluding self-matches.
func countMatches(x []float64, m int, r float64, _ bool) float64 {
	n := len(x)
	count := n - m + 1

	if count <= 1 {
		return 0
	}

	var total float64

	for i := 0; i < count; i++ {
		for j := 0; j < count; j++ {
			if i == j {
				continue
			}

			if chebyshevWithin(x[i:i+m], x[j:j+m], r) {
				total++
			}
		}
	}

	return total
}

func chebyshevWithin(a, b []float64, r float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > r {
			return false
		}
	}

	return true
}

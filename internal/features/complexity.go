package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ComplexityKey is a closed enumeration of the complexity/entropy
// metric identifiers computed per channel per epoch. Per the design
// note on the dynamic complexity map in the source material, unknown
// keys are rejected rather than accepted into an open map.
type ComplexityKey int

const (
	PermutationEntropy ComplexityKey = iota
	SpectralEntropy
	SVDEntropy
	ApproximateEntropy
	SampleEntropy
	HjorthMobility
	HjorthComplexity
	NumZeroCrossings
	PetrosianFD
	KatzFD
	HiguchiFD
	DetrendedFluctuationAnalysis

	numComplexityKeys
)

var complexityKeyNames = [numComplexityKeys]string{
	PermutationEntropy:           "permutation_entropy",
	SpectralEntropy:              "spectral_entropy",
	SVDEntropy:                   "svd_entropy",
	ApproximateEntropy:           "approximate_entropy",
	SampleEntropy:                "sample_entropy",
	HjorthMobility:               "hjorth_mobility",
	HjorthComplexity:             "hjorth_complexity",
	NumZeroCrossings:             "num_zero_crossings",
	PetrosianFD:                  "petrosian_fd",
	KatzFD:                       "katz_fd",
	HiguchiFD:                    "higuchi_fd",
	DetrendedFluctuationAnalysis: "detrended_fluctuation_analysis",
}

// String returns the exact lowerCamelCase-adjacent wire key (the
// source's snake_case identifiers, used verbatim as both the internal
// name and the TSDB field name; the control-channel JSON translates
// the whole envelope to lowerCamelCase around this map, see
// ComplexityMetrics.MarshalJSON).
func (k ComplexityKey) String() string {
	if k < 0 || k >= numComplexityKeys {
		return "unknown"
	}

	return complexityKeyNames[k]
}

func complexityKeyFromString(s string) (ComplexityKey, bool) {
	for i, name := range complexityKeyNames {
		if name == s {
			return ComplexityKey(i), true
		}
	}

	return 0, false
}

// ComplexityMetrics is the fixed-order complexity/entropy block for one
// channel in one epoch. A zero value (Set to false) means the metric
// was never computed (e.g. the whole block was left empty because one
// metric raised, per the DSP chain contract) and is omitted from the
// wire form.
type ComplexityMetrics struct {
	values [numComplexityKeys]float64
	set    [numComplexityKeys]bool
}

// Set stores v under key.
func (m *ComplexityMetrics) Set(key ComplexityKey, v float64) {
	m.values[key] = v
	m.set[key] = true
}

// Get returns the value stored under key and whether it was set.
func (m ComplexityMetrics) Get(key ComplexityKey) (float64, bool) {
	return m.values[key], m.set[key]
}

// Empty reports whether no metric has been recorded.
func (m ComplexityMetrics) Empty() bool {
	for _, ok := range m.set {
		if ok {
			return false
		}
	}

	return true
}

// Clear discards every recorded metric, used when a single metric's
// failure invalidates the whole block for a channel.
func (m *ComplexityMetrics) Clear() {
	*m = ComplexityMetrics{}
}

// Fields returns the recorded metrics as name->value, keyed by the
// exact snake_case identifier from the DSP chain contract (§4.3), for
// sinks (TSDB fields) that need the full set.
func (m ComplexityMetrics) Fields() map[string]float64 {
	out := make(map[string]float64, numComplexityKeys)

	for i, ok := range m.set {
		if ok {
			out[complexityKeyNames[i]] = m.values[i]
		}
	}

	return out
}

// MarshalJSON renders only the recorded metrics, keyed by their exact
// snake_case identifier, matching the wire format historically emitted
// by the reference implementation's ad-hoc string-keyed map.
func (m ComplexityMetrics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	first := true

	for i, ok := range m.set {
		if !ok {
			continue
		}

		if !first {
			buf.WriteByte(',')
		}

		first = false

		fmt.Fprintf(&buf, "%q:%s", complexityKeyNames[i], strconv.FormatFloat(m.values[i], 'g', -1, 64))
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON accepts only keys from the closed enumeration; an
// unknown metric name is an error.
func (m *ComplexityMetrics) UnmarshalJSON(data []byte) error {
	raw := map[string]float64{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = ComplexityMetrics{}

	for name, v := range raw {
		key, ok := complexityKeyFromString(name)
		if !ok {
			return fmt.Errorf("features: unknown complexity metric %q", name)
		}

		m.Set(key, v)
	}

	return nil
}

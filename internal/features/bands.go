// Package features holds the value types shared by the DSP chain,
// the sinks and the control channel: band definitions, per-channel
// feature records and the closed set of complexity metrics.
package features

// SamplesPerEpoch is the default epoch length N, overridable via
// config.Options.SamplesPerEpoch.
const SamplesPerEpoch = 250

// OverThresholdMicrovolts is the filtered-magnitude threshold (µV)
// used to flag artifact samples.
const OverThresholdMicrovolts = 30.0

// MaxPSDFrequencyHz bounds fft*.freq: PowerSpectralDensity drops every
// bin above it.
const MaxPSDFrequencyHz = 120.0

// Band names a canonical frequency band, left-closed/right-open
// except the final band (beta), which is closed on both ends.
type Band struct {
	Name string
	Low  float64
	High float64
}

// BandTable is the compile-time list of canonical bands. Implementations
// must not deviate from these bounds.
var BandTable = []Band{
	{Name: "sdelta", Low: 0.4, High: 1.0},
	{Name: "fdelta", Low: 1.0, High: 4.0},
	{Name: "theta", Low: 4.0, High: 8.0},
	{Name: "alpha", Low: 8.0, High: 12.0},
	{Name: "sigma", Low: 12.0, High: 16.0},
	{Name: "beta", Low: 16.0, High: 30.0},
}

// BandPowers holds the six canonical band powers, in µV².
type BandPowers struct {
	SDelta float64 `json:"sdelta"`
	FDelta float64 `json:"fdelta"`
	Theta  float64 `json:"theta"`
	Alpha  float64 `json:"alpha"`
	Sigma  float64 `json:"sigma"`
	Beta   float64 `json:"beta"`
}

// Set stores v under the band named name. It panics if name is not a
// member of BandTable, since the band set is fixed at compile time.
func (b *BandPowers) Set(name string, v float64) {
	switch name {
	case "sdelta":
		b.SDelta = v
	case "fdelta":
		b.FDelta = v
	case "theta":
		b.Theta = v
	case "alpha":
		b.Alpha = v
	case "sigma":
		b.Sigma = v
	case "beta":
		b.Beta = v
	default:
		panic("features: unknown band " + name)
	}
}

// Get returns the power stored under the band named name.
func (b BandPowers) Get(name string) float64 {
	switch name {
	case "sdelta":
		return b.SDelta
	case "fdelta":
		return b.FDelta
	case "theta":
		return b.Theta
	case "alpha":
		return b.Alpha
	case "sigma":
		return b.Sigma
	case "beta":
		return b.Beta
	default:
		panic("features: unknown band " + name)
	}
}

// Sum returns the total power across all six bands.
func (b BandPowers) Sum() float64 {
	return b.SDelta + b.FDelta + b.Theta + b.Alpha + b.Sigma + b.Beta
}

// Fields returns the band powers as a name->value map, for sinks that
// want every field (e.g. the TSDB point builder).
func (b BandPowers) Fields() map[string]float64 {
	return map[string]float64{
		"sdelta": b.SDelta,
		"fdelta": b.FDelta,
		"theta":  b.Theta,
		"alpha":  b.Alpha,
		"sigma":  b.Sigma,
		"beta":   b.Beta,
	}
}

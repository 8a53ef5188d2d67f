package butter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sineWave(freqHz, fs float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freqHz * float64(i) / fs)
	}

	return x
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(x)))
}

func TestBandpassAttenuatesDC(t *testing.T) {
	cascade := Bandpass(4, 4, 40, 250)

	dc := make([]float64, 512)
	for i := range dc {
		dc[i] = 1.0
	}

	out := cascade.Apply(dc)

	// Settle into steady state, ignore the filter's transient ramp-up.
	tail := out[len(out)-128:]
	assert.Less(t, rms(tail), 0.05, "DC should be heavily attenuated by a 4-40Hz bandpass")
}

func TestBandpassPassesCenterBandTone(t *testing.T) {
	cascade := Bandpass(4, 4, 40, 250)

	tone := sineWave(15, 250, 1024)
	out := cascade.Apply(tone)

	tail := out[len(out)-256:]
	inTail := tone[len(tone)-256:]

	ratio := rms(tail) / rms(inTail)
	assert.Greater(t, ratio, 0.3, "a mid-band tone should survive with substantial amplitude")
}

func TestBandpassAttenuatesHighFrequency(t *testing.T) {
	cascade := Bandpass(4, 4, 40, 250)

	tone := sineWave(100, 250, 1024)
	out := cascade.Apply(tone)

	tail := out[len(out)-256:]
	inTail := tone[len(tone)-256:]

	ratio := rms(tail) / rms(inTail)
	assert.Less(t, ratio, 0.3, "a 100Hz tone should be attenuated by a 4-40Hz bandpass")
}

func TestBandstopAttenuatesNotchedFrequency(t *testing.T) {
	cascade := Bandstop(4, 40, 62, 250)

	tone := sineWave(50, 250, 1024)
	out := cascade.Apply(tone)

	tail := out[len(out)-256:]
	inTail := tone[len(tone)-256:]

	ratio := rms(tail) / rms(inTail)
	assert.Less(t, ratio, 0.5, "a 50Hz tone inside the 40-62Hz stopband should be attenuated")
}

func TestBandstopPassesFrequencyOutsideNotch(t *testing.T) {
	cascade := Bandstop(4, 40, 62, 250)

	tone := sineWave(10, 250, 1024)
	out := cascade.Apply(tone)

	tail := out[len(out)-256:]
	inTail := tone[len(tone)-256:]

	ratio := rms(tail) / rms(inTail)
	assert.Greater(t, ratio, 0.5, "a 10Hz tone outside the stopband should mostly survive")
}

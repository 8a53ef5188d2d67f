// Package dsp implements the per-channel DSP chain: raw PSD, linear
// detrend, Butterworth bandpass/notch/high-pass cleanup, filtered PSD,
// band-power integration, threshold scan and the complexity block.
package dsp

import (
	"github.com/charmbracelet/log"

	"github.com/eegstream/eegstream/internal/dsp/butter"
	"github.com/eegstream/eegstream/internal/dsp/complexity"
	"github.com/eegstream/eegstream/internal/features"
)

// filterOrder is the Butterworth order for every stage of the chain
// (§4.3 names each stage "4th-order").
const filterOrder = 4

// Chain holds the filter cascades for one sampling rate, built once per
// session since they depend only on F, and reused across every epoch
// and channel.
type Chain struct {
	fs float64

	bandpass Cascade
	notch    Cascade
	cleanup  Cascade

	log *log.Logger
}

// Cascade is a local alias so callers of this package never need to
// import internal/dsp/butter directly.
type Cascade = butter.Cascade

// NewChain builds the three filter cascades for sampling rate fs Hz:
// a 4-40 Hz bandpass, a 40-62 Hz notch and a 0-4 Hz high-pass cleanup
// stop-band, each a 4th-order Butterworth design.
func NewChain(fs float64, logger *log.Logger) *Chain {
	return &Chain{
		fs:       fs,
		bandpass: butter.Bandpass(filterOrder, 4, 40, fs),
		notch:    butter.Bandstop(filterOrder, 40, 62, fs),
		cleanup:  butter.Bandstop(filterOrder, 0, 4, fs),
		log:      logger,
	}
}

// Run executes the full per-channel chain of §4.3 over one epoch's raw
// window and returns the completed feature record. Channel identifies
// the ring index and label the record is stamped with.
func (c *Chain) Run(ch features.Channel, raw []float64) features.PerChannel {
	pc := features.PerChannel{
		ChannelIdx:  ch.Index,
		ChannelName: ch.Name,
		Raw:         append([]float64(nil), raw...),
	}

	pc.FFTRaw = PowerSpectralDensity(raw, c.fs)

	detrended := Detrend(raw)
	bandpassed := c.bandpass.Apply(detrended)
	notched := c.notch.Apply(bandpassed)
	filtered := c.cleanup.Apply(notched)

	pc.Filtered = filtered
	pc.FFTFiltered = PowerSpectralDensity(filtered, c.fs)
	pc.BandPowers = BandPowers(pc.FFTFiltered)
	pc.OverThresholdIndices = OverThreshold(filtered)

	metrics, err := complexity.Compute(filtered, pc.FFTFiltered.Power)
	if err != nil {
		if c.log != nil {
			c.log.Warn("complexity block failed, leaving channel's map empty",
				"channel", ch.Name, "err", err)
		}
		// metrics is the already-cleared zero value from Compute's error path.
	}

	pc.Complexity = metrics

	return pc
}

// RunEpoch runs Run over every channel in samples (keyed by ring
// channel index) and returns the batch in the order given by order,
// stamped with epochEndMs.
func RunEpoch(c *Chain, order []features.Channel, samples map[int][]float64, epochEndMs int64) features.EpochBatch {
	batch := features.EpochBatch{
		EpochEndMs: epochEndMs,
		Channels:   make([]features.PerChannel, 0, len(order)),
	}

	for _, ch := range order {
		raw, ok := samples[ch.Index]
		if !ok {
			continue
		}

		batch.Channels = append(batch.Channels, c.Run(ch, raw))
	}

	return batch
}

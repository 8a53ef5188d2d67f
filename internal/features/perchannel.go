package features

// Channel identifies one enabled EEG channel: a zero-based index into
// the driver's channel list and the human label configured for it
// (e.g. "Fp1"). The enabled set is fixed for the lifetime of a
// session.
type Channel struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// PSD is a power spectral density estimate: strictly increasing
// frequency bins (Hz, bounded above by MaxPSDFrequencyHz) and the
// corresponding power (µV²/Hz).
type PSD struct {
	Freq  []float64 `json:"freq"`
	Power []float64 `json:"power"`
}

// PerChannel is the epoch feature record for one channel, built fresh
// each epoch tick and released after fan-out — the ring, not this
// struct, owns sample storage between epochs.
type PerChannel struct {
	ChannelIdx  int     `json:"channelIdx"`
	ChannelName string  `json:"channelName"`
	Raw         []float64 `json:"raw"`
	Filtered    []float64 `json:"filtered"`

	FFTRaw      PSD `json:"fftRaw"`
	FFTFiltered PSD `json:"fftFiltered"`

	BandPowers BandPowers `json:"bandPowers"`

	OverThresholdIndices []int `json:"overThresholdIndices"`

	Complexity ComplexityMetrics `json:"complexity"`
}

// EpochBatch is every enabled channel's PerChannel record for one
// completed epoch, plus the timestamp of the epoch's end (the instant
// the TSDB point and broadcast envelope are stamped with).
type EpochBatch struct {
	EpochEndMs int64
	Channels   []PerChannel
}

// Package board wraps the acquisition driver session: the single,
// process-wide owner of the vendor SDK handle, generalized from the
// teacher's single package-level device handles (src/cm108.go's one
// CM108 PTT handle, src/ptt.go's one serial port owner) to the EEG
// board's connect/stream/release lifecycle.
package board

import "context"

// Burst is one non-blocking delivery of samples for a single channel,
// as drained by the Epoch Scheduler every tick.
type Burst struct {
	Channel int
	Samples []float64
}

// Params describes how to open a session: the board identifier, the
// serial port hint (if any) and which channel slots to enable.
type Params struct {
	BoardID      int
	SerialPort   string
	ChannelSlots []int
}

// Session is the driver handle obtained once CONNECTING completes.
// Every method after Open must be safe to call from the scheduler's
// single goroutine only; Session itself does not need to be
// goroutine-safe beyond that.
type Session interface {
	// SamplingRate returns the board's configured sampling rate F, in Hz.
	SamplingRate() float64

	// ChannelIndices returns the EEG channel indices, truncated to
	// len(enabled) per the board's channel-count contract.
	ChannelIndices(enabled []string) []int

	// StartRecording issues the on-board SD-recording command (a
	// pre-allocated, fixed-duration file; vendor SDKs typically cap
	// this around 12 hours).
	StartRecording(ctx context.Context) error

	// StopRecording stops the on-device recording command.
	StopRecording(ctx context.Context) error

	// StartStream begins delivering samples; Bursts is drained
	// non-blockingly by the scheduler every tick.
	StartStream(ctx context.Context) (<-chan Burst, error)

	// StopStream halts delivery and closes the Bursts channel.
	StopStream(ctx context.Context) error

	// AddStreamer registers a board-owned output streamer addressed by
	// uri (e.g. "file://path:w" for a timestamped raw-sample CSV, or a
	// sideband transport URI), mirroring the vendor SDK's
	// add_streamer call. It may be called more than once per session,
	// once per registered streamer, and must be safe to call after
	// StartStream.
	AddStreamer(ctx context.Context, uri string) error

	// Release tears down the session. Release must be idempotent:
	// every exit path, including errors, calls it exactly once more
	// than strictly necessary is harmless.
	Release(ctx context.Context) error
}

// Driver opens a new Session for the given parameters. Production
// wiring of the vendor acquisition SDK lives outside this module
// (spec'd only at this interface boundary); Driver is satisfied in
// tests by board/simulated.
type Driver interface {
	Open(ctx context.Context, params Params) (Session, error)
}

// Package lifecycle implements the acquisition session state machine:
// IDLE, CONNECTING, STREAMING, ERROR, TERMINATED, and the single-owner
// discipline over the driver session described in the "Global
// acquisition session" design note. It generalizes the teacher's
// single package-level device-handle ownership (src/cm108.go,
// src/ptt.go) to an explicit state type with forced release on every
// re-entry into CONNECTING.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/eegstream/eegstream/internal/board"
	"github.com/eegstream/eegstream/internal/errs"
	"github.com/eegstream/eegstream/internal/ring"
	"github.com/eegstream/eegstream/internal/sink/sideband"
)

// State is one node of the lifecycle state diagram.
type State int

const (
	Idle State = iota
	Connecting
	Streaming
	Error
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Streaming:
		return "streaming"
	case Error:
		return "error"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Event is a significant transition the lifecycle emits as a
// brainflow_event, surfaced on the control channel.
type Event struct {
	Name      string
	Timestamp time.Time
}

// EventSink receives lifecycle events, implemented by internal/control
// so the Controller never depends on the control channel directly.
type EventSink interface {
	BroadcastEvent(ev Event)
	BroadcastError(msg string)
}

// Config is the per-session driver parameters the Controller passes to
// board.Driver.Open on every connect.
type Config struct {
	BoardID         int
	SerialPort      string
	Channels        []string // configured label set; may be overridden per start
	SamplesPerEpoch int

	// OutputDir is where the timestamped raw-sample streamer
	// registered in Start writes its CSV file.
	OutputDir string

	// Streamer, if non-empty, is a second streamer URI registered
	// alongside the timestamped file streamer (the --streamer flag).
	Streamer string
}

// Controller owns the one acquisition Session for the process. Its
// methods are called from the control channel's client goroutines and
// from the process's main goroutine; it holds no lock of its own, so
// concurrent calls to Start, Stop and Quit are not synchronized.
type Controller struct {
	driver board.Driver
	sink   EventSink
	log    *log.Logger

	cfg   Config
	state State

	session  board.Session
	bursts   <-chan board.Burst
	ring     *ring.Ring
	channels []string
}

// New builds a Controller in the Idle state.
func New(driver board.Driver, sink EventSink, cfg Config, logger *log.Logger) *Controller {
	return &Controller{
		driver: driver,
		sink:   sink,
		cfg:    cfg,
		log:    logger,
		state:  Idle,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State { return c.state }

// Ring returns the controller's active sample ring, or nil outside
// Streaming.
func (c *Controller) Ring() *ring.Ring { return c.ring }

// Bursts returns the current session's burst channel, or nil outside
// Streaming.
func (c *Controller) Bursts() <-chan board.Burst { return c.bursts }

// Rate returns the current session's sampling rate F, or 0 outside
// Streaming.
func (c *Controller) Rate() float64 {
	if c.session == nil {
		return 0
	}

	return c.session.SamplingRate()
}

// Start performs IDLE/ERROR -> CONNECTING -> STREAMING. overrideChannels,
// if non-empty, replaces the configured label set for this session only
// (the "channel override on start" scenario).
func (c *Controller) Start(ctx context.Context, overrideChannels []string) error {
	// Force-release any session this Controller still holds before
	// opening a new one. Only that in-memory session is released; a
	// session left open by an earlier process is not seen here.
	c.forceRelease(ctx)

	c.state = Connecting

	channels := c.cfg.Channels
	if len(overrideChannels) > 0 {
		channels = overrideChannels
	}

	params := board.Params{
		BoardID:      c.cfg.BoardID,
		SerialPort:   c.cfg.SerialPort,
		ChannelSlots: slotsFor(len(channels)),
	}

	session, err := c.driver.Open(ctx, params)
	if err != nil {
		return c.toError(fmt.Errorf("open session: %w", err))
	}

	if err := session.StartRecording(ctx); err != nil {
		_ = session.Release(ctx)
		return c.toError(fmt.Errorf("start recording: %w", err))
	}

	bursts, err := session.StartStream(ctx)
	if err != nil {
		_ = session.StopRecording(ctx)
		_ = session.Release(ctx)

		return c.toError(fmt.Errorf("start stream: %w", err))
	}

	c.registerStreamers(ctx, session)

	idx := session.ChannelIndices(channels)

	c.session = session
	c.bursts = bursts
	c.channels = channels
	c.ring = ring.New(c.cfg.SamplesPerEpoch, idx, c.log)
	c.state = Streaming

	c.sink.BroadcastEvent(Event{Name: "connected", Timestamp: time.Now()})

	return nil
}

// registerStreamers registers the board-owned raw-sample file streamer
// (§4.5) and, if cfg.Streamer is set, the configured sideband streamer
// too. Failures are logged, not fatal: a streamer registration problem
// should not prevent STREAMING when the sample path itself is healthy.
func (c *Controller) registerStreamers(ctx context.Context, session board.Session) {
	if c.cfg.OutputDir != "" {
		path, err := sideband.BuildTimestampedPath(c.cfg.OutputDir)
		if err != nil {
			if c.log != nil {
				c.log.Warn("building raw streamer path failed", "err", err)
			}
		} else if err := session.AddStreamer(ctx, sideband.FileStreamerURI(path)); err != nil {
			if c.log != nil {
				c.log.Warn("registering raw streamer failed", "err", err)
			}
		}
	}

	if c.cfg.Streamer != "" {
		if err := session.AddStreamer(ctx, c.cfg.Streamer); err != nil {
			if c.log != nil {
				c.log.Warn("registering configured streamer failed", "uri", c.cfg.Streamer, "err", err)
			}
		}
	}
}

// Stop performs STREAMING -> IDLE: stop recording, stop the stream,
// release the session and clear the ring.
func (c *Controller) Stop(ctx context.Context) error {
	if c.session == nil {
		c.state = Idle
		return nil
	}

	var stopErr error

	if err := c.session.StopRecording(ctx); err != nil {
		stopErr = fmt.Errorf("stop recording: %w", err)
	}

	if err := c.session.StopStream(ctx); err != nil && stopErr == nil {
		stopErr = fmt.Errorf("stop stream: %w", err)
	}

	if err := c.session.Release(ctx); err != nil && stopErr == nil {
		stopErr = fmt.Errorf("release session: %w", err)
	}

	c.session = nil
	c.bursts = nil

	if c.ring != nil {
		c.ring.Reset()
	}

	c.ring = nil
	c.state = Idle

	if stopErr != nil {
		return c.toError(stopErr)
	}

	c.sink.BroadcastEvent(Event{Name: "stopped", Timestamp: time.Now()})

	return nil
}

// Quit performs the Stop teardown from any state and moves to
// Terminated; the caller (the scheduler glue) is responsible for
// exiting the event loop after Quit returns.
func (c *Controller) Quit(ctx context.Context) error {
	err := c.Stop(ctx)
	c.state = Terminated

	return err
}

// forceRelease releases the session this Controller still holds, if
// any, without changing state, swallowing errors (logged only). It
// does nothing when no session is held in memory.
func (c *Controller) forceRelease(ctx context.Context) {
	if c.session == nil {
		return
	}

	if err := c.session.Release(ctx); err != nil && c.log != nil {
		c.log.Warn("force-release of prior session failed", "err", err)
	}

	c.session = nil
	c.bursts = nil
}

func (c *Controller) toError(err error) error {
	wrapped := errs.Device("lifecycle", err)

	c.state = Error

	if c.log != nil {
		c.log.Error("lifecycle transition failed", "err", wrapped)
	}

	c.sink.BroadcastError(wrapped.Error())

	c.state = Idle

	return wrapped
}

// slotsFor returns the fixed 0..n-1 slot index set used to ask the
// driver to enable exactly n channel slots.
func slotsFor(n int) []int {
	slots := make([]int, n)
	for i := range slots {
		slots[i] = i
	}

	return slots
}

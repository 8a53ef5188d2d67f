// Package simulated implements a deterministic fake acquisition driver
// used by the end-to-end scenario tests: a burst generator whose
// timing and sizes are fixed in advance rather than wall-clock driven,
// the same "replace the vendor collaborator with a scripted fake"
// shape as the teacher's atest.go test-pattern generator
// (src/atest.go) stands in for a live audio device.
package simulated

import (
	"context"
	"sync"

	"github.com/eegstream/eegstream/internal/board"
)

// ScriptedBurst describes one scripted delivery: which channel and
// the exact samples to emit for it.
type ScriptedBurst struct {
	Channel int
	Samples []float64
}

// Driver is a board.Driver whose sessions replay a fixed Script of
// bursts on each StartStream, rather than reading a live device.
type Driver struct {
	SamplingRate float64
	Script       []ScriptedBurst
}

// Open returns a new *Session bound to d's script. Each call gets an
// independent cursor, so opening a fresh session after a stop/start
// cycle replays the script from the beginning (no samples from a
// prior session leak into the next, per the stop/start scenario).
func (d *Driver) Open(_ context.Context, params board.Params) (board.Session, error) {
	return &Session{
		rate:    d.SamplingRate,
		script:  d.Script,
		enabled: params.ChannelSlots,
	}, nil
}

// Session is the fake board.Session. Recording and streaming are
// tracked with booleans rather than any real device state, matching
// the test fake's job: observable behavior, not hardware fidelity.
type Session struct {
	rate    float64
	script  []ScriptedBurst
	enabled []int

	mu        sync.Mutex
	recording bool
	streaming bool
	bursts    chan board.Burst
	released  bool
	streamers []string
}

func (s *Session) SamplingRate() float64 { return s.rate }

// ChannelIndices truncates the board's fixed 0..N-1 index space to
// len(enabled), mirroring the reference driver's slicing behavior.
func (s *Session) ChannelIndices(enabled []string) []int {
	n := len(enabled)
	if n > len(s.enabled) {
		n = len(s.enabled)
	}

	return append([]int(nil), s.enabled[:n]...)
}

func (s *Session) StartRecording(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recording = true

	return nil
}

func (s *Session) StopRecording(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recording = false

	return nil
}

// StartStream replays the script once, in order, onto a channel
// buffered to hold the whole script; a goroutine feeds it and then
// closes it, so a single scheduler drain can receive every scripted
// burst at once.
func (s *Session) StartStream(ctx context.Context) (<-chan board.Burst, error) {
	s.mu.Lock()
	s.streaming = true
	out := make(chan board.Burst, len(s.script))
	s.bursts = out
	s.mu.Unlock()

	go func() {
		defer close(out)

		for _, b := range s.script {
			select {
			case <-ctx.Done():
				return
			case out <- board.Burst{Channel: b.Channel, Samples: b.Samples}:
			}
		}
	}()

	return out, nil
}

// AddStreamer records uri rather than opening anything real; Streamers
// exposes the recorded list so tests can assert on registration.
func (s *Session) AddStreamer(_ context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streamers = append(s.streamers, uri)

	return nil
}

// Streamers returns the URIs registered via AddStreamer, in order.
func (s *Session) Streamers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.streamers...)
}

func (s *Session) StopStream(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streaming = false

	return nil
}

func (s *Session) Release(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.released = true

	return nil
}

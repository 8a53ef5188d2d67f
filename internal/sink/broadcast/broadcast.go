// Package broadcast implements the fan-out sink that serializes an
// epoch to the control channel's "eeg" envelope and hands it to every
// currently connected client, grounded on the teacher's grounding
// example client-set broadcast loop (Client.send channel, drop on
// full).
package broadcast

import (
	"context"

	"github.com/eegstream/eegstream/internal/errs"
	"github.com/eegstream/eegstream/internal/features"
)

// Envelope is the outbound eeg envelope shape (§4.4): address "eeg",
// data is the epoch's per-channel records in ring order.
type Envelope struct {
	Address string               `json:"address"`
	Data    []features.PerChannel `json:"data"`
}

// Publisher sends an already-built envelope to every connected client;
// implemented by internal/control, kept as a narrow interface here so
// this package never imports the websocket machinery directly.
type Publisher interface {
	PublishEEG(env Envelope)
}

// Sink adapts a Publisher to sink.Sink.
type Sink struct {
	publisher Publisher
}

// New builds a broadcast Sink over publisher.
func New(publisher Publisher) *Sink {
	return &Sink{publisher: publisher}
}

func (s *Sink) Name() string { return "broadcast" }

// Submit builds the eeg envelope and publishes it; disconnected or
// slow clients are handled entirely inside Publisher (per-client send
// queues), so this never blocks regardless of client count.
func (s *Sink) Submit(_ context.Context, batch features.EpochBatch) error {
	if s.publisher == nil {
		return errs.Sink("broadcast", nil)
	}

	s.publisher.PublishEEG(Envelope{Address: "eeg", Data: batch.Channels})

	return nil
}

// Package mqttsink implements the fourth, optional fan-out sink named
// in the "Open question — MQTT sink" design note: the source contains
// commented-out MQTT publishing, wired here behind --mqtt_broker as a
// Sink following the same contract as the other three, changing
// nothing in the core fan-out.
package mqttsink

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/eegstream/eegstream/internal/errs"
	"github.com/eegstream/eegstream/internal/features"
)

// Sink publishes each channel's PerChannel record, independently, to
// eeg/<channel>.
type Sink struct {
	client mqtt.Client
}

// New connects to brokerURL and returns a Sink publishing from it.
func New(brokerURL, clientID string) (*Sink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true)

	c := mqtt.NewClient(opts)

	token := c.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, errs.Sink("mqttsink: connect", token.Error())
	}

	return &Sink{client: c}, nil
}

func (s *Sink) Name() string { return "mqtt" }

// Submit publishes one retained-false message per channel; a publish
// that doesn't complete before ctx's deadline is abandoned, matching
// the fan-out's bounded grace period.
func (s *Sink) Submit(ctx context.Context, batch features.EpochBatch) error {
	for _, pc := range batch.Channels {
		payload, err := json.Marshal(pc)
		if err != nil {
			return errs.Sink(fmt.Sprintf("mqttsink: marshal channel=%s", pc.ChannelName), err)
		}

		topic := fmt.Sprintf("eeg/%s", pc.ChannelName)

		token := s.client.Publish(topic, 0, false, payload)

		select {
		case <-ctx.Done():
			return errs.Sink("mqttsink: publish deadline exceeded", ctx.Err())
		case <-waitDone(token):
		}

		if token.Error() != nil {
			return errs.Sink(fmt.Sprintf("mqttsink: publish channel=%s", pc.ChannelName), token.Error())
		}
	}

	return nil
}

// waitDone adapts a paho Token's synchronous Wait into a channel so
// Submit can select on it alongside ctx.Done.
func waitDone(token mqtt.Token) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		token.Wait()
		close(done)
	}()

	return done
}

// Close disconnects within a short grace window.
func (s *Sink) Close() {
	s.client.Disconnect(250)
}

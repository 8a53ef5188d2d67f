package broadcast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eegstream/eegstream/internal/features"
)

type fakePublisher struct {
	published []Envelope
}

func (f *fakePublisher) PublishEEG(env Envelope) { f.published = append(f.published, env) }

func TestSubmitPublishesTheEEGEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	s := New(pub)

	batch := features.EpochBatch{
		EpochEndMs: 100,
		Channels: []features.PerChannel{
			{ChannelIdx: 0, ChannelName: "Fp1"},
		},
	}

	require.NoError(t, s.Submit(context.Background(), batch))
	require.Len(t, pub.published, 1)
	assert.Equal(t, "eeg", pub.published[0].Address)
	assert.Equal(t, batch.Channels, pub.published[0].Data)
}

func TestSubmitErrorsWithoutAPublisher(t *testing.T) {
	s := New(nil)
	err := s.Submit(context.Background(), features.EpochBatch{})
	assert.Error(t, err)
}

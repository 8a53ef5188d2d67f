package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eegstream/eegstream/internal/board/simulated"
)

type fakeSink struct {
	events []Event
	errors []string
}

func (f *fakeSink) BroadcastEvent(ev Event) { f.events = append(f.events, ev) }
func (f *fakeSink) BroadcastError(msg string) { f.errors = append(f.errors, msg) }

func newController(sink *fakeSink) *Controller {
	driver := &simulated.Driver{
		SamplingRate: 250,
		Script: []simulated.ScriptedBurst{
			{Channel: 0, Samples: make([]float64, 250)},
			{Channel: 1, Samples: make([]float64, 250)},
		},
	}

	cfg := Config{
		BoardID:         1,
		Channels:        []string{"Cz", "Pz"},
		SamplesPerEpoch: 250,
	}

	return New(driver, sink, cfg, nil)
}

func TestStartTransitionsToStreamingAndEmitsConnected(t *testing.T) {
	sink := &fakeSink{}
	c := newController(sink)

	err := c.Start(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Streaming, c.State())
	require.Len(t, sink.events, 1)
	assert.Equal(t, "connected", sink.events[0].Name)
	assert.NotNil(t, c.Ring())
}

func TestStopClearsSessionAndEmitsStopped(t *testing.T) {
	sink := &fakeSink{}
	c := newController(sink)

	require.NoError(t, c.Start(context.Background(), nil))
	require.NoError(t, c.Stop(context.Background()))

	assert.Equal(t, Idle, c.State())
	assert.Nil(t, c.Ring())
	require.Len(t, sink.events, 2)
	assert.Equal(t, "stopped", sink.events[1].Name)
}

func TestStopStartCycleYieldsAFreshRingWithNoLeakedSamples(t *testing.T) {
	sink := &fakeSink{}
	c := newController(sink)

	require.NoError(t, c.Start(context.Background(), nil))
	firstRing := c.Ring()
	firstRing.Push(0, make([]float64, 10))

	require.NoError(t, c.Stop(context.Background()))
	require.NoError(t, c.Start(context.Background(), nil))

	fill := c.Ring().Fill()
	for _, n := range fill {
		assert.Zero(t, n)
	}
}

func TestStartWithChannelOverrideUsesTheOverriddenLabels(t *testing.T) {
	sink := &fakeSink{}
	c := newController(sink)

	require.NoError(t, c.Start(context.Background(), []string{"F3"}))
	assert.Equal(t, []string{"F3"}, c.channels)
}

func TestQuitTerminates(t *testing.T) {
	sink := &fakeSink{}
	c := newController(sink)

	require.NoError(t, c.Start(context.Background(), nil))
	require.NoError(t, c.Quit(context.Background()))

	assert.Equal(t, Terminated, c.State())
}

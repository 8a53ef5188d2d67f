package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eegstream/eegstream/internal/board"
	"github.com/eegstream/eegstream/internal/dsp"
	"github.com/eegstream/eegstream/internal/features"
	"github.com/eegstream/eegstream/internal/ring"
)

type collectingSink struct {
	mu      sync.Mutex
	batches []features.EpochBatch
}

func (c *collectingSink) Submit(batch features.EpochBatch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.batches = append(c.batches, batch)
}

func (c *collectingSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.batches)
}

func TestSchedulerEmitsExactlyOneEpochAfterEnoughBurstsArrive(t *testing.T) {
	const n = 250
	const fs = 250.0

	r := ring.New(n, []int{0}, nil)
	bursts := make(chan board.Burst, 16)

	// Burst absorption scenario: the non-empty bursts of the tick pattern
	// (120+120+121 = 361 samples) are queued up front and drained on the
	// first tick; 361 samples make exactly one epoch of n = 250.
	counts := []int{0, 0, 120, 0, 0, 120, 0, 0, 121}
	for _, c := range counts {
		if c == 0 {
			continue
		}

		bursts <- board.Burst{Channel: 0, Samples: make([]float64, c)}
	}
	close(bursts)

	sink := &collectingSink{}
	sch := New(sink, nil)

	src := &Source{
		Bursts:          bursts,
		Ring:            r,
		Order:           []features.Channel{{Index: 0, Name: "Fp1"}},
		Chain:           dsp.NewChain(fs, nil),
		Rate:            fs,
		SamplesPerEpoch: n,
	}

	sch.SetSource(src)

	// The loop ticks every N/F = 250/250 = 1 s once the source is set.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	go sch.Run(ctx)

	require.Eventually(t, func() bool { return sink.count() >= 1 }, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, sink.count())
}

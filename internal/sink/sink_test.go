package sink

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eegstream/eegstream/internal/features"
)

type recordingSink struct {
	name string

	mu    sync.Mutex
	seen  []int64
	delay time.Duration
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Submit(ctx context.Context, batch features.EpochBatch) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	r.seen = append(r.seen, batch.EpochEndMs)
	r.mu.Unlock()

	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.seen)
}

func TestFanOutDeliversToEverySink(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}

	f := New([]Sink{a, b}, nil)
	defer f.Close()

	f.Submit(features.EpochBatch{EpochEndMs: 1})

	require.Eventually(t, func() bool { return a.count() == 1 && b.count() == 1 }, time.Second, time.Millisecond)
}

func TestFanOutDropsNewestWhenQueueIsFull(t *testing.T) {
	slow := &recordingSink{name: "slow", delay: 200 * time.Millisecond}

	f := NewWithGrace([]Sink{slow}, 50*time.Millisecond, nil)
	defer f.Close()

	// Flood well past queueDepth; the extra submissions must be dropped,
	// not block this goroutine.
	done := make(chan struct{})

	go func() {
		for i := 0; i < queueDepth+10; i++ {
			f.Submit(features.EpochBatch{EpochEndMs: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked past the queue bound")
	}
}

func TestFanOutOneSinkFailureDoesNotAffectOthers(t *testing.T) {
	good := &recordingSink{name: "good"}
	failing := sinkFunc{name: "failing", err: assertErr}

	f := New([]Sink{good, failing}, nil)
	defer f.Close()

	f.Submit(features.EpochBatch{EpochEndMs: 5})

	require.Eventually(t, func() bool { return good.count() == 1 }, time.Second, time.Millisecond)
}

var assertErr = assert.AnError

type sinkFunc struct {
	name string
	err  error
}

func (s sinkFunc) Name() string { return s.name }
func (s sinkFunc) Submit(context.Context, features.EpochBatch) error { return s.err }

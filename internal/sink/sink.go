// Package sink implements the epoch fan-out: independent, best-effort
// delivery of each completed EpochBatch to every registered Sink, none
// of which may ever block the acquisition loop. Generalized from the
// teacher's per-client buffered "send" channel plus "select default:
// drop" pattern (seen in the control-channel broadcast grounding
// example) to an arbitrary N-sink fan-out with a bounded grace period
// per submission.
package sink

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/eegstream/eegstream/internal/features"
)

// Sink accepts one epoch's worth of per-channel features. Submit gets a
// ctx carrying the FanOut's grace deadline. The FanOut waits for Submit
// to return before handing that sink its next batch and does not
// abandon a Submit that outlives the deadline: a Sink that ignores ctx
// delays its own queue (other sinks are unaffected).
type Sink interface {
	Name() string
	Submit(ctx context.Context, batch features.EpochBatch) error
}

// queueDepth bounds each sink's internal backlog; a full queue drops
// the newest batch with a logged warning rather than blocking the
// scheduler (§5 backpressure contract).
const queueDepth = 4

// defaultGrace is the deadline set on the ctx passed to each sink
// submission.
const defaultGrace = time.Second

// FanOut drives one goroutine per registered sink, each with its own
// bounded drop-newest queue.
type FanOut struct {
	grace time.Duration
	log   *log.Logger

	workers []*worker
}

type worker struct {
	sink  Sink
	queue chan features.EpochBatch
}

// New builds a FanOut over sinks with the default grace period.
func New(sinks []Sink, logger *log.Logger) *FanOut {
	return NewWithGrace(sinks, defaultGrace, logger)
}

// NewWithGrace builds a FanOut with an explicit per-submission grace
// period, starting one worker goroutine per sink.
func NewWithGrace(sinks []Sink, grace time.Duration, logger *log.Logger) *FanOut {
	f := &FanOut{grace: grace, log: logger}

	for _, s := range sinks {
		w := &worker{sink: s, queue: make(chan features.EpochBatch, queueDepth)}
		f.workers = append(f.workers, w)

		go f.run(w)
	}

	return f
}

// Submit enqueues batch onto every sink's queue, non-blockingly; a
// full queue drops the batch for that sink with a logged warning. This
// never blocks the caller, per the scheduler's never-block contract.
func (f *FanOut) Submit(batch features.EpochBatch) {
	for _, w := range f.workers {
		select {
		case w.queue <- batch:
		default:
			if f.log != nil {
				f.log.Warn("sink queue full, dropping epoch", "sink", w.sink.Name(), "epochEndMs", batch.EpochEndMs)
			}
		}
	}
}

// run drains one worker's queue, submitting each batch with a bounded
// grace deadline; a slow or failing sink never stops the others.
func (f *FanOut) run(w *worker) {
	for batch := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), f.grace)

		err := w.sink.Submit(ctx, batch)

		cancel()

		if err != nil && f.log != nil {
			f.log.Warn("sink submission failed", "sink", w.sink.Name(), "err", err)
		}
	}
}

// Close stops accepting new submissions for every worker; in-flight
// submissions are allowed to finish within their own grace deadline,
// matching the scheduler's bounded shutdown grace period.
func (f *FanOut) Close() {
	for _, w := range f.workers {
		close(w.queue)
	}
}

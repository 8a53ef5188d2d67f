// Package scheduler implements the Epoch Scheduler: a single
// cooperative goroutine that sleeps N/F seconds, drains the driver
// non-blockingly, feeds the Ring, runs the DSP chain once an epoch is
// ready and hands the result to fan-out. Generalized from the
// teacher's single-goroutine "for { sleep; poll; } " cooperative loops
// (src/appserver.go's AppServerMain, src/server.go's accept loop) by
// replacing the fixed sleep with N/F and the manual retry with a
// select-based done channel.
package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/eegstream/eegstream/internal/board"
	"github.com/eegstream/eegstream/internal/dsp"
	"github.com/eegstream/eegstream/internal/features"
	"github.com/eegstream/eegstream/internal/ring"
)

// EpochSink receives each completed epoch batch; internal/sink.FanOut
// satisfies this via its non-blocking Submit.
type EpochSink interface {
	Submit(batch features.EpochBatch)
}

// Source supplies everything the scheduler needs from the currently
// STREAMING session: the burst channel, the ring to feed, the channel
// order to emit in and the DSP chain built for this session's rate.
type Source struct {
	Bursts          <-chan board.Burst
	Ring            *ring.Ring
	Order           []features.Channel
	Chain           *dsp.Chain
	Rate            float64
	SamplesPerEpoch int
}

// Scheduler runs the single cooperative loop. It is inert (does
// nothing) when no Source is active, so the event loop can run
// continuously across stop/start cycles without being torn down.
type Scheduler struct {
	sink EpochSink
	log  *log.Logger

	sourceCh chan *Source
	done     chan struct{}
}

// New builds a Scheduler publishing completed epochs to sink.
func New(sink EpochSink, logger *log.Logger) *Scheduler {
	return &Scheduler{
		sink:     sink,
		log:      logger,
		sourceCh: make(chan *Source, 1),
		done:     make(chan struct{}),
	}
}

// SetSource installs (or clears, with nil) the active session's
// Source. Safe to call from any goroutine; takes effect at the next
// loop iteration. Called only on start/stop, so the drain-then-send
// retry loop below never spins under real load.
func (s *Scheduler) SetSource(src *Source) {
	for {
		select {
		case s.sourceCh <- src:
			return
		default:
			select {
			case <-s.sourceCh:
			default:
			}
		}
	}
}

// Stop signals the loop to exit after the current epoch completes.
func (s *Scheduler) Stop() { close(s.done) }

// Run executes the loop until Stop is called or ctx is done. It blocks
// the calling goroutine; callers start it with `go s.Run(ctx)`.
func (s *Scheduler) Run(ctx context.Context) {
	var src *Source

	period := 20 * time.Millisecond // idle poll period while no session is active

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case next := <-s.sourceCh:
			src = next

			ticker.Stop()
			ticker = time.NewTicker(s.tickPeriod(src))
		case <-ticker.C:
			if src == nil {
				continue
			}

			s.drain(src)
			s.tryEmit(src)
		}
	}
}

func (s *Scheduler) tickPeriod(src *Source) time.Duration {
	if src == nil || src.Rate <= 0 {
		return 20 * time.Millisecond
	}

	seconds := float64(src.SamplesPerEpoch) / src.Rate

	return time.Duration(seconds * float64(time.Second))
}

// drain non-blockingly pulls every currently-available burst from the
// driver and routes it into the ring.
func (s *Scheduler) drain(src *Source) {
	for {
		select {
		case b, ok := <-src.Bursts:
			if !ok {
				return
			}

			src.Ring.Push(b.Channel, b.Samples)
		default:
			return
		}
	}
}

// tryEmit takes one epoch if the ring is ready, runs the DSP chain and
// submits the batch; otherwise logs current fill levels at debug
// level, per step 5 of the scheduler contract.
func (s *Scheduler) tryEmit(src *Source) {
	if !src.Ring.Ready() {
		if s.log != nil {
			s.log.Debug("epoch not ready", "fill", src.Ring.Fill())
		}

		return
	}

	samples, err := src.Ring.Take()
	if err != nil {
		return // raced with another Take; next tick will retry
	}

	epochEndMs := time.Now().UnixMilli()

	batch := dsp.RunEpoch(src.Chain, src.Order, samples, epochEndMs)

	s.sink.Submit(batch)
}

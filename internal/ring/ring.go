// Package ring implements the per-channel sample ring that absorbs the
// bursty arrival pattern of the acquisition driver and yields aligned,
// fixed-length epochs. Push and Take run on the scheduler's goroutine,
// while Reset runs on whichever goroutine stops the session, so the
// whole ring is guarded by one mutex — the
// same single-critical-region shape as the teacher's dwgps_info_t
// (src/dwgps.go), generalized from one struct to a map of channel
// buffers that must advance atomically together.
package ring

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrNotReady is returned by Take when not every enabled channel has at
// least N buffered samples yet.
var ErrNotReady = fmt.Errorf("ring: not ready")

// capacityMultiple bounds per-channel buffer capacity at capacityMultiple*N,
// per the backpressure contract: drop the oldest samples, with a logged
// warning, once downstream can no longer keep up.
const capacityMultiple = 20

// Ring is a fixed set of per-channel FIFOs, all sharing the same epoch
// length N.
type Ring struct {
	mu       sync.Mutex
	n        int
	channels map[int][]float64
	order    []int
	log      *log.Logger
}

// New builds a Ring for the given epoch length N and the given set of
// enabled channel indices (order is preserved for Take's output).
func New(n int, channelIdx []int, logger *log.Logger) *Ring {
	r := &Ring{
		n:        n,
		channels: make(map[int][]float64, len(channelIdx)),
		order:    append([]int(nil), channelIdx...),
		log:      logger,
	}

	for _, idx := range channelIdx {
		r.channels[idx] = nil
	}

	return r
}

// Push appends samples to channel's tail. Capacity is capped at 20*N;
// on overflow the oldest samples are dropped with a logged warning,
// since downstream is then too slow to keep up.
func (r *Ring) Push(channel int, samples []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.channels[channel]
	if !ok {
		return // channel not enabled for this session
	}

	buf = append(buf, samples...)

	capLimit := capacityMultiple * r.n
	if len(buf) > capLimit {
		drop := len(buf) - capLimit
		buf = buf[drop:]

		if r.log != nil {
			r.log.Warn("ring overflow, dropping oldest samples", "channel", channel, "dropped", drop)
		}
	}

	r.channels[channel] = buf
}

// Ready reports whether every enabled channel has at least N buffered
// samples.
func (r *Ring) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.readyLocked()
}

func (r *Ring) readyLocked() bool {
	for _, idx := range r.order {
		if len(r.channels[idx]) < r.n {
			return false
		}
	}

	return true
}

// Fill returns the current buffered sample count per channel, for
// debug logging when Ready is false.
func (r *Ring) Fill() map[int]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[int]int, len(r.channels))
	for idx, buf := range r.channels {
		out[idx] = len(buf)
	}

	return out
}

// Take removes exactly N samples from the front of every enabled
// channel, atomically: either every channel advances or none do.
func (r *Ring) Take() (map[int][]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.readyLocked() {
		return nil, ErrNotReady
	}

	out := make(map[int][]float64, len(r.order))

	for _, idx := range r.order {
		buf := r.channels[idx]
		epoch := append([]float64(nil), buf[:r.n]...)
		out[idx] = epoch
		r.channels[idx] = buf[r.n:]
	}

	return out, nil
}

// Reset clears every channel's buffered samples, used on session
// stop/start so no samples from a prior session leak into the next.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for idx := range r.channels {
		r.channels[idx] = nil
	}
}

// Channels returns the enabled channel indices in the order Take emits
// them.
func (r *Ring) Channels() []int {
	return append([]int(nil), r.order...)
}

package board

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Trigger drives a single GPIO output line, pulsed once per lifecycle
// transition, so an external stimulus-presentation rig can align its
// own clock to "recording started"/"recording stopped" without a
// second control-channel connection. Optional: a zero-value chip name
// leaves the Trigger inert. Generalizes the teacher's single-pin PTT
// keying (src/ptt.go's one GPIO line driven high/low around
// transmission) from "key the radio" to "mark the recording".
type Trigger struct {
	line *gpiocdev.Line
}

// OpenTrigger requests offset on chip as an output line, initially low.
// chip is a device name like "gpiochip0"; an empty chip returns a
// Trigger whose Pulse is a no-op.
func OpenTrigger(chip string, offset int) (*Trigger, error) {
	if chip == "" {
		return &Trigger{}, nil
	}

	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("board: request gpio line %s:%d: %w", chip, offset, err)
	}

	return &Trigger{line: line}, nil
}

// Pulse drives the line high then immediately low; a no-op Trigger
// does nothing. Errors are returned so the caller can log them without
// interrupting the lifecycle transition that triggered the pulse.
func (t *Trigger) Pulse() error {
	if t.line == nil {
		return nil
	}

	if err := t.line.SetValue(1); err != nil {
		return fmt.Errorf("board: trigger set high: %w", err)
	}

	if err := t.line.SetValue(0); err != nil {
		return fmt.Errorf("board: trigger set low: %w", err)
	}

	return nil
}

// Close releases the underlying GPIO line, if one was requested.
func (t *Trigger) Close() error {
	if t.line == nil {
		return nil
	}

	return t.line.Close()
}

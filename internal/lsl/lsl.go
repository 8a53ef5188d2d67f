// Package lsl is the Lab Streaming Layer outlet boundary: publishing
// epochs onto an LSL outlet is an external, optional transport (the
// --lsl flag) specified only at this interface boundary, the same
// "vendor SDK lives outside this module" shape as board.Driver.
package lsl

import "fmt"

// Streamer publishes onto an LSL outlet once Open has been called.
type Streamer interface {
	Open() error
	Close() error
}

// Unimplemented is a Streamer placeholder for a real LSL outlet
// binding (e.g. via liblsl's cgo bindings). Open always fails so
// --lsl is a visible, logged no-op rather than a silently dead flag,
// until a real Streamer is wired in its place.
type Unimplemented struct{}

func (Unimplemented) Open() error {
	return fmt.Errorf("lsl: no outlet binding configured (wire a real lsl.Streamer)")
}

func (Unimplemented) Close() error { return nil }

package board

import (
	"context"
	"fmt"
)

// Unimplemented is a board.Driver placeholder for the production
// acquisition SDK, which is an external collaborator specified only at
// this interface boundary (see board.Driver/board.Session). Wiring a
// real vendor SDK means implementing Driver against it and passing
// that implementation to lifecycle.New instead of this one.
type Unimplemented struct{}

func (Unimplemented) Open(context.Context, Params) (Session, error) {
	return nil, fmt.Errorf("board: no acquisition driver configured (wire a real board.Driver)")
}

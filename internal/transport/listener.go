package transport

import (
	"errors"
	"fmt"

	"context"
)

// Listener runs a single Conn's receive loop until ctx is cancelled or the
// Conn is closed, delivering each frame to onFrame. Grounded on the
// teacher's netio.Listener.Recv loop, generalized from one blocking call
// per caller into a self-driving pump so a Hub can run many of them
// concurrently.
type Listener struct {
	conn Conn
}

// NewListener wraps conn in a Listener.
func NewListener(conn Conn) *Listener {
	return &Listener{conn: conn}
}

// Run blocks, delivering frames to onFrame, until ctx is cancelled or the
// underlying Conn reports itself closed. Both are treated as a clean
// shutdown; any other error is returned.
func (l *Listener) Run(ctx context.Context, onFrame func(Frame)) error {
	for {
		f, err := l.conn.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrSocketClosed) {
				return nil
			}
			return fmt.Errorf("listener recv on %s: %w", l.conn.IfName(), err)
		}
		onFrame(f)
	}
}

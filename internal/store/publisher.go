package store

import (
	"context"
	"errors"

	"github.com/vlanspan/pvstd/internal/stp"
)

// ErrPathRequired is returned by OpenBoltPublisher when no database path
// is configured.
var ErrPathRequired = errors.New("store: database path required")

// Publisher is the external state-publication collaborator (spec §6.3):
// called once per dirty instance or port record the engine flushes.
// Unlike stp.Publisher, which the engine calls synchronously from inside
// its single dispatch goroutine and which cannot fail, this interface
// carries a context and an error return for implementations that leave
// the process (a database write, a network call).
type Publisher interface {
	Publish(ctx context.Context, rec stp.PublishedRecord) error
}

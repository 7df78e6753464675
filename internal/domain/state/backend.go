package state

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

// ErrNotFound is returned by a Backend when no entry exists for an id
var ErrNotFound = errors.New("state entry not found")

// Backend stores entries durably. Implementations must be safe for
// concurrent use.
type Backend interface {
	Name() string
	Put(ctx context.Context, id string, entry types.StateEntry) error
	Get(ctx context.Context, id string) (types.StateEntry, error)
	// Delete succeeds when the entry does not exist
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

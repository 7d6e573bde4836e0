package state

import (
	"context"

	"github.com/cbodonnell/tabletop/pkg/messages"
)

// StateManager provides shared access to the published room directory.
// Implementations must be thread-safe: the game loop writes it and the
// HTTP API reads it.
type StateManager interface {
	// Get returns a copy of the current room directory.
	Get(ctx context.Context) ([]messages.RoomInfo, error)
	// Set replaces the current room directory.
	Set(ctx context.Context, rooms []messages.RoomInfo) error
}

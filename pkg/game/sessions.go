package game

import "github.com/google/uuid"

// NewSessionID mints the opaque token that binds a player to a seat
// across reconnects. The token is shared between the server and one
// client and never appears in broadcasts.
func NewSessionID() string {
	return uuid.NewString()
}

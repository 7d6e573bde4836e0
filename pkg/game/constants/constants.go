package constants

import "time"

const (
	// MaxSeats is the number of seats at a table
	MaxSeats int = 4
	// MinSeatsToStart is the fewest occupied seats a game can start with
	MinSeatsToStart int = 2

	// RoomIDLength is the length of generated room identifiers
	RoomIDLength int = 6
	// RoomIDCharset is the alphabet room identifiers are drawn from
	RoomIDCharset string = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultRoomTTL is how long a room lives, measured from creation,
	// before the sweeper force-closes it
	DefaultRoomTTL time.Duration = 6 * time.Hour
	// DefaultSweepInterval is how often the sweeper checks room ages
	DefaultSweepInterval time.Duration = 1 * time.Minute
	// DefaultLoopInterval is the tick interval of the game loop
	DefaultLoopInterval time.Duration = 50 * time.Millisecond
)

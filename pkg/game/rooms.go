package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/cbodonnell/tabletop/pkg/game/constants"
	"github.com/cbodonnell/tabletop/pkg/rules"
)

const (
	// RoomIDMaxRetries represents the maximum number of retries when generating a room ID
	RoomIDMaxRetries = 1024
)

// Seat represents one of the fixed seats at a room's table.
// A seat survives its occupant disconnecting once the game has started:
// Occupied stays true, Connected flips false, and SessionID keeps the
// token that allows the player to reclaim the seat.
type Seat struct {
	Occupied  bool
	Name      string
	SessionID string
	ClientID  uint32
	Connected bool
	Ready     bool
}

// Spectator represents a connected client watching a room without
// holding a seat.
type Spectator struct {
	ClientID uint32
	Name     string
}

// Room represents a game room with a fixed number of seats and any
// number of spectators. Rooms are only ever touched from the game loop
// goroutine.
type Room struct {
	ID          string
	Name        string
	HostSession string
	HotSeat     bool
	Started     bool
	Seats       [constants.MaxSeats]Seat
	Spectators  []Spectator

	State   rules.State
	Version int64

	CreatedAt time.Time
}

// SeatBySession returns the index of the seat bound to the given session
// token, or -1 if no seat is bound to it.
func (r *Room) SeatBySession(sessionID string) int {
	if sessionID == "" {
		return -1
	}
	for i := range r.Seats {
		if r.Seats[i].Occupied && r.Seats[i].SessionID == sessionID {
			return i
		}
	}
	return -1
}

// SeatByClient returns the index of the seat held by the given client,
// or -1 if the client holds no seat.
func (r *Room) SeatByClient(clientID uint32) int {
	if clientID == 0 {
		return -1
	}
	for i := range r.Seats {
		if r.Seats[i].Occupied && r.Seats[i].ClientID == clientID {
			return i
		}
	}
	return -1
}

// FirstEmptySeat returns the index of the lowest unoccupied seat, or -1
// if the table is full.
func (r *Room) FirstEmptySeat() int {
	for i := range r.Seats {
		if !r.Seats[i].Occupied {
			return i
		}
	}
	return -1
}

// SeatedCount returns the number of occupied seats.
func (r *Room) SeatedCount() int {
	count := 0
	for i := range r.Seats {
		if r.Seats[i].Occupied {
			count++
		}
	}
	return count
}

// ConnectedCount returns the number of connected clients in the room,
// spectators included.
func (r *Room) ConnectedCount() int {
	count := len(r.Spectators)
	for i := range r.Seats {
		if r.Seats[i].Occupied && r.Seats[i].Connected {
			count++
		}
	}
	return count
}

// AllReady returns whether every occupied seat has readied up.
func (r *Room) AllReady() bool {
	seated := 0
	for i := range r.Seats {
		if !r.Seats[i].Occupied {
			continue
		}
		seated++
		if !r.Seats[i].Ready {
			return false
		}
	}
	return seated > 0
}

// IsSpectator returns whether the given client is spectating the room.
func (r *Room) IsSpectator(clientID uint32) bool {
	for _, spectator := range r.Spectators {
		if spectator.ClientID == clientID {
			return true
		}
	}
	return false
}

// AddSpectator adds a client to the room's spectator list.
func (r *Room) AddSpectator(clientID uint32, name string) {
	if r.IsSpectator(clientID) {
		return
	}
	r.Spectators = append(r.Spectators, Spectator{ClientID: clientID, Name: name})
}

// RemoveSpectator removes a client from the room's spectator list.
func (r *Room) RemoveSpectator(clientID uint32) {
	for i, spectator := range r.Spectators {
		if spectator.ClientID == clientID {
			r.Spectators = append(r.Spectators[:i], r.Spectators[i+1:]...)
			return
		}
	}
}

// RoomRegistry holds all live rooms. It is only ever touched from the
// game loop goroutine, so it does not lock.
type RoomRegistry struct {
	rooms map[string]*Room
}

// NewRoomRegistry creates a new RoomRegistry
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*Room),
	}
}

// Get returns the room with the given ID
func (r *RoomRegistry) Get(roomID string) (*Room, bool) {
	room, ok := r.rooms[roomID]
	return room, ok
}

// Add adds a room to the registry
func (r *RoomRegistry) Add(room *Room) {
	r.rooms[room.ID] = room
}

// Remove removes the room with the given ID from the registry
func (r *RoomRegistry) Remove(roomID string) {
	delete(r.rooms, roomID)
}

// Len returns the number of live rooms
func (r *RoomRegistry) Len() int {
	return len(r.rooms)
}

// All returns all live rooms ordered by creation time
func (r *RoomRegistry) All() []*Room {
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms
}

// GenerateRoomID generates a room ID that is not already in use with a
// maximum number of retries
func (r *RoomRegistry) GenerateRoomID(maxRetries int) (string, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id, err := randomRoomID()
		if err != nil {
			return "", fmt.Errorf("failed to generate a room ID: %v", err)
		}
		if _, ok := r.rooms[id]; !ok {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a room ID after %d attempts", maxRetries)
}

func randomRoomID() (string, error) {
	charsetLen := big.NewInt(int64(len(constants.RoomIDCharset)))
	id := make([]byte, constants.RoomIDLength)
	for i := range id {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		id[i] = constants.RoomIDCharset[n.Int64()]
	}
	return string(id), nil
}

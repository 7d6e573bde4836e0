package game

import (
	"github.com/cbodonnell/tabletop/pkg/messages"
)

// ServerRoomFromRoom builds the roster payload broadcast to a room's
// members. The Clients slice always has the room's full seat capacity;
// empty seats are nil.
func ServerRoomFromRoom(room *Room) *messages.ServerRoom {
	seats := make([]*messages.SeatInfo, len(room.Seats))
	ready := make([]bool, len(room.Seats))
	for i := range room.Seats {
		if !room.Seats[i].Occupied {
			continue
		}
		seats[i] = &messages.SeatInfo{
			Name:      room.Seats[i].Name,
			ClientID:  room.Seats[i].ClientID,
			Connected: room.Seats[i].Connected,
		}
		ready[i] = room.Seats[i].Ready
	}

	spectators := make([]string, 0, len(room.Spectators))
	for _, spectator := range room.Spectators {
		spectators = append(spectators, spectator.Name)
	}

	return &messages.ServerRoom{
		RoomID:     room.ID,
		Name:       room.Name,
		Host:       room.HostName(),
		Started:    room.Started,
		Clients:    seats,
		Spectators: spectators,
		Ready:      ready,
	}
}

// RoomInfoFromRoom builds the directory entry for a room.
func RoomInfoFromRoom(room *Room) messages.RoomInfo {
	return messages.RoomInfo{
		RoomID:     room.ID,
		Name:       room.Name,
		Players:    room.SeatedCount(),
		MaxPlayers: len(room.Seats),
		Spectators: len(room.Spectators),
		Started:    room.Started,
	}
}

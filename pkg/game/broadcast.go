package game

import (
	"context"
	"sort"

	"github.com/cbodonnell/tabletop/pkg/log"
	"github.com/cbodonnell/tabletop/pkg/messages"
)

// send marshals a payload and queues it for delivery to one client.
func (gm *GameManager) send(clientID uint32, msgType string, payload interface{}) {
	msg, err := messages.NewServerMessage(msgType, payload)
	if err != nil {
		log.Error("Failed to create %s message: %v", msgType, err)
		return
	}
	if err := gm.clientManager.Send(clientID, msg); err != nil {
		log.Error("Failed to send %s message to client %d: %v", msgType, clientID, err)
	}
}

func (gm *GameManager) sendError(clientID uint32, errMessage string) {
	gm.send(clientID, messages.MessageTypeServerError, messages.ServerError{Message: errMessage})
}

func (gm *GameManager) sendRoomNotFound(clientID uint32, roomID string) {
	gm.send(clientID, messages.MessageTypeServerRoomNotFound, messages.ServerRoomNotFound{RoomID: roomID})
}

func (gm *GameManager) sendState(clientID uint32, room *Room) {
	gm.send(clientID, messages.MessageTypeServerState, messages.ServerState{
		RoomID:  room.ID,
		Version: room.Version,
		State:   room.State,
	})
}

// sendRejected refuses an action. When the room has a game state the
// rejection is followed by a snapshot so the client can resync.
func (gm *GameManager) sendRejected(clientID uint32, room *Room, reason string) {
	gm.send(clientID, messages.MessageTypeServerRejected, messages.ServerRejected{
		RoomID: room.ID,
		Reason: reason,
	})
	if room.State != nil {
		gm.sendState(clientID, room)
	}
}

func (gm *GameManager) sendWelcome(clientID uint32, room *Room, seatIndex int, spectator bool, name, sessionID string) {
	welcome := messages.ServerWelcome{
		RoomID:    room.ID,
		ClientID:  clientID,
		Name:      name,
		Spectator: spectator,
		SessionID: sessionID,
	}
	if !spectator {
		welcome.PlayerIndex = &seatIndex
	}
	gm.send(clientID, messages.MessageTypeServerWelcome, welcome)
}

func (gm *GameManager) sendRoom(clientID uint32, room *Room) {
	gm.send(clientID, messages.MessageTypeServerRoom, ServerRoomFromRoom(room))
}

// roomResidents returns the IDs of every connected client in a room,
// spectators included.
func (gm *GameManager) roomResidents(room *Room) []uint32 {
	residents := make([]uint32, 0, len(room.Seats)+len(room.Spectators))
	for i := range room.Seats {
		if room.Seats[i].Occupied && room.Seats[i].Connected && room.Seats[i].ClientID != 0 {
			residents = append(residents, room.Seats[i].ClientID)
		}
	}
	for _, spectator := range room.Spectators {
		residents = append(residents, spectator.ClientID)
	}
	return residents
}

// broadcastRoom sends the room roster to everyone in the room.
func (gm *GameManager) broadcastRoom(room *Room) {
	msg, err := messages.NewServerMessage(messages.MessageTypeServerRoom, ServerRoomFromRoom(room))
	if err != nil {
		log.Error("Failed to create ROOM message: %v", err)
		return
	}
	for _, clientID := range gm.roomResidents(room) {
		if err := gm.clientManager.Send(clientID, msg); err != nil {
			log.Error("Failed to send ROOM message to client %d: %v", clientID, err)
		}
	}
}

// broadcastState sends the current game state to everyone in the room.
// Only called after the state value has been replaced, so clients never
// receive two snapshots of the same version.
func (gm *GameManager) broadcastState(room *Room) {
	msg, err := messages.NewServerMessage(messages.MessageTypeServerState, messages.ServerState{
		RoomID:  room.ID,
		Version: room.Version,
		State:   room.State,
	})
	if err != nil {
		log.Error("Failed to create STATE message: %v", err)
		return
	}
	for _, clientID := range gm.roomResidents(room) {
		if err := gm.clientManager.Send(clientID, msg); err != nil {
			log.Error("Failed to send STATE message to client %d: %v", clientID, err)
		}
	}
}

// broadcastLobbyList sends the room directory to every client that is
// not in a room. The payload is personalized with the recipient's ID.
func (gm *GameManager) broadcastLobbyList() {
	rooms := gm.rooms.All()
	infos := make([]messages.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, RoomInfoFromRoom(room))
	}

	var lobby []*clientInfo
	for _, client := range gm.clients {
		if client.RoomID == "" {
			lobby = append(lobby, client)
		}
	}
	sort.Slice(lobby, func(i, j int) bool { return lobby[i].ID < lobby[j].ID })

	users := make([]messages.UserInfo, 0, len(lobby))
	for _, client := range lobby {
		users = append(users, messages.UserInfo{ClientID: client.ID, Name: client.Name})
	}

	for _, client := range lobby {
		gm.send(client.ID, messages.MessageTypeServerRoomList, messages.ServerRoomList{
			Rooms:        infos,
			Users:        users,
			YourClientID: client.ID,
		})
	}
}

// publishRoomIndex makes the room directory available to the HTTP API.
func (gm *GameManager) publishRoomIndex() {
	rooms := gm.rooms.All()
	infos := make([]messages.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, RoomInfoFromRoom(room))
	}
	if err := gm.roomIndex.Set(context.Background(), infos); err != nil {
		log.Error("Failed to publish room index: %v", err)
	}
}

// syncLobby refreshes everything that reflects the set of rooms: the
// published index and the lobby roster broadcast.
func (gm *GameManager) syncLobby() {
	gm.publishRoomIndex()
	gm.broadcastLobbyList()
}

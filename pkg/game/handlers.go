package game

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cbodonnell/tabletop/pkg/game/constants"
	"github.com/cbodonnell/tabletop/pkg/log"
	"github.com/cbodonnell/tabletop/pkg/messages"
	"github.com/cbodonnell/tabletop/pkg/rules"
)

// displayName picks the name a client acts under: the one in the
// payload, falling back to the name it identified with earlier.
func displayName(requested, existing string) string {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = existing
	}
	if name == "" {
		name = "player"
	}
	return name
}

// roomForMessage resolves the room a message names. Naming a room the
// client is not in is a protocol fault and is answered with an ERROR.
func (gm *GameManager) roomForMessage(client *clientInfo, roomID string) (*Room, bool) {
	if client.RoomID == "" || roomID != client.RoomID {
		log.Debug("Client %d referenced room %q while in room %q", client.ID, roomID, client.RoomID)
		gm.sendError(client.ID, fmt.Sprintf("not in room %s", roomID))
		return nil, false
	}
	room, ok := gm.rooms.Get(client.RoomID)
	if !ok {
		client.RoomID = ""
		gm.sendError(client.ID, fmt.Sprintf("not in room %s", roomID))
		return nil, false
	}
	return room, true
}

func (gm *GameManager) handleJoin(client *clientInfo, message *messages.Message) {
	clientJoin := &messages.ClientJoin{}
	if err := json.Unmarshal(message.Payload, clientJoin); err != nil {
		log.Error("Failed to unmarshal join payload from client %d: %v", client.ID, err)
		gm.sendError(client.ID, "malformed JOIN payload")
		return
	}

	if client.RoomID != "" && client.RoomID != clientJoin.RoomID {
		gm.sendError(client.ID, fmt.Sprintf("already in room %s", client.RoomID))
		return
	}

	room, ok := gm.rooms.Get(clientJoin.RoomID)
	if !ok {
		client.RoomID = ""
		gm.sendRoomNotFound(client.ID, clientJoin.RoomID)
		return
	}

	if client.RoomID == room.ID {
		// a repeated JOIN is answered like the first
		seatIndex := room.SeatByClient(client.ID)
		gm.sendWelcome(client.ID, room, seatIndex, seatIndex < 0, client.Name, client.SessionID)
		gm.sendRoom(client.ID, room)
		if room.Started {
			gm.sendState(client.ID, room)
		}
		return
	}

	name := displayName(clientJoin.Name, client.Name)
	sessionID := clientJoin.SessionID
	if sessionID == "" {
		sessionID = NewSessionID()
	} else if strings.TrimSpace(clientJoin.Name) == "" && room.SeatBySession(sessionID) >= 0 {
		// a reclaim without a name keeps the one stored on the seat
		name = ""
	}

	seatIndex, spectator, superseded := room.AssignSeat(client.ID, name, sessionID)
	if superseded != 0 {
		// the seat's session arrived on a new connection before the old
		// one's disconnect was processed
		log.Warn("Client %d superseded client %d on seat %d of room %s", client.ID, superseded, seatIndex, room.ID)
		if stale, ok := gm.clients[superseded]; ok {
			stale.RoomID = ""
		}
	}
	if spectator {
		room.AddSpectator(client.ID, name)
		log.Debug("Client %d joined room %s as a spectator", client.ID, room.ID)
	} else {
		// a reclaim keeps the name stored on the seat
		name = room.Seats[seatIndex].Name
		log.Debug("Client %d joined room %s in seat %d", client.ID, room.ID, seatIndex)
	}

	client.Name = name
	client.RoomID = room.ID
	client.SessionID = sessionID

	gm.sendWelcome(client.ID, room, seatIndex, spectator, name, sessionID)
	gm.broadcastRoom(room)
	if room.Started {
		gm.sendState(client.ID, room)
	}
	gm.syncLobby()
}

func (gm *GameManager) handleCreateGame(client *clientInfo, message *messages.Message, now time.Time) {
	clientCreateGame := &messages.ClientCreateGame{}
	if err := json.Unmarshal(message.Payload, clientCreateGame); err != nil {
		log.Error("Failed to unmarshal create game payload from client %d: %v", client.ID, err)
		gm.sendError(client.ID, "malformed CREATE_GAME payload")
		return
	}

	if client.RoomID != "" {
		gm.sendError(client.ID, fmt.Sprintf("already in room %s", client.RoomID))
		return
	}

	roomID, err := gm.rooms.GenerateRoomID(RoomIDMaxRetries)
	if err != nil {
		log.Error("Failed to create room for client %d: %v", client.ID, err)
		gm.sendError(client.ID, "failed to create room")
		return
	}

	name := displayName(clientCreateGame.Name, client.Name)
	sessionID := clientCreateGame.SessionID
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	room := &Room{
		ID:          roomID,
		Name:        fmt.Sprintf("%s's game", name),
		HostSession: sessionID,
		HotSeat:     clientCreateGame.HotSeat,
		CreatedAt:   now,
	}
	room.Seats[0] = Seat{
		Occupied:  true,
		Name:      name,
		SessionID: sessionID,
		ClientID:  client.ID,
		Connected: true,
	}
	gm.rooms.Add(room)

	client.Name = name
	client.RoomID = room.ID
	client.SessionID = sessionID

	log.Info("Client %d created room %s", client.ID, room.ID)
	gm.sendWelcome(client.ID, room, 0, false, name, sessionID)
	gm.broadcastRoom(room)
	gm.syncLobby()
}

func (gm *GameManager) handleLeaveRoom(client *clientInfo, message *messages.Message) {
	clientLeaveRoom := &messages.ClientLeaveRoom{}
	if len(message.Payload) > 0 {
		if err := json.Unmarshal(message.Payload, clientLeaveRoom); err != nil {
			log.Error("Failed to unmarshal leave room payload from client %d: %v", client.ID, err)
			gm.sendError(client.ID, "malformed LEAVE_ROOM payload")
			return
		}
	}

	if clientLeaveRoom.RoomID != "" && clientLeaveRoom.RoomID != client.RoomID {
		gm.sendError(client.ID, fmt.Sprintf("not in room %s", clientLeaveRoom.RoomID))
		return
	}
	if client.RoomID == "" {
		log.Debug("Ignoring LEAVE_ROOM from client %d outside any room", client.ID)
		return
	}

	room, ok := gm.rooms.Get(client.RoomID)
	if !ok {
		client.RoomID = ""
		return
	}

	log.Debug("Client %d left room %s", client.ID, room.ID)
	client.RoomID = ""
	gm.detachFromRoom(room, client.ID)
}

func (gm *GameManager) handleReady(client *clientInfo, message *messages.Message) {
	clientReady := &messages.ClientReady{}
	if err := json.Unmarshal(message.Payload, clientReady); err != nil {
		log.Error("Failed to unmarshal ready payload from client %d: %v", client.ID, err)
		gm.sendError(client.ID, "malformed READY payload")
		return
	}

	room, ok := gm.roomForMessage(client, clientReady.RoomID)
	if !ok {
		return
	}
	if room.Started {
		log.Debug("Ignoring READY from client %d in started room %s", client.ID, room.ID)
		return
	}
	seatIndex := room.SeatByClient(client.ID)
	if seatIndex < 0 {
		log.Debug("Ignoring READY from spectator %d in room %s", client.ID, room.ID)
		return
	}

	room.Seats[seatIndex].Ready = !room.Seats[seatIndex].Ready
	log.Debug("Client %d in room %s ready: %t", client.ID, room.ID, room.Seats[seatIndex].Ready)
	gm.broadcastRoom(room)

	if room.SeatedCount() >= constants.MinSeatsToStart && room.AllReady() {
		gm.startGame(room)
	}
}

// startGame creates the initial game state and moves the room out of
// the lobby. The Started flag guards re-entry: once set, READY messages
// are ignored, so a room starts at most once.
func (gm *GameManager) startGame(room *Room) {
	gameState, err := gm.engine.NewGame(room.SeatedCount())
	if err != nil {
		log.Warn("Not starting game in room %s: %v", room.ID, err)
		return
	}
	for i := range room.Seats {
		if room.Seats[i].Occupied {
			gameState.SetPlayerName(i, room.Seats[i].Name)
		}
	}

	room.Started = true
	room.State = gameState
	room.Version = 1
	log.Info("Game started in room %s with %d players", room.ID, room.SeatedCount())

	gm.broadcastRoom(room)
	gm.broadcastState(room)
	gm.syncLobby()
}

func (gm *GameManager) handleAction(client *clientInfo, message *messages.Message) {
	clientAction := &messages.ClientAction{}
	if err := json.Unmarshal(message.Payload, clientAction); err != nil {
		log.Error("Failed to unmarshal action payload from client %d: %v", client.ID, err)
		gm.sendError(client.ID, "malformed ACTION payload")
		return
	}

	room, ok := gm.roomForMessage(client, clientAction.RoomID)
	if !ok {
		return
	}

	if !room.Started {
		gm.sendRejected(client.ID, room, messages.RejectReasonNotStarted)
		return
	}
	seatIndex := room.SeatByClient(client.ID)
	if seatIndex < 0 {
		gm.sendRejected(client.ID, room, messages.RejectReasonSpectator)
		return
	}
	if !room.HotSeat && seatIndex != room.State.ActivePlayer() {
		gm.sendRejected(client.ID, room, messages.RejectReasonNotYourTurn)
		return
	}

	var action rules.Action
	if err := json.Unmarshal(clientAction.Action, &action); err != nil {
		log.Debug("Client %d sent an unparseable action in room %s: %v", client.ID, room.ID, err)
		gm.sendRejected(client.ID, room, messages.RejectReasonInvalidAction)
		return
	}
	if !gm.engine.Validate(room.State, action) {
		gm.sendRejected(client.ID, room, messages.RejectReasonInvalidAction)
		return
	}
	next, err := gm.engine.Apply(room.State, action)
	if err != nil {
		log.Debug("Action %s rejected in room %s: %v", action.Type, room.ID, err)
		gm.sendRejected(client.ID, room, messages.RejectReasonInvalidAction)
		return
	}
	if next == nil || next == room.State {
		log.Error("Engine returned the input state for action %s in room %s", action.Type, room.ID)
		gm.sendRejected(client.ID, room, messages.RejectReasonInvalidAction)
		return
	}

	room.State = next
	room.Version++
	log.Debug("Action %s from seat %d advanced room %s to version %d", action.Type, seatIndex, room.ID, room.Version)
	gm.broadcastState(room)
}

func (gm *GameManager) handleRenameRoom(client *clientInfo, message *messages.Message) {
	clientRenameRoom := &messages.ClientRenameRoom{}
	if err := json.Unmarshal(message.Payload, clientRenameRoom); err != nil {
		log.Error("Failed to unmarshal rename room payload from client %d: %v", client.ID, err)
		gm.sendError(client.ID, "malformed RENAME_ROOM payload")
		return
	}

	room, ok := gm.roomForMessage(client, clientRenameRoom.RoomID)
	if !ok {
		return
	}
	if !room.IsHost(client.SessionID) {
		log.Debug("Ignoring RENAME_ROOM from non-host client %d in room %s", client.ID, room.ID)
		return
	}

	name := strings.TrimSpace(clientRenameRoom.Name)
	if name == "" {
		log.Debug("Ignoring empty RENAME_ROOM from client %d in room %s", client.ID, room.ID)
		return
	}

	room.Name = name
	gm.broadcastRoom(room)
	gm.syncLobby()
}

func (gm *GameManager) handleCloseRoom(client *clientInfo, message *messages.Message) {
	clientCloseRoom := &messages.ClientCloseRoom{}
	if err := json.Unmarshal(message.Payload, clientCloseRoom); err != nil {
		log.Error("Failed to unmarshal close room payload from client %d: %v", client.ID, err)
		gm.sendError(client.ID, "malformed CLOSE_ROOM payload")
		return
	}

	room, ok := gm.roomForMessage(client, clientCloseRoom.RoomID)
	if !ok {
		return
	}
	if !room.IsHost(client.SessionID) {
		log.Debug("Ignoring CLOSE_ROOM from non-host client %d in room %s", client.ID, room.ID)
		return
	}

	log.Info("Host closed room %s", room.ID)
	gm.closeRoom(room)
	gm.syncLobby()
}

func (gm *GameManager) handleIdentify(client *clientInfo, message *messages.Message) {
	clientIdentify := &messages.ClientIdentify{}
	if err := json.Unmarshal(message.Payload, clientIdentify); err != nil {
		log.Error("Failed to unmarshal identify payload from client %d: %v", client.ID, err)
		gm.sendError(client.ID, "malformed IDENTIFY payload")
		return
	}

	name := strings.TrimSpace(clientIdentify.Name)
	if name == "" {
		gm.sendError(client.ID, "name must not be empty")
		return
	}

	client.Name = name
	log.Debug("Client %d identified as %s", client.ID, name)
	if client.RoomID == "" {
		gm.broadcastLobbyList()
	}
}

// handlePing has no effect beyond the last-activity stamp every
// message gets on dispatch. PING lets an otherwise quiet client
// register as alive; it draws no reply.
func (gm *GameManager) handlePing(client *clientInfo) {
	log.Debug("Ping from client %d", client.ID)
}

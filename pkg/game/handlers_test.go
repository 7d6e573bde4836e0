package game

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/cbodonnell/tabletop/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sendRaw enqueues a message with a hand-written payload, bypassing
// marshalling so tests can deliver invalid JSON.
func (h *testHarness) sendRaw(t *testing.T, clientID uint32, msgType string, payload string) {
	t.Helper()
	msg := &messages.Message{ClientID: clientID, Type: msgType, Payload: json.RawMessage(payload)}
	require.NoError(t, h.messageQueue.Enqueue(msg))
	h.tick(t)
}

func (h *testHarness) sendAction(t *testing.T, clientID uint32, roomID, action string) {
	t.Helper()
	h.sendMessage(t, clientID, messages.MessageTypeClientAction, messages.ClientAction{
		RoomID: roomID,
		Action: json.RawMessage(action),
	})
}

func (h *testHarness) rejectionFor(t *testing.T, clientID uint32) *messages.ServerRejected {
	t.Helper()
	rejected := &messages.ServerRejected{}
	decodePayload(t, h.sender.lastOfType(clientID, messages.MessageTypeServerRejected), rejected)
	return rejected
}

func TestGameManager_ReadyStartsGameOnce(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.createRoom(t, 1, "alice")
	h.joinRoom(t, 2, roomID, "bob")

	h.sendMessage(t, 1, messages.MessageTypeClientReady, messages.ClientReady{RoomID: roomID})
	room, ok := h.gm.rooms.Get(roomID)
	require.True(t, ok)
	assert.False(t, room.Started)
	assert.Empty(t, h.sender.messagesFor(1, messages.MessageTypeServerState))

	h.sender.reset()
	h.sendMessage(t, 2, messages.MessageTypeClientReady, messages.ClientReady{RoomID: roomID})

	assert.True(t, room.Started)
	assert.Equal(t, int64(1), room.Version)
	require.NotNil(t, room.State)

	// exactly one snapshot per seat, carrying the seat names
	for _, clientID := range []uint32{1, 2} {
		states := h.sender.messagesFor(clientID, messages.MessageTypeServerState)
		require.Len(t, states, 1)
		var snapshot struct {
			Version int64 `json:"version"`
			State   struct {
				Players []struct {
					Name string `json:"name"`
				} `json:"players"`
				ActivePlayerIndex int `json:"activePlayerIndex"`
			} `json:"state"`
		}
		require.NoError(t, json.Unmarshal(states[0].Payload, &snapshot))
		assert.Equal(t, int64(1), snapshot.Version)
		require.Len(t, snapshot.State.Players, 2)
		assert.Equal(t, "alice", snapshot.State.Players[0].Name)
		assert.Equal(t, "bob", snapshot.State.Players[1].Name)
		assert.Equal(t, 0, snapshot.State.ActivePlayerIndex)
	}

	// READY in a started room does nothing
	h.sender.reset()
	h.sendMessage(t, 1, messages.MessageTypeClientReady, messages.ClientReady{RoomID: roomID})
	assert.Empty(t, h.sender.sent)
	assert.Equal(t, int64(1), room.Version)
}

func TestGameManager_ReadyToggles(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.createRoom(t, 1, "alice")
	h.joinRoom(t, 2, roomID, "bob")

	h.sendMessage(t, 1, messages.MessageTypeClientReady, messages.ClientReady{RoomID: roomID})
	h.sendMessage(t, 1, messages.MessageTypeClientReady, messages.ClientReady{RoomID: roomID})
	h.sendMessage(t, 2, messages.MessageTypeClientReady, messages.ClientReady{RoomID: roomID})

	room, ok := h.gm.rooms.Get(roomID)
	require.True(t, ok)
	assert.False(t, room.Started)
	assert.False(t, room.Seats[0].Ready)
	assert.True(t, room.Seats[1].Ready)
}

func TestGameManager_ReadyAloneDoesNotStart(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.createRoom(t, 1, "alice")

	// one occupied seat is below the start threshold
	h.sendMessage(t, 1, messages.MessageTypeClientReady, messages.ClientReady{RoomID: roomID})

	room, ok := h.gm.rooms.Get(roomID)
	require.True(t, ok)
	assert.False(t, room.Started)
	assert.Nil(t, room.State)
	assert.Empty(t, h.sender.messagesFor(1, messages.MessageTypeServerState))
}

func TestGameManager_ActionAdvancesVersion(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.startTwoPlayerGame(t)
	room, ok := h.gm.rooms.Get(roomID)
	require.True(t, ok)
	before := room.State

	h.sender.reset()
	h.sendAction(t, 1, roomID, `{"type":"take_tokens","colors":["ruby","emerald","sapphire"]}`)

	assert.Equal(t, int64(2), room.Version)
	require.NotSame(t, before, room.State)

	for _, clientID := range []uint32{1, 2} {
		snapshot := h.stateFor(t, clientID)
		assert.Equal(t, roomID, snapshot.RoomID)
		assert.Equal(t, int64(2), snapshot.Version)
	}
}

func TestGameManager_ActionBeforeStart(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.createRoom(t, 1, "alice")

	h.sendAction(t, 1, roomID, `{"type":"end_turn"}`)

	rejected := h.rejectionFor(t, 1)
	assert.Equal(t, messages.RejectReasonNotStarted, rejected.Reason)
	assert.Equal(t, roomID, rejected.RoomID)
	// nothing to resync before the game exists
	assert.Empty(t, h.sender.messagesFor(1, messages.MessageTypeServerState))
}

func TestGameManager_ActionFromSpectator(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.startTwoPlayerGame(t)
	h.joinRoom(t, 5, roomID, "watcher")

	h.sender.reset()
	h.sendAction(t, 5, roomID, `{"type":"end_turn"}`)

	rejected := h.rejectionFor(t, 5)
	assert.Equal(t, messages.RejectReasonSpectator, rejected.Reason)
	// the rejection comes with a fresh snapshot
	assert.Equal(t, int64(1), h.stateFor(t, 5).Version)
}

func TestGameManager_ActionOutOfTurn(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.startTwoPlayerGame(t)
	room, ok := h.gm.rooms.Get(roomID)
	require.True(t, ok)

	h.sender.reset()
	h.sendAction(t, 2, roomID, `{"type":"end_turn"}`)

	rejected := h.rejectionFor(t, 2)
	assert.Equal(t, messages.RejectReasonNotYourTurn, rejected.Reason)
	assert.Equal(t, int64(1), h.stateFor(t, 2).Version)
	assert.Equal(t, int64(1), room.Version)
	// the active seat never hears about it
	assert.Empty(t, h.sender.messagesFor(1, messages.MessageTypeServerState))
}

func TestGameManager_InvalidActions(t *testing.T) {
	tests := []struct {
		name   string
		action string
	}{
		{"missing type", `{}`},
		{"non-string type", `{"type":123}`},
		{"unknown type", `{"type":"dance"}`},
		{"illegal move", `{"type":"take_tokens","colors":["gold","ruby","emerald"]}`},
		{"unaffordable card", `{"type":"buy_card","cardId":9999}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t)
			roomID := h.startTwoPlayerGame(t)
			room, ok := h.gm.rooms.Get(roomID)
			require.True(t, ok)
			before := room.State

			h.sender.reset()
			h.sendAction(t, 1, roomID, tt.action)

			rejected := h.rejectionFor(t, 1)
			assert.Equal(t, messages.RejectReasonInvalidAction, rejected.Reason)
			assert.Equal(t, int64(1), h.stateFor(t, 1).Version)
			assert.Equal(t, int64(1), room.Version)
			assert.Same(t, before, room.State)
		})
	}
}

func TestGameManager_WrongRoomReferences(t *testing.T) {
	msgTypes := []string{
		messages.MessageTypeClientReady,
		messages.MessageTypeClientAction,
		messages.MessageTypeClientRenameRoom,
		messages.MessageTypeClientCloseRoom,
		messages.MessageTypeClientLeaveRoom,
	}
	for _, msgType := range msgTypes {
		t.Run(msgType, func(t *testing.T) {
			h := newTestHarness(t)
			roomID := h.startTwoPlayerGame(t)

			// naming a room the client is not in is a protocol fault
			h.sender.reset()
			h.sendRaw(t, 1, msgType, `{"roomId":"ZZZZZZ"}`)

			serverError := &messages.ServerError{}
			decodePayload(t, h.sender.lastOfType(1, messages.MessageTypeServerError), serverError)
			assert.Contains(t, serverError.Message, "not in room ZZZZZZ")

			room, ok := h.gm.rooms.Get(roomID)
			require.True(t, ok)
			assert.Equal(t, int64(1), room.Version)
			assert.Equal(t, roomID, h.gm.clients[1].RoomID)
		})
	}
}

func TestGameManager_ReadyFromSpectator(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.createRoom(t, 1, "alice")
	h.joinRoom(t, 2, roomID, "bob")
	h.joinRoom(t, 3, roomID, "carol")
	h.joinRoom(t, 4, roomID, "dave")
	h.joinRoom(t, 5, roomID, "watcher")

	// a spectator's READY changes nothing and draws no reply
	h.sender.reset()
	h.sendMessage(t, 5, messages.MessageTypeClientReady, messages.ClientReady{RoomID: roomID})

	assert.Empty(t, h.sender.sent)
	room, ok := h.gm.rooms.Get(roomID)
	require.True(t, ok)
	for i := range room.Seats {
		assert.False(t, room.Seats[i].Ready, "seat %d should not be ready", i)
	}
}

func TestGameManager_HotSeatAllowsOutOfTurn(t *testing.T) {
	h := newTestHarness(t)
	h.connect(t, 1)
	h.sendMessage(t, 1, messages.MessageTypeClientCreateGame, messages.ClientCreateGame{Name: "alice", HotSeat: true})
	roomID := h.welcomeFor(t, 1).RoomID
	h.joinRoom(t, 2, roomID, "bob")
	h.sendMessage(t, 1, messages.MessageTypeClientReady, messages.ClientReady{RoomID: roomID})
	h.sendMessage(t, 2, messages.MessageTypeClientReady, messages.ClientReady{RoomID: roomID})

	room, ok := h.gm.rooms.Get(roomID)
	require.True(t, ok)
	require.True(t, room.Started)

	// seat 1 acts while seat 0 is the active player
	h.sender.reset()
	h.sendAction(t, 2, roomID, `{"type":"take_tokens","colors":["ruby","emerald","sapphire"]}`)

	assert.Equal(t, int64(2), room.Version)
	assert.Equal(t, int64(2), h.stateFor(t, 2).Version)
	assert.Nil(t, h.sender.lastOfType(2, messages.MessageTypeServerRejected))
}

func TestGameManager_RenameRoom(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.createRoom(t, 1, "alice")
	h.joinRoom(t, 2, roomID, "bob")
	room, ok := h.gm.rooms.Get(roomID)
	require.True(t, ok)

	h.sendMessage(t, 1, messages.MessageTypeClientRenameRoom, messages.ClientRenameRoom{RoomID: roomID, Name: "friday night"})
	assert.Equal(t, "friday night", room.Name)
	assert.Equal(t, "friday night", h.roomFor(t, 2).Name)

	rooms, err := h.roomIndex.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "friday night", rooms[0].Name)

	// only the host may rename
	h.sender.reset()
	h.sendMessage(t, 2, messages.MessageTypeClientRenameRoom, messages.ClientRenameRoom{RoomID: roomID, Name: "bob's room"})
	assert.Equal(t, "friday night", room.Name)
	assert.Empty(t, h.sender.sent)

	// blank names are ignored
	h.sendMessage(t, 1, messages.MessageTypeClientRenameRoom, messages.ClientRenameRoom{RoomID: roomID, Name: "   "})
	assert.Equal(t, "friday night", room.Name)
}

func TestGameManager_CloseRoom(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.createRoom(t, 1, "alice")
	h.joinRoom(t, 2, roomID, "bob")

	// only the host may close
	h.sendMessage(t, 2, messages.MessageTypeClientCloseRoom, messages.ClientCloseRoom{RoomID: roomID})
	_, ok := h.gm.rooms.Get(roomID)
	assert.True(t, ok)

	h.sender.reset()
	h.sendMessage(t, 1, messages.MessageTypeClientCloseRoom, messages.ClientCloseRoom{RoomID: roomID})

	_, ok = h.gm.rooms.Get(roomID)
	assert.False(t, ok)
	for _, clientID := range []uint32{1, 2} {
		notFound := &messages.ServerRoomNotFound{}
		decodePayload(t, h.sender.lastOfType(clientID, messages.MessageTypeServerRoomNotFound), notFound)
		assert.Equal(t, roomID, notFound.RoomID)
		assert.Equal(t, "", h.gm.clients[clientID].RoomID)
		// evicted clients are back on the lobby list
		assert.NotNil(t, h.sender.lastOfType(clientID, messages.MessageTypeServerRoomList))
	}

	rooms, err := h.roomIndex.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestGameManager_JoinWhileInRoom(t *testing.T) {
	h := newTestHarness(t)
	roomA := h.createRoom(t, 1, "alice")
	roomB := h.createRoom(t, 2, "bob")

	// a seated client cannot join a second room
	h.sender.reset()
	h.sendMessage(t, 1, messages.MessageTypeClientJoin, messages.ClientJoin{RoomID: roomB, Name: "alice"})

	serverError := &messages.ServerError{}
	decodePayload(t, h.sender.lastOfType(1, messages.MessageTypeServerError), serverError)
	assert.Contains(t, serverError.Message, fmt.Sprintf("already in room %s", roomA))
	assert.Nil(t, h.sender.lastOfType(1, messages.MessageTypeServerWelcome))
	assert.Equal(t, roomA, h.gm.clients[1].RoomID)
}

func TestGameManager_RejoinIsIdempotent(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.startTwoPlayerGame(t)
	first := h.welcomeFor(t, 2)

	// a JOIN retry for the room the client is already in repeats the
	// answer instead of failing or reseating
	h.sender.reset()
	h.sendMessage(t, 2, messages.MessageTypeClientJoin, messages.ClientJoin{RoomID: roomID, Name: "bob"})

	welcome := h.welcomeFor(t, 2)
	assert.Equal(t, first.SessionID, welcome.SessionID)
	require.NotNil(t, welcome.PlayerIndex)
	assert.Equal(t, 1, *welcome.PlayerIndex)
	assert.Nil(t, h.sender.lastOfType(2, messages.MessageTypeServerError))
	assert.Equal(t, int64(1), h.stateFor(t, 2).Version)
	require.NotNil(t, h.roomFor(t, 2).Clients[1])
	assert.Equal(t, "bob", h.roomFor(t, 2).Clients[1].Name)

	room, ok := h.gm.rooms.Get(roomID)
	require.True(t, ok)
	assert.Equal(t, uint32(2), room.Seats[1].ClientID)
}

func TestGameManager_JoinWithLiveSessionSupersedes(t *testing.T) {
	h := newTestHarness(t)
	roomID := h.startTwoPlayerGame(t)
	aliceSession := h.welcomeFor(t, 1).SessionID

	// alice reconnects before her dead socket's disconnect is processed;
	// the token holder takes the seat over
	h.sender.reset()
	h.connect(t, 9)
	h.sendMessage(t, 9, messages.MessageTypeClientJoin, messages.ClientJoin{RoomID: roomID, SessionID: aliceSession})

	welcome := h.welcomeFor(t, 9)
	assert.Equal(t, aliceSession, welcome.SessionID)
	assert.Equal(t, "alice", welcome.Name)
	require.NotNil(t, welcome.PlayerIndex)
	assert.Equal(t, 0, *welcome.PlayerIndex)
	assert.Equal(t, int64(1), h.stateFor(t, 9).Version)

	room, ok := h.gm.rooms.Get(roomID)
	require.True(t, ok)
	assert.Equal(t, uint32(9), room.Seats[0].ClientID)
	assert.True(t, room.Seats[0].Connected)
	assert.Equal(t, "alice", room.Seats[0].Name)

	// the superseded connection is out of the room and back on the lobby list
	assert.Equal(t, "", h.gm.clients[1].RoomID)
	assert.NotNil(t, h.sender.lastOfType(1, messages.MessageTypeServerRoomList))
}

func TestGameManager_Identify(t *testing.T) {
	h := newTestHarness(t)
	h.connect(t, 1)

	h.sendMessage(t, 1, messages.MessageTypeClientIdentify, messages.ClientIdentify{Name: "   "})
	serverError := &messages.ServerError{}
	decodePayload(t, h.sender.lastOfType(1, messages.MessageTypeServerError), serverError)
	assert.Contains(t, serverError.Message, "name must not be empty")

	h.sendMessage(t, 1, messages.MessageTypeClientIdentify, messages.ClientIdentify{Name: "alice"})
	assert.Equal(t, "alice", h.gm.clients[1].Name)

	// the identified name is the default for later rooms
	h.sendMessage(t, 1, messages.MessageTypeClientCreateGame, messages.ClientCreateGame{})
	assert.Equal(t, "alice's game", h.roomFor(t, 1).Name)
}

func TestGameManager_MalformedPayloads(t *testing.T) {
	tests := []struct {
		msgType string
	}{
		{messages.MessageTypeClientJoin},
		{messages.MessageTypeClientCreateGame},
		{messages.MessageTypeClientLeaveRoom},
		{messages.MessageTypeClientReady},
		{messages.MessageTypeClientAction},
		{messages.MessageTypeClientRenameRoom},
		{messages.MessageTypeClientCloseRoom},
		{messages.MessageTypeClientIdentify},
	}
	for _, tt := range tests {
		t.Run(tt.msgType, func(t *testing.T) {
			h := newTestHarness(t)
			h.connect(t, 1)
			h.sendRaw(t, 1, tt.msgType, `"not an object"`)

			serverError := &messages.ServerError{}
			decodePayload(t, h.sender.lastOfType(1, messages.MessageTypeServerError), serverError)
			assert.Contains(t, serverError.Message, fmt.Sprintf("malformed %s payload", tt.msgType))

			// the client is still usable afterwards
			h.sendMessage(t, 1, messages.MessageTypeClientCreateGame, messages.ClientCreateGame{Name: "alice"})
			assert.NotNil(t, h.sender.lastOfType(1, messages.MessageTypeServerWelcome))
		})
	}
}

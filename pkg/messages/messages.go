package messages

import "encoding/json"

const (
	// MessageBufferSize represents the maximum size in bytes of a single wire message
	MessageBufferSize = 65536
)

// Client message types
const (
	MessageTypeClientJoin       = "JOIN"
	MessageTypeClientCreateGame = "CREATE_GAME"
	MessageTypeClientLeaveRoom  = "LEAVE_ROOM"
	MessageTypeClientReady      = "READY"
	MessageTypeClientAction     = "ACTION"
	MessageTypeClientRenameRoom = "RENAME_ROOM"
	MessageTypeClientCloseRoom  = "CLOSE_ROOM"
	MessageTypeClientIdentify   = "IDENTIFY"
	MessageTypeClientPing       = "PING"
)

// Server message types
const (
	MessageTypeServerWelcome      = "WELCOME"
	MessageTypeServerRoom         = "ROOM"
	MessageTypeServerRoomList     = "ROOM_LIST"
	MessageTypeServerRoomNotFound = "ROOM_NOT_FOUND"
	MessageTypeServerState        = "STATE"
	MessageTypeServerRejected     = "REJECTED"
	MessageTypeServerError        = "ERROR"
)

// Reasons sent with MessageTypeServerRejected
const (
	RejectReasonNotStarted    = "NOT_STARTED"
	RejectReasonSpectator     = "SPECTATOR"
	RejectReasonNotYourTurn   = "NOT_YOUR_TURN"
	RejectReasonInvalidAction = "INVALID_ACTION"
)

// Message represents a generic message for serialization/deserialization.
// ClientID is stamped by the server transport and never crosses the wire.
type Message struct {
	ClientID uint32          `json:"-"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// ClientJoin is the payload for a JOIN message.
// SessionID is optional; presenting one allows a seated player to
// reclaim their seat after a disconnect.
type ClientJoin struct {
	RoomID    string `json:"roomId"`
	Name      string `json:"name"`
	SessionID string `json:"sessionId,omitempty"`
}

// ClientCreateGame is the payload for a CREATE_GAME message.
type ClientCreateGame struct {
	Name      string `json:"name"`
	SessionID string `json:"sessionId,omitempty"`
	HotSeat   bool   `json:"hotSeat,omitempty"`
}

// ClientLeaveRoom is the payload for a LEAVE_ROOM message. RoomID is
// optional; when present it must match the room the client is in.
type ClientLeaveRoom struct {
	RoomID string `json:"roomId,omitempty"`
}

// ClientReady is the payload for a READY message. Readiness toggles.
type ClientReady struct {
	RoomID string `json:"roomId"`
}

// ClientAction is the payload for an ACTION message. The action itself
// is opaque to the protocol layer and decoded by the rules engine.
type ClientAction struct {
	RoomID string          `json:"roomId"`
	Action json.RawMessage `json:"action"`
}

// ClientRenameRoom is the payload for a RENAME_ROOM message (host only).
type ClientRenameRoom struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// ClientCloseRoom is the payload for a CLOSE_ROOM message (host only).
type ClientCloseRoom struct {
	RoomID string `json:"roomId"`
}

// ClientIdentify is the payload for an IDENTIFY message.
type ClientIdentify struct {
	Name string `json:"name"`
}

// ServerWelcome is the payload for a WELCOME message, confirming a
// JOIN or CREATE_GAME. PlayerIndex is null for spectators.
type ServerWelcome struct {
	RoomID      string `json:"roomId"`
	ClientID    uint32 `json:"clientId"`
	Name        string `json:"name"`
	PlayerIndex *int   `json:"playerIndex"`
	Spectator   bool   `json:"spectator"`
	SessionID   string `json:"sessionId"`
}

// SeatInfo describes one occupied seat in a ROOM payload.
type SeatInfo struct {
	Name      string `json:"name"`
	ClientID  uint32 `json:"clientId,omitempty"`
	Connected bool   `json:"connected"`
}

// ServerRoom is the payload for a ROOM roster message. Clients always
// has the room's full seat capacity; empty seats are null.
type ServerRoom struct {
	RoomID     string      `json:"roomId"`
	Name       string      `json:"name"`
	Host       string      `json:"host"`
	Started    bool        `json:"started"`
	Clients    []*SeatInfo `json:"clients"`
	Spectators []string    `json:"spectators"`
	Ready      []bool      `json:"ready"`
}

// RoomInfo describes one room in a ROOM_LIST payload.
type RoomInfo struct {
	RoomID     string `json:"roomId"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Spectators int    `json:"spectators"`
	Started    bool   `json:"started"`
}

// UserInfo describes one lobby-resident connection in a ROOM_LIST payload.
type UserInfo struct {
	ClientID uint32 `json:"clientId"`
	Name     string `json:"name"`
}

// ServerRoomList is the payload for a ROOM_LIST message. It is
// personalized per recipient via YourClientID.
type ServerRoomList struct {
	Rooms        []RoomInfo `json:"rooms"`
	Users        []UserInfo `json:"users"`
	YourClientID uint32     `json:"yourClientId"`
}

// ServerRoomNotFound is the payload answering a JOIN to an unknown room.
type ServerRoomNotFound struct {
	RoomID string `json:"roomId"`
}

// ServerState is the payload for a STATE snapshot message.
type ServerState struct {
	RoomID  string      `json:"roomId"`
	Version int64       `json:"version"`
	State   interface{} `json:"state"`
}

// ServerRejected is the payload for a REJECTED message.
type ServerRejected struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// ServerError is the payload for an ERROR message.
type ServerError struct {
	Message string `json:"message"`
}

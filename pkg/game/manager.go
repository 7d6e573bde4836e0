package game

import (
	"context"
	"fmt"
	"time"

	"github.com/cbodonnell/tabletop/pkg/game/types"
	"github.com/cbodonnell/tabletop/pkg/log"
	"github.com/cbodonnell/tabletop/pkg/messages"
	"github.com/cbodonnell/tabletop/pkg/queue"
	"github.com/cbodonnell/tabletop/pkg/rules"
	"github.com/cbodonnell/tabletop/pkg/state"
)

// clientInfo tracks what the game loop knows about a connected client.
// LastActivity is bookkeeping only; no lifecycle decision reads it.
type clientInfo struct {
	ID           uint32
	Name         string
	RoomID       string
	SessionID    string
	LastActivity time.Time
}

// ClientSender is the part of the network client manager the game loop
// uses to deliver messages.
type ClientSender interface {
	Send(clientID uint32, msg *messages.Message) error
}

// GameManager owns all room, seat, and session state. Everything it
// holds is mutated from the game loop goroutine only, so none of it is
// locked: transports hand work to the loop through the queues.
type GameManager struct {
	clientManager      ClientSender
	clientMessageQueue queue.Queue
	serverEventQueue   queue.Queue
	engine             rules.Engine
	roomIndex          state.StateManager
	rooms              *RoomRegistry
	clients            map[uint32]*clientInfo
	roomTTL            time.Duration
	loopInterval       time.Duration
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	ClientManager      ClientSender
	ClientMessageQueue queue.Queue
	ServerEventQueue   queue.Queue
	Engine             rules.Engine
	RoomIndex          state.StateManager
	RoomTTL            time.Duration
	LoopInterval       time.Duration
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	return &GameManager{
		clientManager:      opts.ClientManager,
		clientMessageQueue: opts.ClientMessageQueue,
		serverEventQueue:   opts.ServerEventQueue,
		engine:             opts.Engine,
		roomIndex:          opts.RoomIndex,
		rooms:              NewRoomRegistry(),
		clients:            make(map[uint32]*clientInfo),
		roomTTL:            opts.RoomTTL,
		loopInterval:       opts.LoopInterval,
	}
}

// Start starts the game loop.
func (gm *GameManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(gm.loopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			if err := gm.gameTick(ctx, t); err != nil {
				log.Error("Failed to run game tick: %v", err)
			}
		}
	}
}

// gameTick runs one iteration of the game loop. Server events are
// processed before client messages so that seats reflect disconnects
// before any message is handled.
func (gm *GameManager) gameTick(_ context.Context, t time.Time) error {
	gm.processServerEvents(t)
	gm.processClientMessages(t)
	return nil
}

// processServerEvents processes all pending server events in the queue
func (gm *GameManager) processServerEvents(now time.Time) {
	pendingEvents, err := gm.serverEventQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read server events: %v", err)
		return
	}
	for _, item := range pendingEvents {
		switch event := item.(type) {
		case *types.ConnectClientEvent:
			gm.handleClientConnect(event.ClientID, now)
		case *types.DisconnectClientEvent:
			gm.handleClientDisconnect(event.ClientID)
		case *types.SweepRoomsEvent:
			gm.sweepRooms(event.Now)
		default:
			log.Error("Unhandled server event type: %T", event)
		}
	}
}

// processClientMessages processes all pending client messages in the
// queue and updates room state accordingly.
func (gm *GameManager) processClientMessages(now time.Time) {
	pendingMessages, err := gm.clientMessageQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read client messages: %v", err)
		return
	}
	for _, item := range pendingMessages {
		message, ok := item.(*messages.Message)
		if !ok {
			log.Error("Failed to cast message to messages.Message")
			continue
		}

		client, ok := gm.clients[message.ClientID]
		if !ok {
			log.Warn("Received message of type %s from unknown client %d", message.Type, message.ClientID)
			continue
		}
		client.LastActivity = now

		switch message.Type {
		case messages.MessageTypeClientJoin:
			gm.handleJoin(client, message)
		case messages.MessageTypeClientCreateGame:
			gm.handleCreateGame(client, message, now)
		case messages.MessageTypeClientLeaveRoom:
			gm.handleLeaveRoom(client, message)
		case messages.MessageTypeClientReady:
			gm.handleReady(client, message)
		case messages.MessageTypeClientAction:
			gm.handleAction(client, message)
		case messages.MessageTypeClientRenameRoom:
			gm.handleRenameRoom(client, message)
		case messages.MessageTypeClientCloseRoom:
			gm.handleCloseRoom(client, message)
		case messages.MessageTypeClientIdentify:
			gm.handleIdentify(client, message)
		case messages.MessageTypeClientPing:
			gm.handlePing(client)
		default:
			log.Warn("Unhandled message type %s from client %d", message.Type, message.ClientID)
			gm.sendError(message.ClientID, fmt.Sprintf("unknown message type: %s", message.Type))
		}
	}
}

func (gm *GameManager) handleClientConnect(clientID uint32, now time.Time) {
	log.Debug("Client %d connected", clientID)
	gm.clients[clientID] = &clientInfo{ID: clientID, LastActivity: now}
	gm.broadcastLobbyList()
}

func (gm *GameManager) handleClientDisconnect(clientID uint32) {
	client, ok := gm.clients[clientID]
	if !ok {
		log.Warn("Disconnect for unknown client %d", clientID)
		return
	}
	log.Debug("Client %d disconnected", clientID)
	delete(gm.clients, clientID)

	if client.RoomID == "" {
		gm.broadcastLobbyList()
		return
	}
	room, ok := gm.rooms.Get(client.RoomID)
	if !ok {
		return
	}
	gm.detachFromRoom(room, clientID)
}

// detachFromRoom removes a client from a room, either because it left
// or because its connection dropped. Before the game starts the seat is
// released and remaining seats are compacted; after the start the seat
// is kept so the player's session can reclaim it. Rooms that end up
// with nobody connected are deleted unless their game has started.
func (gm *GameManager) detachFromRoom(room *Room, clientID uint32) {
	if room.IsSpectator(clientID) {
		room.RemoveSpectator(clientID)
	} else if room.Started {
		room.MarkDisconnected(clientID)
	} else {
		if i := room.SeatByClient(clientID); i >= 0 {
			wasHost := room.IsHost(room.Seats[i].SessionID)
			room.ReleaseSeat(i)
			room.CompactSeats()
			if wasHost {
				room.TransferHost()
			}
		}
	}

	if !room.Started && room.ConnectedCount() == 0 {
		log.Debug("Deleting empty room %s", room.ID)
		gm.rooms.Remove(room.ID)
		gm.syncLobby()
		return
	}

	gm.broadcastRoom(room)
	gm.syncLobby()
}

// closeRoom evicts everyone from a room and deletes it.
func (gm *GameManager) closeRoom(room *Room) {
	for _, clientID := range gm.roomResidents(room) {
		gm.sendRoomNotFound(clientID, room.ID)
		if client, ok := gm.clients[clientID]; ok {
			client.RoomID = ""
		}
	}
	gm.rooms.Remove(room.ID)
}

// sweepRooms force-closes every room older than the TTL, occupied or
// not. Room age is measured from creation; traffic in the room does
// not extend it.
func (gm *GameManager) sweepRooms(now time.Time) {
	var expired []*Room
	for _, room := range gm.rooms.All() {
		if now.Sub(room.CreatedAt) > gm.roomTTL {
			expired = append(expired, room)
		}
	}
	for _, room := range expired {
		log.Info("Sweeping room %s (created %s)", room.ID, room.CreatedAt.Format(time.RFC3339))
		gm.closeRoom(room)
	}
	if len(expired) > 0 {
		gm.syncLobby()
	}
}

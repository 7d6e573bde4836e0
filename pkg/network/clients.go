package network

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/cbodonnell/tabletop/pkg/log"
	"github.com/cbodonnell/tabletop/pkg/messages"
	"github.com/gorilla/websocket"
)

const (
	// ClientIDMaxRetries represents the maximum number of retries when generating a unique ID
	ClientIDMaxRetries = 1024
	// ClientEventChannelSize represents the size of the client event channel
	ClientEventChannelSize = 1024
	// ClientSendChannelSize represents the size of a client's outbound message channel
	ClientSendChannelSize = 256
)

// Client represents a connected client. Identity beyond the connection
// (name, room, session) belongs to the game loop, not the transport.
type Client struct {
	ID uint32

	conn     *websocket.Conn
	sendChan chan *messages.Message
	done     chan struct{}
}

// ClientEvent represents an event that happened to a client
type ClientEvent struct {
	ClientID uint32
	Type     ClientEventType
}

// ClientEventType represents the type of a client event
type ClientEventType int

const (
	ClientEventTypeConnect ClientEventType = iota
	ClientEventTypeDisconnect
)

// ClientManager manages connected clients. Each client gets a buffered
// outbound channel drained by a single writer goroutine, so Send is safe
// to call from any goroutine.
type ClientManager struct {
	clients         map[uint32]*Client
	clientsLock     sync.RWMutex
	clientEventChan chan ClientEvent
}

// NewClientManager creates a new ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:         make(map[uint32]*Client),
		clientEventChan: make(chan ClientEvent, ClientEventChannelSize),
	}
}

// GetClientEventChan returns a one-way channel for receiving client events
func (cm *ClientManager) GetClientEventChan() <-chan ClientEvent {
	return cm.clientEventChan
}

// ConnectClient adds a new client to the manager, starts its writer
// goroutine, and returns its ID
func (cm *ClientManager) ConnectClient(conn *websocket.Conn) (uint32, error) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	clientID, err := cm.generateUniqueID(ClientIDMaxRetries)
	if err != nil {
		return 0, fmt.Errorf("failed to generate a unique ID: %v", err)
	}
	client := &Client{
		ID:       clientID,
		conn:     conn,
		sendChan: make(chan *messages.Message, ClientSendChannelSize),
		done:     make(chan struct{}),
	}
	cm.clients[clientID] = client

	go cm.writePump(client)

	cm.clientEventChan <- ClientEvent{
		ClientID: clientID,
		Type:     ClientEventTypeConnect,
	}

	return clientID, nil
}

// DisconnectClient removes a client from the manager and stops its writer
func (cm *ClientManager) DisconnectClient(clientID uint32) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	client, ok := cm.clients[clientID]
	if !ok {
		return
	}
	delete(cm.clients, clientID)
	close(client.done)

	cm.clientEventChan <- ClientEvent{
		ClientID: clientID,
		Type:     ClientEventTypeDisconnect,
	}
}

// Exists returns whether a client with the given ID is connected
func (cm *ClientManager) Exists(clientID uint32) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	_, ok := cm.clients[clientID]
	return ok
}

// Send queues a message for delivery to a client. If the client's
// outbound channel is full the message is dropped.
func (cm *ClientManager) Send(clientID uint32, msg *messages.Message) error {
	cm.clientsLock.RLock()
	client, ok := cm.clients[clientID]
	cm.clientsLock.RUnlock()
	if !ok {
		return fmt.Errorf("client %d not found", clientID)
	}

	select {
	case client.sendChan <- msg:
	default:
		log.Warn("Dropping message of type %s for client %d: send channel full", msg.Type, clientID)
	}
	return nil
}

// writePump is the single writer for a client's connection
func (cm *ClientManager) writePump(client *Client) {
	for {
		select {
		case msg := <-client.sendChan:
			if err := WriteMessageToWS(client.conn, msg); err != nil {
				log.Error("Error writing message of type %s to client %d: %v", msg.Type, client.ID, err)
				client.conn.Close()
				return
			}
		case <-client.done:
			return
		}
	}
}

// generateUniqueID generates a unique client ID with a maximum number of retries
// it reads from the clients, so it needs to be locked before calling
func (cm *ClientManager) generateUniqueID(maxRetries int) (uint32, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id := rand.Uint32()
		if id == 0 {
			continue
		}
		if _, ok := cm.clients[id]; !ok {
			return id, nil
		}
	}

	return 0, fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}

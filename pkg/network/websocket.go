package network

import (
	"fmt"
	"net/http"

	"github.com/cbodonnell/tabletop/pkg/log"
	"github.com/cbodonnell/tabletop/pkg/messages"
	"github.com/cbodonnell/tabletop/pkg/queue"
	"github.com/gorilla/websocket"
)

// WSServer upgrades HTTP requests to WebSocket connections and feeds
// inbound messages to the game's message queue. It implements
// http.Handler so it can be mounted on an API server route.
type WSServer struct {
	clientManager *ClientManager
	messageQueue  queue.Queue
}

type NewWSServerOptions struct {
	ClientManager *ClientManager
	MessageQueue  queue.Queue
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		clientManager: opts.ClientManager,
		messageQueue:  opts.MessageQueue,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket: %v", err)
		return
	}
	log.Debug("New WebSocket connection from %s", conn.RemoteAddr().String())

	clientID, err := s.clientManager.ConnectClient(conn)
	if err != nil {
		log.Error("Failed to add client: %v", err)
		conn.Close()
		return
	}

	go s.handleWSConnection(conn, clientID)
}

// handleWSConnection reads messages from a WebSocket connection until it
// closes. Malformed frames are answered with an ERROR message and the
// connection is kept open.
func (s *WSServer) handleWSConnection(conn *websocket.Conn, clientID uint32) {
	defer func() {
		log.Debug("Connection closed for client %d", clientID)
		s.clientManager.DisconnectClient(clientID)
		conn.Close()
	}()

	conn.SetReadLimit(messages.MessageBufferSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading WebSocket message from client %d: %v", clientID, err)
			}
			return
		}

		msg, err := messages.DeserializeMessage(data)
		if err != nil {
			log.Debug("Received malformed message from client %d: %v", clientID, err)
			s.sendError(clientID, fmt.Sprintf("malformed message: %v", err))
			continue
		}
		msg.ClientID = clientID

		if err := s.messageQueue.Enqueue(msg); err != nil {
			log.Error("Failed to enqueue message from client %d: %v", clientID, err)
		}
	}
}

func (s *WSServer) sendError(clientID uint32, errMessage string) {
	msg, err := messages.NewServerMessage(messages.MessageTypeServerError, messages.ServerError{Message: errMessage})
	if err != nil {
		log.Error("Failed to create error message: %v", err)
		return
	}
	if err := s.clientManager.Send(clientID, msg); err != nil {
		log.Error("Failed to send error message to client %d: %v", clientID, err)
	}
}

// WriteMessageToWS writes a Message to a WebSocket connection
func WriteMessageToWS(conn *websocket.Conn, msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}

	return nil
}

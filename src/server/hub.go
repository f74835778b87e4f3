package server

import (
	"encoding/json"
	"net/http"

	"mse-observer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Message types pushed to websocket clients.
const (
	MessageInitial = "INITIAL"
	MessageUpdate  = "UPDATE"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

func (s *FastAPIServer) startHub() {
	s.hubOnce.Do(func() { go s.handleWebsockets() })
}

// handleWebsockets is the main Hub loop
func (s *FastAPIServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			s.stateMutex.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()
			return

		case client := <-s.register:
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			latest := s.latestState
			s.stateMutex.Unlock()

			if latest != nil {
				client.send <- s.message(MessageInitial, *latest, nil)
			}

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()

		case snap := <-s.broadcast:
			s.stateMutex.Lock()
			s.latestState = &snap
			for client := range s.clients {
				select {
				case client.send <- s.message(MessageUpdate, snap, client.Symbols()):
				default:
					// Slow consumer; drop it rather than block the hub
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.stateMutex.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues a snapshot for every connected client. When the queue is
// full the snapshot is dropped; the next refresh supersedes it anyway.
func (s *FastAPIServer) Broadcast(snapshot models.MSnapshot) {
	select {
	case s.broadcast <- snapshot:
	case <-s.done:
	default:
		s.Logger.Warning("Broadcast queue full, dropping snapshot with %d records", len(snapshot.Stocks))
	}
}

// -----------------------------------------------------------------------------

// SetLatestState replaces the snapshot sent to new connections.
func (s *FastAPIServer) SetLatestState(snapshot models.MSnapshot) {
	s.stateMutex.Lock()
	s.latestState = &snapshot
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) message(kind string, snap models.MSnapshot, symbols []string) models.MSnapshotMessage {
	return models.MSnapshotMessage{
		Type:         kind,
		Snapshot:     filterSnapshot(snap, symbols),
		MarketStatus: s.Calendar.MarketStatus(s.Now()),
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		send: make(chan models.MSnapshotMessage, 16),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe or unsubscribe command and answers
// with the filtered latest snapshot.
func (s *FastAPIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	switch cmd.Command {
	case "subscribe":
		client.SetSymbols(normalizeSymbols(cmd.Symbols))
	case "unsubscribe":
		client.SetSymbols(nil)
	default:
		return
	}

	// The hub closes send under the write lock, so holding the read lock
	// keeps the channel open for this reply.
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	if _, ok := s.clients[client]; !ok || s.latestState == nil {
		return
	}
	select {
	case client.send <- s.message(MessageInitial, *s.latestState, client.Symbols()):
	default:
	}
}

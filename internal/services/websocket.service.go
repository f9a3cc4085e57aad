package services

import (
	"log"
	"sync"
	"time"

	"hostwatch/internal/models"

	"github.com/gorilla/websocket"
)

// WebSocket message types.
const (
	MessageSnapshot = "snapshot"
	MessageAlert    = "alert"
	MessagePing     = "ping"
	MessagePong     = "pong"
	MessageError    = "error"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// ClientConnection represents a connected WebSocket client
type ClientConnection struct {
	ID   string
	Conn *websocket.Conn
	Send chan WebSocketMessage
}

// WebSocketHub fans snapshots and alerts out to every connected client.
// A client whose send buffer is full misses that message.
type WebSocketHub struct {
	clients    map[string]*ClientConnection
	broadcast  chan WebSocketMessage
	unregister chan string
	mu         sync.RWMutex
	done       chan struct{}
	stopOnce   sync.Once
}

// NewWebSocketHub creates a hub and starts its event loop.
func NewWebSocketHub() *WebSocketHub {
	h := &WebSocketHub{
		clients:    make(map[string]*ClientConnection),
		broadcast:  make(chan WebSocketMessage, 256),
		unregister: make(chan string),
		done:       make(chan struct{}),
	}

	go h.run()

	return h
}

// run manages the hub's event loop
func (h *WebSocketHub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] Client disconnected: %s (total: %d)", clientID, total)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// Client's send channel is full, skip this message
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a new client to the hub. The client can be addressed by
// SendMessage as soon as Register returns. It returns false once the hub
// has stopped.
func (h *WebSocketHub) Register(client *ClientConnection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return false
	default:
	}
	h.clients[client.ID] = client
	log.Printf("[WS] Client connected: %s (total: %d)", client.ID, len(h.clients))
	return true
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(clientID string) {
	select {
	case h.unregister <- clientID:
	case <-h.done:
	}
}

// Broadcast queues a message for every client without blocking.
func (h *WebSocketHub) Broadcast(msg WebSocketMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		log.Printf("[WS] Broadcast queue full, dropping %s message", msg.Type)
	}
}

// BroadcastSnapshot sends a snapshot to every client.
func (h *WebSocketHub) BroadcastSnapshot(snap models.Snapshot) {
	h.Broadcast(WebSocketMessage{Type: MessageSnapshot, Timestamp: snap.Timestamp, Data: snap})
}

// BroadcastAlert sends an alert to every client.
func (h *WebSocketHub) BroadcastAlert(alert models.Alert) {
	h.Broadcast(WebSocketMessage{Type: MessageAlert, Timestamp: alert.Timestamp, Data: alert})
}

// SendMessage sends a message to a specific client
func (h *WebSocketHub) SendMessage(clientID string, msg WebSocketMessage) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[clientID]
	if !exists {
		return false
	}

	select {
	case client.Send <- msg:
		return true
	default:
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop disconnects every client and ends the event loop.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

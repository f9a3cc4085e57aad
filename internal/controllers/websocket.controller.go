package controllers

import (
	"fmt"
	"log"
	"time"

	"hostwatch/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// HandleWebSocket streams snapshots and alerts to a local client.
func (a *API) HandleWebSocket(c *gin.Context) {
	origin := c.GetHeader("Origin")
	ws, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.Security.LogWebSocketRejected(c.ClientIP(), origin)
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	clientID := fmt.Sprintf("%s-%d", c.ClientIP(), a.clientID.Add(1))
	client := &services.ClientConnection{
		ID:   clientID,
		Conn: ws,
		Send: make(chan services.WebSocketMessage, 256),
	}
	if !a.Hub.Register(client) {
		ws.Close()
		return
	}
	a.Security.LogWebSocketConnected(c.ClientIP(), clientID)

	// Greet with the latest snapshot so the client does not wait a full cycle.
	if snap, ok := a.Snapshots.Latest(); ok {
		a.Hub.SendMessage(clientID, services.WebSocketMessage{
			Type:      services.MessageSnapshot,
			Timestamp: snap.Timestamp,
			Data:      snap,
		})
	}

	go a.readPump(client, c.ClientIP())
	go writePump(client)
}

// readPump reads messages from the WebSocket client
func (a *API) readPump(client *services.ClientConnection, ip string) {
	defer func() {
		a.Hub.Unregister(client.ID)
		client.Conn.Close()
		a.Security.LogWebSocketDisconnected(ip, client.ID)
	}()

	client.Conn.SetReadLimit(4096)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg services.WebSocketMessage
		err := client.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] WebSocket error: %v", err)
			}
			return
		}

		switch msg.Type {
		case services.MessagePing:
			a.Hub.SendMessage(client.ID, services.WebSocketMessage{
				Type:      services.MessagePong,
				Timestamp: time.Now(),
			})

		default:
			a.Hub.SendMessage(client.ID, services.WebSocketMessage{
				Type:      services.MessageError,
				Timestamp: time.Now(),
				Error:     "unknown message type: " + msg.Type,
			})
		}
	}
}

// writePump writes messages to the WebSocket client
func writePump(client *services.ClientConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed, close connection
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[WS] Write error: %v", err)
				}
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

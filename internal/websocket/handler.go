package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs registers the connection with the hub, queues greeting as its
// first message and pumps until the peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn, greeting []byte, onMessage MessageHandler) {
	client := &Client{
		Hub:       hub,
		Conn:      c,
		ID:        uuid.New(),
		Send:      make(chan []byte, sendBuffer),
		onMessage: onMessage,
	}
	if greeting != nil {
		client.Send <- greeting
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		c.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	client.readPump()
}

package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// websocketUpgrader allows local connections from any origin; the server
// binds to localhost only.
func websocketUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// wsConn wraps a websocket connection with a write mutex. Gorilla
// connections support at most one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeText(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

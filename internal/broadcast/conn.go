package broadcast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// wsConn adapts a gorilla websocket connection to the Conn interface.
// Writes are serialized by a per-connection mutex and bounded by a write
// deadline, so a stalled subscriber fails fast instead of back-pressuring
// the engine.
type wsConn struct {
	id      string
	conn    *websocket.Conn
	mu      sync.Mutex
	timeout time.Duration
}

// NewWSConn wraps a websocket connection with a unique id and write timeout.
func NewWSConn(conn *websocket.Conn, timeout time.Duration) Conn {
	return &wsConn{id: uuid.NewString(), conn: conn, timeout: timeout}
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

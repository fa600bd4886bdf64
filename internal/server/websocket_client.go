package server

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WebSocketClient wraps a connection as a line-oriented command stream.
type WebSocketClient struct {
	conn    *websocket.Conn
	pending []string // Lines left over from a multi-line frame

	writeMu sync.Mutex
}

// NewWebSocketClient creates a new WebSocketClient from a WebSocket connection.
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn}
}

// ReadLine returns the next non-blank command line. A frame holding several
// lines is split and the extra lines are returned by later calls.
func (c *WebSocketClient) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(string(message), "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				c.pending = append(c.pending, trimmed)
			}
		}
	}

	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

// WriteJSON sends v as one text frame.
func (c *WebSocketClient) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// CloseWithReason sends a close frame before closing the connection.
func (c *WebSocketClient) CloseWithReason(reason string) error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return c.conn.Close()
}

// Close closes the WebSocket connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

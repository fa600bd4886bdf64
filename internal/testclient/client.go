// Package testclient drives a running delved over WebSocket for scripted
// integration scenarios.
package testclient

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/opendelve/internal/delve"
)

// DefaultTimeout bounds each request/reply round trip
const DefaultTimeout = 5 * time.Second

// Reply mirrors the server's JSON reply
type Reply struct {
	Outcome  string          `json:"outcome,omitempty"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
	Snapshot *delve.Snapshot `json:"snapshot,omitempty"`
	Map      []string        `json:"map,omitempty"`
}

// TestClient is one scripted explorer
type TestClient struct {
	Name    string
	Welcome Reply
	Timeout time.Duration

	conn *websocket.Conn
}

// NewTestClient connects to the /ws endpoint at address (ws://host:port/ws)
// and reads the welcome reply. A non-zero seed is passed as ?seed=.
func NewTestClient(name, address string, seed int64) (*TestClient, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}
	if seed != 0 {
		q := u.Query()
		q.Set("seed", strconv.FormatInt(seed, 10))
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &TestClient{Name: name, Timeout: DefaultTimeout, conn: conn}
	welcome, err := c.read()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("no welcome: %w", err)
	}
	c.Welcome = welcome
	return c, nil
}

// SendCommand sends one command line and waits for its reply
func (c *TestClient) SendCommand(cmd string) (Reply, error) {
	c.conn.SetWriteDeadline(time.Now().Add(c.Timeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
		return Reply{}, fmt.Errorf("failed to send %q: %w", cmd, err)
	}
	return c.read()
}

// Move sends a move command for dir
func (c *TestClient) Move(dir delve.Direction) (Reply, error) {
	return c.SendCommand("move " + dir.String())
}

func (c *TestClient) read() (Reply, error) {
	c.conn.SetReadDeadline(time.Now().Add(c.Timeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return Reply{}, err
	}
	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return Reply{}, fmt.Errorf("bad reply %q: %w", data, err)
	}
	return reply, nil
}

// Close sends quit and closes the connection
func (c *TestClient) Close() error {
	c.SendCommand("quit")
	return c.conn.Close()
}

package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// WSClient manages the websocket status stream from the backend.
type WSClient struct {
	url    string
	header http.Header

	mu      sync.Mutex
	writeMu sync.Mutex // serialises ping writes
	conn    *websocket.Conn
	pingCtx context.CancelFunc // cancels the active ping goroutine
}

// NewWSClient creates a client that connects to the given websocket URL
// with basic auth credentials.
func NewWSClient(url, username, password string) *WSClient {
	header := http.Header{}
	if username != "" || password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		header.Set("Authorization", "Basic "+token)
	}
	return &WSClient{url: url, header: header}
}

// --- Bubble Tea messages ---

// WSConnectedMsg is sent when the websocket connects.
type WSConnectedMsg struct{}

// WSDisconnectedMsg is sent when the connection drops.
type WSDisconnectedMsg struct{ Err error }

// WSDialFailedMsg reports a failed connection attempt before the next retry.
type WSDialFailedMsg struct {
	Err   error
	Retry time.Duration
}

// WSStatusMsg delivers a status snapshot.
type WSStatusMsg struct{ Payload Snapshot }

// WSErrorMsg wraps a server-side error.
type WSErrorMsg struct{ Payload ErrorPayload }

// Listen returns a Bubble Tea command that makes one connection attempt.
// On failure it waits out the backoff delay and reports WSDialFailedMsg so
// the caller can schedule the next attempt.
func (c *WSClient) Listen(ctx context.Context, delay time.Duration) tea.Cmd {
	return func() tea.Msg {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
		}

		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, c.header)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusUnauthorized {
				err = ErrUnauthorized
			}
			return WSDialFailedMsg{Err: err, Retry: NextDelay(delay)}
		}

		// Cancel any previous ping goroutine.
		c.mu.Lock()
		if c.pingCtx != nil {
			c.pingCtx()
		}
		pingCtx, pingCancel := context.WithCancel(ctx)
		c.conn = conn
		c.pingCtx = pingCancel
		c.mu.Unlock()

		go c.pingLoop(pingCtx, conn)

		return WSConnectedMsg{}
	}
}

// NextDelay doubles the reconnect delay up to reconnectMaxDelay.
func NextDelay(delay time.Duration) time.Duration {
	if delay <= 0 {
		return reconnectBaseDelay
	}
	return min(delay*2, reconnectMaxDelay)
}

// ReadLoop returns a Bubble Tea command that reads the next message from the
// connection. It should be restarted after every message it delivers.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return WSDisconnectedMsg{Err: fmt.Errorf("no connection")}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				if c.conn == conn {
					c.conn = nil
				}
				c.mu.Unlock()
				conn.Close()
				return WSDisconnectedMsg{Err: err}
			}

			var msg WSMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}

			if teaMsg := dispatch(msg); teaMsg != nil {
				return teaMsg
			}
		}
	}
}

// pingLoop sends periodic pings on the given connection. It exits when the
// context is cancelled or the connection changes.
func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close drops the active connection.
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pingCtx != nil {
		c.pingCtx()
		c.pingCtx = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func dispatch(msg WSMessage) tea.Msg {
	switch msg.Type {
	case MsgStatus:
		var p Snapshot
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSStatusMsg{Payload: p}
		}
	case MsgError:
		var p ErrorPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSErrorMsg{Payload: p}
		}
	}
	return nil
}

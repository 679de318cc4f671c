package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/craftpanel/backend/internal/logging"
	"github.com/craftpanel/backend/internal/metrics"
	"github.com/craftpanel/backend/internal/status"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer = 16
	writeWait  = 10 * time.Second
)

// ErrTooManyConnections is returned by AddClient when the client limit is
// reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn, onWriteErr func(*client)) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	go c.writePump(onWriteErr)
	return c
}

// writePump drains send until it is closed. A failed write unregisters the
// client so broadcasts stop queueing for a dead peer.
func (c *client) writePump(onWriteErr func(*client)) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logging.L().Debug("ws write failed", zap.Error(err))
			onWriteErr(c)
			// Keep draining so RemoveClient's close(send) ends the loop.
			for range c.send {
			}
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans published status snapshots out to websocket clients. It
// remembers the latest message so new clients get the current status
// immediately.
type Broadcaster struct {
	mu         sync.RWMutex
	clients    map[*client]bool
	last       []byte
	maxClients int
}

// NewBroadcaster returns a broadcaster accepting at most maxClients
// connections. Zero means unlimited.
func NewBroadcaster(maxClients int) *Broadcaster {
	return &Broadcaster{
		clients:    make(map[*client]bool),
		maxClients: maxClients,
	}
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	b.mu.Lock()
	if b.maxClients > 0 && len(b.clients) >= b.maxClients {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	c := newClient(conn, b.RemoveClient)
	b.clients[c] = true
	if b.last != nil {
		c.send <- b.last
	}
	n := len(b.clients)
	b.mu.Unlock()

	metrics.SetWSClients(n)
	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	_, ok := b.clients[c]
	if ok {
		delete(b.clients, c)
		c.close()
	}
	n := len(b.clients)
	b.mu.Unlock()

	if ok {
		metrics.SetWSClients(n)
	}
}

// Publish implements status.Publisher.
func (b *Broadcaster) Publish(s status.Snapshot) {
	data, err := json.Marshal(WSMessage{Type: MsgStatus, Payload: s})
	if err != nil {
		logging.L().Error("broadcast marshal failed", zap.Error(err))
		return
	}

	// Sends happen under the lock so RemoveClient cannot close a channel
	// mid-send.
	var slow []*client
	b.mu.Lock()
	b.last = data
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.Unlock()

	for _, c := range slow {
		logging.L().Warn("ws client too slow, disconnecting")
		b.RemoveClient(c)
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
	metrics.SetWSClients(0)
}

package gate

import (
	"errors"
	"sync"
	"time"

	"PPresence/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 25 * time.Second
)

var (
	ErrQueueFull    = errors.New("send queue full")
	ErrClientClosed = errors.New("client closed")
)

// Client represents one live transport connection. A single user may hold
// at most one authoritative client at a time (registry invariant); the
// UserID field stays empty until join succeeds.
type Client struct {
	ConnID string
	WS     *websocket.Conn
	Send   chan []byte // consumed by a single writer goroutine

	mu     sync.RWMutex
	userID string
	closed bool
}

func NewClient(connID string, ws *websocket.Conn, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 256
	}
	return &Client{
		ConnID: connID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
	}
}

func (c *Client) User() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) SetUser(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// Enqueue places data on the send queue without blocking. A full queue is
// an error rather than a stall: the caller decides whether to degrade.
func (c *Client) Enqueue(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

// SendEnvelope marshals an outbound event and enqueues it.
func (c *Client) SendEnvelope(env *Envelope) error {
	data, err := EncodeEnvelope(env)
	if err != nil {
		return err
	}
	return c.Enqueue(data)
}

// Close marks the client closed and closes the send queue exactly once.
// The writer pump drains what is left and then closes the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// WritePump drains the send queue onto the socket. One pump per client;
// it owns all writes including pings, and closes the socket on exit.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		if c.WS != nil {
			_ = c.WS.Close()
		}
	}()

	for {
		select {
		case data, ok := <-c.Send:
			if c.WS == nil {
				if !ok {
					return
				}
				continue
			}
			if err := c.WS.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Warnf("[client] set write deadline conn=%s: %v", c.ConnID, err)
				return
			}
			if !ok {
				_ = c.WS.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.WS.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Warnf("[client] write conn=%s: %v", c.ConnID, err)
				return
			}
		case <-ticker.C:
			if c.WS == nil {
				continue
			}
			if err := c.WS.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

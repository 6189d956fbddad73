package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/tiltmaze/backend/internal/config"
	"github.com/tiltmaze/backend/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

// Client is the websocket connection controlling one session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	session   *game.Session
	gate      *remoteGate
	detach    func()
	frames    uint64
	tracked   atomic.Int64 // unix nanos of the last idle-tracking refresh

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// Hub tracks the controlling connection of every session.
type Hub struct {
	clients    map[string]*Client // sessionID -> Client
	register   chan *Client
	unregister chan *Client
	manager    *game.Manager
	rdb        *redis.Client
	cfg        *config.Config
	mu         sync.RWMutex

	// track refreshes shared idle tracking; nil without Redis.
	track func(ctx context.Context, sessionID string) error
}

// NewHub creates a Hub. rdb may be nil.
func NewHub(m *game.Manager, rdb *redis.Client, cfg *config.Config) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		manager:    m,
		rdb:        rdb,
		cfg:        cfg,
	}
	if rdb != nil {
		h.track = func(ctx context.Context, sessionID string) error {
			return game.TrackActivity(ctx, rdb, sessionID, cfg.IdleExpireSeconds)
		}
	}
	return h
}

// SendToSession sends a message to the client of a session, if connected.
func (h *Hub) SendToSession(sessionID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[sessionID]; exists {
		client.trySend(data)
	}
}

// Connected reports whether a session currently has a client.
func (h *Hub) Connected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

// WSMessage is the envelope for every message in both directions.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// trySend queues data without blocking the caller; a full buffer drops it.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) sendJSON(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	if !c.trySend(data) {
		log.Printf("[WS] send buffer full for session %s, dropping %T", c.sessionID, message)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Best-effort close frame; the connection may already be gone.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for session %s: %v", c.sessionID, err)
				return
			}

		case <-c.session.Done():
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			data, _ := json.Marshal(map[string]interface{}{"type": "session_ended", "message": "Session ended"})
			c.conn.WriteMessage(websocket.TextMessage, data)
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for session %s: %v", c.sessionID, err)
				return
			}
		}
	}
}

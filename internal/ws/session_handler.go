package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tiltmaze/backend/internal/auth"
	"github.com/tiltmaze/backend/internal/game"
	"github.com/tiltmaze/backend/internal/input"
)

// Inbound message payloads.
type StartData struct {
	OrientationGate bool         `json:"orientation_gate"`
	Joystick        *input.Point `json:"joystick,omitempty"`
}

type ResizeData struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type OrientationData struct {
	Beta  *float64 `json:"beta"`
	Gamma *float64 `json:"gamma"`
}

type PermissionData struct {
	State input.Permission `json:"state"`
}

// HandleWebSocket upgrades a client that holds a valid token for the session.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	sessionID := c.Param("id")
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}

	tokenSession, err := auth.ParseSessionToken(h.cfg.JWTSecret, token)
	if err != nil || tokenSession != sessionID {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid session token"})
		return
	}

	s, err := h.manager.Get(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		sessionID: sessionID,
		session:   s,
		send:      make(chan []byte, 256),
	}
	client.gate = newRemoteGate(client)

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Run processes client registration until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if old, exists := h.clients[client.sessionID]; exists {
				log.Printf("[WS] Session %s reconnecting - closing old connection", client.sessionID)
				old.release()
			}
			h.clients[client.sessionID] = client
			h.mu.Unlock()

			client.attach()
			log.Printf("[WS] Client connected to session %s", client.sessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.sessionID]; ok && cur == client {
				delete(h.clients, client.sessionID)
				log.Printf("[WS] Client disconnected from session %s", client.sessionID)
			}
			h.mu.Unlock()
			client.release()
		}
	}
}

// attach subscribes the client to its session's frames and input events.
func (c *Client) attach() {
	sessionID := c.sessionID
	hub := c.hub
	c.session.OnInputSelected(func(sel input.Selection) {
		hub.SendToSession(sessionID, map[string]interface{}{
			"type":      "input_selected",
			"selection": sel,
		})
	})

	var lastStatus game.GameStatus
	c.detach = c.session.Attach(game.SinkFunc(func(f game.Frame) {
		c.frames++
		if f.Status != game.StatusPlaying && f.Status == lastStatus && !f.Finished {
			return
		}
		every := uint64(c.hub.cfg.FrameBroadcastEvery)
		if f.Status == game.StatusPlaying && f.Status == lastStatus && every > 1 && c.frames%every != 0 && !f.Finished {
			return
		}
		lastStatus = f.Status
		c.presentFrame(f)
	}))

	c.sendFrame(c.session.Snapshot())
	c.touch()
}

// release detaches the client from its session and closes its send queue.
func (c *Client) release() {
	if c.detach != nil {
		c.detach()
	}
	c.closeSend()
}

func (c *Client) presentFrame(f game.Frame) {
	data, err := json.Marshal(map[string]interface{}{"type": "frame", "frame": f})
	if err != nil {
		log.Printf("[WS] Error marshaling frame: %v", err)
		return
	}
	c.trySend(data)

	if f.Finished {
		msg, action := f.Outcome.Message()
		c.sendJSON(map[string]interface{}{
			"type":    "outcome",
			"outcome": f.Outcome,
			"message": msg,
			"action":  action,
		})
		go func() {
			if err := game.PublishOutcome(context.Background(), c.hub.rdb, f); err != nil {
				log.Printf("[WS] publish outcome failed for session %s: %v", f.SessionID, err)
			}
		}()
	}
}

func (c *Client) sendFrame(f game.Frame) {
	c.sendJSON(map[string]interface{}{"type": "frame", "frame": f})
}

// trackEvery bounds how often one client refreshes shared idle tracking.
const trackEvery = 5 * time.Second

// touch records activity locally on every call and in Redis at most once
// per trackEvery.
func (c *Client) touch() {
	c.session.Touch()
	if c.hub.track == nil {
		return
	}
	now := time.Now().UnixNano()
	last := c.tracked.Load()
	if last != 0 && now-last < int64(trackEvery) {
		return
	}
	if !c.tracked.CompareAndSwap(last, now) {
		return
	}
	if err := c.hub.track(context.Background(), c.sessionID); err != nil {
		log.Printf("[WS] idle tracking failed for session %s: %v", c.sessionID, err)
	}
}

// readPump reads input messages for the session.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] unexpected close for session %s: %v", c.sessionID, err)
			}
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes one inbound message.
func (c *Client) handleMessage(msg WSMessage) {
	s := c.session
	c.touch()

	switch msg.Type {
	case "start", "retry":
		var data StartData
		if !c.decode(msg, &data) {
			return
		}

		opts := game.StartOptions{JoystickOrigin: data.Joystick}
		if data.OrientationGate {
			opts.Gate = c.gate
		}

		var err error
		if msg.Type == "start" {
			err = s.Start(context.Background(), opts)
		} else {
			err = s.Retry(context.Background(), opts)
		}
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.sendFrame(s.Snapshot())

	case "resize":
		var data ResizeData
		if !c.decode(msg, &data) {
			return
		}
		regenerated, err := s.Resize(game.Viewport{Width: data.Width, Height: data.Height})
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.sendJSON(map[string]interface{}{"type": "resized", "regenerated": regenerated})
		if regenerated {
			c.sendFrame(s.Snapshot())
		}

	case "orientation":
		var data OrientationData
		if !c.decode(msg, &data) {
			return
		}
		s.HandleOrientation(data.Beta, data.Gamma)

	case "orientation_permission":
		var data PermissionData
		if !c.decode(msg, &data) {
			return
		}
		if !c.gate.resolve(normalizePermission(data.State)) {
			c.sendError("No permission request pending")
		}

	case "pointer":
		var ev input.PointerEvent
		if !c.decode(msg, &ev) {
			return
		}
		s.HandlePointer(ev)

	case "get_state":
		c.sendFrame(s.Snapshot())

	default:
		c.sendError("Unknown message type")
	}
}

// decode unmarshals the message payload; an absent payload leaves v zeroed.
func (c *Client) decode(msg WSMessage, v interface{}) bool {
	if len(msg.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendError("Invalid " + msg.Type + " data")
		return false
	}
	return true
}

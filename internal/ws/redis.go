package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/tiltmaze/backend/internal/game"
)

// StartEventSubscriber listens on the game events channel and applies
// events that concern sessions hosted by this instance.
func (h *Hub) StartEventSubscriber(ctx context.Context) {
	if h.rdb == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}

	pubsub := h.rdb.Subscribe(ctx, game.EventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", game.EventsChannel)
		for msg := range ch {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				log.Printf("[WS] invalid event payload: %v", err)
				continue
			}
			h.handleEvent(payload)
		}
	}()
}

func (h *Hub) handleEvent(payload map[string]interface{}) {
	typeStr, _ := payload["type"].(string)
	sessionID, _ := payload["session_id"].(string)

	switch typeStr {
	case "session_expired":
		if _, err := h.manager.Get(sessionID); err != nil {
			return
		}
		h.SendToSession(sessionID, map[string]interface{}{
			"type":    "session_expired",
			"message": payload["message"],
		})
		if err := h.manager.End(sessionID); err != nil {
			log.Printf("[WS] ending expired session %s: %v", sessionID, err)
		}

	case "outcome":
		log.Printf("[WS] session %s finished: %v", sessionID, payload["outcome"])

	default:
		log.Printf("[WS] unknown event type: %s", typeStr)
	}
}

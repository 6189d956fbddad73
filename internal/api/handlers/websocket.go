package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/tiltmaze/backend/internal/ws"
)

// HandleSessionWebSocket streams frames and receives input for a session
func HandleSessionWebSocket(hub *ws.Hub) gin.HandlerFunc {
	return hub.HandleWebSocket
}

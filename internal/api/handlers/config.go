package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiltmaze/backend/internal/config"
	"github.com/tiltmaze/backend/internal/game"
)

// GetConfig returns the tuning values the client needs to draw and send input
func GetConfig(m *game.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		t := m.Tuning()
		c.JSON(http.StatusOK, gin.H{
			"frame_rate":            m.FrameRate(),
			"frame_broadcast_every": cfg.FrameBroadcastEvery,
			"idle_expire_seconds":   cfg.IdleExpireSeconds,
			"ball_radius":           t.BallRadius,
			"target_radius":         t.TargetRadius,
			"input":                 t.Input,
		})
	}
}

package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/tiltmaze/backend/internal/auth"
	"github.com/tiltmaze/backend/internal/config"
	"github.com/tiltmaze/backend/internal/game"
	"github.com/tiltmaze/backend/internal/ws"
)

type createSessionRequest struct {
	Width  float64 `json:"width" binding:"required"`
	Height float64 `json:"height" binding:"required"`
	Seed   *uint64 `json:"seed,omitempty"`
}

// CreateSession creates a ready session for the client's viewport and
// returns a token bound to it.
func CreateSession(m *game.Manager, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request. Viewport width and height required.",
			})
			return
		}

		s, err := m.Create(game.Viewport{Width: req.Width, Height: req.Height}, req.Seed)
		if err != nil {
			if errors.Is(err, game.ErrInvalidViewport) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			log.Printf("[ERROR] CreateSession - %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		ttl := time.Duration(cfg.SessionTokenTTLMinutes) * time.Minute
		token, expiresAt, err := auth.IssueSessionToken(cfg.JWTSecret, s.ID, ttl)
		if err != nil {
			log.Printf("[ERROR] CreateSession - token for %s: %v", s.ID, err)
			m.End(s.ID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue session token"})
			return
		}

		if err := game.TrackActivity(c.Request.Context(), rdb, s.ID, cfg.IdleExpireSeconds); err != nil {
			log.Printf("[IDLE] tracking failed for new session %s: %v", s.ID, err)
		}

		c.Header("X-Session-Count", strconv.Itoa(m.Count()))
		c.JSON(http.StatusCreated, gin.H{
			"session_id": s.ID,
			"token":      token,
			"expires_at": expiresAt,
			"ws_url":     "/api/v1/sessions/" + s.ID + "/ws",
			"frame":      s.Snapshot(),
		})
	}
}

// GetSession returns the current frame of a session
func GetSession(m *game.Manager, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := m.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"frame":     s.Snapshot(),
			"selection": s.Selection(),
			"connected": hub.Connected(s.ID),
		})
	}
}

// EndSession ends a session and drops its idle tracking
func EndSession(m *game.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := m.End(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		game.ForgetActivity(c.Request.Context(), rdb, id)

		c.JSON(http.StatusOK, gin.H{"session_id": id, "status": "ended"})
	}
}

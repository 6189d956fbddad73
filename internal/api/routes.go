package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/tiltmaze/backend/internal/api/handlers"
	"github.com/tiltmaze/backend/internal/config"
	"github.com/tiltmaze/backend/internal/game"
	"github.com/tiltmaze/backend/internal/middleware"
	"github.com/tiltmaze/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, m *game.Manager, hub *ws.Hub, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.WebSocketCORSCheck(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(m, rdb))
		v1.GET("/config", handlers.GetConfig(m, cfg))

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(m, rdb, cfg))
			sessions.GET("/:id", middleware.RequireSessionToken(cfg), handlers.GetSession(m, hub))
			sessions.DELETE("/:id", middleware.RequireSessionToken(cfg), handlers.EndSession(m, rdb))
			sessions.GET("/:id/ws", handlers.HandleSessionWebSocket(hub))
		}

		levels := v1.Group("/levels")
		{
			levels.GET("/preview", handlers.PreviewLevel(m)) // Dev aid: reproducible levels by seed
		}
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/tiltmaze/backend/internal/game"
)

var startTime = time.Now()

// HealthCheck reports live sessions and whether idle tracking is shared
// through Redis. A failing Redis ping degrades the status but not the code;
// sessions still run without it.
func HealthCheck(m *game.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, store := "ok", "memory"
		if rdb != nil {
			store = "redis"
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				status, store = "degraded", "redis-unreachable"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     status,
			"sessions":   m.Count(),
			"idle_store": store,
			"frame_rate": m.FrameRate(),
			"uptime":     time.Since(startTime).Round(time.Second).String(),
		})
	}
}

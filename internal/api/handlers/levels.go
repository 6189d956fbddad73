package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tiltmaze/backend/internal/game"
)

// PreviewLevel generates a level without creating a session. The same
// width, height and seed always produce the same level.
func PreviewLevel(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		width, errW := strconv.ParseFloat(c.Query("width"), 64)
		height, errH := strconv.ParseFloat(c.Query("height"), 64)
		if errW != nil || errH != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "width and height query parameters required"})
			return
		}

		tuning := m.Tuning()
		vp := game.Viewport{Width: width, Height: height}
		if err := vp.Validate(tuning.Level); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		seed := uint64(time.Now().UnixNano())
		if raw := c.Query("seed"); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "seed must be an unsigned integer"})
				return
			}
			seed = parsed
		}

		c.JSON(http.StatusOK, gin.H{
			"seed":  seed,
			"level": game.GenerateLevel(vp, tuning, game.NewRand(seed)),
		})
	}
}

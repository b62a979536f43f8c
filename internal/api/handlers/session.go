package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/paperball/internal/game"
	"github.com/playmatatu/paperball/internal/store"
)

func writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrFlightActive):
		c.JSON(http.StatusConflict, gin.H{"error": "a shot is in play"})
	case errors.Is(err, game.ErrCupLocked):
		c.JSON(http.StatusConflict, gin.H{"error": "cup dragging is disabled"})
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrSessionClosed):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
	default:
		log.Printf("[API] session error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func requireManager(c *gin.Context) bool {
	if game.Manager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "game manager not ready"})
		return false
	}
	return true
}

// CreateSession starts a play session for the authenticated player.
func CreateSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireManager(c) {
			return
		}
		playerID, _ := playerIDFrom(c)
		var req struct {
			ScreenWidth  float64 `json:"screen_width"`
			ScreenHeight float64 `json:"screen_height"`
		}
		// An empty body uses the configured screen size.
		if c.Request.ContentLength > 0 {
			if err := c.BindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid screen size"})
				return
			}
		}
		if req.ScreenWidth < 0 || req.ScreenHeight < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid screen size"})
			return
		}
		if (req.ScreenWidth > 0 && req.ScreenWidth < game.MinScreenWidth) ||
			(req.ScreenHeight > 0 && req.ScreenHeight < game.MinScreenHeight) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "screen too small",
				"min_width":  game.MinScreenWidth,
				"min_height": game.MinScreenHeight,
			})
			return
		}

		s, err := game.Manager.CreateSession(c.Request.Context(), playerID, game.SessionOptions{
			ScreenWidth:  req.ScreenWidth,
			ScreenHeight: req.ScreenHeight,
		})
		if err != nil {
			writeSessionError(c, err)
			return
		}

		c.Header("X-Session-Token", s.Token)
		c.JSON(http.StatusCreated, gin.H{
			"token":    s.Token,
			"ws_url":   "/api/v1/session/" + s.Token + "/ws",
			"snapshot": s.Snapshot(),
			"summary":  s.Summary(),
		})
	}
}

// GetSession returns the live or last saved summary of one of the player's sessions.
func GetSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireManager(c) {
			return
		}
		playerID, _ := playerIDFrom(c)
		sum, err := game.Manager.GetSummary(c.Request.Context(), c.Param("token"))
		if err != nil {
			writeSessionError(c, err)
			return
		}
		if sum.PlayerID != playerID {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		resp := gin.H{"summary": sum}
		if s, err := game.Manager.GetSession(sum.Token); err == nil {
			resp["snapshot"] = s.Snapshot()
		}
		c.JSON(http.StatusOK, resp)
	}
}

// EndSession stops one of the player's sessions after its final save.
func EndSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireManager(c) {
			return
		}
		playerID, _ := playerIDFrom(c)
		s, err := game.Manager.GetSession(c.Param("token"))
		if err != nil || s.PlayerID != playerID {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		if err := game.Manager.EndSession(s.Token); err != nil {
			writeSessionError(c, err)
			return
		}
		sum := s.Summary()
		log.Printf("[SESSION] player %d ended %s (score=%d)", playerID, s.Token, sum.Stats.Score)
		c.JSON(http.StatusOK, gin.H{"ended": true, "summary": sum})
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/paperball/internal/config"
	"github.com/playmatatu/paperball/internal/ws"
)

// HandleSessionWebSocket authenticates the access_token query parameter and
// hands the connection to the session's socket.
func HandleSessionWebSocket(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, err := ParseToken(cfg, c.Query("access_token"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		ws.ServeSession(c, c.Param("token"), playerID)
	}
}

package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/paperball/internal/config"
)

// Vite serves the game client here during development.
var devOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

var gameOrigins = []string{
	"https://paperball.playmatatu.com",
	"https://playmatatu.com",
}

// allowedOrigins lists the exact origins that may call the API.
func allowedOrigins(cfg *config.Config) []string {
	if !cfg.IsProduction() {
		return devOrigins
	}
	origins := append([]string(nil), gameOrigins...)
	if cfg.FrontendURL != "" {
		origins = append(origins, cfg.FrontendURL)
	}
	return origins
}

// originAllowed decides socket upgrades. Outside production any local port
// is accepted so a second client can run next to the dev server.
func originAllowed(cfg *config.Config, origin string) bool {
	if !cfg.IsProduction() {
		return strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:")
	}
	for _, o := range allowedOrigins(cfg) {
		if origin == o {
			return true
		}
	}
	return false
}

func corsConfig(cfg *config.Config) cors.Config {
	return cors.Config{
		AllowOrigins:     allowedOrigins(cfg),
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"Accept", "Cache-Control", "X-Requested-With",
		},
		// Clients read the session token off the create response.
		ExposeHeaders: []string{
			"Content-Length", "X-Session-Token", "X-Active-Sessions",
		},
		MaxAge: 12 * time.Hour,
	}
}

// CORSMiddleware applies the API's cross-origin policy for cfg.Environment.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	c := corsConfig(cfg)
	log.Printf("[CORS] %s origins: %v", cfg.Environment, c.AllowOrigins)
	return cors.New(c)
}

func isUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Connection"), "upgrade") &&
		strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

// WebSocketCORSCheck rejects socket upgrades from unknown origins. Plain
// requests pass through untouched.
func WebSocketCORSCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isUpgrade(c) {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		switch {
		case origin == "":
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "WebSocket origin required"})
		case !originAllowed(cfg, origin):
			log.Printf("[CORS] rejected socket origin %q", origin)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "WebSocket origin not allowed"})
		default:
			c.Next()
		}
	}
}

package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/paperball/internal/api/handlers"
	"github.com/playmatatu/paperball/internal/audio"
	"github.com/playmatatu/paperball/internal/config"
	"github.com/playmatatu/paperball/internal/middleware"
	"github.com/playmatatu/paperball/internal/store"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, st store.Store, rdb *redis.Client, sounds *audio.SoundCache, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if !cfg.IsProduction() {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for API routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/config", handlers.GetConfig(cfg))
		v1.GET("/sounds/:kind", handlers.GetSound(sounds))

		auth := v1.Group("/auth")
		{
			auth.POST("/register", handlers.Register(st, cfg))
			auth.POST("/login", handlers.Login(st, rdb, cfg))
		}

		player := v1.Group("/player", handlers.AuthMiddleware(cfg))
		{
			player.GET("/stats", handlers.GetPlayerStats(st))
			player.GET("/preferences", handlers.GetPreferences(st, cfg))
			player.PUT("/preferences", handlers.UpdatePreferences(st, cfg))
			player.GET("/shots", handlers.GetShotHistory(st))
		}

		// The socket authenticates with ?access_token, browsers cannot set headers on upgrade.
		v1.GET("/session/:token/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleSessionWebSocket(cfg))

		session := v1.Group("/session", handlers.AuthMiddleware(cfg))
		{
			session.POST("", handlers.CreateSession())
			session.GET("/:token", handlers.GetSession())
			session.DELETE("/:token", handlers.EndSession())
		}
	}
}

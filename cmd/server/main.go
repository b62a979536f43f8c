package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/playmatatu/paperball/internal/api"
	"github.com/playmatatu/paperball/internal/audio"
	"github.com/playmatatu/paperball/internal/config"
	"github.com/playmatatu/paperball/internal/database"
	"github.com/playmatatu/paperball/internal/game"
	"github.com/playmatatu/paperball/internal/migrations"
	"github.com/playmatatu/paperball/internal/redis"
	"github.com/playmatatu/paperball/internal/store"
	"github.com/playmatatu/paperball/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence: Postgres when configured, otherwise in memory.
	var st store.Store
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Println("↗ Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.DefaultDir); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
		st = store.NewPostgresStore(db)
	} else {
		log.Println("[DB] DATABASE_URL not set; players and scores are kept in memory")
		st = store.NewMemoryStore()
	}

	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		st = store.NewRedisCache(st, rdb)
	} else {
		log.Println("[REDIS] REDIS_URL not set; profile cache and session events disabled")
	}

	// Sound effects are synthesized once and shared by every session.
	var playback audio.PlaybackPort = audio.NullPort{}
	if cfg.AudioBackend == config.AudioSpeaker {
		sp, err := audio.NewSpeakerPort(cfg.SFXVolume)
		if err != nil {
			log.Printf("[AUDIO] speaker unavailable, sounds disabled on host: %v", err)
		} else {
			defer sp.Close()
			playback = sp
		}
	}
	sounds := audio.NewSoundCache(playback)
	log.Printf("[AUDIO] %d effects synthesized (backend=%s)", len(audio.Kinds()), cfg.AudioBackend)

	game.InitializeManager(ctx, st, rdb, cfg, sounds, ws.GameHub)

	ws.SetRedisClient(rdb)
	ws.StartSessionEventSubscriber(ctx)

	game.StartIdleWorker(ctx, game.Manager, rdb, cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, st, rdb, sounds, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting Paperball server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	// Sessions write their final profile save before we close the stores.
	game.Manager.Shutdown()
	sounds.Wait()
}

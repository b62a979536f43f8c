package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/playmatatu/paperball/internal/config"
	"github.com/playmatatu/paperball/internal/game"
	"github.com/playmatatu/paperball/internal/models"
	"github.com/playmatatu/paperball/internal/store"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxDisplayName   = 32
	loginMaxAttempts = 5
	loginLockout     = 15 * time.Minute
)

var errInvalidToken = errors.New("invalid token")

// IssueToken signs an HS256 access token for the player.
func IssueToken(cfg *config.Config, playerID int) (string, time.Time, error) {
	minutes := cfg.SessionTimeoutMin
	if minutes <= 0 {
		minutes = 30
	}
	exp := time.Now().Add(time.Duration(minutes) * time.Minute)
	claims := jwt.MapClaims{"player_id": playerID, "exp": exp.Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// ParseToken validates an access token and returns its player ID.
func ParseToken(cfg *config.Config, token string) (int, error) {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, errInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errInvalidToken
	}
	playerIDf, ok := claims["player_id"].(float64)
	if !ok || playerIDf <= 0 {
		return 0, errInvalidToken
	}
	return int(playerIDf), nil
}

// AuthMiddleware requires a Bearer access token and sets "player_id".
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		playerID, err := ParseToken(cfg, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("player_id", playerID)
		c.Next()
	}
}

// validPIN accepts 4 to 6 digits.
func validPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Register creates a player with a PIN and returns an access token.
func Register(st store.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DisplayName string `json:"display_name"`
			PIN         string `json:"pin"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display_name and pin required"})
			return
		}
		name := strings.TrimSpace(req.DisplayName)
		if name == "" || len(name) > maxDisplayName {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("display_name must be 1-%d characters", maxDisplayName)})
			return
		}
		if !validPIN(req.PIN) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be 4-6 digits"})
			return
		}

		pinHash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[AUTH] Register bcrypt error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		player := &models.Player{DisplayName: name, PinHash: string(pinHash)}
		profile := game.NewProfile(game.ConfigPreferences(cfg))
		if err := st.CreatePlayer(c.Request.Context(), player, profile); err != nil {
			log.Printf("[AUTH] Register store error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		token, exp, err := IssueToken(cfg, player.ID)
		if err != nil {
			log.Printf("[AUTH] %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		log.Printf("[AUTH] registered player %d (%s)", player.ID, player.DisplayName)
		c.JSON(http.StatusCreated, gin.H{
			"token":      token,
			"expires_at": exp.Format(time.RFC3339),
			"player":     player,
		})
	}
}

// Login exchanges a player ID and PIN for an access token. With Redis,
// repeated failures lock the player out for a while.
func Login(st store.Store, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerID int    `json:"player_id"`
			PIN      string `json:"pin"`
		}
		if err := c.BindJSON(&req); err != nil || req.PlayerID <= 0 || req.PIN == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id and pin required"})
			return
		}

		ctx := c.Request.Context()
		failKey := fmt.Sprintf("pin_fail:%d", req.PlayerID)
		if rdb != nil {
			if n, err := rdb.Get(ctx, failKey).Int(); err == nil && n >= loginMaxAttempts {
				ttl, _ := rdb.TTL(ctx, failKey).Result()
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":             "too many failed attempts, try again later",
					"minutes_remaining": int(ttl.Minutes()) + 1,
				})
				return
			}
		}

		player, err := st.GetPlayer(ctx, req.PlayerID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect player or PIN"})
			return
		}
		if err != nil {
			log.Printf("[AUTH] Login store error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(player.PinHash), []byte(req.PIN)); err != nil {
			recordLoginFailure(ctx, rdb, failKey)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect player or PIN"})
			return
		}
		if rdb != nil {
			rdb.Del(ctx, failKey)
		}

		token, exp, err := IssueToken(cfg, player.ID)
		if err != nil {
			log.Printf("[AUTH] %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_at": exp.Format(time.RFC3339),
			"player":     player,
		})
	}
}

func recordLoginFailure(ctx context.Context, rdb *redis.Client, key string) {
	if rdb == nil {
		return
	}
	n, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[AUTH] failed to count login failure: %v", err)
		return
	}
	if n == 1 {
		rdb.Expire(ctx, key, loginLockout)
	}
	if n >= loginMaxAttempts {
		log.Printf("[AUTH] %s locked after %d failed attempts", key, n)
	}
}

func playerIDFrom(c *gin.Context) (int, bool) {
	v, ok := c.Get("player_id")
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

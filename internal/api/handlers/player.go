package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/paperball/internal/config"
	"github.com/playmatatu/paperball/internal/game"
	"github.com/playmatatu/paperball/internal/store"
)

func liveSession(playerID int) (*game.Session, bool) {
	if game.Manager == nil {
		return nil, false
	}
	return game.Manager.SessionForPlayer(playerID)
}

// GetPlayerStats returns lifetime counters, preferring the live session's.
func GetPlayerStats(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, _ := playerIDFrom(c)

		if s, ok := liveSession(playerID); ok {
			sum := s.Summary()
			c.JSON(http.StatusOK, gin.H{
				"player_id":     playerID,
				"stats":         sum.Stats,
				"accuracy":      sum.Accuracy,
				"session_token": sum.Token,
			})
			return
		}

		profile, err := st.LoadProfile(c.Request.Context(), playerID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		if err != nil {
			log.Printf("[API] load profile %d: %v", playerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"player_id": playerID,
			"stats":     game.StatsFromProfile(profile),
			"accuracy":  profile.Accuracy(),
		})
	}
}

// GetPreferences returns the player's effective settings.
func GetPreferences(st store.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, _ := playerIDFrom(c)
		profile, err := st.LoadProfile(c.Request.Context(), playerID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		if err != nil {
			log.Printf("[API] load profile %d: %v", playerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		prefs := game.PreferencesFromProfile(profile, game.ConfigPreferences(cfg))
		seenSplash := profile.SeenSplash
		if s, ok := liveSession(playerID); ok {
			prefs = s.Summary().Preferences
			seenSplash = s.SeenSplash()
		}
		c.JSON(http.StatusOK, gin.H{
			"preferences": prefs,
			"seen_splash": seenSplash,
			"cup":         game.SavedCup(profile),
		})
	}
}

type preferencesRequest struct {
	ControlScheme *string  `json:"control_scheme"`
	BallSizeMult  *float64 `json:"ball_size_mult"`
	CupSizeMult   *float64 `json:"cup_size_mult"`
	CupDraggable  *bool    `json:"cup_draggable"`
	SoundEnabled  *bool    `json:"sound_enabled"`
	HapticEnabled *bool    `json:"haptic_enabled"`
	SeenSplash    *bool    `json:"seen_splash"`
}

func (r preferencesRequest) merge(p game.Preferences) game.Preferences {
	if r.ControlScheme != nil {
		p.ControlScheme = game.ParseControlScheme(*r.ControlScheme)
	}
	if r.BallSizeMult != nil {
		p.BallSizeMult = *r.BallSizeMult
	}
	if r.CupSizeMult != nil {
		p.CupSizeMult = *r.CupSizeMult
	}
	if r.CupDraggable != nil {
		p.CupDraggable = *r.CupDraggable
	}
	if r.SoundEnabled != nil {
		p.SoundEnabled = *r.SoundEnabled
	}
	if r.HapticEnabled != nil {
		p.HapticEnabled = *r.HapticEnabled
	}
	return p.Normalize()
}

// UpdatePreferences changes the fields present in the body. A live session
// applies them immediately.
func UpdatePreferences(st store.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, _ := playerIDFrom(c)
		var req preferencesRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preferences"})
			return
		}

		if s, ok := liveSession(playerID); ok {
			prefs := req.merge(s.Summary().Preferences)
			if err := s.SetPreferences(prefs); err != nil {
				writeSessionError(c, err)
				return
			}
			if req.SeenSplash != nil {
				if err := s.SetSeenSplash(*req.SeenSplash); err != nil {
					writeSessionError(c, err)
					return
				}
			}
			c.JSON(http.StatusOK, gin.H{"preferences": s.Summary().Preferences})
			return
		}

		ctx := c.Request.Context()
		profile, err := st.LoadProfile(ctx, playerID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		if err != nil {
			log.Printf("[API] load profile %d: %v", playerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		prefs := req.merge(game.PreferencesFromProfile(profile, game.ConfigPreferences(cfg)))
		game.ApplyPreferences(profile, prefs)
		if req.SeenSplash != nil {
			profile.SeenSplash = *req.SeenSplash
		}
		if err := st.SaveProfile(ctx, profile); err != nil {
			log.Printf("[API] save profile %d: %v", playerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"preferences": prefs})
	}
}

// GetShotHistory returns the player's most recent shots, newest first.
func GetShotHistory(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, _ := playerIDFrom(c)
		limit, _ := strconv.Atoi(c.Query("limit"))
		shots, err := st.RecentShots(c.Request.Context(), playerID, store.ClampLimit(limit))
		if err != nil {
			log.Printf("[API] recent shots %d: %v", playerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"shots": shots, "count": len(shots)})
	}
}

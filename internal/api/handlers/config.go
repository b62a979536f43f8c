package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/paperball/internal/audio"
	"github.com/playmatatu/paperball/internal/config"
	"github.com/playmatatu/paperball/internal/game"
)

// GetConfig returns the defaults and physics constants a client needs to
// draw and predict a shot.
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		t := game.DefaultTuning()
		kinds := make([]string, 0, 4)
		for _, k := range audio.Kinds() {
			kinds = append(kinds, k.String())
		}
		c.JSON(http.StatusOK, gin.H{
			"screen_width":  cfg.ScreenWidth,
			"screen_height": cfg.ScreenHeight,
			"preferences":   game.ConfigPreferences(cfg),
			"audio_backend": cfg.AudioBackend,
			"sounds":        kinds,
			"physics": gin.H{
				"time_step_ms":      float64(t.TimeStep) / 1e6,
				"gravity":           t.Gravity,
				"drag":              t.Drag,
				"bounce_damping":    t.BounceDamping,
				"perfect_tolerance": t.PerfectTolerance,
				"launch_power":      game.LaunchPower,
				"max_pull":          game.MaxPull,
				"grab_radius":       game.GrabRadius,
				"ball_radius":       game.BaseBallRadius,
				"cup_width":         game.BaseCupWidth,
				"cup_height":        game.BaseCupHeight,
				"min_multiplier":    game.MinMultiplier,
				"max_multiplier":    game.MaxMultiplier,
			},
		})
	}
}

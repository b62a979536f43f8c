package handlers

import (
	"bytes"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/paperball/internal/audio"
)

// GetSound serves one synthesized effect as a WAV file.
func GetSound(sounds *audio.SoundCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, err := audio.ParseSoundKind(c.Param("kind"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown sound"})
			return
		}
		var buf bytes.Buffer
		if err := sounds.EncodeWAV(&buf, kind); err != nil {
			log.Printf("[AUDIO] encode %s: %v", kind, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, "audio/wav", buf.Bytes())
	}
}

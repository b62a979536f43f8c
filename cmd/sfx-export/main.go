package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/playmatatu/paperball/internal/audio"
	"github.com/playmatatu/paperball/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	out := flag.String("out", "./sfx", "directory to write the WAV files into")
	play := flag.Bool("play", false, "also play each sound on the host speaker")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}

	var port audio.PlaybackPort = audio.NullPort{}
	if *play {
		sp, err := audio.NewSpeakerPort(cfg.SFXVolume)
		if err != nil {
			log.Fatalf("Failed to open speaker: %v", err)
		}
		defer sp.Close()
		port = sp
	}
	cache := audio.NewSoundCache(port)

	for _, kind := range audio.Kinds() {
		path := filepath.Join(*out, kind.String()+".wav")
		if err := writeSound(cache, kind, path); err != nil {
			log.Fatalf("Failed to export %s: %v", kind, err)
		}
		log.Printf("✓ wrote %s", path)
		if *play {
			cache.Trigger(kind)
			cache.Wait()
			// Play only queues the buffer; let it finish before the next one.
			if r, ok := audio.RecipeFor(kind); ok {
				time.Sleep(r.Duration + 100*time.Millisecond)
			}
		}
	}
}

func writeSound(cache *audio.SoundCache, kind audio.SoundKind, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := cache.EncodeWAV(f, kind); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

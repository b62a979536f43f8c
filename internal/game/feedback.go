package game

import (
	"time"

	"github.com/playmatatu/paperball/internal/audio"
)

// SoundTrigger starts a cached sound without waiting for it.
type SoundTrigger interface {
	Trigger(kind audio.SoundKind)
}

// HapticPort fires a vibration pulse without waiting for it.
type HapticPort interface {
	Vibrate(d time.Duration)
}

// Impacts faster than this get the stronger bounce pulse.
const hardBounceSpeed = 150

// SoundFor maps an event to the effect it plays, if any.
func SoundFor(e Event) (audio.SoundKind, bool) {
	switch e.Kind {
	case EventBounce, EventRimHit:
		return audio.SoundBounce, true
	case EventFlick:
		return audio.SoundFlick, true
	case EventScore:
		if e.Perfect {
			return audio.SoundPerfect, true
		}
		return audio.SoundScore, true
	}
	return 0, false
}

// HapticFor maps an event to its vibration length, if any.
func HapticFor(e Event) (time.Duration, bool) {
	var ms int
	switch e.Kind {
	case EventGrab:
		ms = 20
	case EventFlick:
		ms = 60
	case EventBounce, EventRimHit:
		ms = 30
		if e.Speed > hardBounceSpeed {
			ms = 40
		}
	case EventCupWall, EventCupRelease:
		ms = 30
	case EventScore:
		ms = 70
		if e.Perfect {
			ms = 100
		}
	case EventMiss:
		ms = 200
	default:
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// Feedback turns events into sounds and vibrations.
type Feedback struct {
	sound  SoundTrigger
	haptic HapticPort
}

// NewFeedback accepts nil for either port.
func NewFeedback(sound SoundTrigger, haptic HapticPort) *Feedback {
	return &Feedback{sound: sound, haptic: haptic}
}

// Dispatch fires the feedback for events, honouring the enabled flags.
func (f *Feedback) Dispatch(events []Event, prefs Preferences) {
	for _, e := range events {
		if prefs.SoundEnabled && f.sound != nil {
			if kind, ok := SoundFor(e); ok {
				f.sound.Trigger(kind)
			}
		}
		if prefs.HapticEnabled && f.haptic != nil {
			if d, ok := HapticFor(e); ok {
				f.haptic.Vibrate(d)
			}
		}
	}
}

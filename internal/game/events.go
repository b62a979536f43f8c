package game

import "fmt"

// EventKind classifies something that happened during a frame.
type EventKind int

const (
	EventBounce EventKind = iota
	EventRimHit
	EventCupWall
	EventScore
	EventFlick
	EventMiss

	// Gesture-side events; haptics only.
	EventGrab
	EventCupRelease
	EventRespawn
)

var eventKindNames = map[EventKind]string{
	EventBounce:     "bounce",
	EventRimHit:     "rim_hit",
	EventCupWall:    "cup_wall",
	EventScore:      "score",
	EventFlick:      "flick",
	EventMiss:       "miss",
	EventGrab:       "grab",
	EventCupRelease: "cup_release",
	EventRespawn:    "respawn",
}

func (k EventKind) String() string {
	if n, ok := eventKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("event(%d)", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Surface names what the ball hit.
type Surface string

const (
	SurfaceFloor     Surface = "floor"
	SurfaceCeiling   Surface = "ceiling"
	SurfaceLeftWall  Surface = "left_wall"
	SurfaceRightWall Surface = "right_wall"
	SurfaceRim       Surface = "rim"
	SurfaceCupWall   Surface = "cup_wall"
)

// MissReason explains why a flight ended without scoring.
type MissReason string

const (
	MissSettled     MissReason = "settled"
	MissStuck       MissReason = "stuck"
	MissOutOfBounds MissReason = "out_of_bounds"
	MissInvalid     MissReason = "invalid"
)

// Event is produced by a physics step or a gesture and consumed by the
// sound and haptic feedback layer. Events are never persisted.
type Event struct {
	Kind    EventKind  `json:"kind"`
	Surface Surface    `json:"surface,omitempty"`
	Speed   float64    `json:"speed,omitempty"`
	Perfect bool       `json:"perfect,omitempty"`
	Reason  MissReason `json:"reason,omitempty"`
}

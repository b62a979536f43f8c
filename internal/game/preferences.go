package game

import "strings"

// ControlScheme selects how a drag becomes a launch velocity.
type ControlScheme string

const (
	// SchemePull launches away from the pull, slingshot style.
	SchemePull ControlScheme = "pull"
	// SchemeNormal launches along the drag from the spawn point.
	SchemeNormal ControlScheme = "normal"
)

// ParseControlScheme returns SchemePull for anything it does not recognise.
func ParseControlScheme(s string) ControlScheme {
	switch ControlScheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeNormal:
		return SchemeNormal
	default:
		return SchemePull
	}
}

// Preferences are the player-adjustable settings read at session start.
type Preferences struct {
	ControlScheme ControlScheme `json:"control_scheme"`
	BallSizeMult  float64       `json:"ball_size_mult"`
	CupSizeMult   float64       `json:"cup_size_mult"`
	CupDraggable  bool          `json:"cup_draggable"`
	SoundEnabled  bool          `json:"sound_enabled"`
	HapticEnabled bool          `json:"haptic_enabled"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		ControlScheme: SchemePull,
		BallSizeMult:  1,
		CupSizeMult:   1,
		CupDraggable:  true,
		SoundEnabled:  true,
		HapticEnabled: true,
	}
}

// Normalize clamps multipliers and defaults an unknown control scheme.
func (p Preferences) Normalize() Preferences {
	p.ControlScheme = ParseControlScheme(string(p.ControlScheme))
	p.BallSizeMult = ClampMultiplier(p.BallSizeMult)
	p.CupSizeMult = ClampMultiplier(p.CupSizeMult)
	return p
}

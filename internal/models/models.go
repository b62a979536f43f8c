package models

import (
	"database/sql"
	"time"
)

// Player is a registered account.
type Player struct {
	ID          int          `db:"id" json:"id"`
	DisplayName string       `db:"display_name" json:"display_name"`
	PinHash     string       `db:"pin_hash" json:"-"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	LastActive  sql.NullTime `db:"last_active" json:"-"`
}

// Profile holds a player's lifetime counters and preferences. Zero-valued
// multipliers and an empty control scheme mean "use the server default".
type Profile struct {
	PlayerID    int `db:"player_id" json:"player_id"`
	HighScore   int `db:"high_score" json:"high_score"`
	BestStreak  int `db:"best_streak" json:"best_streak"`
	TotalShots  int `db:"total_shots" json:"total_shots"`
	TotalScores int `db:"total_scores" json:"total_scores"`
	Perfects    int `db:"perfects" json:"perfects"`
	Attempts    int `db:"attempts" json:"attempts"`

	ControlScheme string   `db:"control_scheme" json:"control_scheme"`
	BallSizeMult  float64  `db:"ball_size_mult" json:"ball_size_mult"`
	CupSizeMult   float64  `db:"cup_size_mult" json:"cup_size_mult"`
	CupDraggable  bool     `db:"cup_draggable" json:"cup_draggable"`
	SoundEnabled  bool     `db:"sound_enabled" json:"sound_enabled"`
	HapticEnabled bool     `db:"haptic_enabled" json:"haptic_enabled"`
	CupX          *float64 `db:"cup_x" json:"cup_x,omitempty"`
	CupY          *float64 `db:"cup_y" json:"cup_y,omitempty"`
	SeenSplash    bool     `db:"seen_splash" json:"seen_splash"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Accuracy is total scores over total shots, as a percentage.
func (p *Profile) Accuracy() float64 {
	if p.TotalShots == 0 {
		return 0
	}
	return float64(p.TotalScores) / float64(p.TotalShots) * 100
}

// ShotRecord is one finished flight.
type ShotRecord struct {
	ID           int64     `db:"id" json:"id"`
	PlayerID     int       `db:"player_id" json:"player_id"`
	SessionToken string    `db:"session_token" json:"session_token"`
	Outcome      string    `db:"outcome" json:"outcome"`
	Perfect      bool      `db:"perfect" json:"perfect"`
	MissReason   string    `db:"miss_reason" json:"miss_reason,omitempty"`
	LaunchVX     float64   `db:"launch_vx" json:"launch_vx"`
	LaunchVY     float64   `db:"launch_vy" json:"launch_vy"`
	Frames       int       `db:"frames" json:"frames"`
	Bounces      int       `db:"bounces" json:"bounces"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

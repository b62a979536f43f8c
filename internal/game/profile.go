package game

import "github.com/playmatatu/paperball/internal/models"

// PreferencesFromProfile overlays a stored profile on the server defaults.
// An empty scheme or a zero multiplier keeps the default.
func PreferencesFromProfile(p *models.Profile, defaults Preferences) Preferences {
	prefs := defaults
	if p == nil {
		return prefs.Normalize()
	}
	if p.ControlScheme != "" {
		prefs.ControlScheme = ControlScheme(p.ControlScheme)
	}
	if p.BallSizeMult != 0 {
		prefs.BallSizeMult = p.BallSizeMult
	}
	if p.CupSizeMult != 0 {
		prefs.CupSizeMult = p.CupSizeMult
	}
	prefs.CupDraggable = p.CupDraggable
	prefs.SoundEnabled = p.SoundEnabled
	prefs.HapticEnabled = p.HapticEnabled
	return prefs.Normalize()
}

// ApplyPreferences writes prefs back onto the profile.
func ApplyPreferences(p *models.Profile, prefs Preferences) {
	prefs = prefs.Normalize()
	p.ControlScheme = string(prefs.ControlScheme)
	p.BallSizeMult = prefs.BallSizeMult
	p.CupSizeMult = prefs.CupSizeMult
	p.CupDraggable = prefs.CupDraggable
	p.SoundEnabled = prefs.SoundEnabled
	p.HapticEnabled = prefs.HapticEnabled
}

// NewProfile is the profile a freshly registered player starts with.
func NewProfile(defaults Preferences) *models.Profile {
	p := &models.Profile{}
	ApplyPreferences(p, defaults)
	return p
}

// StatsFromProfile seeds a play session with the lifetime counters.
func StatsFromProfile(p *models.Profile) *GameSession {
	if p == nil {
		return &GameSession{}
	}
	return &GameSession{
		HighScore:   p.HighScore,
		BestStreak:  p.BestStreak,
		Attempts:    p.Attempts,
		TotalShots:  p.TotalShots,
		TotalScores: p.TotalScores,
		Perfects:    p.Perfects,
	}
}

// ApplyStats copies the lifetime counters back onto the profile.
func ApplyStats(p *models.Profile, s GameSession) {
	p.HighScore = s.HighScore
	p.BestStreak = s.BestStreak
	p.Attempts = s.Attempts
	p.TotalShots = s.TotalShots
	p.TotalScores = s.TotalScores
	p.Perfects = s.Perfects
}

// SavedCup returns the stored cup position, nil when none was saved.
func SavedCup(p *models.Profile) *Vec2 {
	if p == nil || p.CupX == nil || p.CupY == nil {
		return nil
	}
	v := NewVec2(*p.CupX, *p.CupY)
	return &v
}

// ApplyCup records the cup position on the profile.
func ApplyCup(p *models.Profile, cup Vec2) {
	x, y := cup.X, cup.Y
	p.CupX, p.CupY = &x, &y
}

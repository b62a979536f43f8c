package game

// GameSession holds the score counters of one play session together with the
// persisted lifetime totals it was started from.
type GameSession struct {
	Score         int `json:"score"`
	CurrentStreak int `json:"current_streak"`
	BestStreak    int `json:"best_streak"`
	HighScore     int `json:"high_score"`
	Attempts      int `json:"attempts"`
	TotalShots    int `json:"total_shots"`
	TotalScores   int `json:"total_scores"`
	Perfects      int `json:"perfects"`
}

// RecordLaunch counts a released shot.
func (s *GameSession) RecordLaunch() {
	s.Attempts++
}

// RecordScore counts a scored shot and raises the records it beats.
func (s *GameSession) RecordScore(perfect bool) {
	s.Score++
	s.CurrentStreak++
	s.TotalScores++
	s.TotalShots++
	if perfect {
		s.Perfects++
	}
	if s.Score > s.HighScore {
		s.HighScore = s.Score
	}
	if s.CurrentStreak > s.BestStreak {
		s.BestStreak = s.CurrentStreak
	}
}

// RecordMiss counts a missed shot and breaks the streak.
func (s *GameSession) RecordMiss() {
	s.CurrentStreak = 0
	s.TotalShots++
}

// Accuracy is lifetime scores over lifetime shots, as a percentage.
func (s *GameSession) Accuracy() float64 {
	if s.TotalShots == 0 {
		return 0
	}
	return float64(s.TotalScores) / float64(s.TotalShots) * 100
}

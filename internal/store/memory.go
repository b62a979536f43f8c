package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/playmatatu/paperball/internal/models"
)

// MemoryStore keeps everything in process. It backs tests and DB-less runs.
type MemoryStore struct {
	mu       sync.RWMutex
	players  map[int]models.Player
	profiles map[int]*models.Profile
	shots    map[int][]models.ShotRecord
	nextID   int
	nextShot int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:  make(map[int]models.Player),
		profiles: make(map[int]*models.Profile),
		shots:    make(map[int][]models.ShotRecord),
	}
}

func (s *MemoryStore) CreatePlayer(_ context.Context, player *models.Player, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now()
	player.ID = s.nextID
	player.CreatedAt = now
	s.players[player.ID] = *player

	profile.PlayerID = player.ID
	profile.UpdatedAt = now
	s.profiles[player.ID] = cloneProfile(profile)
	return nil
}

func (s *MemoryStore) GetPlayer(_ context.Context, id int) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) LoadProfile(_ context.Context, playerID int) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[profile.PlayerID]; !ok {
		return ErrNotFound
	}
	profile.UpdatedAt = time.Now()
	s.profiles[profile.PlayerID] = cloneProfile(profile)
	return nil
}

func (s *MemoryStore) RecordShot(_ context.Context, shot *models.ShotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[shot.PlayerID]; !ok {
		return ErrNotFound
	}
	s.nextShot++
	shot.ID = s.nextShot
	shot.CreatedAt = time.Now()
	s.shots[shot.PlayerID] = append(s.shots[shot.PlayerID], *shot)
	return nil
}

// RecentShots returns the newest shots first.
func (s *MemoryStore) RecentShots(_ context.Context, playerID, limit int) ([]models.ShotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.shots[playerID]
	out := make([]models.ShotRecord, len(all))
	copy(out, all)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if limit = ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/playmatatu/paperball/internal/audio"
	"github.com/playmatatu/paperball/internal/config"
	"github.com/playmatatu/paperball/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	IdleSetKey      = "session_idle"
	EventsChannel   = "session_events"
	summaryTTL      = time.Hour
	touchResolution = time.Second
)

// Store is what the manager needs from persistence.
type Store interface {
	ProfileStore
	LoadProfile(ctx context.Context, playerID int) (*models.Profile, error)
}

// Outlet connects sessions to their clients: frames go through Publisher and
// feedback is routed to the per-session ports it hands out.
type Outlet interface {
	Publisher
	SoundPort(token string) audio.PlaybackPort
	HapticPort(token string) HapticPort
}

// SessionOptions are the per-session inputs supplied by the client.
type SessionOptions struct {
	ScreenWidth  float64
	ScreenHeight float64
}

// SessionManager tracks every live session.
type SessionManager struct {
	sessions map[string]*Session // keyed by token
	byPlayer map[int]string      // player ID -> token
	lastSeen map[string]time.Time

	store  Store
	rdb    *redis.Client
	config *config.Config
	sounds *audio.SoundCache
	outlet Outlet
	tuning Tuning

	ctx context.Context
	mu  sync.RWMutex
}

var (
	// Global session manager instance
	Manager *SessionManager
)

// InitializeManager builds the global manager. Sessions stop when ctx is cancelled.
func InitializeManager(ctx context.Context, st Store, rdb *redis.Client, cfg *config.Config, sounds *audio.SoundCache, outlet Outlet) {
	Manager = NewSessionManager(ctx, st, rdb, cfg, sounds, outlet)
}

func NewSessionManager(ctx context.Context, st Store, rdb *redis.Client, cfg *config.Config, sounds *audio.SoundCache, outlet Outlet) *SessionManager {
	if ctx == nil {
		ctx = context.Background()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		byPlayer: make(map[int]string),
		lastSeen: make(map[string]time.Time),
		store:    st,
		rdb:      rdb,
		config:   cfg,
		sounds:   sounds,
		outlet:   outlet,
		tuning:   DefaultTuning(),
		ctx:      ctx,
	}
}

// generateToken generates a secure random token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// DefaultPreferences are the server-wide defaults from configuration.
func (m *SessionManager) DefaultPreferences() Preferences {
	if m.config == nil {
		return DefaultPreferences()
	}
	return ConfigPreferences(m.config)
}

// ConfigPreferences maps the environment defaults onto Preferences.
func ConfigPreferences(cfg *config.Config) Preferences {
	return Preferences{
		ControlScheme: ParseControlScheme(cfg.ControlScheme),
		BallSizeMult:  cfg.BallSizeMult,
		CupSizeMult:   cfg.CupSizeMult,
		CupDraggable:  cfg.CupDraggable,
		SoundEnabled:  cfg.SoundEnabled,
		HapticEnabled: cfg.HapticEnabled,
	}.Normalize()
}

// CreateSession starts a new session for the player, ending any session the
// player already had.
func (m *SessionManager) CreateSession(ctx context.Context, playerID int, opts SessionOptions) (*Session, error) {
	profile, err := m.store.LoadProfile(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if old, ok := m.tokenForPlayer(playerID); ok {
		log.Printf("[SESSION] player %d opened a new session; ending %s", playerID, old)
		m.EndSession(old)
	}

	token := generateToken(16)
	arena := m.arena(opts)
	prefs := PreferencesFromProfile(profile, m.DefaultPreferences())

	cfg := SessionConfig{
		Token:    token,
		PlayerID: playerID,
		Controller: ControllerConfig{
			Arena:       arena,
			Tuning:      m.tuning,
			Preferences: prefs,
			SavedCup:    SavedCup(profile),
			Random:      mrand.New(mrand.NewSource(time.Now().UnixNano())),
		},
		Profile: profile,
		Store:   m.store,
	}
	m.wireFeedback(&cfg)

	s := NewSession(cfg)

	m.mu.Lock()
	m.sessions[token] = s
	m.byPlayer[playerID] = token
	m.mu.Unlock()

	go func() {
		s.Run(m.ctx)
		m.forget(s)
	}()

	m.Touch(token)
	if err := m.saveSummary(s.Summary()); err != nil {
		log.Printf("[REDIS] failed to save summary for %s: %v", token, err)
	}
	log.Printf("[SESSION] created %s for player %d (%.0fx%.0f, scheme=%s)", token, playerID, arena.Width, arena.Height, prefs.ControlScheme)
	return s, nil
}

func (m *SessionManager) arena(opts SessionOptions) Arena {
	w, h := opts.ScreenWidth, opts.ScreenHeight
	if !ScreenFits(w, h) && m.config != nil {
		w, h = float64(m.config.ScreenWidth), float64(m.config.ScreenHeight)
	}
	return NewArena(w, h)
}

func (m *SessionManager) wireFeedback(cfg *SessionConfig) {
	backend := config.AudioClient
	if m.config != nil {
		backend = m.config.AudioBackend
	}
	if m.outlet != nil {
		cfg.Publisher = m.outlet
		cfg.Haptic = m.outlet.HapticPort(cfg.Token)
	}
	if m.sounds == nil {
		return
	}
	switch backend {
	case config.AudioSpeaker:
		cfg.Sound = m.sounds
	case config.AudioClient:
		if m.outlet != nil {
			cfg.Sound = m.sounds.Route(m.outlet.SoundPort(cfg.Token))
		}
	}
}

// GetSession returns the live session for token.
func (m *SessionManager) GetSession(token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetSummary returns the live summary, or the last saved one for an ended session.
func (m *SessionManager) GetSummary(ctx context.Context, token string) (*SessionSummary, error) {
	if s, err := m.GetSession(token); err == nil {
		sum := s.Summary()
		return &sum, nil
	}
	if m.rdb == nil {
		return nil, ErrSessionNotFound
	}
	raw, err := m.rdb.Get(ctx, summaryKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}
	var sum SessionSummary
	if err := json.Unmarshal(raw, &sum); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &sum, nil
}

// EndSession stops the session and waits for its final save.
func (m *SessionManager) EndSession(token string) error {
	s, err := m.GetSession(token)
	if err != nil {
		return err
	}
	s.Stop()
	<-s.Done()
	m.forget(s)
	return nil
}

func (m *SessionManager) forget(s *Session) {
	m.mu.Lock()
	if cur, ok := m.sessions[s.Token]; !ok || cur != s {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, s.Token)
	delete(m.lastSeen, s.Token)
	if m.byPlayer[s.PlayerID] == s.Token {
		delete(m.byPlayer, s.PlayerID)
	}
	m.mu.Unlock()

	if m.rdb != nil {
		ctx := context.Background()
		m.rdb.ZRem(ctx, IdleSetKey, s.Token)
		sum := s.Summary()
		sum.Ended = true
		if err := m.saveSummary(sum); err != nil {
			log.Printf("[REDIS] failed to save final summary for %s: %v", s.Token, err)
		}
	}
}

func (m *SessionManager) tokenForPlayer(playerID int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.byPlayer[playerID]
	return t, ok
}

// SessionForPlayer returns the player's live session, if any.
func (m *SessionManager) SessionForPlayer(playerID int) (*Session, bool) {
	token, ok := m.tokenForPlayer(playerID)
	if !ok {
		return nil, false
	}
	s, err := m.GetSession(token)
	return s, err == nil
}

// Touch records activity on a session and pushes its idle deadline out.
// Redis is written at most once per second per session.
func (m *SessionManager) Touch(token string) {
	s, err := m.GetSession(token)
	if err != nil {
		return
	}
	s.Touch()

	now := time.Now()
	m.mu.Lock()
	if now.Sub(m.lastSeen[token]) < touchResolution {
		m.mu.Unlock()
		return
	}
	m.lastSeen[token] = now
	m.mu.Unlock()

	if m.rdb == nil || m.config == nil {
		return
	}
	deadline := now.Add(time.Duration(m.config.SessionIdleSeconds) * time.Second)
	ctx := context.Background()
	if err := m.rdb.ZAdd(ctx, IdleSetKey, redis.Z{Score: float64(deadline.Unix()), Member: token}).Err(); err != nil {
		log.Printf("[REDIS] failed to touch %s: %v", token, err)
	}
	if err := m.saveSummary(s.Summary()); err != nil {
		log.Printf("[REDIS] failed to save summary for %s: %v", token, err)
	}
}

// Sessions returns every live session.
func (m *SessionManager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *SessionManager) ActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown ends every session.
func (m *SessionManager) Shutdown() {
	for _, s := range m.Sessions() {
		m.EndSession(s.Token)
	}
}

func summaryKey(token string) string {
	return "session:" + token + ":state"
}

// saveSummary persists the session summary to Redis
func (m *SessionManager) saveSummary(sum SessionSummary) error {
	if m.rdb == nil {
		return nil // No Redis client, skip
	}
	data, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	return m.rdb.SetEx(context.Background(), summaryKey(sum.Token), data, summaryTTL).Err()
}

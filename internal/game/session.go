package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playmatatu/paperball/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
)

const (
	commandBuffer  = 64
	persistBuffer  = 32
	persistTimeout = 5 * time.Second
)

// Frame is what a session publishes after a tick in which something changed.
type Frame struct {
	Token    string   `json:"token"`
	Seq      uint64   `json:"seq"`
	Snapshot Snapshot `json:"snapshot"`
	Events   []Event  `json:"events,omitempty"`
}

// Publisher delivers frames to whoever is watching a session.
type Publisher interface {
	PublishFrame(token string, frame Frame)
}

// ProfileStore is the persistence a running session writes through.
type ProfileStore interface {
	SaveProfile(ctx context.Context, profile *models.Profile) error
	RecordShot(ctx context.Context, shot *models.ShotRecord) error
}

type SessionConfig struct {
	Token      string
	PlayerID   int
	Controller ControllerConfig
	Profile    *models.Profile
	Store      ProfileStore
	Publisher  Publisher
	Sound      SoundTrigger
	Haptic     HapticPort
	// TickInterval is the wall-clock time between frames. Each frame still
	// advances the simulation by exactly one Tuning.TimeStep.
	TickInterval time.Duration
}

// SessionSummary is the JSON view of a session kept in Redis and returned by the API.
type SessionSummary struct {
	Token       string      `json:"token"`
	PlayerID    int         `json:"player_id"`
	State       ShotState   `json:"state"`
	Stats       GameSession `json:"stats"`
	Accuracy    float64     `json:"accuracy"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
	LastActive  time.Time   `json:"last_active"`
	Ended       bool        `json:"ended"`
}

type command struct {
	apply func(s *Session) ([]Event, error)
	reply chan error
}

// Session is one player's live game. The controller, counters and profile
// are owned by the Run goroutine; every other goroutine talks to it through
// the command channel and reads the last published snapshot.
type Session struct {
	Token     string
	PlayerID  int
	CreatedAt time.Time

	ctrl      *ShotController
	stats     *GameSession
	profile   *models.Profile
	feedback  *Feedback
	store     ProfileStore
	publisher Publisher
	interval  time.Duration

	commands chan command
	persist  chan func(context.Context)
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	lastActive atomic.Int64
	seq        uint64
	pending    []Event
	dirty      bool

	mu         sync.RWMutex
	view       Snapshot
	prefs      Preferences
	seenSplash bool
}

func NewSession(cfg SessionConfig) *Session {
	profile := cfg.Profile
	if profile == nil {
		profile = &models.Profile{PlayerID: cfg.PlayerID}
	}
	stats := StatsFromProfile(profile)
	ctrl := NewShotController(cfg.Controller, stats)

	interval := cfg.TickInterval
	if interval <= 0 {
		interval = ctrl.world.Tuning.TimeStep
	}

	s := &Session{
		Token:      cfg.Token,
		PlayerID:   cfg.PlayerID,
		CreatedAt:  time.Now(),
		ctrl:       ctrl,
		stats:      stats,
		profile:    profile,
		feedback:   NewFeedback(cfg.Sound, cfg.Haptic),
		store:      cfg.Store,
		publisher:  cfg.Publisher,
		interval:   interval,
		commands:   make(chan command, commandBuffer),
		persist:    make(chan func(context.Context), persistBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		view:       ctrl.Snapshot(),
		prefs:      ctrl.Preferences(),
		seenSplash: profile.SeenSplash,
	}
	s.lastActive.Store(s.CreatedAt.UnixNano())
	return s
}

// Run drives the session until ctx is cancelled or Stop is called. The
// profile is saved one last time before it returns.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		s.persistLoop()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("[SESSION] %s started for player %d", s.Token, s.PlayerID)
	for {
		select {
		case <-ctx.Done():
			s.finish(&writer)
			return
		case <-s.stop:
			s.finish(&writer)
			return
		case cmd := <-s.commands:
			s.apply(cmd)
		case <-ticker.C:
			s.tick()
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) finish(writer *sync.WaitGroup) {
	ApplyStats(s.profile, *s.stats)
	s.saveProfile()
	close(s.persist)
	writer.Wait()
	log.Printf("[SESSION] %s ended for player %d (score=%d shots=%d)", s.Token, s.PlayerID, s.stats.Score, s.stats.TotalShots)
}

func (s *Session) persistLoop() {
	for fn := range s.persist {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		fn(ctx)
		cancel()
	}
}

func (s *Session) enqueue(fn func(context.Context)) {
	if s.store == nil {
		return
	}
	select {
	case s.persist <- fn:
	default:
		log.Printf("[SESSION] %s persistence queue full; dropping write", s.Token)
	}
}

func (s *Session) saveProfile() {
	p := *s.profile
	s.enqueue(func(ctx context.Context) {
		if err := s.store.SaveProfile(ctx, &p); err != nil {
			log.Printf("[SESSION] %s failed to save profile for player %d: %v", s.Token, s.PlayerID, err)
		}
	})
}

func (s *Session) recordOutcome() {
	f := s.ctrl.Flight()
	if f == nil {
		return
	}
	ApplyStats(s.profile, *s.stats)

	shot := &models.ShotRecord{
		PlayerID:     s.PlayerID,
		SessionToken: s.Token,
		Outcome:      f.Outcome.String(),
		Perfect:      f.Perfect,
		MissReason:   string(f.Reason),
		LaunchVX:     f.Launch.X,
		LaunchVY:     f.Launch.Y,
		Frames:       f.Frames,
		Bounces:      f.Bounces,
	}
	if f.Outcome == OutcomeScored {
		log.Printf("[SESSION] %s scored (perfect=%v, score=%d, streak=%d)", s.Token, f.Perfect, s.stats.Score, s.stats.CurrentStreak)
	} else {
		log.Printf("[SESSION] %s missed (%s after %d frames)", s.Token, f.Reason, f.Frames)
	}

	s.enqueue(func(ctx context.Context) {
		if err := s.store.RecordShot(ctx, shot); err != nil {
			log.Printf("[SESSION] %s failed to record shot: %v", s.Token, err)
		}
	})
	s.saveProfile()
}

func (s *Session) apply(cmd command) {
	events, err := cmd.apply(s)
	s.dirty = true
	if len(events) > 0 {
		for _, e := range events {
			switch e.Kind {
			case EventFlick:
				log.Printf("[SESSION] %s launched at %.0f units/s", s.Token, e.Speed)
			case EventCupRelease:
				ApplyCup(s.profile, s.ctrl.Cup().Position)
				s.saveProfile()
			}
		}
		s.feedback.Dispatch(events, s.ctrl.Preferences())
		s.pending = append(s.pending, events...)
	}
	cmd.reply <- err
}

func (s *Session) tick() {
	events := s.ctrl.Tick()
	for _, e := range events {
		switch e.Kind {
		case EventScore, EventMiss:
			s.recordOutcome()
		case EventRespawn:
			ApplyCup(s.profile, s.ctrl.Cup().Position)
			s.saveProfile()
		}
	}
	s.feedback.Dispatch(events, s.ctrl.Preferences())

	var frameEvents []Event
	if n := len(s.pending) + len(events); n > 0 {
		frameEvents = make([]Event, 0, n)
		frameEvents = append(frameEvents, s.pending...)
		frameEvents = append(frameEvents, events...)
		s.pending = s.pending[:0]
	}

	snap := s.ctrl.Snapshot()
	s.mu.Lock()
	s.view = snap
	s.prefs = s.ctrl.Preferences()
	s.mu.Unlock()

	changed := s.dirty || len(frameEvents) > 0 || snap.State != StateIdle || len(snap.Particles) > 0 || snap.Glow > 0
	s.dirty = false
	if !changed || s.publisher == nil {
		return
	}
	s.seq++
	s.publisher.PublishFrame(s.Token, Frame{Token: s.Token, Seq: s.seq, Snapshot: snap, Events: frameEvents})
}

func (s *Session) do(fn func(s *Session) ([]Event, error)) error {
	cmd := command{apply: fn, reply: make(chan error, 1)}
	select {
	case s.commands <- cmd:
	case <-s.done:
		return ErrSessionClosed
	}
	s.Touch()
	select {
	case err := <-cmd.reply:
		return err
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) DragStart(p Vec2) error {
	return s.do(func(s *Session) ([]Event, error) {
		return s.ctrl.DragStart(p), nil
	})
}

func (s *Session) DragMove(delta Vec2) error {
	return s.do(func(s *Session) ([]Event, error) {
		s.ctrl.DragMove(delta)
		return nil, nil
	})
}

func (s *Session) DragEnd() error {
	return s.do(func(s *Session) ([]Event, error) {
		return s.ctrl.DragEnd(), nil
	})
}

// MoveCup places the cup and persists its new position.
func (s *Session) MoveCup(p Vec2) error {
	return s.do(func(s *Session) ([]Event, error) {
		if err := s.ctrl.MoveCup(p); err != nil {
			return nil, err
		}
		ApplyCup(s.profile, s.ctrl.Cup().Position)
		s.saveProfile()
		return nil, nil
	})
}

// SetPreferences applies and persists new player settings.
func (s *Session) SetPreferences(p Preferences) error {
	return s.do(func(s *Session) ([]Event, error) {
		if err := s.ctrl.SetPreferences(p); err != nil {
			return nil, err
		}
		ApplyPreferences(s.profile, s.ctrl.Preferences())
		ApplyCup(s.profile, s.ctrl.Cup().Position)
		s.mu.Lock()
		s.prefs = s.ctrl.Preferences()
		s.mu.Unlock()
		s.saveProfile()
		return nil, nil
	})
}

// SetSeenSplash records whether the player has dismissed the intro screen.
func (s *Session) SetSeenSplash(seen bool) error {
	return s.do(func(s *Session) ([]Event, error) {
		if s.profile.SeenSplash != seen {
			s.profile.SeenSplash = seen
			s.saveProfile()
		}
		s.mu.Lock()
		s.seenSplash = seen
		s.mu.Unlock()
		return nil, nil
	})
}

// SeenSplash reports the intro flag as the session last set it, ahead of
// the asynchronous profile save.
func (s *Session) SeenSplash() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seenSplash
}

func (s *Session) Pause() error {
	return s.do(func(s *Session) ([]Event, error) {
		s.ctrl.Pause()
		return nil, nil
	})
}

func (s *Session) Resume() error {
	return s.do(func(s *Session) ([]Event, error) {
		s.ctrl.Resume()
		return nil, nil
	})
}

// Snapshot returns the state as of the last tick.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

func (s *Session) Summary() SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ended := false
	select {
	case <-s.done:
		ended = true
	default:
	}
	return SessionSummary{
		Token:       s.Token,
		PlayerID:    s.PlayerID,
		State:       s.view.State,
		Stats:       s.view.Stats,
		Accuracy:    s.view.Accuracy,
		Preferences: s.prefs,
		CreatedAt:   s.CreatedAt,
		LastActive:  s.LastActive(),
		Ended:       ended,
	}
}

// Touch marks the session as active now.
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

package game

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrFlightActive = errors.New("cup cannot be moved while a shot is in play")
	ErrCupLocked    = errors.New("cup dragging is disabled")
)

// ShotState is the phase of the shot state machine.
type ShotState int

const (
	StateIdle ShotState = iota
	StateArmed
	StateFlying
	StateResolving
)

func (s ShotState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateFlying:
		return "flying"
	case StateResolving:
		return "resolving"
	default:
		return "unknown"
	}
}

func (s ShotState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type dragMode int

const (
	dragNone dragMode = iota
	dragBall
	dragCup
)

// ControllerConfig configures a ShotController.
type ControllerConfig struct {
	Arena       Arena
	Tuning      Tuning
	Preferences Preferences
	// SavedCup is the persisted cup position; nil places the cup at its default spot.
	SavedCup *Vec2
	// Random drives rim jitter, particles and respawn layout.
	Random RandomSource
}

// ShotController owns the ball, the cup and the flight in progress, and
// turns gestures and frame ticks into state transitions. It is not safe for
// concurrent use; Session serializes access to it.
type ShotController struct {
	arena Arena
	world *World
	prefs Preferences
	rng   RandomSource

	state  ShotState
	paused bool
	drag   dragMode

	ball    Ball
	spawn   Vec2
	cup     Cup
	flipped bool

	flight      *Flight
	lastOutcome Outcome
	sinkLeft    int
	delayLeft   int
	sinkTarget  Vec2

	particles ParticlePool
	trail     Trail
	glow      float64

	stats *GameSession
}

// NewShotController builds an idle controller with the ball at the default spawn.
func NewShotController(cfg ControllerConfig, stats *GameSession) *ShotController {
	if cfg.Tuning.TimeStep <= 0 {
		cfg.Tuning = DefaultTuning()
	}
	if cfg.Random == nil {
		cfg.Random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if stats == nil {
		stats = &GameSession{}
	}
	if cfg.Arena.Width <= 0 || cfg.Arena.Height <= 0 {
		cfg.Arena = NewArena(cfg.Arena.Width, cfg.Arena.Height)
	}
	prefs := cfg.Preferences.Normalize()

	c := &ShotController{
		arena: cfg.Arena,
		world: NewWorld(cfg.Arena, cfg.Tuning, cfg.Random),
		prefs: prefs,
		rng:   cfg.Random,
		stats: stats,
	}
	c.cup = cfg.Arena.DefaultCup(prefs.CupSizeMult)
	if cfg.SavedCup != nil && cfg.SavedCup.IsFinite() {
		pos := *cfg.SavedCup
		if pos.Y <= 0 {
			pos.Y = c.cup.Position.Y
		}
		c.cup.Position = cfg.Arena.ClampCupPosition(c.cup, pos)
	}
	c.spawn = cfg.Arena.DefaultSpawn(BallRadius(prefs.BallSizeMult))
	c.resetBall()
	return c
}

func (c *ShotController) State() ShotState         { return c.state }
func (c *ShotController) Ball() Ball               { return c.ball }
func (c *ShotController) Cup() Cup                 { return c.cup }
func (c *ShotController) Spawn() Vec2              { return c.spawn }
func (c *ShotController) Arena() Arena             { return c.arena }
func (c *ShotController) Preferences() Preferences { return c.prefs }
func (c *ShotController) Stats() GameSession       { return *c.stats }
func (c *ShotController) Paused() bool             { return c.paused }

// Flight returns the current or just-finished flight, nil while idle.
func (c *ShotController) Flight() *Flight { return c.flight }

// Pause freezes the state machine; particles keep fading.
func (c *ShotController) Pause() {
	c.paused = true
	c.drag = dragNone
}

func (c *ShotController) Resume() {
	c.paused = false
}

// SetPreferences applies new settings. Size changes re-seat the ball and cup
// and are only allowed while idle.
func (c *ShotController) SetPreferences(p Preferences) error {
	p = p.Normalize()
	resize := p.BallSizeMult != c.prefs.BallSizeMult || p.CupSizeMult != c.prefs.CupSizeMult
	if resize && c.state != StateIdle {
		return ErrFlightActive
	}
	c.prefs = p
	if !resize {
		return nil
	}

	c.cup.SizeMult = p.CupSizeMult
	c.cup.Position = c.arena.ClampCupPosition(c.cup, c.cup.Position)
	c.spawn = c.arena.SpawnAt(c.spawn.X, BallRadius(p.BallSizeMult))
	c.drag = dragNone
	c.resetBall()
	return nil
}

// DragStart begins a gesture at p. During a shot it cancels the shot instead:
// the ball returns to the spawn point on this call and no counters change.
func (c *ShotController) DragStart(p Vec2) []Event {
	if c.state != StateIdle {
		c.cancel()
		return nil
	}
	if c.paused || !p.IsFinite() {
		return nil
	}

	switch {
	case c.cup.Contains(p) && c.prefs.CupDraggable:
		c.drag = dragCup
	case c.ball.Position.DistanceTo(p) < GrabRadius:
		c.drag = dragBall
	default:
		return nil
	}
	return []Event{{Kind: EventGrab}}
}

// DragMove applies a drag delta to whatever is held.
func (c *ShotController) DragMove(delta Vec2) {
	if c.state != StateIdle || c.paused || !delta.IsFinite() {
		return
	}

	switch c.drag {
	case dragCup:
		c.cup.Position = c.arena.ClampCupPosition(c.cup, c.cup.Position.Plus(delta))
	case dragBall:
		pos := c.ball.Position.Plus(delta)
		if c.prefs.ControlScheme == SchemePull {
			pull := pos.Minus(c.spawn)
			if pull.Magnitude() > MaxPull {
				pos = c.spawn.Plus(pull.Normalize().Times(MaxPull))
			}
			pos = pos.Clamp(0, c.arena.Width, 0, c.arena.Height)
		}
		c.ball.Position = pos
		c.ball.Rotation += delta.X * DragSpin
	}
}

// DragEnd releases the held object. Releasing the ball arms a shot.
func (c *ShotController) DragEnd() []Event {
	mode := c.drag
	c.drag = dragNone
	if c.state != StateIdle || c.paused {
		return nil
	}

	switch mode {
	case dragCup:
		return []Event{{Kind: EventCupRelease}}
	case dragBall:
		v := c.LaunchVelocity()
		if c.prefs.ControlScheme == SchemeNormal {
			c.ball.Position = c.spawn
		}
		c.ball.Velocity = v
		c.ball.InHand = false
		c.flight = NewFlight(c.ball)
		c.trail.Clear()
		c.state = StateArmed
		c.stats.RecordLaunch()
		return []Event{{Kind: EventFlick, Speed: v.Magnitude()}}
	}
	return nil
}

// LaunchVelocity is the velocity the held ball would leave with if released now.
func (c *ShotController) LaunchVelocity() Vec2 {
	if c.prefs.ControlScheme == SchemeNormal {
		return c.ball.Position.Minus(c.spawn).Times(LaunchPower)
	}
	return c.spawn.Minus(c.ball.Position).Times(LaunchPower)
}

// MoveCup places the cup directly. It is rejected unless the controller is idle.
func (c *ShotController) MoveCup(p Vec2) error {
	if c.state != StateIdle {
		return ErrFlightActive
	}
	if !c.prefs.CupDraggable {
		return ErrCupLocked
	}
	if !p.IsFinite() {
		return errors.New("cup position must be finite")
	}
	c.cup.Position = c.arena.ClampCupPosition(c.cup, p)
	return nil
}

// Tick advances one frame and returns what happened in it.
func (c *ShotController) Tick() []Event {
	c.particles.Update()
	c.glow = math.Max(0, c.glow-GlowDecay)
	if c.paused {
		return nil
	}

	switch c.state {
	case StateArmed:
		c.state = StateFlying
		return c.fly()
	case StateFlying:
		return c.fly()
	case StateResolving:
		return c.resolve()
	}
	return nil
}

func (c *ShotController) fly() []Event {
	events := c.world.Step(c.flight, c.cup)
	c.ball = c.flight.Ball
	if !c.flight.Done() {
		c.trail.Push(c.ball.Position)
		return events
	}

	c.lastOutcome = c.flight.Outcome
	c.state = StateResolving
	c.delayLeft = c.world.Tuning.Frames(ResolveDelay)
	c.sinkLeft = 0

	if c.flight.Outcome == OutcomeScored {
		c.stats.RecordScore(c.flight.Perfect)
		burst := ScoreBurst
		if c.flight.Perfect {
			burst = PerfectBurst
		}
		g := c.cup.Geometry()
		c.particles.Burst(Vec2{X: g.CenterX, Y: g.RimTop}, burst, c.rng)
		c.glow = 1
		c.sinkLeft = SinkFrames
		c.sinkTarget = c.cup.SinkTarget()
	} else {
		c.stats.RecordMiss()
		c.trail.Clear()
	}
	return events
}

func (c *ShotController) resolve() []Event {
	if c.sinkLeft > 0 {
		c.ball.Position = c.ball.Position.Plus(c.sinkTarget.Minus(c.ball.Position).Times(SinkEasing))
		c.ball.Rotation += SinkSpin
		c.sinkLeft--
		return nil
	}
	if c.delayLeft > 1 {
		c.delayLeft--
		return nil
	}

	if c.lastOutcome == OutcomeScored {
		c.relocate()
	}
	c.flight = nil
	c.resetBall()
	c.state = StateIdle
	return []Event{{Kind: EventRespawn}}
}

// cancel abandons the shot in progress without touching any counter.
func (c *ShotController) cancel() {
	c.flight = nil
	c.sinkLeft, c.delayLeft = 0, 0
	c.drag = dragNone
	c.resetBall()
	c.state = StateIdle
}

func (c *ShotController) resetBall() {
	c.ball = Ball{
		Position: c.spawn,
		Radius:   BallRadius(c.prefs.BallSizeMult),
		InHand:   true,
	}
	c.trail.Clear()
}

// relocate flips ball and cup to opposite halves of the screen and picks new
// positions, retrying for a wide enough gap between them. The gap is measured
// from the cup's clamped centre, where the cup is actually drawn.
func (c *ShotController) relocate() {
	c.flipped = !c.flipped
	ballSide, cupSide := sideA, sideB
	if c.flipped {
		ballSide, cupSide = sideB, sideA
	}

	w := c.arena.Width
	cupW := c.cup.Width()
	var ballX, cupX float64
	for attempt := 0; attempt < RespawnRetries; attempt++ {
		ballX = ballSide.sample(c.rng, w)
		cupX = clamp(cupSide.sample(c.rng, w), 0, w-cupW)
		if math.Abs(ballX-(cupX+cupW/2)) >= w*MinSeparation {
			break
		}
	}

	radius := BallRadius(c.prefs.BallSizeMult)
	c.spawn = c.arena.SpawnAt(ballX, radius)
	c.cup.Position = Vec2{
		X: cupX,
		Y: c.arena.CupRestY(c.cup.Height()),
	}
}

// Snapshot is a read-only view of one frame for rendering.
type Snapshot struct {
	State     ShotState   `json:"state"`
	Paused    bool        `json:"paused"`
	Ball      Ball        `json:"ball"`
	Spawn     Vec2        `json:"spawn"`
	Cup       Cup         `json:"cup"`
	CupWidth  float64     `json:"cup_width"`
	CupHeight float64     `json:"cup_height"`
	FloorY    float64     `json:"floor_y"`
	Trail     []Vec2      `json:"trail"`
	Particles []Particle  `json:"particles"`
	Glow      float64     `json:"glow"`
	Stats     GameSession `json:"stats"`
	Accuracy  float64     `json:"accuracy"`
}

func (c *ShotController) Snapshot() Snapshot {
	return Snapshot{
		State:     c.state,
		Paused:    c.paused,
		Ball:      c.ball,
		Spawn:     c.spawn,
		Cup:       c.cup,
		CupWidth:  c.cup.Width(),
		CupHeight: c.cup.Height(),
		FloorY:    c.arena.FloorY(),
		Trail:     c.trail.Points(),
		Particles: c.particles.AppendActive(make([]Particle, 0, c.particles.ActiveCount())),
		Glow:      c.glow,
		Stats:     *c.stats,
		Accuracy:  c.stats.Accuracy(),
	}
}

package game

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// scriptedRandom replays fixed values, then repeats the last one.
type scriptedRandom struct {
	values []float64
	i      int
}

func (s *scriptedRandom) Float64() float64 {
	if len(s.values) == 0 {
		return 0.5
	}
	v := s.values[s.i]
	if s.i < len(s.values)-1 {
		s.i++
	}
	return v
}

func newTestController(prefs Preferences) *ShotController {
	return NewShotController(ControllerConfig{
		Arena:       testArena(),
		Tuning:      DefaultTuning(),
		Preferences: prefs,
		Random:      rand.New(rand.NewSource(3)),
	}, nil)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestPullLaunch(t *testing.T) {
	c := newTestController(DefaultPreferences())
	spawn := c.Spawn()

	if ev := c.DragStart(spawn); len(ev) != 1 || ev[0].Kind != EventGrab {
		t.Fatalf("expected grab, got %+v", ev)
	}
	c.DragMove(NewVec2(-100, 200))
	if got := c.Ball().Position; !approx(got.X, spawn.X-100) || !approx(got.Y, spawn.Y+200) {
		t.Errorf("ball not dragged: %+v", got)
	}

	ev := c.DragEnd()
	if len(ev) != 1 || ev[0].Kind != EventFlick {
		t.Fatalf("expected flick, got %+v", ev)
	}
	v := c.Flight().Ball.Velocity
	if !approx(v.X, 2200) || !approx(v.Y, -4400) {
		t.Errorf("expected launch velocity (2200, -4400), got %+v", v)
	}
	if c.State() != StateArmed {
		t.Errorf("expected armed, got %s", c.State())
	}
	if c.Stats().Attempts != 1 || c.Stats().TotalShots != 0 {
		t.Errorf("launch should count an attempt only: %+v", c.Stats())
	}
}

func TestPullIsCapped(t *testing.T) {
	c := newTestController(DefaultPreferences())
	spawn := c.Spawn()

	c.DragStart(spawn)
	c.DragMove(NewVec2(0, 1000))
	if d := c.Ball().Position.DistanceTo(spawn); !approx(d, MaxPull) {
		t.Errorf("pull should cap at %v, got %v", MaxPull, d)
	}
	if v := c.LaunchVelocity(); !approx(v.Magnitude(), MaxPull*LaunchPower) {
		t.Errorf("capped launch speed wrong: %v", v.Magnitude())
	}
}

func TestNormalSchemeLaunchesFromSpawn(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.ControlScheme = SchemeNormal
	c := newTestController(prefs)
	spawn := c.Spawn()

	c.DragStart(spawn)
	c.DragMove(NewVec2(100, -300))
	c.DragEnd()

	f := c.Flight()
	if f.Ball.Position != spawn {
		t.Errorf("normal scheme should launch from spawn, got %+v", f.Ball.Position)
	}
	if !approx(f.Ball.Velocity.X, 2200) || !approx(f.Ball.Velocity.Y, -6600) {
		t.Errorf("unexpected velocity %+v", f.Ball.Velocity)
	}
}

func TestDragMissesEverything(t *testing.T) {
	c := newTestController(DefaultPreferences())
	if ev := c.DragStart(NewVec2(1000, 200)); ev != nil {
		t.Errorf("expected no grab, got %+v", ev)
	}
	if ev := c.DragEnd(); ev != nil {
		t.Errorf("expected nothing on release, got %+v", ev)
	}
	if c.State() != StateIdle {
		t.Errorf("expected idle, got %s", c.State())
	}
}

func TestCupDragIsClamped(t *testing.T) {
	c := newTestController(DefaultPreferences())

	if ev := c.DragStart(NewVec2(700, 1600)); len(ev) != 1 || ev[0].Kind != EventGrab {
		t.Fatalf("expected cup grab, got %+v", ev)
	}
	c.DragMove(NewVec2(-2000, -5000))
	if got := c.Cup().Position; got.X != 0 || got.Y != CupMinY {
		t.Errorf("cup not clamped to top-left: %+v", got)
	}
	c.DragMove(NewVec2(5000, 5000))
	maxY := testArena().Height*CupMaxYRatio - BaseCupHeight
	if got := c.Cup().Position; !approx(got.X, testArena().Width-BaseCupWidth) || !approx(got.Y, maxY) {
		t.Errorf("cup not clamped to bottom-right: %+v", got)
	}
	if ev := c.DragEnd(); len(ev) != 1 || ev[0].Kind != EventCupRelease {
		t.Errorf("expected cup release, got %+v", ev)
	}
}

func TestCupLocked(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.CupDraggable = false
	c := newTestController(prefs)
	before := c.Cup().Position

	if ev := c.DragStart(NewVec2(700, 1600)); ev != nil {
		t.Errorf("locked cup should not be grabbed: %+v", ev)
	}
	if err := c.MoveCup(NewVec2(100, 100)); !errors.Is(err, ErrCupLocked) {
		t.Errorf("expected ErrCupLocked, got %v", err)
	}
	if c.Cup().Position != before {
		t.Errorf("locked cup moved")
	}
}

func launchWeakShot(c *ShotController) {
	c.DragStart(c.Spawn())
	c.DragMove(NewVec2(0, 5))
	c.DragEnd()
}

func TestMoveCupRejectedInFlight(t *testing.T) {
	c := newTestController(DefaultPreferences())
	launchWeakShot(c)
	c.Tick()

	if err := c.MoveCup(NewVec2(100, 600)); !errors.Is(err, ErrFlightActive) {
		t.Errorf("expected ErrFlightActive, got %v", err)
	}

	resized := DefaultPreferences()
	resized.BallSizeMult = 1.5
	if err := c.SetPreferences(resized); !errors.Is(err, ErrFlightActive) {
		t.Errorf("resize in flight should fail, got %v", err)
	}
	quiet := DefaultPreferences()
	quiet.SoundEnabled = false
	if err := c.SetPreferences(quiet); err != nil {
		t.Errorf("non-size change should be allowed in flight: %v", err)
	}
}

func TestCancelDuringFlight(t *testing.T) {
	c := newTestController(DefaultPreferences())
	spawn := c.Spawn()
	c.DragStart(spawn)
	c.DragMove(NewVec2(0, 200))
	c.DragEnd()
	for i := 0; i < 5; i++ {
		c.Tick()
	}
	if c.State() != StateFlying {
		t.Fatalf("expected flying, got %s", c.State())
	}

	if ev := c.DragStart(NewVec2(10, 10)); ev != nil {
		t.Errorf("cancel should not emit events: %+v", ev)
	}
	if c.State() != StateIdle {
		t.Errorf("expected idle after cancel, got %s", c.State())
	}
	b := c.Ball()
	if b.Position != spawn || !b.Velocity.IsZero() || !b.InHand {
		t.Errorf("ball not returned to spawn: %+v", b)
	}
	if s := c.Stats(); s.Attempts != 1 || s.TotalShots != 0 || s.Score != 0 {
		t.Errorf("cancel changed counters: %+v", s)
	}
	if len(c.Snapshot().Trail) != 0 {
		t.Errorf("trail not cleared")
	}
}

func tickUntil(t *testing.T, c *ShotController, state ShotState, max int) []Event {
	t.Helper()
	for i := 0; i < max; i++ {
		ev := c.Tick()
		if c.State() == state {
			return ev
		}
	}
	t.Fatalf("state %s not reached in %d ticks (now %s)", state, max, c.State())
	return nil
}

func ticksUntilRespawn(c *ShotController, max int) int {
	for i := 1; i <= max; i++ {
		for _, e := range c.Tick() {
			if e.Kind == EventRespawn {
				return i
			}
		}
	}
	return -1
}

func TestMissResolvesAfterDelay(t *testing.T) {
	c := newTestController(DefaultPreferences())
	spawn, cup := c.Spawn(), c.Cup().Position
	launchWeakShot(c)

	ev := tickUntil(t, c, StateResolving, 600)
	if countKind(ev, EventMiss) != 1 {
		t.Fatalf("expected a miss, got %+v", ev)
	}
	if s := c.Stats(); s.TotalShots != 1 || s.CurrentStreak != 0 || s.Score != 0 {
		t.Errorf("unexpected counters after miss: %+v", s)
	}

	if n := ticksUntilRespawn(c, 200); n != 48 {
		t.Errorf("expected respawn 48 frames after a miss, got %d", n)
	}
	if c.State() != StateIdle || c.Ball().Position != spawn || c.Cup().Position != cup {
		t.Errorf("miss should respawn in place: state=%s ball=%+v cup=%+v", c.State(), c.Ball().Position, c.Cup().Position)
	}
}

func TestScoreSinksThenRelocates(t *testing.T) {
	c := newTestController(DefaultPreferences())
	g := c.Cup().Geometry()

	c.DragStart(c.Spawn())
	c.DragEnd()
	c.flight = NewFlight(testBall(g.CenterX, g.RimTop-300, 0, -1200))

	ev := tickUntil(t, c, StateResolving, 600)
	if countKind(ev, EventScore) != 1 || !ev[len(ev)-1].Perfect {
		t.Fatalf("expected a perfect score, got %+v", ev)
	}
	s := c.Stats()
	if s.Score != 1 || s.CurrentStreak != 1 || s.Perfects != 1 || s.TotalScores != 1 || s.TotalShots != 1 || s.HighScore != 1 {
		t.Errorf("unexpected counters after score: %+v", s)
	}
	snap := c.Snapshot()
	if len(snap.Particles) != PerfectBurst || snap.Glow != 1 {
		t.Errorf("expected %d particles and full glow, got %d / %v", PerfectBurst, len(snap.Particles), snap.Glow)
	}

	if ev := c.DragEnd(); ev != nil {
		t.Errorf("gestures during resolve should be ignored: %+v", ev)
	}

	if n := ticksUntilRespawn(c, 300); n != SinkFrames+48 {
		t.Errorf("expected respawn %d frames after score, got %d", SinkFrames+48, n)
	}

	w := testArena().Width
	spawn := c.Spawn()
	if spawn.X < sideB.lo*w || spawn.X > sideB.hi*w {
		t.Errorf("ball should move to the right side, x=%.1f", spawn.X)
	}
	cup := c.Cup()
	if cup.Position.X < sideA.lo*w || cup.Position.X > sideA.hi*w {
		t.Errorf("cup should move to the left side, x=%.1f", cup.Position.X)
	}
	if cup.Position.Y != testArena().CupRestY(cup.Height()) {
		t.Errorf("cup not resting on the floor: y=%.1f", cup.Position.Y)
	}
	if c.Ball().Position != spawn || c.State() != StateIdle {
		t.Errorf("ball not back in hand at new spawn")
	}
	if c.Snapshot().Glow != 0 {
		t.Errorf("glow should have decayed")
	}
}

func TestRelocateRetriesForSeparation(t *testing.T) {
	c := newTestController(DefaultPreferences())
	// First pair lands too close together, second pair is far enough apart.
	c.rng = &scriptedRandom{values: []float64{0, 0, 1, 0}}
	c.relocate()

	w := testArena().Width
	if !approx(c.Spawn().X, 0.88*w) {
		t.Errorf("expected spawn at 0.88W, got %.2f", c.Spawn().X)
	}
	if !approx(c.Cup().Position.X, 0.12*w) {
		t.Errorf("expected cup at 0.12W, got %.2f", c.Cup().Position.X)
	}
	centre := c.Cup().Position.X + c.Cup().Width()/2
	if math.Abs(c.Spawn().X-centre) < MinSeparation*w {
		t.Errorf("separation not honoured")
	}

	// A layout that never separates gives up after the retry budget.
	c.rng = &scriptedRandom{values: []float64{0.5}}
	c.relocate()
	if c.State() != StateIdle {
		t.Errorf("relocate should not change state")
	}
}

func TestRelocateMeasuresClampedCup(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.CupSizeMult = MaxMultiplier
	c := newTestController(prefs)
	c.flipped = true

	// The first cup sample lands past W-cupW and is pulled left, which puts
	// it too close to a ball at 0.40W. Only the second ball sample clears.
	c.rng = &scriptedRandom{values: []float64{1, 0, 0, 0}}
	c.relocate()

	w := testArena().Width
	cup := c.Cup()
	if !approx(cup.Position.X, w-cup.Width()) {
		t.Errorf("expected cup clamped to %.2f, got %.2f", w-cup.Width(), cup.Position.X)
	}
	if !approx(c.Spawn().X, 0.12*w) {
		t.Errorf("expected spawn retried to 0.12W, got %.2f", c.Spawn().X)
	}
	centre := cup.Position.X + cup.Width()/2
	if math.Abs(c.Spawn().X-centre) < MinSeparation*w {
		t.Errorf("spawn %.2f within %.2f of cup centre %.2f", c.Spawn().X, MinSeparation*w, centre)
	}
}

func TestPauseFreezesFlight(t *testing.T) {
	c := newTestController(DefaultPreferences())
	c.DragStart(c.Spawn())
	c.DragMove(NewVec2(0, 200))
	c.DragEnd()
	c.Tick()

	before := c.Ball().Position
	c.Pause()
	for i := 0; i < 10; i++ {
		if ev := c.Tick(); ev != nil {
			t.Fatalf("paused tick produced events: %+v", ev)
		}
	}
	if c.Ball().Position != before {
		t.Errorf("ball moved while paused")
	}
	c.Resume()
	c.Tick()
	if c.Ball().Position == before {
		t.Errorf("ball did not move after resume")
	}
}

func TestResizeReseatsBall(t *testing.T) {
	c := newTestController(DefaultPreferences())
	prefs := DefaultPreferences()
	prefs.BallSizeMult = 2
	prefs.CupSizeMult = 0.5

	if err := c.SetPreferences(prefs); err != nil {
		t.Fatalf("resize while idle: %v", err)
	}
	if r := c.Ball().Radius; r != 2*BaseBallRadius {
		t.Errorf("expected radius %v, got %v", 2*BaseBallRadius, r)
	}
	if c.Ball().Position.Y != testArena().PhysicsFloorY()-2*BaseBallRadius {
		t.Errorf("ball not re-seated on the floor")
	}
	if c.Cup().Width() != BaseCupWidth/2 {
		t.Errorf("cup not resized")
	}
}

func TestSavedCupIsClamped(t *testing.T) {
	saved := NewVec2(-500, 99999)
	c := NewShotController(ControllerConfig{
		Arena:       testArena(),
		Preferences: DefaultPreferences(),
		SavedCup:    &saved,
		Random:      rand.New(rand.NewSource(1)),
	}, nil)

	maxY := testArena().Height*CupMaxYRatio - BaseCupHeight
	if got := c.Cup().Position; got.X != 0 || !approx(got.Y, maxY) {
		t.Errorf("saved cup not clamped: %+v", got)
	}
}

func TestTrailKeepsLastPoints(t *testing.T) {
	var tr Trail
	for i := 0; i < TrailLength+3; i++ {
		tr.Push(NewVec2(float64(i), 0))
	}
	pts := tr.Points()
	if len(pts) != TrailLength || pts[0].X != 3 || pts[len(pts)-1].X != float64(TrailLength+2) {
		t.Errorf("unexpected trail: %+v", pts)
	}
	tr.Clear()
	if tr.Len() != 0 {
		t.Errorf("trail not cleared")
	}
}

func TestParticlePoolIsBounded(t *testing.T) {
	var p ParticlePool
	rng := rand.New(rand.NewSource(1))
	if n := p.Burst(Vec2{}, 60, rng); n != 60 {
		t.Fatalf("expected 60 particles, got %d", n)
	}
	if n := p.Burst(Vec2{}, 60, rng); n != ParticleCount-60 {
		t.Errorf("pool should only fill free slots, got %d", n)
	}
	for i := 0; i < 100; i++ {
		p.Update()
	}
	if p.ActiveCount() != 0 {
		t.Errorf("particles should fade out, %d left", p.ActiveCount())
	}
}

func TestGameSessionCounters(t *testing.T) {
	s := &GameSession{HighScore: 2, BestStreak: 2}
	s.RecordLaunch()
	s.RecordScore(false)
	s.RecordLaunch()
	s.RecordScore(true)
	s.RecordLaunch()
	s.RecordScore(false)
	if s.HighScore != 3 || s.BestStreak != 3 || s.Perfects != 1 {
		t.Errorf("records not raised: %+v", s)
	}
	s.RecordLaunch()
	s.RecordMiss()
	if s.CurrentStreak != 0 || s.Score != 3 || s.Attempts != 4 || s.TotalShots != 4 {
		t.Errorf("unexpected counters after miss: %+v", s)
	}
	if !approx(s.Accuracy(), 75) {
		t.Errorf("expected 75%% accuracy, got %v", s.Accuracy())
	}
}

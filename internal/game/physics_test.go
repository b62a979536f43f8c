package game

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"
)

// Default 1080x2340 arena: floor line 1918.8, physics floor 1981.8.
// Default cup: x=536, y=1420.3, rim top 1460.3, centre 776, aperture [591, 961].
func testArena() Arena {
	return NewArena(1080, 2340)
}

func newTestWorld(tuning Tuning, seed int64) *World {
	return NewWorld(testArena(), tuning, rand.New(rand.NewSource(seed)))
}

func testBall(x, y, vx, vy float64) Ball {
	return Ball{Position: NewVec2(x, y), Velocity: NewVec2(vx, vy), Radius: BaseBallRadius}
}

func countKind(events []Event, kind EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// runFlight steps until the flight ends or maxSteps is reached.
func runFlight(w *World, f *Flight, cup Cup, maxSteps int) []Event {
	var all []Event
	for i := 0; i < maxSteps && !f.Done(); i++ {
		all = append(all, w.Step(f, cup)...)
	}
	return all
}

func TestPerfectShotStraightDown(t *testing.T) {
	w := newTestWorld(DefaultTuning(), 1)
	cup := testArena().DefaultCup(1)
	g := cup.Geometry()

	f := NewFlight(testBall(g.CenterX, g.RimTop-300, 0, -1200))
	events := runFlight(w, f, cup, 600)

	if f.Outcome != OutcomeScored {
		t.Fatalf("expected scored flight, got %s (reason=%s)", f.Outcome, f.Reason)
	}
	if n := countKind(events, EventScore); n != 1 {
		t.Fatalf("expected exactly one score event, got %d", n)
	}
	if !f.Perfect || !events[len(events)-1].Perfect {
		t.Errorf("ball dropped through the centre should be perfect")
	}
	if n := countKind(events, EventMiss); n != 0 {
		t.Errorf("expected no miss events, got %d", n)
	}
}

func TestLeftWallBounce(t *testing.T) {
	w := newTestWorld(DefaultTuning(), 1)
	cup := testArena().DefaultCup(1)

	f := NewFlight(testBall(BaseBallRadius+5, 600, -500, 0))
	first := w.Step(f, cup)

	if len(first) != 1 || first[0].Kind != EventBounce || first[0].Surface != SurfaceLeftWall {
		t.Fatalf("expected a single left-wall bounce, got %+v", first)
	}
	if f.Ball.Position.X != BaseBallRadius {
		t.Errorf("ball not repositioned to wall: x=%.3f", f.Ball.Position.X)
	}
	if vx := f.Ball.Velocity.X; vx <= 0 || math.Abs(vx-300) > 5 {
		t.Errorf("reflected velocity should be about +300, got %.3f", vx)
	}

	rest := runFlight(w, f, cup, 9)
	if n := countKind(rest, EventBounce); n != 0 {
		t.Errorf("expected no further bounces, got %d", n)
	}
}

func TestStuckBallMissesAfter90Frames(t *testing.T) {
	tuning := DefaultTuning()
	tuning.Gravity = 0
	w := newTestWorld(tuning, 1)
	cup := testArena().DefaultCup(1)

	f := NewFlight(testBall(300, testArena().PhysicsFloorY()-BaseBallRadius, 0, 0))
	for i := 1; i <= 90; i++ {
		if events := w.Step(f, cup); len(events) != 0 {
			t.Fatalf("unexpected events at step %d: %+v", i, events)
		}
		if f.Done() {
			t.Fatalf("flight ended early at step %d", i)
		}
	}

	events := w.Step(f, cup)
	if len(events) != 1 || events[0].Kind != EventMiss || events[0].Reason != MissStuck {
		t.Fatalf("expected stuck miss at step 91, got %+v", events)
	}
	if f.Frames != 91 {
		t.Errorf("expected 91 frames, got %d", f.Frames)
	}
}

func TestPerfectToleranceIsStrict(t *testing.T) {
	arena := testArena()
	cup := Cup{Position: NewVec2(500, arena.CupRestY(BaseCupHeight)), SizeMult: 1}
	g := cup.Geometry()
	if g.CenterX != 740 {
		t.Fatalf("unexpected cup centre %.3f", g.CenterX)
	}

	cases := []struct {
		x       float64
		perfect bool
	}{
		{740, true},
		{769, true},
		{770, false},
		{711, true},
		{710, false},
		{800, false},
	}

	for _, tc := range cases {
		w := newTestWorld(DefaultTuning(), 1)
		f := NewFlight(testBall(tc.x, g.RimTop-5, 0, 600))
		events := w.Step(f, cup)
		if f.Outcome != OutcomeScored {
			t.Errorf("x=%.0f: expected score, got %s", tc.x, f.Outcome)
			continue
		}
		if f.Perfect != tc.perfect || events[len(events)-1].Perfect != tc.perfect {
			t.Errorf("x=%.0f: perfect=%v, want %v", tc.x, f.Perfect, tc.perfect)
		}
	}
}

func TestScoringAcrossAperture(t *testing.T) {
	cup := testArena().DefaultCup(1)
	g := cup.Geometry()

	for x := g.ApertureLeft + 1; x < g.ApertureRight; x += 7 {
		w := newTestWorld(DefaultTuning(), 1)
		f := NewFlight(testBall(x, g.RimTop-5, 0, 600))
		events := w.Step(f, cup)
		if countKind(events, EventScore) != 1 || countKind(events, EventMiss) != 0 {
			t.Errorf("x=%.1f: expected one score and no miss, got %+v", x, events)
		}
	}
}

func TestNoScoreWhenRising(t *testing.T) {
	w := newTestWorld(DefaultTuning(), 1)
	cup := testArena().DefaultCup(1)
	g := cup.Geometry()

	f := NewFlight(testBall(g.CenterX, g.RimTop+5, 0, -600))
	events := w.Step(f, cup)
	if countKind(events, EventScore) != 0 || f.Done() {
		t.Errorf("rising ball must not score: %+v", events)
	}
}

func TestRimHitDeflectsOutward(t *testing.T) {
	w := newTestWorld(DefaultTuning(), 7)
	cup := testArena().DefaultCup(1)
	g := cup.Geometry()

	f := NewFlight(testBall(g.RimLeft, g.RimTop-30, 0, 900))
	events := w.Step(f, cup)

	if len(events) != 1 || events[0].Kind != EventRimHit {
		t.Fatalf("expected one rim hit, got %+v", events)
	}
	if f.Ball.Velocity.Y >= 0 {
		t.Errorf("ball should bounce up off the rim, vy=%.3f", f.Ball.Velocity.Y)
	}
	if f.Ball.Velocity.X >= 0 {
		t.Errorf("left rim should kick the ball left, vx=%.3f", f.Ball.Velocity.X)
	}
	if f.Ball.Position.Y != g.RimTop-10 {
		t.Errorf("ball not reset above rim: y=%.3f", f.Ball.Position.Y)
	}
}

func TestRimKickAvoidsWall(t *testing.T) {
	w := newTestWorld(DefaultTuning(), 7)
	arena := testArena()
	cup := Cup{Position: NewVec2(60, arena.CupRestY(BaseCupHeight)), SizeMult: 1}
	g := cup.Geometry()

	f := NewFlight(testBall(g.RimLeft, g.RimTop-30, 0, 900))
	w.Step(f, cup)

	if f.Ball.Velocity.X <= 0 {
		t.Errorf("ball pressed against the left wall must be kicked right, vx=%.3f", f.Ball.Velocity.X)
	}
	if f.Ball.Position.X < f.Ball.Radius {
		t.Errorf("ball left the screen: x=%.3f", f.Ball.Position.X)
	}
}

func TestFloorBounceAndSettle(t *testing.T) {
	w := newTestWorld(DefaultTuning(), 1)
	cup := testArena().DefaultCup(1)
	rest := testArena().PhysicsFloorY() - BaseBallRadius

	f := NewFlight(testBall(300, rest-5, 100, 1000))
	events := w.Step(f, cup)
	if len(events) != 1 || events[0].Surface != SurfaceFloor {
		t.Fatalf("expected floor bounce, got %+v", events)
	}
	if f.Ball.Position.Y != rest || f.Ball.Velocity.Y >= 0 {
		t.Errorf("bad floor response: y=%.3f vy=%.3f", f.Ball.Position.Y, f.Ball.Velocity.Y)
	}
	if math.Abs(f.Ball.Velocity.X-100*0.99*0.9) > 1e-9 {
		t.Errorf("floor friction not applied: vx=%.6f", f.Ball.Velocity.X)
	}

	slow := NewFlight(testBall(300, rest-0.5, 0, 20))
	events = w.Step(slow, cup)
	if len(events) != 1 || events[0].Kind != EventMiss || events[0].Reason != MissSettled {
		t.Fatalf("expected settle miss, got %+v", events)
	}
}

func TestExitBottomMisses(t *testing.T) {
	tuning := DefaultTuning()
	tuning.Gravity = 0
	w := newTestWorld(tuning, 1)
	arena := testArena()

	f := NewFlight(testBall(300, arena.Height+200, 0, -5))
	events := w.Step(f, arena.DefaultCup(1))
	if len(events) != 1 || events[0].Reason != MissOutOfBounds {
		t.Fatalf("expected out of bounds miss, got %+v", events)
	}
}

func TestNonFiniteStateIsRejected(t *testing.T) {
	cup := testArena().DefaultCup(1)

	w := newTestWorld(DefaultTuning(), 1)
	f := NewFlight(testBall(300, 500, math.NaN(), 0))
	events := w.Step(f, cup)
	if len(events) != 1 || events[0].Reason != MissInvalid {
		t.Fatalf("expected invalid miss, got %+v", events)
	}
	if !f.Ball.Velocity.IsZero() {
		t.Errorf("velocity should be zeroed")
	}

	tuning := DefaultTuning()
	tuning.Gravity = math.MaxFloat64
	w = newTestWorld(tuning, 1)
	f = NewFlight(testBall(300, 500, 0, math.MaxFloat64))
	events = w.Step(f, cup)
	if len(events) != 1 || events[0].Reason != MissInvalid {
		t.Fatalf("expected invalid miss on overflow, got %+v", events)
	}
	if f.Ball.Position != NewVec2(300, 500) || !f.Ball.Velocity.IsZero() {
		t.Errorf("overflowed ball not restored: %+v", f.Ball)
	}
}

func TestFinishedFlightDoesNotStep(t *testing.T) {
	w := newTestWorld(DefaultTuning(), 1)
	f := NewFlight(testBall(300, 500, math.NaN(), 0))
	w.Step(f, testArena().DefaultCup(1))
	frames := f.Frames

	if events := w.Step(f, testArena().DefaultCup(1)); events != nil {
		t.Errorf("finished flight produced events: %+v", events)
	}
	if f.Frames != frames {
		t.Errorf("finished flight advanced")
	}
}

// randomFlights launches a spread of shots from the default spawn.
func randomFlights(seed int64, n int) []Ball {
	rng := rand.New(rand.NewSource(seed))
	spawn := testArena().DefaultSpawn(BaseBallRadius)
	balls := make([]Ball, n)
	for i := range balls {
		balls[i] = testBall(spawn.X, spawn.Y, rng.Float64()*4000-2000, -rng.Float64()*4000)
	}
	return balls
}

func TestBoundaryClampHolds(t *testing.T) {
	arena := testArena()
	cup := arena.DefaultCup(1)

	for i, ball := range randomFlights(42, 60) {
		w := newTestWorld(DefaultTuning(), int64(i))
		f := NewFlight(ball)
		for step := 0; step < 3000 && !f.Done(); step++ {
			w.Step(f, cup)
			p, r := f.Ball.Position, f.Ball.Radius
			if p.X < r || p.X > arena.Width-r || p.Y < r {
				t.Fatalf("flight %d step %d: ball out of bounds at (%.3f, %.3f)", i, step, p.X, p.Y)
			}
		}
	}
}

func TestImpactThrottle(t *testing.T) {
	cup := testArena().DefaultCup(1)
	window := DefaultTuning().ImpactThrottle
	total := 0

	for i, ball := range randomFlights(7, 60) {
		w := newTestWorld(DefaultTuning(), int64(i))
		f := NewFlight(ball)
		var last time.Duration
		seen := false
		for step := 0; step < 3000 && !f.Done(); step++ {
			for _, e := range w.Step(f, cup) {
				if e.Kind != EventBounce && e.Kind != EventRimHit {
					continue
				}
				if seen && f.Elapsed-last <= window {
					t.Fatalf("flight %d: impacts %.0fms apart", i, float64(f.Elapsed-last)/float64(time.Millisecond))
				}
				seen, last = true, f.Elapsed
				total++
			}
		}
	}
	if total == 0 {
		t.Fatalf("no impacts produced; test is not exercising the throttle")
	}
}

func TestThrottleResetsPerFlight(t *testing.T) {
	w := newTestWorld(DefaultTuning(), 1)
	cup := testArena().DefaultCup(1)

	a := NewFlight(testBall(BaseBallRadius+5, 600, -500, 0))
	if n := countKind(w.Step(a, cup), EventBounce); n != 1 {
		t.Fatalf("first flight: expected bounce, got %d", n)
	}
	b := NewFlight(testBall(BaseBallRadius+5, 600, -500, 0))
	if n := countKind(w.Step(b, cup), EventBounce); n != 1 {
		t.Fatalf("second flight: expected bounce, got %d", n)
	}
}

func TestDeterminism(t *testing.T) {
	cup := testArena().DefaultCup(1)
	g := cup.Geometry()

	run := func() ([]Event, Ball) {
		w := newTestWorld(DefaultTuning(), 99)
		f := NewFlight(testBall(g.RimLeft, g.RimTop-400, 150, -300))
		events := runFlight(w, f, cup, 3000)
		return events, f.Ball
	}

	e1, b1 := run()
	e2, b2 := run()
	if !reflect.DeepEqual(e1, e2) {
		t.Errorf("event sequences differ:\n%+v\n%+v", e1, e2)
	}
	if b1 != b2 {
		t.Errorf("final balls differ: %+v vs %+v", b1, b2)
	}
}

func TestGeometryFollowsCup(t *testing.T) {
	c := Cup{Position: NewVec2(100, 200), SizeMult: 2}
	g := c.Geometry()
	if g.RimLeft != 180 || g.RimRight != 980 || g.RimTop != 280 {
		t.Errorf("unexpected rim geometry: %+v", g)
	}
	if g.ApertureLeft != 195 || g.ApertureRight != 965 {
		t.Errorf("unexpected aperture: %+v", g)
	}

	c.Position = NewVec2(0, 0)
	if moved := c.Geometry(); moved.RimLeft != 80 || moved.RimTop != 80 {
		t.Errorf("geometry did not follow cup: %+v", moved)
	}
}

func TestNewArenaRejectsTinyScreens(t *testing.T) {
	cases := []struct {
		w, h         float64
		wantW, wantH float64
	}{
		{120, 2340, DefaultScreenWidth, 2340},
		{1080, 600, 1080, DefaultScreenHeight},
		{MinScreenWidth, MinScreenHeight, MinScreenWidth, MinScreenHeight},
		{math.Inf(1), math.NaN(), DefaultScreenWidth, DefaultScreenHeight},
	}
	for _, tc := range cases {
		a := NewArena(tc.w, tc.h)
		if a.Width != tc.wantW || a.Height != tc.wantH {
			t.Errorf("NewArena(%v, %v) = %vx%v, want %vx%v", tc.w, tc.h, a.Width, a.Height, tc.wantW, tc.wantH)
		}
	}
	if ScreenFits(120, 2340) || !ScreenFits(DefaultScreenWidth, DefaultScreenHeight) {
		t.Errorf("ScreenFits disagrees with the minimum sizes")
	}
}

func TestSmallestArenaHoldsLargestBallAndCup(t *testing.T) {
	arena := NewArena(MinScreenWidth, MinScreenHeight)
	cup := arena.DefaultCup(MaxMultiplier)
	if cup.Position.X < 0 || cup.Position.X+cup.Width() > arena.Width {
		t.Errorf("cup x=%.1f width=%.1f does not fit screen %.1f", cup.Position.X, cup.Width(), arena.Width)
	}
	if cup.Position.Y < CupMinY {
		t.Errorf("cup top %.1f above CupMinY", cup.Position.Y)
	}

	// A request for a 120-wide screen gets the default width, so the
	// clamp range [r, W-r] stays non-empty.
	narrow := NewArena(120, 2340)
	w := NewWorld(narrow, DefaultTuning(), rand.New(rand.NewSource(1)))
	r := BallRadius(MaxMultiplier)
	spawn := narrow.DefaultSpawn(r)
	f := NewFlight(Ball{Position: spawn, Velocity: NewVec2(300, -1500), Radius: r})
	wide := narrow.DefaultCup(MaxMultiplier)
	for step := 0; step < 600 && !f.Done(); step++ {
		w.Step(f, wide)
		if p := f.Ball.Position; p.X < r || p.X > narrow.Width-r {
			t.Fatalf("step %d: x=%.1f outside [%.1f, %.1f]", step, p.X, r, narrow.Width-r)
		}
	}
}

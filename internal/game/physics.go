package game

import (
	"log"
	"math"
	"time"
)

// Ball is the paper ball. While InHand the shot controller owns it; during a
// flight the physics world does.
type Ball struct {
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Rotation float64 `json:"rotation"`
	Radius   float64 `json:"radius"`
	InHand   bool    `json:"in_hand"`
}

// Outcome is the terminal state of a flight.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeScored
	OutcomeMissed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeScored:
		return "scored"
	case OutcomeMissed:
		return "missed"
	default:
		return "none"
	}
}

// Flight is one ball trajectory from launch to a terminal outcome.
type Flight struct {
	Ball    Ball
	Launch  Vec2
	Frames  int
	Elapsed time.Duration // simulated time

	Outcome Outcome
	Perfect bool
	Reason  MissReason

	Bounces int

	motionless int
	impacted   bool
	lastImpact time.Duration
}

// NewFlight starts a flight with throttle state cleared.
func NewFlight(ball Ball) *Flight {
	ball.InHand = false
	return &Flight{Ball: ball, Launch: ball.Velocity}
}

// Done reports whether the flight has reached a terminal outcome.
func (f *Flight) Done() bool {
	return f.Outcome != OutcomeNone
}

// World advances flights one fixed step at a time.
type World struct {
	Arena  Arena
	Tuning Tuning
	rng    RandomSource
}

// NewWorld builds a world. rng drives the rim-bounce jitter and must be
// seeded for reproducible runs.
func NewWorld(arena Arena, tuning Tuning, rng RandomSource) *World {
	return &World{Arena: arena, Tuning: tuning, rng: rng}
}

// Step advances f by one time step against the cup's current position and
// returns the events produced. Stepping a finished flight is a no-op.
func (w *World) Step(f *Flight, cup Cup) []Event {
	if f.Done() {
		return nil
	}

	t := w.Tuning
	dt := t.TimeStep.Seconds()
	b := &f.Ball
	r := b.Radius
	width := w.Arena.Width

	f.Frames++
	f.Elapsed += t.TimeStep

	if !b.Position.IsFinite() || !b.Velocity.IsFinite() || !isFinite(b.Rotation) {
		b.Velocity = Vec2{}
		return f.miss(nil, MissInvalid)
	}

	// 1. stuck detection
	if math.Abs(b.Velocity.X) < t.StuckSpeed && math.Abs(b.Velocity.Y) < t.StuckSpeed {
		f.motionless++
	} else {
		f.motionless = 0
	}
	if f.motionless > t.StuckFrames {
		return f.miss(nil, MissStuck)
	}

	// 2. integrate
	prev, prevRot := b.Position, b.Rotation
	b.Velocity.Y += t.Gravity * dt
	b.Velocity.X *= t.Drag
	b.Position = b.Position.Plus(b.Velocity.Times(dt))
	b.Rotation += (b.Velocity.X*0.5 + b.Velocity.Y*0.3) * dt

	if !b.Position.IsFinite() || !b.Velocity.IsFinite() || !isFinite(b.Rotation) {
		log.Printf("[PHYSICS] non-finite state at frame %d; ending flight", f.Frames)
		b.Position, b.Rotation, b.Velocity = prev, prevRot, Vec2{}
		return f.miss(nil, MissInvalid)
	}

	var events []Event

	// 3. floor
	settled := false
	floor := w.Arena.PhysicsFloorY()
	if b.Position.Y > floor-r && b.Velocity.Y > 0 {
		if math.Abs(b.Velocity.Y) > t.MinBounceSpeed {
			b.Velocity.Y = -b.Velocity.Y * t.BounceDamping
			b.Position.Y = floor - r
			b.Velocity.X *= t.FloorFriction
			events = f.impact(t, events, Event{Kind: EventBounce, Surface: SurfaceFloor, Speed: math.Abs(b.Velocity.Y)})
		} else {
			settled = true
		}
	}

	g := cup.Geometry()

	// 4. rim
	aboveOpening := b.Position.Y < g.RimTop && b.Position.Y+b.Velocity.Y*dt > g.RimTop-t.RimApproach
	nearRim := math.Abs(b.Position.X-g.RimLeft) < t.RimBand || math.Abs(b.Position.X-g.RimRight) < t.RimBand
	if nearRim && aboveOpening && b.Velocity.Y > 0 {
		leftRim := b.Position.X < g.CenterX

		kick := math.Abs(b.Velocity.X + t.RimKick)
		if leftRim {
			kick = -kick
		}
		switch {
		case b.Position.X < r+t.WallClearance && kick < 0:
			kick = math.Abs(kick)
		case b.Position.X > width-r-t.WallClearance && kick > 0:
			kick = -math.Abs(kick)
		}
		b.Velocity.X = kick*t.RimKickScale + (w.rng.Float64()*2-1)*t.RimJitter

		b.Velocity.Y = -b.Velocity.Y * t.RimRestitution
		b.Position.Y = g.RimTop - t.RimReset

		nudge := t.RimNudge
		if leftRim {
			nudge = -nudge
		}
		b.Position.X = clamp(b.Position.X+nudge, r, width-r)

		if math.Abs(b.Velocity.Y) > t.RimSoundSpeed {
			events = f.impact(t, events, Event{Kind: EventRimHit, Surface: SurfaceRim, Speed: math.Abs(b.Velocity.Y)})
		}
	}

	// 5. cup side walls
	if b.Position.Y > g.RimTop && b.Position.Y < g.Bottom {
		switch {
		case b.Position.X+r > g.Left && b.Position.X < g.Left+CupWallDepth && b.Velocity.X > 0:
			b.Velocity.X = -math.Abs(b.Velocity.X) * t.BounceDamping
			b.Position.X = clamp(g.Left-r, r*0.5, width-r*0.5)
			events = append(events, Event{Kind: EventCupWall, Surface: SurfaceCupWall, Speed: math.Abs(b.Velocity.X)})
		case b.Position.X-r < g.Right && b.Position.X > g.Right-CupWallDepth && b.Velocity.X < 0:
			b.Velocity.X = math.Abs(b.Velocity.X) * t.BounceDamping
			b.Position.X = clamp(g.Right+r, r*0.5, width-r*0.5)
			events = append(events, Event{Kind: EventCupWall, Surface: SurfaceCupWall, Speed: math.Abs(b.Velocity.X)})
		}
	}

	// 6. screen bounds, last so they win over everything above
	if b.Position.Y < r {
		if b.Velocity.Y < 0 {
			b.Velocity.Y = -b.Velocity.Y * t.BounceDamping
			events = f.impact(t, events, Event{Kind: EventBounce, Surface: SurfaceCeiling, Speed: math.Abs(b.Velocity.Y)})
		}
		b.Position.Y = r
	}
	if b.Position.X < r {
		b.Velocity.X = -b.Velocity.X * t.BounceDamping
		b.Position.X = r
		events = f.impact(t, events, Event{Kind: EventBounce, Surface: SurfaceLeftWall, Speed: math.Abs(b.Velocity.X)})
	} else if b.Position.X > width-r {
		b.Velocity.X = -b.Velocity.X * t.BounceDamping
		b.Position.X = width - r
		events = f.impact(t, events, Event{Kind: EventBounce, Surface: SurfaceRightWall, Speed: math.Abs(b.Velocity.X)})
	}

	// 7. scoring
	inAperture := b.Position.X >= g.ApertureLeft && b.Position.X <= g.ApertureRight
	crossed := b.Position.Y > g.RimTop && b.Position.Y-b.Velocity.Y*dt <= g.RimTop
	if inAperture && crossed && b.Velocity.Y > 0 {
		f.Outcome = OutcomeScored
		f.Perfect = math.Abs(b.Position.X-g.CenterX) < t.PerfectTolerance
		return append(events, Event{Kind: EventScore, Perfect: f.Perfect})
	}

	if settled {
		return f.miss(events, MissSettled)
	}
	if b.Position.Y >= w.Arena.Height+t.ExitMargin {
		return f.miss(events, MissOutOfBounds)
	}
	return events
}

// impact records a bounce or rim hit, dropping weak ones and any that land
// within the throttle window of the previous one.
func (f *Flight) impact(t Tuning, events []Event, e Event) []Event {
	f.Bounces++
	if e.Speed < t.ImpactMinSpeed {
		return events
	}
	if f.impacted && f.Elapsed-f.lastImpact <= t.ImpactThrottle {
		return events
	}
	f.impacted = true
	f.lastImpact = f.Elapsed
	return append(events, e)
}

func (f *Flight) miss(events []Event, reason MissReason) []Event {
	f.Outcome = OutcomeMissed
	f.Reason = reason
	return append(events, Event{Kind: EventMiss, Reason: reason})
}

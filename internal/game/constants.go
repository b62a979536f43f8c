package game

import "time"

// Arena and cup geometry, in screen units at multiplier 1.
const (
	BaseBallRadius = 84.0
	BaseCupWidth   = 480.0
	BaseCupHeight  = 530.0

	FloorRatio    = 0.82 // floor line as a fraction of screen height
	BallGrounding = 63.0 // ball rests this far below the floor line
	CupGrounding  = 31.5

	DefaultSpawnRatio = 0.35
	DefaultCupMargin  = 64.0

	RimInset      = 40.0 // rim pillars sit this far inside each cup edge
	RimHeight     = 40.0 // rim plane sits this far below the cup top
	ApertureInset = 15.0
	CupWallDepth  = 30.0

	MinMultiplier = 0.5
	MaxMultiplier = 2.0

	DefaultScreenWidth  = 1080.0
	DefaultScreenHeight = 2340.0

	// Smallest screen that holds the largest cup with room to spare. Below
	// MinScreenHeight a full-size cup cannot stand on the floor under CupMinY.
	MinScreenWidth  = BaseCupWidth*MaxMultiplier + 40
	MinScreenHeight = 1400.0
)

// Shot controller constants.
const (
	LaunchPower = 22.0
	MaxPull     = 400.0
	GrabRadius  = 250.0
	DragSpin    = 0.6

	CupMinY        = 50.0
	CupMaxYRatio   = 0.85
	SinkFrames     = 30
	SinkEasing     = 0.15
	SinkSpin       = 0.8
	SinkOffsetX    = 275.0
	SinkOffsetY    = 180.0
	ResolveDelay   = 800 * time.Millisecond
	RespawnRetries = 10
	MinSeparation  = 0.40 // of screen width, between ball spawn and cup centre

	TrailLength   = 10
	ParticleCount = 100
	PerfectBurst  = 40
	ScoreBurst    = 25
	GlowDecay     = 0.04
)

// Respawn ranges as fractions of screen width.
var (
	sideA = span{0.12, 0.40}
	sideB = span{0.60, 0.88}
)

type span struct{ lo, hi float64 }

func (s span) sample(rng RandomSource, width float64) float64 {
	return width * (s.lo + rng.Float64()*(s.hi-s.lo))
}

// RandomSource supplies uniform values in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// Tuning holds the flight dynamics. DefaultTuning returns the production values;
// tests override individual fields.
type Tuning struct {
	TimeStep time.Duration

	Gravity        float64 // units/s²
	Drag           float64 // per-step horizontal velocity factor
	BounceDamping  float64
	FloorFriction  float64
	MinBounceSpeed float64 // below this a floor contact settles the ball

	ImpactMinSpeed float64 // impacts slower than this are silent
	ImpactThrottle time.Duration

	RimBand        float64
	RimApproach    float64
	RimKick        float64
	RimKickScale   float64
	RimJitter      float64 // uniform in [-RimJitter, RimJitter)
	RimRestitution float64
	RimReset       float64
	RimNudge       float64
	RimSoundSpeed  float64
	WallClearance  float64

	PerfectTolerance float64

	StuckSpeed  float64
	StuckFrames int
	ExitMargin  float64
}

func DefaultTuning() Tuning {
	return Tuning{
		TimeStep: time.Second / 60,

		Gravity:        4000,
		Drag:           0.99,
		BounceDamping:  0.6,
		FloorFriction:  0.9,
		MinBounceSpeed: 100,

		ImpactMinSpeed: 60,
		ImpactThrottle: 400 * time.Millisecond,

		RimBand:        25,
		RimApproach:    20,
		RimKick:        200,
		RimKickScale:   0.8,
		RimJitter:      50,
		RimRestitution: 0.5,
		RimReset:       10,
		RimNudge:       15,
		RimSoundSpeed:  200,
		WallClearance:  20,

		PerfectTolerance: 30,

		StuckSpeed:  10,
		StuckFrames: 90,
		ExitMargin:  100,
	}
}

// Frames converts a duration to the nearest whole number of steps.
func (t Tuning) Frames(d time.Duration) int {
	if t.TimeStep <= 0 {
		return 0
	}
	return int((d + t.TimeStep/2) / t.TimeStep)
}

package game

// Arena is the playable screen area.
type Arena struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewArena falls back to the default screen for any dimension that is
// non-finite or below MinScreenWidth/MinScreenHeight.
func NewArena(width, height float64) Arena {
	if !isFinite(width) || width < MinScreenWidth {
		width = DefaultScreenWidth
	}
	if !isFinite(height) || height < MinScreenHeight {
		height = DefaultScreenHeight
	}
	return Arena{Width: width, Height: height}
}

// ScreenFits reports whether a width x height screen can hold the largest
// ball and cup inside the boundary clamp.
func ScreenFits(width, height float64) bool {
	return isFinite(width) && isFinite(height) &&
		width >= MinScreenWidth && height >= MinScreenHeight
}

// FloorY is the visual floor line.
func (a Arena) FloorY() float64 {
	return a.Height * FloorRatio
}

// PhysicsFloorY is the line the bottom of the ball bounces on.
func (a Arena) PhysicsFloorY() float64 {
	return a.FloorY() + BallGrounding
}

// SpawnAt returns a resting spawn point at horizontal position x.
func (a Arena) SpawnAt(x, radius float64) Vec2 {
	return Vec2{X: x, Y: a.PhysicsFloorY() - radius}
}

func (a Arena) DefaultSpawn(radius float64) Vec2 {
	return a.SpawnAt(a.Width*DefaultSpawnRatio, radius)
}

// CupRestY is the top of a cup of the given height standing on the floor.
func (a Arena) CupRestY(cupHeight float64) float64 {
	return a.FloorY() - cupHeight + CupGrounding
}

// DefaultCup places a cup of the given multiplier near the right edge.
func (a Arena) DefaultCup(mult float64) Cup {
	c := Cup{SizeMult: ClampMultiplier(mult)}
	c.Position = Vec2{
		X: clamp(a.Width-c.Width()-DefaultCupMargin, 0, a.Width-c.Width()),
		Y: a.CupRestY(c.Height()),
	}
	return c
}

// ClampCupPosition keeps a dragged cup on screen.
func (a Arena) ClampCupPosition(c Cup, p Vec2) Vec2 {
	return p.Clamp(0, a.Width-c.Width(), CupMinY, a.Height*CupMaxYRatio-c.Height())
}

// Cup is the target bin; Position is its top-left corner.
type Cup struct {
	Position Vec2    `json:"position"`
	SizeMult float64 `json:"size_mult"`
}

func (c Cup) Width() float64  { return BaseCupWidth * c.SizeMult }
func (c Cup) Height() float64 { return BaseCupHeight * c.SizeMult }

// Contains reports whether p lies inside the cup's bounding box.
func (c Cup) Contains(p Vec2) bool {
	return p.X >= c.Position.X && p.X <= c.Position.X+c.Width() &&
		p.Y >= c.Position.Y && p.Y <= c.Position.Y+c.Height()
}

// CupGeometry is the collision layout of a cup at one instant.
type CupGeometry struct {
	Left, Right   float64
	Top, Bottom   float64
	CenterX       float64
	RimLeft       float64
	RimRight      float64
	RimTop        float64
	ApertureLeft  float64
	ApertureRight float64
}

// Geometry derives the collision layout from the cup's current position.
// It is cheap and must be recomputed whenever the cup may have moved.
func (c Cup) Geometry() CupGeometry {
	w, h, m := c.Width(), c.Height(), c.SizeMult
	g := CupGeometry{
		Left:    c.Position.X,
		Right:   c.Position.X + w,
		Top:     c.Position.Y,
		Bottom:  c.Position.Y + h,
		CenterX: c.Position.X + w/2,
	}
	g.RimLeft = g.Left + RimInset*m
	g.RimRight = g.Right - RimInset*m
	g.RimTop = g.Top + RimHeight*m
	g.ApertureLeft = g.RimLeft + ApertureInset
	g.ApertureRight = g.RimRight - ApertureInset
	return g
}

// SinkTarget is where a scored ball settles inside the cup.
func (c Cup) SinkTarget() Vec2 {
	return c.Position.Plus(Vec2{X: SinkOffsetX * c.SizeMult, Y: SinkOffsetY * c.SizeMult})
}

// ClampMultiplier bounds a size multiplier to [MinMultiplier, MaxMultiplier].
// Non-finite values become 1.
func ClampMultiplier(m float64) float64 {
	if !isFinite(m) || m == 0 {
		return 1
	}
	return clamp(m, MinMultiplier, MaxMultiplier)
}

// BallRadius returns the ball radius for a size multiplier.
func BallRadius(mult float64) float64 {
	return BaseBallRadius * ClampMultiplier(mult)
}

package game

// Particle colours.
const (
	ColorGold      = "#FFD700"
	ColorLightGold = "#FFFACD"
)

// Particle is one celebration spark.
type Particle struct {
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Color    string  `json:"color"`
	Alpha    float64 `json:"alpha"`
	Active   bool    `json:"-"`
}

// ParticlePool is a fixed set of reusable particles. Nothing is allocated
// after construction; inactive slots are recycled by Burst.
type ParticlePool struct {
	slots [ParticleCount]Particle
}

// Burst activates up to n inactive particles at origin and returns how many
// were activated.
func (p *ParticlePool) Burst(origin Vec2, n int, rng RandomSource) int {
	activated := 0
	for i := range p.slots {
		if activated >= n {
			break
		}
		s := &p.slots[i]
		if s.Active {
			continue
		}
		s.Position = origin
		s.Velocity = Vec2{X: rng.Float64()*14 - 7, Y: rng.Float64()*-20 - 8}
		s.Color = ColorLightGold
		if rng.Float64() > 0.3 {
			s.Color = ColorGold
		}
		s.Alpha = 1
		s.Active = true
		activated++
	}
	return activated
}

// Update advances every active particle by one frame.
func (p *ParticlePool) Update() {
	for i := range p.slots {
		s := &p.slots[i]
		if !s.Active {
			continue
		}
		s.Alpha -= 0.015
		if s.Alpha <= 0 {
			s.Alpha = 0
			s.Active = false
			continue
		}
		s.Position = s.Position.Plus(s.Velocity)
		s.Velocity = Vec2{X: s.Velocity.X * 0.99, Y: s.Velocity.Y + 0.4}
	}
}

// ActiveCount returns the number of live particles.
func (p *ParticlePool) ActiveCount() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Active {
			n++
		}
	}
	return n
}

// AppendActive appends copies of the live particles to dst.
func (p *ParticlePool) AppendActive(dst []Particle) []Particle {
	for i := range p.slots {
		if p.slots[i].Active {
			dst = append(dst, p.slots[i])
		}
	}
	return dst
}

// Trail remembers the last TrailLength ball positions of a flight.
type Trail struct {
	points [TrailLength]Vec2
	start  int
	n      int
}

func (t *Trail) Push(p Vec2) {
	if t.n < TrailLength {
		t.points[(t.start+t.n)%TrailLength] = p
		t.n++
		return
	}
	t.points[t.start] = p
	t.start = (t.start + 1) % TrailLength
}

func (t *Trail) Clear() {
	t.start, t.n = 0, 0
}

func (t *Trail) Len() int { return t.n }

// Points returns the positions oldest first.
func (t *Trail) Points() []Vec2 {
	out := make([]Vec2, t.n)
	for i := 0; i < t.n; i++ {
		out[i] = t.points[(t.start+i)%TrailLength]
	}
	return out
}

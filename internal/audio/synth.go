package audio

import (
	"math"
	"math/rand"
	"time"
)

// SampleRate is the rate of every synthesized buffer, in Hz.
const SampleRate = 44100

// SoundKind identifies one of the four synthesized effects.
type SoundKind int

const (
	SoundBounce SoundKind = iota
	SoundFlick
	SoundScore
	SoundPerfect

	numSoundKinds
)

// flickNoiseSeed keeps the flick noise identical between runs.
const flickNoiseSeed = 0x5eed

// Recipe describes how one effect is synthesized.
type Recipe struct {
	Duration  time.Duration
	Amplitude float64
}

var recipes = [numSoundKinds]Recipe{
	SoundBounce:  {Duration: 40 * time.Millisecond, Amplitude: 0.8},
	SoundFlick:   {Duration: 50 * time.Millisecond, Amplitude: 0.7},
	SoundScore:   {Duration: 120 * time.Millisecond, Amplitude: 0.6},
	SoundPerfect: {Duration: 500 * time.Millisecond, Amplitude: 0.4},
}

var kindNames = [numSoundKinds]string{
	SoundBounce:  "bounce",
	SoundFlick:   "flick",
	SoundScore:   "swish",
	SoundPerfect: "perfect",
}

func (k SoundKind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k names a known effect.
func (k SoundKind) Valid() bool {
	return k >= 0 && k < numSoundKinds
}

// ParseSoundKind maps a wire name ("bounce", "flick", "swish", "perfect") to its kind.
func ParseSoundKind(name string) (SoundKind, error) {
	for i, n := range kindNames {
		if n == name {
			return SoundKind(i), nil
		}
	}
	return 0, ErrUnknownSound
}

// Kinds returns every effect in table order.
func Kinds() []SoundKind {
	out := make([]SoundKind, 0, numSoundKinds)
	for k := SoundKind(0); k < numSoundKinds; k++ {
		out = append(out, k)
	}
	return out
}

// RecipeFor returns the duration and amplitude used for kind.
func RecipeFor(kind SoundKind) (Recipe, bool) {
	if !kind.Valid() {
		return Recipe{}, false
	}
	return recipes[kind], true
}

// SampleCount is the number of samples in a buffer of duration d.
func SampleCount(d time.Duration) int {
	return int(SampleRate * d / time.Second)
}

// Synthesize renders kind as 16-bit mono PCM. The output depends only on kind.
func Synthesize(kind SoundKind) []int16 {
	r, ok := RecipeFor(kind)
	if !ok {
		return nil
	}

	n := SampleCount(r.Duration)
	out := make([]int16, n)

	var noise *rand.Rand
	if kind == SoundFlick {
		noise = rand.New(rand.NewSource(flickNoiseSeed))
	}

	for i := 0; i < n; i++ {
		t := float64(i) / SampleRate
		p := float64(i) / float64(n)

		var v float64
		switch kind {
		case SoundBounce:
			v = math.Sin(2*math.Pi*1400*t) * math.Exp(-25*p)
		case SoundFlick:
			v = (math.Sin(2*math.Pi*700*t) + 0.1*(noise.Float64()*2-1)) * math.Exp(-15*p)
		case SoundScore:
			freq := 600 * (1 - 0.4*p)
			v = math.Sin(2*math.Pi*freq*t) * math.Sin(math.Pi*p) * math.Exp(-4*p)
		case SoundPerfect:
			v = (math.Sin(2*math.Pi*1760*t) + 0.5*math.Sin(2*math.Pi*2637*t)) * math.Exp(-6*p)
		}

		out[i] = toPCM(v * r.Amplitude)
	}
	return out
}

// toPCM scales a [-1, 1] sample to int16, rounding and clipping.
func toPCM(v float64) int16 {
	s := math.Round(v * 32767)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}

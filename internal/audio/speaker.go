package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

// Format is the beep format of every synthesized buffer.
var Format = beep.Format{
	SampleRate:  beep.SampleRate(SampleRate),
	NumChannels: 1,
	Precision:   2,
}

// pcmStreamer streams a mono int16 buffer as beep stereo frames.
type pcmStreamer struct {
	pcm []int16
	pos int
}

// NewStreamer wraps pcm as a beep.Streamer.
func NewStreamer(pcm []int16) beep.Streamer {
	return &pcmStreamer{pcm: pcm}
}

func (s *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.pcm) {
		return 0, false
	}
	n := 0
	for n < len(samples) && s.pos < len(s.pcm) {
		v := pcmToFloat(s.pcm[s.pos])
		samples[n][0] = v
		samples[n][1] = v
		s.pos++
		n++
	}
	return n, true
}

func (s *pcmStreamer) Err() error { return nil }

// pcmToFloat maps v into [-1, 1] so that beep's signed encoder, which scales
// by 32767 and truncates toward zero, writes v back unchanged. The half-step
// bias keeps truncation from landing one below. -32768 has no such image and
// comes back as -32767.
func pcmToFloat(v int16) float64 {
	switch {
	case v > 0:
		return math.Min((float64(v)+0.5)/32767, 1)
	case v < 0:
		return math.Max((float64(v)-0.5)/32767, -1)
	}
	return 0
}

// SpeakerPort plays buffers on the host sound device through the beep speaker.
type SpeakerPort struct {
	mu     sync.Mutex
	volume float64
	closed bool
}

// NewSpeakerPort initializes the speaker. volume is linear in [0, 1].
func NewSpeakerPort(volume float64) (*SpeakerPort, error) {
	sr := beep.SampleRate(SampleRate)
	if err := speaker.Init(sr, sr.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("failed to init speaker: %w", err)
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	return &SpeakerPort{volume: volume}, nil
}

// Play mixes pcm into the speaker output and returns once it is queued.
func (p *SpeakerPort) Play(kind SoundKind, pcm []int16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	speaker.Play(withVolume(NewStreamer(pcm), p.volume))
	return nil
}

// Close stops the speaker. Further Play calls fail with ErrPortClosed.
func (p *SpeakerPort) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	speaker.Clear()
	speaker.Close()
}

func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

package audio

import "errors"

var (
	ErrUnknownSound = errors.New("unknown sound kind")
	ErrPortClosed   = errors.New("playback port closed")
)

// PlaybackPort plays a finished PCM buffer. Implementations may block for the
// length of the sound; callers run them off the simulation goroutine.
type PlaybackPort interface {
	Play(kind SoundKind, pcm []int16) error
}

// NullPort discards every buffer.
type NullPort struct{}

func (NullPort) Play(SoundKind, []int16) error { return nil }

// PortFunc adapts a function to PlaybackPort.
type PortFunc func(kind SoundKind, pcm []int16) error

func (f PortFunc) Play(kind SoundKind, pcm []int16) error { return f(kind, pcm) }

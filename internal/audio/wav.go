package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/wav"
)

// EncodeWAV writes kind's cached buffer as a 16-bit mono WAV file.
func (c *SoundCache) EncodeWAV(w io.Writer, kind SoundKind) error {
	pcm, ok := c.Buffer(kind)
	if !ok {
		return ErrUnknownSound
	}
	return EncodePCM(w, pcm)
}

// EncodePCM writes pcm as a 16-bit mono WAV file. wav.Encode needs to seek
// back and patch the header, so the file is assembled in memory first.
func EncodePCM(w io.Writer, pcm []int16) error {
	buf := &seekBuffer{}
	if err := wav.Encode(buf, NewStreamer(pcm), Format); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write wav: %w", err)
	}
	return nil
}

// seekBuffer is an in-memory io.WriteSeeker.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.data) {
		if end > cap(b.data) {
			grown := make([]byte, end, 2*end)
			copy(grown, b.data)
			b.data = grown
		} else {
			b.data = b.data[:end]
		}
	}
	copy(b.data[b.pos:], p)
	b.pos = end
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(b.pos)
	case io.SeekEnd:
		base = int64(len(b.data))
	default:
		return 0, errors.New("seek: invalid whence")
	}
	next := base + offset
	if next < 0 {
		return 0, errors.New("seek: negative position")
	}
	b.pos = int(next)
	return next, nil
}

// Bytes returns the encoded file.
func (b *seekBuffer) Bytes() []byte {
	return b.data
}

package audio

import (
	"log"
	"sync"
)

// SoundCache holds the four synthesized buffers and dispatches them to a
// playback port. Buffers are built once and never mutated afterwards.
type SoundCache struct {
	buffers [numSoundKinds][]int16

	mu   sync.RWMutex
	port PlaybackPort
	wg   sync.WaitGroup
}

// NewSoundCache synthesizes every effect up front.
func NewSoundCache(port PlaybackPort) *SoundCache {
	if port == nil {
		port = NullPort{}
	}
	c := &SoundCache{port: port}
	for _, k := range Kinds() {
		c.buffers[k] = Synthesize(k)
	}
	log.Printf("[AUDIO] Sound cache ready (%d effects at %d Hz)", numSoundKinds, SampleRate)
	return c
}

// Buffer returns the cached PCM for kind. The slice is shared; do not modify it.
func (c *SoundCache) Buffer(kind SoundKind) ([]int16, bool) {
	if !kind.Valid() {
		return nil, false
	}
	return c.buffers[kind], true
}

// SetPort swaps the playback target. Sounds already dispatched finish on the old port.
func (c *SoundCache) SetPort(port PlaybackPort) {
	if port == nil {
		port = NullPort{}
	}
	c.mu.Lock()
	c.port = port
	c.mu.Unlock()
}

// Trigger starts playback of kind on the cache's port and returns
// immediately. Repeated triggers overlap. Playback errors are logged and dropped.
func (c *SoundCache) Trigger(kind SoundKind) {
	c.mu.RLock()
	port := c.port
	c.mu.RUnlock()
	c.dispatch(port, kind)
}

// Route returns a trigger that plays the cached buffers on port instead of
// the cache's own port. Sessions use it to send sounds to their client.
func (c *SoundCache) Route(port PlaybackPort) *Route {
	if port == nil {
		port = NullPort{}
	}
	return &Route{cache: c, port: port}
}

func (c *SoundCache) dispatch(port PlaybackPort, kind SoundKind) {
	pcm, ok := c.Buffer(kind)
	if !ok {
		log.Printf("[AUDIO] ignoring trigger for unknown sound %d", int(kind))
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[AUDIO] playback of %s panicked: %v", kind, r)
			}
		}()
		if err := port.Play(kind, pcm); err != nil {
			log.Printf("[AUDIO] playback of %s failed: %v", kind, err)
		}
	}()
}

// Route is a SoundCache bound to a fixed port.
type Route struct {
	cache *SoundCache
	port  PlaybackPort
}

func (r *Route) Trigger(kind SoundKind) {
	r.cache.dispatch(r.port, kind)
}

// Wait blocks until every dispatched sound has returned from its port.
func (c *SoundCache) Wait() {
	c.wg.Wait()
}

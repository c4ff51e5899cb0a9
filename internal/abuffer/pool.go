package abuffer

import "sync"

// Pool lends zeroed Buffers for the duration of a segment and tracks
// which are currently on loan so ReleaseAll can return every one of
// them regardless of which code path is exiting. It exists for the
// offline render path; the real-time path uses scratch buffers owned
// directly by the Graph/Session instead, since nothing may allocate
// inside the audio callback.
type Pool struct {
	mu       sync.Mutex
	channels int
	free     []*Buffer
	loaned   map[*Buffer]bool
}

// NewPool creates a Pool for buffers of a fixed channel count.
func NewPool(channels int) *Pool {
	return &Pool{
		channels: channels,
		loaned:   make(map[*Buffer]bool),
	}
}

// Lease returns a zeroed Buffer sized frames x p.channels, reusing a
// free one if available.
func (p *Pool) Lease(frames int) *Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b *Buffer
	if n := len(p.free); n > 0 {
		b = p.free[n-1]
		p.free = p.free[:n-1]
		b.Resize(frames, p.channels)
		b.Zero()
	} else {
		b = New(frames, p.channels)
	}
	p.loaned[b] = true
	return b
}

// Release returns a single buffer to the pool.
func (p *Pool) Release(b *Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaned[b] {
		return
	}
	delete(p.loaned, b)
	p.free = append(p.free, b)
}

// ReleaseAll returns every buffer currently on loan. Guaranteed to be
// called on all exit paths at the end of a segment.
func (p *Pool) ReleaseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for b := range p.loaned {
		p.free = append(p.free, b)
		delete(p.loaned, b)
	}
}

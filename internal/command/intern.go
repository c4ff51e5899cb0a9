package command

import "sync"

// InternPool is a process-wide table of interned node-id strings,
// populated only from the feeder/main threads. The audio thread only
// dereferences already-interned strings returned by Intern and never
// touches the pool's mutex, per spec.md 5's ownership discipline.
type InternPool struct {
	mu   sync.Mutex
	strs map[string]string
}

// NewInternPool creates an empty pool.
func NewInternPool() *InternPool {
	return &InternPool{strs: make(map[string]string)}
}

// Intern returns the pool's canonical copy of s, adding it if this is
// the first occurrence.
func (p *InternPool) Intern(s string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.strs[s]; ok {
		return existing
	}
	p.strs[s] = s
	return s
}

package session

import (
	"context"
	"time"
)

// Feeder runs on its own goroutine during real-time playback, keeping
// every active rack's command queue filled 3-5 seconds ahead of the
// current sample counter, per spec.md 4.7. It is the only producer
// into each rack's command.Queue; the audio callback is the sole
// consumer.
type Feeder struct {
	Session    *Session
	LookaheadS float64

	pollInterval time.Duration
}

// NewFeeder creates a feeder with a 4 second lookahead and a 200ms poll
// interval, inside spec.md's 3-5 second window.
func NewFeeder(s *Session) *Feeder {
	return &Feeder{Session: s, LookaheadS: 4, pollInterval: 200 * time.Millisecond}
}

// Run blocks, feeding rack queues until ctx is cancelled. Intended to
// be launched with `go feeder.Run(ctx)`.
func (f *Feeder) Run(ctx context.Context) {
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.feedOnce()
		}
	}
}

func (f *Feeder) feedOnce() {
	lookaheadSamples := uint64(f.LookaheadS * f.Session.SampleRate)
	for _, id := range f.Session.rackOrder {
		rack := f.Session.Racks[id]
		cutoff := rack.sched.SampleCounter() + lookaheadSamples
		rack.feedUpTo(cutoff)
	}
}

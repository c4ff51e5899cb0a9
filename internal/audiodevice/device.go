// Package audiodevice adapts a session.Session's real-time render path
// to an actual sound card via oto/v3, with a headless fallback for
// environments with no audio hardware (CI, servers). Grounded on the
// teacher's audio_backend_oto.go/audio_backend_headless.go pair: the
// same atomic-pointer-guarded Read callback feeding an oto.Player, now
// pulling interleaved frames from a Session instead of a single
// SoundChip's sample ring.
package audiodevice

import "github.com/nyquistlabs/rackengine/internal/abuffer"

// Source is the real-time render surface a Device pulls audio from.
// *session.Session satisfies this directly.
type Source interface {
	RenderBlockSequential(frames int, out *abuffer.Buffer)
}

// Device is the platform-independent control surface every backend
// implements.
type Device interface {
	Start()
	Stop()
	Close()
	IsStarted() bool
}

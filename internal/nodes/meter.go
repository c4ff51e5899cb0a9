package nodes

import (
	"math"
	"sync/atomic"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/graph"
)

// Meter is a passive tap that tracks peak and RMS levels over a
// trailing RMS window without altering the signal, read concurrently
// from a UI/monitoring thread via atomics — the real-time thread never
// blocks on a meter read.
type Meter struct {
	WindowMs float64

	sampleRate   float64
	windowFrames int
	sumSquares   float64
	filled       int

	peakBits uint32
	rmsBits  uint32
}

// NewMeter creates a meter with a 300ms trailing RMS window.
func NewMeter() *Meter { return &Meter{WindowMs: 300} }

func (m *Meter) Prepare(sampleRate float64, _ int) {
	m.sampleRate = sampleRate
	m.windowFrames = int(m.WindowMs * sampleRate / 1000)
	if m.windowFrames < 1 {
		m.windowFrames = 1
	}
}

func (m *Meter) Reset() {
	m.sumSquares = 0
	m.filled = 0
	atomic.StoreUint32(&m.peakBits, 0)
	atomic.StoreUint32(&m.rmsBits, 0)
}

func (m *Meter) LatencySamples() int { return 0 }

func (m *Meter) HandleEvent(graph.Command) {}

// ProcessMeter updates peak/RMS from io without modifying it.
func (m *Meter) ProcessMeter(ctx graph.ProcessContext, io *abuffer.Buffer) {
	var blockPeak float32
	for f := 0; f < ctx.Frames; f++ {
		frame := io.Frame(f)
		var frameSq float64
		for _, s := range frame {
			abs := s
			if abs < 0 {
				abs = -abs
			}
			if abs > blockPeak {
				blockPeak = abs
			}
			frameSq += float64(s) * float64(s)
		}
		frameSq /= float64(len(frame))
		m.sumSquares += frameSq
		m.filled++
		if m.filled > m.windowFrames {
			m.filled = m.windowFrames
		}
	}
	rms := math.Sqrt(m.sumSquares / float64(m.filled))
	// Decay the running sum toward the window average rather than
	// keeping an unbounded accumulator.
	m.sumSquares -= m.sumSquares / float64(m.windowFrames) * float64(ctx.Frames)
	if m.sumSquares < 0 {
		m.sumSquares = 0
	}

	atomic.StoreUint32(&m.peakBits, math.Float32bits(blockPeak))
	atomic.StoreUint32(&m.rmsBits, math.Float32bits(float32(rms)))
}

// Peak returns the most recent block's peak absolute sample value.
func (m *Meter) Peak() float32 {
	return math.Float32frombits(atomic.LoadUint32(&m.peakBits))
}

// RMS returns the trailing-window RMS level.
func (m *Meter) RMS() float32 {
	return math.Float32frombits(atomic.LoadUint32(&m.rmsBits))
}

package nodes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/graph"
)

// TestMeterTracksPeakAndRMSOfConstantSignal feeds a steady full-scale
// DC signal long enough for the trailing RMS window to fill and
// expects both Peak and RMS to settle near 1.0.
func TestMeterTracksPeakAndRMSOfConstantSignal(t *testing.T) {
	const sr = 48000.0
	m := NewMeter()
	m.Prepare(sr, 64)

	ctx := graph.ProcessContext{SampleRate: sr, Frames: 64}
	buf := abuffer.New(64, 1)
	for i := range buf.Data {
		buf.Data[i] = 1.0
	}

	// The running RMS sum is an IIR average that decays toward the
	// window average each block; run well past its time constant
	// (windowFrames/blockFrames blocks) so it actually converges.
	blocks := 20 * (m.windowFrames/64 + 1)
	for i := 0; i < blocks; i++ {
		m.ProcessMeter(ctx, buf)
	}

	require.InDelta(t, 1.0, m.Peak(), 1e-6)
	require.InDelta(t, 1.0, m.RMS(), 0.05)
}

// TestMeterDoesNotModifySignal checks the meter is a passive tap.
func TestMeterDoesNotModifySignal(t *testing.T) {
	m := NewMeter()
	m.Prepare(48000, 4)
	ctx := graph.ProcessContext{SampleRate: 48000, Frames: 4}
	buf := abuffer.New(4, 1)
	buf.Data[0], buf.Data[1], buf.Data[2], buf.Data[3] = 0.1, -0.2, 0.3, -0.4
	want := append([]float32(nil), buf.Data...)

	m.ProcessMeter(ctx, buf)
	require.Equal(t, want, buf.Data)
}

// TestMeterResetClearsLevels verifies Reset zeroes both readings.
func TestMeterResetClearsLevels(t *testing.T) {
	m := NewMeter()
	m.Prepare(48000, 4)
	ctx := graph.ProcessContext{SampleRate: 48000, Frames: 4}
	buf := abuffer.New(4, 1)
	for i := range buf.Data {
		buf.Data[i] = 1.0
	}
	m.ProcessMeter(ctx, buf)
	require.NotZero(t, m.Peak())

	m.Reset()
	require.Zero(t, m.Peak())
	require.Zero(t, m.RMS())
}

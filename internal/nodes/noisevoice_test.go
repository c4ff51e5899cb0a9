package nodes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/dsp"
	"github.com/nyquistlabs/rackengine/internal/graph"
)

// TestNoiseVoiceDecaysToSilenceWithZeroSustain checks a one-shot
// percussive hit (zero sustain level) settles to silence on its own,
// without needing a gate-off, once decay finishes.
func TestNoiseVoiceDecaysToSilenceWithZeroSustain(t *testing.T) {
	const sr = 48000.0
	v := NewNoiseVoice(dsp.NoiseWhite)
	v.Prepare(sr, 64)
	v.HandleEvent(graph.Command{Type: graph.CmdTrigger})

	out := abuffer.New(1, 1)
	ctx := graph.ProcessContext{SampleRate: sr, Frames: 1}

	var peak float32
	for i := 0; i < int(sr/4); i++ { // 250ms, well past the 1ms attack + 120ms decay
		v.Process(ctx, out)
		a := float32(math.Abs(float64(out.Data[0])))
		if a > peak {
			peak = a
		}
	}
	require.Greater(t, peak, float32(0), "expected audible output while the envelope is active")

	var tail float32
	for i := 0; i < 100; i++ {
		v.Process(ctx, out)
		tail = out.Data[0]
	}
	require.Equal(t, float32(0), tail, "expected silence once a zero-sustain envelope has fully decayed")
}

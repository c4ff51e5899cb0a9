package nodes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/dsp"
	"github.com/nyquistlabs/rackengine/internal/graph"
)

// TestSubtractiveVoiceTriggerProducesAudibleOutput checks a triggered
// voice produces non-silent output while its envelopes are active.
func TestSubtractiveVoiceTriggerProducesAudibleOutput(t *testing.T) {
	const sr = 48000.0
	v := NewSubtractiveVoice(dsp.WaveSaw)
	v.Prepare(sr, 64)
	v.HandleEvent(graph.Command{Type: graph.CmdTrigger})

	out := abuffer.New(1, 1)
	ctx := graph.ProcessContext{SampleRate: sr, Frames: 1}

	var peak float32
	for i := 0; i < int(sr/10); i++ { // 100ms, well past attack+decay
		v.Process(ctx, out)
		a := float32(math.Abs(float64(out.Data[0])))
		if a > peak {
			peak = a
		}
	}
	require.Greater(t, peak, float32(0), "expected audible output from a triggered voice")
}

// TestSubtractiveVoiceGateOffReleasesToSilence checks releasing the
// gate eventually settles the amplitude envelope, and therefore the
// voice's output, to exact silence.
func TestSubtractiveVoiceGateOffReleasesToSilence(t *testing.T) {
	const sr = 48000.0
	v := NewSubtractiveVoice(dsp.WaveSaw)
	v.Prepare(sr, 64)
	v.HandleEvent(graph.Command{Type: graph.CmdTrigger})

	out := abuffer.New(1, 1)
	ctx := graph.ProcessContext{SampleRate: sr, Frames: 1}

	// Run well past attack+decay so the voice settles into sustain.
	for i := 0; i < int(sr/4); i++ {
		v.Process(ctx, out)
	}

	v.HandleEvent(graph.Command{Type: graph.CmdSetParam, ParamID: paramGateOff})

	// Run well past the release tail.
	var last float32
	for i := 0; i < int(sr/2); i++ {
		v.Process(ctx, out)
		last = out.Data[0]
	}
	require.Equal(t, float32(0), last, "expected exact silence once the amplitude envelope has released")
}

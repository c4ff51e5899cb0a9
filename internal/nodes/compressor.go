package nodes

import (
	"math"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/dsp"
	"github.com/nyquistlabs/rackengine/internal/graph"
	"github.com/nyquistlabs/rackengine/internal/param"
)

// Compressor parameter ids.
const (
	ParamThresholdDb param.ID = iota
	ParamRatio
	ParamMakeupDb
)

// Compressor is a single-band feedforward gain-reduction compressor
// with independent attack/release envelope followers on the detector
// signal, grounded on the teacher's applyVolumes gain-staging path
// generalized into a continuous-ratio detector/gain-computer pair.
//
// SelfDetect controls which signal feeds the detector: spec.md 4.4
// defines sidechain port 1 as defaulting to silence when no edge
// targets it, which would otherwise mute a compressor's own gain
// reduction whenever no sidechain is wired. A GraphSpec loader sets
// SelfDetect to true for any compressor node with no incoming edge on
// port 1, so the common case — compressing a signal against itself —
// works without requiring an explicit self-referencing edge. When an
// edge is wired to port 1, the loader leaves SelfDetect false and the
// sidechain buffer drives detection as documented.
type Compressor struct {
	SelfDetect bool
	AttackMs   float64
	ReleaseMs  float64

	sampleRate float64
	follower   dsp.Follower
	params     *param.Registry
}

// NewCompressor creates a compressor with a 10ms attack, 120ms release
// envelope follower, self-detecting by default.
func NewCompressor() *Compressor {
	return &Compressor{SelfDetect: true, AttackMs: 10, ReleaseMs: 120}
}

func (c *Compressor) Prepare(sampleRate float64, _ int) {
	c.sampleRate = sampleRate
	c.follower = *dsp.NewFollower(sampleRate, c.AttackMs, c.ReleaseMs)
	c.params = param.New(sampleRate, 4)
	c.params.EnsureParam(ParamThresholdDb, -18)
	c.params.EnsureParam(ParamRatio, 4)
	c.params.EnsureParam(ParamMakeupDb, 0)
}

func (c *Compressor) Reset() { c.follower.Reset() }

func (c *Compressor) LatencySamples() int { return 0 }

func (c *Compressor) HandleEvent(cmd graph.Command) {
	switch cmd.Type {
	case graph.CmdSetParam:
		c.params.SetImmediate(cmd.ParamID, cmd.Value)
	case graph.CmdSetParamRamp:
		c.params.RampTo(cmd.ParamID, cmd.Value, cmd.RampMs)
	}
}

// ApplySidechain gain-reduces main using a detector derived from
// sidechain (or from main itself, if SelfDetect is set), averaging
// across all channels per spec.md's Open Question resolution for
// multi-channel detection.
func (c *Compressor) ApplySidechain(ctx graph.ProcessContext, main, sidechain *abuffer.Buffer) {
	detectorSrc := sidechain
	if c.SelfDetect {
		detectorSrc = main
	}
	for f := 0; f < ctx.Frames; f++ {
		thresholdDb := c.params.Next(ParamThresholdDb)
		ratio := c.params.Next(ParamRatio)
		makeupDb := c.params.Next(ParamMakeupDb)

		detFrame := detectorSrc.Frame(f)
		var sum float64
		for _, s := range detFrame {
			sum += math.Abs(float64(s))
		}
		avg := sum / float64(len(detFrame))
		level := c.follower.Next(avg)

		levelDb := linearToDb(level)
		var gainReductionDb float64
		if levelDb > thresholdDb && ratio > 0 {
			over := levelDb - thresholdDb
			gainReductionDb = over - over/ratio
		}
		gain := float32(dbToLinear(makeupDb - gainReductionDb))

		frame := main.Frame(f)
		for ch := range frame {
			frame[ch] *= gain
		}
	}
}

func linearToDb(x float64) float64 {
	if x < 1e-9 {
		x = 1e-9
	}
	return 20 * math.Log10(x)
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

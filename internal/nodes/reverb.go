package nodes

import (
	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/dsp"
	"github.com/nyquistlabs/rackengine/internal/graph"
	"github.com/nyquistlabs/rackengine/internal/param"
)

// Reverb parameter ids.
const ParamReverbMix param.ID = iota

// ReverbNode wraps one dsp.SchroederTank per channel behind the mix
// control in spec.md's insert-node vocabulary. Tanks are built lazily
// on the first ProcessInPlace call once the channel count is known.
type ReverbNode struct {
	sampleRate float64
	tanks      []*dsp.SchroederTank
	params     *param.Registry
}

func NewReverbNode() *ReverbNode { return &ReverbNode{} }

func (r *ReverbNode) Prepare(sampleRate float64, _ int) {
	r.sampleRate = sampleRate
	r.params = param.New(sampleRate, 2)
	r.params.EnsureParam(ParamReverbMix, 0.25)
	r.tanks = nil
}

func (r *ReverbNode) Reset() {
	for _, t := range r.tanks {
		t.Reset()
	}
}

func (r *ReverbNode) LatencySamples() int { return 0 }

func (r *ReverbNode) HandleEvent(cmd graph.Command) {
	switch cmd.Type {
	case graph.CmdSetParam:
		r.params.SetImmediate(cmd.ParamID, cmd.Value)
	case graph.CmdSetParamRamp:
		r.params.RampTo(cmd.ParamID, cmd.Value, cmd.RampMs)
	}
}

func (r *ReverbNode) ensureTanks(channels int) {
	if r.tanks != nil {
		return
	}
	r.tanks = make([]*dsp.SchroederTank, channels)
	for c := range r.tanks {
		r.tanks[c] = dsp.NewSchroederTank(r.sampleRate)
	}
}

func (r *ReverbNode) ProcessInPlace(ctx graph.ProcessContext, io *abuffer.Buffer) {
	r.ensureTanks(io.Channels)
	for f := 0; f < ctx.Frames; f++ {
		mix := float32(r.params.Next(ParamReverbMix))
		frame := io.Frame(f)
		for c := 0; c < io.Channels; c++ {
			wet := r.tanks[c].Process(frame[c])
			frame[c] = frame[c]*(1-mix) + wet*mix
		}
	}
}

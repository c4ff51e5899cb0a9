package nodes

import (
	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/dsp"
	"github.com/nyquistlabs/rackengine/internal/graph"
	"github.com/nyquistlabs/rackengine/internal/param"
)

// Noise voice parameter ids.
const (
	ParamNoiseFreq param.ID = iota
	ParamNoiseVolume
)

// NoiseVoice is an LFSR-noise generator voice with an ADSR amplitude
// envelope, suited to clap/snare/hat-style percussive hits. Grounded
// on the teacher's WAVE_NOISE channel path (audio_chip.go) and
// dsp.NoiseGen's LFSR clocking.
type NoiseVoice struct {
	Mode dsp.NoiseMode
	Seed uint32

	AttackMs     float64
	DecayMs      float64
	SustainLevel float32
	ReleaseMs    float64

	noise  dsp.NoiseGen
	env    dsp.ADSR
	params *param.Registry
}

// NewNoiseVoice creates a voice with a short, fully percussive envelope
// (no sustain) typical of a clap or hat hit.
func NewNoiseVoice(mode dsp.NoiseMode) *NoiseVoice {
	return &NoiseVoice{
		Mode:         mode,
		AttackMs:     1,
		DecayMs:      120,
		SustainLevel: 0,
		ReleaseMs:    30,
	}
}

func (v *NoiseVoice) Prepare(sampleRate float64, _ int) {
	v.noise.SampleRate = sampleRate
	v.noise.Reset(v.Seed)
	v.params = param.New(sampleRate, 4)
	v.params.EnsureParam(ParamNoiseFreq, 8000)
	v.params.EnsureParam(ParamNoiseVolume, 0.8)

	v.env.AttackSamples = msToSamples(v.AttackMs, sampleRate)
	v.env.DecaySamples = msToSamples(v.DecayMs, sampleRate)
	v.env.ReleaseSamples = msToSamples(v.ReleaseMs, sampleRate)
	v.env.SustainLevel = v.SustainLevel
}

func (v *NoiseVoice) Reset() {
	v.noise.Reset(v.Seed)
	v.env.Reset()
}

func (v *NoiseVoice) LatencySamples() int { return 0 }

func (v *NoiseVoice) HandleEvent(cmd graph.Command) {
	switch cmd.Type {
	case graph.CmdTrigger:
		v.env.Gate(true)
	case graph.CmdSetParam:
		if cmd.ParamID == paramGateOff {
			v.env.Gate(false)
			return
		}
		v.params.SetImmediate(cmd.ParamID, cmd.Value)
	case graph.CmdSetParamRamp:
		v.params.RampTo(cmd.ParamID, cmd.Value, cmd.RampMs)
	}
}

func (v *NoiseVoice) Process(ctx graph.ProcessContext, out *abuffer.Buffer) {
	channels := out.Channels
	for f := 0; f < ctx.Frames; f++ {
		freq := v.params.Next(ParamNoiseFreq)
		vol := float32(v.params.Next(ParamNoiseVolume))

		raw := v.noise.Next(v.Mode, freq)
		envLevel := v.env.Next()
		sample := float32(raw) * vol * envLevel

		frame := out.Frame(f)
		for c := 0; c < channels; c++ {
			frame[c] = sample
		}
	}
}

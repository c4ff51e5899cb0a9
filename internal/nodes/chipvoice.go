package nodes

import (
	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/dsp"
	"github.com/nyquistlabs/rackengine/internal/graph"
	"github.com/nyquistlabs/rackengine/internal/param"
	"github.com/nyquistlabs/rackengine/internal/rng"
)

// Chip voice parameter ids.
const (
	ParamChipFreq param.ID = iota
	ParamChipVolume
	ParamChipDuty
	ParamChipNoiseMix
)

// ChipVoice is an oscillator blended against a white-noise source
// behind a single ADSR, the classic home-computer lead/percussion
// hybrid voice (square/triangle/saw crossfaded toward noise by
// ParamChipNoiseMix). Grounded on the chip-style voice found alongside
// the teacher's own SID/AHX instruments: one oscillator, one noise
// source, one shared envelope.
type ChipVoice struct {
	Wave dsp.Waveform
	Seed uint64

	AttackMs     float64
	DecayMs      float64
	SustainLevel float32
	ReleaseMs    float64

	osc    dsp.Oscillator
	noise  *rng.Xorshift64
	env    dsp.ADSR
	params *param.Registry
}

// NewChipVoice creates a voice with a fast-attack percussive envelope
// and no noise blended in by default; callers raise NoiseMix for a
// hat/snare-leaning hybrid timbre.
func NewChipVoice(wave dsp.Waveform) *ChipVoice {
	return &ChipVoice{
		Wave:         wave,
		AttackMs:     2,
		DecayMs:      80,
		SustainLevel: 0.4,
		ReleaseMs:    100,
	}
}

func (v *ChipVoice) Prepare(sampleRate float64, _ int) {
	v.osc.SampleRate = sampleRate
	v.noise = rng.New(v.Seed)
	v.params = param.New(sampleRate, 8)
	v.params.EnsureParam(ParamChipFreq, 440)
	v.params.EnsureParam(ParamChipVolume, 0.8)
	v.params.EnsureParam(ParamChipDuty, 0.5)
	v.params.EnsureParam(ParamChipNoiseMix, 0)
	v.params.SetSmoothing(ParamChipFreq, param.Linear)
	v.params.SetSmoothing(ParamChipVolume, param.Linear)

	v.env.AttackSamples = msToSamples(v.AttackMs, sampleRate)
	v.env.DecaySamples = msToSamples(v.DecayMs, sampleRate)
	v.env.ReleaseSamples = msToSamples(v.ReleaseMs, sampleRate)
	v.env.SustainLevel = v.SustainLevel
}

func (v *ChipVoice) Reset() {
	v.osc.Reset()
	v.noise = rng.New(v.Seed)
	v.env.Reset()
}

func (v *ChipVoice) LatencySamples() int { return 0 }

func (v *ChipVoice) HandleEvent(cmd graph.Command) {
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

func (v *ChipVoice) Process(ctx graph.ProcessContext, out *abuffer.Buffer) {
	channels := out.Channels
	for f := 0; f < ctx.Frames; f++ {
		freq := v.params.Next(ParamChipFreq)
		vol := float32(v.params.Next(ParamChipVolume))
		duty := v.params.Next(ParamChipDuty)
		noiseMix := float32(v.params.Next(ParamChipNoiseMix))

		osc := float32(v.osc.Next(v.Wave, freq, duty))
		nz := v.noise.Float32()
		blended := (1-noiseMix)*osc + noiseMix*nz

		envLevel := v.env.Next()
		sample := blended * vol * envLevel

		frame := out.Frame(f)
		for c := 0; c < channels; c++ {
			frame[c] = sample
		}
	}
}

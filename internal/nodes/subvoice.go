package nodes

import (
	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/dsp"
	"github.com/nyquistlabs/rackengine/internal/graph"
	"github.com/nyquistlabs/rackengine/internal/modmatrix"
	"github.com/nyquistlabs/rackengine/internal/param"
)

// Subtractive voice parameter ids.
const (
	ParamSubFreq param.ID = iota
	ParamSubVolume
	ParamSubDuty
	ParamCutoffHz
	ParamResonance
)

// SubtractiveVoice is a single-oscillator-through-filter monophonic
// voice: dual ADSRs, one driving amplitude and a second independently
// driving filter cutoff, matching the teacher's per-channel oscillator
// paired with sid_engine.go's separately clocked filter envelope.
type SubtractiveVoice struct {
	Wave       dsp.Waveform
	FilterMode dsp.FilterMode

	AmpAttackMs, AmpDecayMs, AmpReleaseMs float64
	AmpSustain                            float32

	FilterAttackMs, FilterDecayMs, FilterReleaseMs float64
	FilterSustain                                  float32
	FilterEnvAmountHz                               float64

	osc       dsp.Oscillator
	filter    dsp.StateVariableFilter
	ampEnv    dsp.ADSR
	filterEnv dsp.ADSR
	params    *param.Registry
	mod       *modmatrix.Matrix
}

// NewSubtractiveVoice creates a voice with a plucky default shape: fast
// amplitude attack, slower filter envelope for a classic subtractive
// "wow" opening on the cutoff.
func NewSubtractiveVoice(wave dsp.Waveform) *SubtractiveVoice {
	return &SubtractiveVoice{
		Wave:             wave,
		FilterMode:       dsp.FilterLowpass,
		AmpAttackMs:      3,
		AmpDecayMs:       200,
		AmpSustain:       0.7,
		AmpReleaseMs:     100,
		FilterAttackMs:   10,
		FilterDecayMs:    300,
		FilterSustain:    0.3,
		FilterReleaseMs:  150,
		FilterEnvAmountHz: 3000,
	}
}

func (v *SubtractiveVoice) Prepare(sampleRate float64, _ int) {
	v.osc.SampleRate = sampleRate
	v.filter.SetSampleRate(sampleRate)
	v.params = param.New(sampleRate, 8)
	v.mod = modmatrix.New(sampleRate, 4, 8)
	v.params.EnsureParam(ParamSubFreq, 220)
	v.params.EnsureParam(ParamSubVolume, 0.8)
	v.params.EnsureParam(ParamSubDuty, 0.5)
	v.params.EnsureParam(ParamCutoffHz, 1200)
	v.params.EnsureParam(ParamResonance, 0.2)
	v.params.SetSmoothing(ParamSubFreq, param.Linear)
	v.params.SetSmoothing(ParamCutoffHz, param.Expo)

	v.ampEnv.AttackSamples = msToSamples(v.AmpAttackMs, sampleRate)
	v.ampEnv.DecaySamples = msToSamples(v.AmpDecayMs, sampleRate)
	v.ampEnv.ReleaseSamples = msToSamples(v.AmpReleaseMs, sampleRate)
	v.ampEnv.SustainLevel = v.AmpSustain

	v.filterEnv.AttackSamples = msToSamples(v.FilterAttackMs, sampleRate)
	v.filterEnv.DecaySamples = msToSamples(v.FilterDecayMs, sampleRate)
	v.filterEnv.ReleaseSamples = msToSamples(v.FilterReleaseMs, sampleRate)
	v.filterEnv.SustainLevel = v.FilterSustain
}

func (v *SubtractiveVoice) Reset() {
	v.osc.Reset()
	v.filter.Reset()
	v.ampEnv.Reset()
	v.filterEnv.Reset()
}

func (v *SubtractiveVoice) LatencySamples() int { return 0 }

func (v *SubtractiveVoice) Mod() *modmatrix.Matrix { return v.mod }

func (v *SubtractiveVoice) HandleEvent(cmd graph.Command) {
	switch cmd.Type {
	case graph.CmdTrigger:
		v.ampEnv.Gate(true)
		v.filterEnv.Gate(true)
	case graph.CmdSetParam:
		if cmd.ParamID == paramGateOff {
			v.ampEnv.Gate(false)
			v.filterEnv.Gate(false)
			return
		}
		v.params.SetImmediate(cmd.ParamID, cmd.Value)
	case graph.CmdSetParamRamp:
		v.params.RampTo(cmd.ParamID, cmd.Value, cmd.RampMs)
	}
}

func (v *SubtractiveVoice) Process(ctx graph.ProcessContext, out *abuffer.Buffer) {
	channels := out.Channels
	for f := 0; f < ctx.Frames; f++ {
		v.mod.Tick()
		freq := v.params.Next(ParamSubFreq) + v.mod.SumFor(ParamSubFreq)
		vol := float32(v.params.Next(ParamSubVolume))
		duty := v.params.Next(ParamSubDuty)
		baseCutoff := v.params.Next(ParamCutoffHz)
		resonance := v.params.Next(ParamResonance)

		raw := v.osc.Next(v.Wave, freq, duty)

		filterEnvLevel := v.filterEnv.Next()
		cutoff := baseCutoff + float64(filterEnvLevel)*v.FilterEnvAmountHz + v.mod.SumFor(ParamCutoffHz)
		filtered := v.filter.Process(raw, cutoff, resonance, v.FilterMode)

		ampLevel := v.ampEnv.Next()
		sample := float32(filtered) * vol * ampLevel

		frame := out.Frame(f)
		for c := 0; c < channels; c++ {
			frame[c] = sample
		}
	}
}

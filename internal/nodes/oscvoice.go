// Package nodes implements the concrete DSP units dispatched by
// internal/graph: oscillator and noise voices, a subtractive
// monophonic voice, a feedback delay, a Schroeder reverb, a single-
// band compressor, a multi-band spectral ducker and a meter. Each is
// grounded on a specific part of the teacher's audio_chip.go and
// sid_engine.go, generalized from fixed register-mapped channels into
// independently configurable graph nodes.
package nodes

import (
	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/dsp"
	"github.com/nyquistlabs/rackengine/internal/graph"
	"github.com/nyquistlabs/rackengine/internal/modmatrix"
	"github.com/nyquistlabs/rackengine/internal/param"
)

// Oscillator voice parameter ids.
const (
	ParamFreq param.ID = iota
	ParamVolume
	ParamDuty
)

// paramGateOff releases the envelope when set to any value. Voices are
// triggered generators with no separate "note off" command type in
// spec.md's command vocabulary, so a dedicated param id stands in for
// it instead of widening graph.CommandType.
const paramGateOff param.ID = 900

// OscVoice is a single-oscillator generator voice (square, triangle,
// sine or saw) with an ADSR amplitude envelope and optional ring
// modulation/hard sync against a sibling voice. Grounded on the
// teacher's Channel.generateSample.
type OscVoice struct {
	Wave dsp.Waveform

	AttackMs     float64
	DecayMs      float64
	SustainLevel float32
	ReleaseMs    float64

	RingModSource *OscVoice
	SyncSource    *OscVoice

	sampleRate float64
	osc        dsp.Oscillator
	env        dsp.ADSR
	params     *param.Registry
	mod        *modmatrix.Matrix
	prevRaw    float64
}

// NewOscVoice creates a voice with a default fast-attack, medium-decay
// percussive envelope; callers override AttackMs/DecayMs/SustainLevel/
// ReleaseMs before Prepare for a sustained-pad style voice.
func NewOscVoice(wave dsp.Waveform) *OscVoice {
	return &OscVoice{
		Wave:         wave,
		AttackMs:     2,
		DecayMs:      60,
		SustainLevel: 0.6,
		ReleaseMs:    150,
	}
}

func (v *OscVoice) Prepare(sampleRate float64, _ int) {
	v.sampleRate = sampleRate
	v.osc.SampleRate = sampleRate
	v.params = param.New(sampleRate, 8)
	v.mod = modmatrix.New(sampleRate, 4, 8)
	v.params.EnsureParam(ParamFreq, 440)
	v.params.EnsureParam(ParamVolume, 0.8)
	v.params.EnsureParam(ParamDuty, 0.5)
	v.params.SetSmoothing(ParamFreq, param.Linear)
	v.params.SetSmoothing(ParamVolume, param.Linear)

	v.env.AttackSamples = msToSamples(v.AttackMs, sampleRate)
	v.env.DecaySamples = msToSamples(v.DecayMs, sampleRate)
	v.env.ReleaseSamples = msToSamples(v.ReleaseMs, sampleRate)
	v.env.SustainLevel = v.SustainLevel
}

func msToSamples(ms, sampleRate float64) int {
	n := int(ms*sampleRate/1000 + 0.5)
	if n < 0 {
		n = 0
	}
	return n
}

func (v *OscVoice) Reset() {
	v.osc.Reset()
	v.env.Reset()
}

func (v *OscVoice) LatencySamples() int { return 0 }

// Mod exposes the voice's per-instance modulation matrix so a GraphSpec
// loader can wire LFO sources against this voice's own parameters.
func (v *OscVoice) Mod() *modmatrix.Matrix { return v.mod }

func (v *OscVoice) HandleEvent(cmd graph.Command) {
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

func (v *OscVoice) Process(ctx graph.ProcessContext, out *abuffer.Buffer) {
	channels := out.Channels
	for f := 0; f < ctx.Frames; f++ {
		v.mod.Tick()
		freq := v.params.Next(ParamFreq) + v.mod.SumFor(ParamFreq)
		vol := float32(v.params.Next(ParamVolume))
		duty := v.params.Next(ParamDuty)

		raw := v.osc.Next(v.Wave, freq, duty)
		if v.RingModSource != nil {
			raw *= v.RingModSource.prevRaw
		}
		v.prevRaw = raw
		if v.SyncSource != nil && v.SyncSource.osc.Wrapped() {
			v.osc.HardSync()
		}

		envLevel := v.env.Next()
		sample := float32(raw) * vol * envLevel

		frame := out.Frame(f)
		for c := 0; c < channels; c++ {
			frame[c] = sample
		}
	}
}

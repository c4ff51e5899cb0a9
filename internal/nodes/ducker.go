package nodes

import (
	"math"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/dsp"
	"github.com/nyquistlabs/rackengine/internal/graph"
	"github.com/nyquistlabs/rackengine/internal/param"
)

// DuckMode selects how the spectral ducker applies its computed
// per-band gain to the main signal, per spec.md 4.8.
type DuckMode int

const (
	DuckGlobalMin DuckMode = iota
	DuckDynamicEQ
	DuckMidSide
)

// Band is one spectral ducker band: a bandpass detector centered at
// CenterHz with quality Q and a maximum attenuation DepthDb (negative,
// e.g. -12 for 12dB of ducking at full modulation).
type Band struct {
	CenterHz float64
	Q        float64
	DepthDb  float64
}

// Ducker parameter ids.
const (
	ParamDuckMix param.ID = iota
	ParamDuckSideScale
)

// Ducker is a multi-band spectral ducker: each band's bandpass-filtered
// sidechain drives an envelope follower, producing a per-band gain;
// the bands combine per Mode. Grounded on spec.md 4.8 and the
// teacher's bandpass/envelope primitives shared with Compressor.
type Ducker struct {
	Bands      []Band
	Mode       DuckMode
	AttackMs   float64
	ReleaseMs  float64

	sampleRate float64
	detectors  []dsp.Biquad   // per band, sidechain detector
	followers  []dsp.Follower // per band
	eqStages   []dsp.Biquad   // per band, dynamic-EQ peaking mode only
	params     *param.Registry
	gains      []float64 // reused per-sample scratch, sized to len(Bands)
}

// NewDucker creates a ducker over the given bands with shared
// attack/release times inherited from the generic compressor default.
func NewDucker(bands []Band, mode DuckMode) *Ducker {
	return &Ducker{Bands: bands, Mode: mode, AttackMs: 10, ReleaseMs: 120}
}

func (d *Ducker) Prepare(sampleRate float64, _ int) {
	d.sampleRate = sampleRate
	d.params = param.New(sampleRate, 4)
	d.params.EnsureParam(ParamDuckMix, 1.0)
	d.params.EnsureParam(ParamDuckSideScale, 1.0)

	d.detectors = make([]dsp.Biquad, len(d.Bands))
	d.followers = make([]dsp.Follower, len(d.Bands))
	d.eqStages = make([]dsp.Biquad, len(d.Bands))
	d.gains = make([]float64, len(d.Bands))
	for i, b := range d.Bands {
		d.detectors[i].BandpassQ(sampleRate, b.CenterHz, b.Q)
		d.followers[i] = *dsp.NewFollower(sampleRate, d.AttackMs, d.ReleaseMs)
	}
}

func (d *Ducker) Reset() {
	for i := range d.detectors {
		d.detectors[i].Reset()
		d.followers[i].Reset()
		d.eqStages[i].Reset()
	}
}

func (d *Ducker) LatencySamples() int { return 0 }

func (d *Ducker) HandleEvent(cmd graph.Command) {
	switch cmd.Type {
	case graph.CmdSetParam:
		d.params.SetImmediate(cmd.ParamID, cmd.Value)
	case graph.CmdSetParamRamp:
		d.params.RampTo(cmd.ParamID, cmd.Value, cmd.RampMs)
	}
}

// ApplySidechain ducks main against a mono-summed sidechain, per
// spec.md 4.8's per-band formula.
func (d *Ducker) ApplySidechain(ctx graph.ProcessContext, main, sidechain *abuffer.Buffer) {
	if len(d.Bands) == 0 {
		return
	}
	for f := 0; f < ctx.Frames; f++ {
		mix := d.params.Next(ParamDuckMix)
		sideScale := d.params.Next(ParamDuckSideScale)

		scFrame := sidechain.Frame(f)
		var scSum float64
		for _, s := range scFrame {
			scSum += float64(s)
		}
		scMono := scSum / float64(len(scFrame))

		gains := d.gains
		globalGain := math.Inf(1)
		for i, b := range d.Bands {
			filtered := d.detectors[i].Process(scMono)
			env := d.followers[i].Next(math.Abs(filtered))
			depthLin := dbToLinear(b.DepthDb)
			envClamped := env
			if envClamped < 0 {
				envClamped = 0
			} else if envClamped > 1 {
				envClamped = 1
			}
			k := depthLin + (1-depthLin)*(1-envClamped)
			gains[i] = k
			if k < globalGain {
				globalGain = k
			}
		}

		frame := main.Frame(f)
		switch d.Mode {
		case DuckDynamicEQ:
			for ch := range frame {
				dry := float64(frame[ch])
				wet := dry
				for i, b := range d.Bands {
					gainDb := linearToDb(gains[i])
					d.eqStages[i].PeakingEQ(d.sampleRate, b.CenterHz, b.Q, gainDb)
					wet = d.eqStages[i].Process(wet)
				}
				frame[ch] = float32(dry*(1-mix) + wet*mix)
			}
		case DuckMidSide:
			if len(frame) >= 2 {
				l, r := float64(frame[0]), float64(frame[1])
				mid := (l + r) / 2
				side := (l - r) / 2
				duckedSide := side * globalGain * sideScale
				newSide := side*(1-mix) + duckedSide*mix
				frame[0] = float32(mid + newSide)
				frame[1] = float32(mid - newSide)
			} else {
				for ch := range frame {
					dry := float64(frame[ch])
					frame[ch] = float32(dry*(1-mix) + dry*globalGain*mix)
				}
			}
		default: // DuckGlobalMin
			for ch := range frame {
				dry := float64(frame[ch])
				frame[ch] = float32(dry*(1-mix) + dry*globalGain*mix)
			}
		}
	}
}

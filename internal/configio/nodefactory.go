package configio

import (
	"fmt"

	"github.com/nyquistlabs/rackengine/internal/dsp"
	"github.com/nyquistlabs/rackengine/internal/graph"
	"github.com/nyquistlabs/rackengine/internal/nodes"
	"github.com/nyquistlabs/rackengine/internal/param"
)

// paramNamesByType maps each node type's config-facing param names
// (used in NodeConfig.Params) to the param.ID the node registers
// internally, so a YAML document can say "freq" instead of a raw
// numeric id.
var paramNamesByType = map[string]map[string]param.ID{
	"oscvoice":   {"freq": nodes.ParamFreq, "volume": nodes.ParamVolume, "duty": nodes.ParamDuty},
	"noisevoice": {"freq": nodes.ParamNoiseFreq, "volume": nodes.ParamNoiseVolume},
	"subvoice": {
		"freq": nodes.ParamSubFreq, "volume": nodes.ParamSubVolume, "duty": nodes.ParamSubDuty,
		"cutoffHz": nodes.ParamCutoffHz, "resonance": nodes.ParamResonance,
	},
	"chip": {
		"freq": nodes.ParamChipFreq, "volume": nodes.ParamChipVolume, "duty": nodes.ParamChipDuty,
		"noiseMix": nodes.ParamChipNoiseMix,
	},
	"delay":      {"timeMs": nodes.ParamDelayTimeMs, "feedback": nodes.ParamDelayFeedback, "mix": nodes.ParamDelayMix},
	"reverb":     {"mix": nodes.ParamReverbMix},
	"compressor": {"thresholdDb": nodes.ParamThresholdDb, "ratio": nodes.ParamRatio, "makeupDb": nodes.ParamMakeupDb},
	"ducker":     {"mix": nodes.ParamDuckMix, "sideScale": nodes.ParamDuckSideScale},
}

// ParamID resolves a node type's config-facing param name to its
// param.ID, for both initial Params and transport locks/edges that
// address parameters by name.
func ParamID(nodeType, name string) (param.ID, bool) {
	names, ok := paramNamesByType[nodeType]
	if !ok {
		return 0, false
	}
	id, ok := names[name]
	return id, ok
}

func parseWave(s string) dsp.Waveform {
	switch s {
	case "triangle":
		return dsp.WaveTriangle
	case "sine":
		return dsp.WaveSine
	case "saw":
		return dsp.WaveSaw
	default:
		return dsp.WaveSquare
	}
}

func parseNoiseMode(s string) dsp.NoiseMode {
	switch s {
	case "periodic":
		return dsp.NoisePeriodic
	case "metallic":
		return dsp.NoiseMetallic
	default:
		return dsp.NoiseWhite
	}
}

func parseFilterMode(s string) dsp.FilterMode {
	switch s {
	case "highpass":
		return dsp.FilterHighpass
	case "bandpass":
		return dsp.FilterBandpass
	case "notch":
		return dsp.FilterNotch
	default:
		return dsp.FilterLowpass
	}
}

func parseDuckMode(s string) nodes.DuckMode {
	switch s {
	case "dynamicEq":
		return nodes.DuckDynamicEQ
	case "midSide":
		return nodes.DuckMidSide
	default:
		return nodes.DuckGlobalMin
	}
}

// buildNode constructs the concrete node for nc.Type. sidechainWired reports
// whether some edge in the owning graph targets this node's sidechain
// port (port 1) — used to resolve Compressor.SelfDetect's default.
func buildNode(nc NodeConfig, sidechainWired bool) (graph.Node, error) {
	switch nc.Type {
	case "oscvoice":
		return nodes.NewOscVoice(parseWave(nc.Wave)), nil
	case "noisevoice":
		return nodes.NewNoiseVoice(parseNoiseMode(nc.NoiseMode)), nil
	case "chip":
		return nodes.NewChipVoice(parseWave(nc.Wave)), nil
	case "subvoice":
		v := nodes.NewSubtractiveVoice(parseWave(nc.Wave))
		v.FilterMode = parseFilterMode(nc.FilterMode)
		return v, nil
	case "delay":
		return nodes.NewFeedbackDelay(nc.MaxDelayMs), nil
	case "reverb":
		return nodes.NewReverbNode(), nil
	case "compressor":
		c := nodes.NewCompressor()
		if nc.SelfDetect != nil {
			c.SelfDetect = *nc.SelfDetect
		} else {
			c.SelfDetect = !sidechainWired
		}
		return c, nil
	case "ducker":
		bands := make([]nodes.Band, len(nc.Bands))
		for i, b := range nc.Bands {
			bands[i] = nodes.Band{CenterHz: b.CenterHz, Q: b.Q, DepthDb: b.DepthDb}
		}
		return nodes.NewDucker(bands, parseDuckMode(nc.DuckMode)), nil
	case "meter":
		return nodes.NewMeter(), nil
	case "wiretap":
		w := nodes.NewWiretapNode()
		if nc.Enabled != nil {
			w.Enabled = *nc.Enabled
		}
		return w, nil
	default:
		return nil, fmt.Errorf("configio: unknown node type %q for node %q", nc.Type, nc.ID)
	}
}

package configio

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/nyquistlabs/rackengine/internal/graph"
	"github.com/nyquistlabs/rackengine/internal/session"
	"github.com/nyquistlabs/rackengine/internal/transport"
)

// Build turns a parsed Config into a ready-to-prepare Session. Every
// rack's graph is built and prepared; transport-synthesized commands
// are generated and installed but no command queues are fed yet —
// callers drive that via session.Rack/session.Feeder.
func Build(cfg *Config, logger *log.Logger) (*session.Session, error) {
	if logger == nil {
		logger = log.Default()
	}
	sess := session.New(float64(cfg.SampleRate), cfg.Channels)
	sess.MixGainPercent = cfg.MixGain

	for _, rc := range cfg.Racks {
		rack, err := buildRack(rc, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("configio: rack %q: %w", rc.ID, err)
		}
		sess.AddRack(rack)
	}

	for _, bc := range cfg.Buses {
		bus, err := buildBus(bc)
		if err != nil {
			return nil, fmt.Errorf("configio: bus %q: %w", bc.ID, err)
		}
		sess.AddBus(bus)
	}

	for _, rc := range cfg.Routes {
		sess.Routes = append(sess.Routes, session.Route{FromRack: rc.FromRack, ToBus: rc.ToBus, Gain: rc.Gain})
	}

	for _, xc := range cfg.Xfaders {
		law := session.XfaderEqualPower
		if xc.Law == "linear" {
			law = session.XfaderLinear
		}
		fader := session.NewXfader(law)
		fader.LFOHz = xc.LFOHz
		if xc.SmoothingMs > 0 {
			fader.SmoothingMs = xc.SmoothingMs
		}
		if xc.Position != 0 {
			fader.Position = xc.Position
		}
		sess.Xfaders = append(sess.Xfaders, session.XfaderRoute{
			RackA: xc.RackA, RackB: xc.RackB, DestBus: xc.DestBus, Fader: fader,
		})
	}

	return sess, nil
}

func buildRack(rc RackConfig, cfg *Config, logger *log.Logger) (*session.Rack, error) {
	g := graph.New(cfg.Channels, logger)

	sidechainWired := make(map[string]bool)
	for _, ec := range rc.Edges {
		if ec.ToPort == 1 {
			sidechainWired[ec.To] = true
		}
	}

	seen := make(map[string]bool, len(rc.Nodes))
	for _, nc := range rc.Nodes {
		if seen[nc.ID] {
			return nil, fmt.Errorf("duplicate node id %q", nc.ID)
		}
		seen[nc.ID] = true
		node, err := buildNode(nc, sidechainWired[nc.ID])
		if err != nil {
			return nil, err
		}
		channels := nc.Channels
		if channels == 0 {
			channels = cfg.Channels
		}
		g.AddNode(nc.ID, node, channels)
	}

	for _, ec := range rc.Edges {
		g.AddEdge(ec.From, ec.To, ec.FromPort, ec.ToPort, edgeGainOrUnity(ec.Gain), ec.DryPercent)
	}

	if rc.Mixer != nil {
		spec := &graph.MixerSpec{MasterPercent: rc.Mixer.MasterPercent, SoftClip: rc.Mixer.SoftClip}
		if spec.MasterPercent == 0 {
			spec.MasterPercent = 100
		}
		for _, mi := range rc.Mixer.Inputs {
			spec.Inputs = append(spec.Inputs, graph.MixerInput{NodeID: mi.NodeID, GainPercent: mi.GainPercent})
		}
		g.SetMixer(spec)
	}

	g.Prepare(float64(cfg.SampleRate), cfg.MaxBlock)

	rack := session.NewRack(rc.ID, g, float64(cfg.SampleRate), cfg.Channels, 4096)
	rack.GainPercent = gainOrUnity(rc.GainPercent)
	rack.Solo = rc.Solo
	rack.Mute = rc.Mute
	rack.Loop = rc.Loop

	for _, nc := range rc.Nodes {
		for name, value := range nc.Params {
			id, ok := ParamID(nc.Type, name)
			if !ok {
				continue
			}
			g.HandleEvent(nc.ID, graph.Command{Type: graph.CmdSetParam, ParamID: id, Value: value})
		}
	}

	spec := transportSpec(rc.Transport)
	cmds := transport.Generate(spec, float64(cfg.SampleRate))
	rack.SetCommands(cmds)
	if len(cmds) > 0 {
		rack.LoopLengthSamples = cmds[len(cmds)-1].SampleTime + 1
	}

	return rack, nil
}

func transportSpec(tc TransportConfig) transport.Spec {
	spec := transport.Spec{
		BPM: tc.BPM, LengthBars: tc.LengthBars, Resolution: tc.Resolution,
		SwingPercent: tc.SwingPercent, SwingExponent: tc.SwingExponent,
	}
	for _, r := range tc.TempoRamps {
		spec.TempoRamps = append(spec.TempoRamps, transport.TempoRamp{Bar: r.Bar, BPM: r.BPM})
	}
	for _, p := range tc.Patterns {
		pat := transport.Pattern{NodeID: p.NodeID, Steps: p.Steps}
		for _, l := range p.Locks {
			pat.Locks = append(pat.Locks, transport.Lock{Step: l.Step, ParamID: l.ParamID, Value: l.Value, RampMs: l.RampMs})
		}
		spec.Patterns = append(spec.Patterns, pat)
	}
	return spec
}

func buildBus(bc BusConfig) (*session.Bus, error) {
	bus := session.NewBus(bc.ID)
	bus.SidechainSourceBus = bc.SidechainSourceBus
	for _, nc := range bc.Inserts {
		node, err := buildNode(nc, bc.SidechainSourceBus != "")
		if err != nil {
			return nil, err
		}
		bus.Inserts = append(bus.Inserts, node)
	}
	return bus, nil
}

// gainOrUnity defaults an unset percent-style rack gain (0 meaning
// "not configured") to 100%.
func gainOrUnity(g float32) float32 {
	if g == 0 {
		return 100
	}
	return g
}

// edgeGainOrUnity defaults an unset edge gain (a linear multiplier, not
// a percent) to 1.0 so an omitted yaml field behaves as pass-through.
func edgeGainOrUnity(g float32) float32 {
	if g == 0 {
		return 1
	}
	return g
}

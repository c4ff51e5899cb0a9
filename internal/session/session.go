// Package session implements the session runtime: multiple racks
// composed through routes and crossfaders into shared buses, summed
// into a final interleaved mix either offline (one shot, optionally
// parallel across racks) or in real time (driven one audio callback at
// a time from a feeder thread), per spec.md 4.7. Grounded loosely on
// the teacher's machine_bus.go region-routing table — a fixed set of
// named destinations fed by id-addressed sources — reworked here from
// a memory-mapped-I/O bus into an audio-routing bus.
package session

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/graph"
)

// Session owns the racks, buses, routes and crossfaders that make up
// one mix.
type Session struct {
	SampleRate float64
	Channels   int

	Racks   map[string]*Rack
	Buses   map[string]*Bus
	Routes  []Route
	Xfaders []XfaderRoute

	MixGainPercent float32

	rackOrder []string
	rackBuf   map[string]*abuffer.Buffer
	mixBuf    *abuffer.Buffer
}

// New creates an empty session.
func New(sampleRate float64, channels int) *Session {
	return &Session{
		SampleRate:     sampleRate,
		Channels:       channels,
		Racks:          make(map[string]*Rack),
		Buses:          make(map[string]*Bus),
		MixGainPercent: 100,
		rackBuf:        make(map[string]*abuffer.Buffer),
	}
}

// AddRack registers a rack and reserves its scratch buffer.
func (s *Session) AddRack(r *Rack) {
	s.Racks[r.ID] = r
	s.rackOrder = append(s.rackOrder, r.ID)
	s.rackBuf[r.ID] = abuffer.New(0, s.Channels)
}

// AddBus registers a bus.
func (s *Session) AddBus(b *Bus) {
	s.Buses[b.ID] = b
}

func (s *Session) anySolo() bool {
	for _, r := range s.Racks {
		if r.Solo {
			return true
		}
	}
	return false
}

// RenderBlockParallel renders every rack concurrently (independent
// units of work, per spec.md 4.7's optional parallel offline
// renderer), then performs the sequential routing/bus/mix steps.
// Intended for offline rendering only — the real-time path uses
// RenderBlockSequential to avoid spinning up goroutines on the audio
// thread.
func (s *Session) RenderBlockParallel(ctx context.Context, frames int, out *abuffer.Buffer) error {
	anySolo := s.anySolo()
	g, gctx := errgroup.WithContext(ctx)
	_ = gctx
	for _, id := range s.rackOrder {
		id := id
		g.Go(func() error {
			rack := s.Racks[id]
			buf := s.rackBuf[id]
			buf.Resize(frames, s.Channels)
			rack.RenderBlock(frames, buf, rack.Active(anySolo))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.mixDown(frames, out)
	return nil
}

// RenderBlockSequential renders every rack on the calling goroutine,
// for the real-time audio callback path where spawning goroutines per
// block would violate the no-unbounded-work rule.
func (s *Session) RenderBlockSequential(frames int, out *abuffer.Buffer) {
	anySolo := s.anySolo()
	for _, id := range s.rackOrder {
		rack := s.Racks[id]
		buf := s.rackBuf[id]
		buf.Resize(frames, s.Channels)
		rack.RenderBlock(frames, buf, rack.Active(anySolo))
	}
	s.mixDown(frames, out)
}

// mixDown applies crossfaders and routes, runs each bus's insert
// chain, and sums everything (plus unrouted racks) into out.
func (s *Session) mixDown(frames int, out *abuffer.Buffer) {
	out.Resize(frames, s.Channels)
	out.Zero()

	for _, b := range s.Buses {
		b.Reset(frames, s.Channels)
	}

	routedRacks := make(map[string]bool)
	segSec := float64(frames) / s.SampleRate
	ctx := graph.ProcessContext{SampleRate: s.SampleRate, Frames: frames}

	for i := range s.Xfaders {
		xr := &s.Xfaders[i]
		gainA, gainB := xr.Fader.Advance(segSec)
		bufA, okA := s.rackBuf[xr.RackA]
		bufB, okB := s.rackBuf[xr.RackB]
		if !okA || !okB {
			continue
		}
		routedRacks[xr.RackA] = true
		routedRacks[xr.RackB] = true
		if bus, ok := s.Buses[xr.DestBus]; ok {
			bus.Sum(bufA, gainA*s.rackGain(xr.RackA))
			bus.Sum(bufB, gainB*s.rackGain(xr.RackB))
		} else {
			out.AddScaled(bufA, gainA*s.rackGain(xr.RackA))
			out.AddScaled(bufB, gainB*s.rackGain(xr.RackB))
		}
	}

	for _, rt := range s.Routes {
		buf, ok := s.rackBuf[rt.FromRack]
		if !ok {
			continue
		}
		routedRacks[rt.FromRack] = true
		if bus, ok := s.Buses[rt.ToBus]; ok {
			bus.Sum(buf, rt.Gain*s.rackGain(rt.FromRack))
		}
	}

	for id, buf := range s.rackBuf {
		if routedRacks[id] {
			continue
		}
		out.AddScaled(buf, s.rackGain(id))
	}

	busOrder := s.sidechainOrder()
	for _, busID := range busOrder {
		bus := s.Buses[busID]
		if src, ok := s.Buses[bus.SidechainSourceBus]; ok {
			bus.SetSidechain(src.scratch)
		}
	}
	for _, busID := range busOrder {
		wet := s.Buses[busID].Process(ctx)
		out.AddScaled(wet, 1.0)
	}

	master := s.MixGainPercent / 100
	for i := range out.Data {
		out.Data[i] *= master
	}
}

// sidechainOrder returns bus ids with buses that source a sidechain
// from another bus listed last. mixDown copies every sidechain before
// any bus runs its inserts, so each one reads its source bus's
// pre-insert sum whatever the order, including when two buses
// sidechain each other.
func (s *Session) sidechainOrder() []string {
	var independent, dependent []string
	for id, b := range s.Buses {
		if b.SidechainSourceBus != "" {
			dependent = append(dependent, id)
		} else {
			independent = append(independent, id)
		}
	}
	return append(independent, dependent...)
}

func (s *Session) rackGain(id string) float32 {
	r, ok := s.Racks[id]
	if !ok {
		return 1
	}
	return r.GainPercent / 100
}

package session

import (
	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/command"
	"github.com/nyquistlabs/rackengine/internal/graph"
	"github.com/nyquistlabs/rackengine/internal/scheduler"
)

// Rack pairs a graph with its own scheduler, command queue and
// transport-synthesized command list — the unit of independent
// rendering in spec.md 4.7.
type Rack struct {
	ID          string
	Graph       *graph.Graph
	GainPercent float32
	Solo        bool
	Mute        bool

	// Loop, when set, re-feeds the same command list shifted by
	// LoopLengthSamples each pass instead of stopping once exhausted —
	// the real-time feeder's way of looping a pattern indefinitely.
	Loop             bool
	LoopLengthSamples uint64

	sched     *scheduler.Scheduler
	queue     *command.Queue
	commands  []command.Command
	cmdCursor int
	loopIndex uint64
	channels  int
}

// NewRack wires a prepared graph into a rack with its own block
// scheduler and a bounded command queue.
func NewRack(id string, g *graph.Graph, sampleRate float64, channels int, queueCapacity int) *Rack {
	return &Rack{
		ID:          id,
		Graph:       g,
		GainPercent: 100,
		sched:       scheduler.New(sampleRate),
		queue:       command.NewQueue(queueCapacity),
		channels:    channels,
	}
}

// SetCommands installs the full explicit+transport command list for an
// offline render, pre-sorted by the caller (transport.Generate already
// returns a sorted list; explicit commands should be merged in before
// calling SetCommands).
func (r *Rack) SetCommands(cmds []command.Command) {
	r.commands = cmds
	r.cmdCursor = 0
}

// Active reports whether this rack should produce sound this block,
// given whether any rack in the session is soloed.
func (r *Rack) Active(anySolo bool) bool {
	if r.Mute {
		return false
	}
	if anySolo {
		return r.Solo
	}
	return true
}

// feedUpTo pushes every stored command with SampleTime < cutoff into
// the rack's queue, in order. Used by both the offline render path
// (feeding the whole timeline ahead of rendering) and the real-time
// feeder thread (feeding a rolling window ahead of playback).
func (r *Rack) feedUpTo(cutoff uint64) {
	for {
		if r.cmdCursor >= len(r.commands) {
			if !r.Loop || r.LoopLengthSamples == 0 {
				return
			}
			r.cmdCursor = 0
			r.loopIndex++
		}
		cmd := r.commands[r.cmdCursor]
		cmd.SampleTime += r.loopIndex * r.LoopLengthSamples
		if cmd.SampleTime >= cutoff {
			return
		}
		if !r.queue.Push(cmd) {
			return
		}
		r.cmdCursor++
	}
}

// RenderBlock feeds due commands and renders frames of audio into out.
// If the rack is inactive (muted, or another rack is soloed), its
// queued commands are drained and discarded and out is left silent,
// per spec.md 4.7's "commands are suppressed at enqueue time" rule
// applied here at drain time for the offline path's simplicity.
func (r *Rack) RenderBlock(frames int, out *abuffer.Buffer, active bool) {
	cutoff := r.sched.SampleCounter() + uint64(frames)
	r.feedUpTo(cutoff)
	if !active {
		out.Resize(frames, r.channels)
		out.Zero()
		r.queue.DrainUpTo(cutoff, nil)
		r.sched.RunBlock(silentGraph{}, r.queue, frames, out)
		return
	}
	r.sched.RunBlock(r.Graph, r.queue, frames, out)
}

// silentGraph discards events and leaves output untouched (already
// zeroed by the caller), used to keep an inactive rack's scheduler
// sample counter advancing in lockstep with active racks.
type silentGraph struct{}

func (silentGraph) HandleEvent(string, graph.Command)          {}
func (silentGraph) Process(graph.ProcessContext, *abuffer.Buffer) {}

package nodes

import (
	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/graph"
	"github.com/nyquistlabs/rackengine/internal/param"
)

// Feedback delay parameter ids.
const (
	ParamDelayTimeMs param.ID = iota
	ParamDelayFeedback
	ParamDelayMix
)

// FeedbackDelay is a per-channel circular-buffer delay line with
// feedback and dry/wet mix, grounded on the teacher's reverb pre-delay
// ring buffer (audio_chip.go applyReverb) generalized to a standalone
// tap/feedback insert rather than a fixed pre-delay stage.
type FeedbackDelay struct {
	MaxDelayMs float64

	sampleRate float64
	buf        [][]float32 // per channel
	writePos   []int
	params     *param.Registry
}

// NewFeedbackDelay creates a delay with up to maxDelayMs of buffer.
func NewFeedbackDelay(maxDelayMs float64) *FeedbackDelay {
	if maxDelayMs <= 0 {
		maxDelayMs = 2000
	}
	return &FeedbackDelay{MaxDelayMs: maxDelayMs}
}

func (d *FeedbackDelay) Prepare(sampleRate float64, _ int) {
	d.sampleRate = sampleRate
	d.params = param.New(sampleRate, 4)
	d.params.EnsureParam(ParamDelayTimeMs, 350)
	d.params.EnsureParam(ParamDelayFeedback, 0.35)
	d.params.EnsureParam(ParamDelayMix, 0.3)
	d.params.SetSmoothing(ParamDelayTimeMs, param.Linear)
}

func (d *FeedbackDelay) Reset() {
	for _, ch := range d.buf {
		for i := range ch {
			ch[i] = 0
		}
	}
	for i := range d.writePos {
		d.writePos[i] = 0
	}
}

func (d *FeedbackDelay) LatencySamples() int { return 0 }

func (d *FeedbackDelay) HandleEvent(cmd graph.Command) {
	switch cmd.Type {
	case graph.CmdSetParam:
		d.params.SetImmediate(cmd.ParamID, cmd.Value)
	case graph.CmdSetParamRamp:
		d.params.RampTo(cmd.ParamID, cmd.Value, cmd.RampMs)
	}
}

func (d *FeedbackDelay) ensureBuffers(channels int) {
	if d.buf != nil {
		return
	}
	capSamples := int(d.MaxDelayMs*d.sampleRate/1000) + 1
	d.buf = make([][]float32, channels)
	d.writePos = make([]int, channels)
	for c := range d.buf {
		d.buf[c] = make([]float32, capSamples)
	}
}

func (d *FeedbackDelay) ProcessInPlace(ctx graph.ProcessContext, io *abuffer.Buffer) {
	d.ensureBuffers(io.Channels)
	for f := 0; f < ctx.Frames; f++ {
		timeMs := d.params.Next(ParamDelayTimeMs)
		feedback := float32(d.params.Next(ParamDelayFeedback))
		mix := float32(d.params.Next(ParamDelayMix))

		delaySamples := int(timeMs * d.sampleRate / 1000)
		frame := io.Frame(f)
		for c := 0; c < io.Channels; c++ {
			ring := d.buf[c]
			n := len(ring)
			if delaySamples >= n {
				delaySamples = n - 1
			}
			readPos := d.writePos[c] - delaySamples
			if readPos < 0 {
				readPos += n
			}
			delayed := ring[readPos]

			input := frame[c]
			ring[d.writePos[c]] = input + delayed*feedback
			d.writePos[c] = (d.writePos[c] + 1) % n

			frame[c] = input*(1-mix) + delayed*mix
		}
	}
}

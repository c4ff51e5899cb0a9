package dsp

// SchroederTank is a classic Schroeder reverberator: an 8ms pre-delay,
// four parallel comb filters, and two
// series allpass stages for diffusion. Directly grounded on the
// teacher's SoundChip.applyReverb; delay lengths and decay scales are
// proportional to sample rate here instead of hard-coded for 44.1kHz.
type SchroederTank struct {
	preDelay    []float32
	preDelayPos int

	combs      [4]comb
	allpass    [2]allpassStage
	allpassCoef float32
}

type comb struct {
	buf   []float32
	pos   int
	decay float32
}

type allpassStage struct {
	buf []float32
	pos int
}

// combDelayMs and combDecay are the teacher's own tuned values
// (1687,1601,2053,2251 samples / 0.97,0.95,0.93,0.91 decay at 44.1kHz),
// expressed here as delay time so the tank still sounds right at other
// sample rates.
var combDelayMs = [4]float64{38.25, 36.3, 46.56, 51.04}
var combDecay = [4]float32{0.97, 0.95, 0.93, 0.91}
var allpassDelayMs = [2]float64{8.82, 6.96}

// NewSchroederTank builds a tank sized for sampleRate.
func NewSchroederTank(sampleRate float64) *SchroederTank {
	t := &SchroederTank{
		preDelay:    make([]float32, msToSamples(8, sampleRate)),
		allpassCoef: 0.5,
	}
	for i := range t.combs {
		t.combs[i] = comb{
			buf:   make([]float32, msToSamples(combDelayMs[i], sampleRate)),
			decay: combDecay[i],
		}
	}
	for i := range t.allpass {
		t.allpass[i] = allpassStage{buf: make([]float32, msToSamples(allpassDelayMs[i], sampleRate))}
	}
	return t
}

func msToSamples(ms, sampleRate float64) int {
	n := int(ms * sampleRate / 1000)
	if n < 1 {
		n = 1
	}
	return n
}

// Process runs one sample through the tank and returns the wet
// output; mixing with the dry signal is the caller's responsibility.
func (t *SchroederTank) Process(input float32) float32 {
	delayed := t.preDelay[t.preDelayPos]
	t.preDelay[t.preDelayPos] = input
	t.preDelayPos = (t.preDelayPos + 1) % len(t.preDelay)

	var out float32
	for i := range t.combs {
		c := &t.combs[i]
		cDelay := c.buf[c.pos]
		c.buf[c.pos] = delayed + cDelay*c.decay
		out += cDelay
		c.pos = (c.pos + 1) % len(c.buf)
	}

	for i := range t.allpass {
		a := &t.allpass[i]
		aDelay := a.buf[a.pos]
		a.buf[a.pos] = out + aDelay*t.allpassCoef
		out = aDelay - out
		a.pos = (a.pos + 1) % len(a.buf)
	}

	return out * 0.25
}

// Reset clears all delay-line state.
func (t *SchroederTank) Reset() {
	for i := range t.preDelay {
		t.preDelay[i] = 0
	}
	for i := range t.combs {
		c := &t.combs[i]
		for j := range c.buf {
			c.buf[j] = 0
		}
		c.pos = 0
	}
	for i := range t.allpass {
		a := &t.allpass[i]
		for j := range a.buf {
			a.buf[j] = 0
		}
		a.pos = 0
	}
}

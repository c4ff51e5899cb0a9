// Package modmatrix implements a small fixed-capacity modulation
// matrix: up to M periodic LFO sources summed into N destination-
// parameter routes. Grounded on the teacher's Channel.pwmPhase/pwmRate
// LFO-driving-duty-cycle pattern in audio_chip.go, generalized from one
// hard-wired route into an arbitrary source/route table.
package modmatrix

import "math"

// Wave selects the LFO's oscillator shape.
type Wave int

const (
	Sine Wave = iota
	Tri
	Saw
	Square
)

// MapKind selects how a route turns a bipolar source value into a
// destination offset.
type MapKind int

const (
	Linear MapKind = iota
	Exp
)

// Source is one LFO generator. Outputs are bipolar in [-1, +1].
type Source struct {
	ID             int
	Wave           Wave
	FreqHz         float64
	Phase01        float64
	phaseIncPerSmp float64
	lastOutput     float64
	Active         bool
}

// Route sums a source's (mapped) output into a destination parameter.
type Route struct {
	SourceID    int
	DestParamID uint16
	Depth       float64
	Offset      float64
	Map         MapKind
	MinValue    float64
	MaxValue    float64
	Active      bool

	// FMTarget, when true, makes this route modulate the frequency of
	// the source named by FMSourceID instead of a parameter. FM routes
	// are applied after every source ticks, so modulation affects the
	// next sample rather than the current one.
	FMTarget   bool
	FMSourceID int
}

// Matrix is a fixed-capacity set of sources and routes, sized once at
// construction.
type Matrix struct {
	sampleRate float64
	sources    []Source
	routes     []Route
}

// New creates a Matrix with room for maxSources sources and maxRoutes
// routes.
func New(sampleRate float64, maxSources, maxRoutes int) *Matrix {
	return &Matrix{
		sampleRate: sampleRate,
		sources:    make([]Source, 0, maxSources),
		routes:     make([]Route, 0, maxRoutes),
	}
}

// AddSource registers an LFO source, up to the matrix's capacity. It
// is silently dropped once capacity is reached.
func (m *Matrix) AddSource(s Source) {
	if len(m.sources) == cap(m.sources) {
		return
	}
	s.phaseIncPerSmp = s.FreqHz / m.sampleRate
	s.Active = true
	m.sources = append(m.sources, s)
}

// AddRoute registers a route, up to the matrix's capacity. It is
// silently dropped once capacity is reached.
func (m *Matrix) AddRoute(r Route) {
	if len(m.routes) == cap(m.routes) {
		return
	}
	r.Active = true
	m.routes = append(m.routes, r)
}

func (m *Matrix) sourceIndex(id int) int {
	for i := range m.sources {
		if m.sources[i].ID == id {
			return i
		}
	}
	return -1
}

// Tick advances every active source by one sample, then applies any FM
// routes to next sample's phase increment — FM routes read this
// sample's just-ticked source outputs, so the frequency change takes
// effect starting with the following Tick, never the current one.
func (m *Matrix) Tick() {
	for i := range m.sources {
		s := &m.sources[i]
		if !s.Active {
			continue
		}
		s.lastOutput = waveform(s.Wave, s.Phase01)
		s.Phase01 += s.phaseIncPerSmp
		s.Phase01 -= math.Floor(s.Phase01)
	}

	for _, r := range m.routes {
		if !r.Active || !r.FMTarget {
			continue
		}
		si := m.sourceIndex(r.FMSourceID)
		if si < 0 {
			continue
		}
		srcIdx := m.sourceIndex(r.SourceID)
		if srcIdx < 0 {
			continue
		}
		mod := mapped(r, m.sources[srcIdx].lastOutput)
		freq := m.sources[si].FreqHz + mod
		if freq < 0 {
			freq = 0
		}
		m.sources[si].phaseIncPerSmp = freq / m.sampleRate
	}
}

// SumFor sums offset + depth*source (or the ranged mapping) across
// every active route targeting destParamID.
func (m *Matrix) SumFor(destParamID uint16) float64 {
	var sum float64
	for _, r := range m.routes {
		if !r.Active || r.FMTarget || r.DestParamID != destParamID {
			continue
		}
		si := m.sourceIndex(r.SourceID)
		if si < 0 {
			continue
		}
		sum += mapped(r, m.sources[si].lastOutput)
	}
	return sum
}

func mapped(r Route, source float64) float64 {
	if r.MinValue < r.MaxValue {
		t := (source + 1) / 2
		if r.Map == Exp {
			return expLerp(r.MinValue, r.MaxValue, t)
		}
		return r.MinValue + (r.MaxValue-r.MinValue)*t
	}
	return r.Offset + r.Depth*source
}

func expLerp(min, max, t float64) float64 {
	if min <= 0 {
		min = 1e-6
	}
	return min * math.Pow(max/min, t)
}

func waveform(w Wave, phase01 float64) float64 {
	switch w {
	case Sine:
		return math.Sin(2 * math.Pi * phase01)
	case Tri:
		return 4*math.Abs(phase01-math.Floor(phase01+0.5)) - 1
	case Saw:
		return 2*phase01 - 1
	case Square:
		if phase01 < 0.5 {
			return 1
		}
		return -1
	default:
		return 0
	}
}

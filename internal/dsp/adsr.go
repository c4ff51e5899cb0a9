package dsp

// EnvStage is the ADSR generator's current phase.
type EnvStage int

const (
	EnvIdle EnvStage = iota
	EnvAttack
	EnvDecay
	EnvSustain
	EnvRelease
)

// ADSR is a linear attack/decay/release envelope with a held sustain
// level, directly grounded on the teacher's Channel.updateEnvelope
// (audio_chip.go) default-shape branch — this implementation keeps
// only the standard ADSR shape, dropping the source's saw-up/saw-down/
// loop alternates since no SPEC_FULL.md node calls for them.
type ADSR struct {
	AttackSamples  int
	DecaySamples   int
	SustainLevel   float32
	ReleaseSamples int

	stage   EnvStage
	level   float32
	counter int
	gate    bool
}

// Gate sets the gate state: true triggers attack (restarting from the
// current level, not from zero, so a re-trigger mid-release doesn't
// click); false begins release.
func (e *ADSR) Gate(on bool) {
	if on && !e.gate {
		e.stage = EnvAttack
		e.counter = 0
	} else if !on && e.gate {
		e.stage = EnvRelease
		e.counter = 0
	}
	e.gate = on
}

// Reset zeroes all envelope state.
func (e *ADSR) Reset() {
	e.stage = EnvIdle
	e.level = 0
	e.counter = 0
	e.gate = false
}

// Active reports whether the envelope is still producing non-silent
// output.
func (e *ADSR) Active() bool { return e.stage != EnvIdle }

// Next advances the envelope by one sample and returns its level.
func (e *ADSR) Next() float32 {
	switch e.stage {
	case EnvAttack:
		if e.AttackSamples <= 0 {
			e.level = 1
			e.stage = EnvDecay
			e.counter = 0
		} else {
			e.level += 1.0 / float32(e.AttackSamples)
			e.counter++
			if e.level >= 1 || e.counter >= e.AttackSamples {
				e.level = 1
				e.stage = EnvDecay
				e.counter = 0
			}
		}
	case EnvDecay:
		if e.DecaySamples <= 0 {
			e.level = e.SustainLevel
			e.stage = EnvSustain
		} else {
			e.level = 1 - (1-e.SustainLevel)*float32(e.counter)/float32(e.DecaySamples)
			e.counter++
			if e.counter >= e.DecaySamples {
				e.level = e.SustainLevel
				e.stage = EnvSustain
				e.counter = 0
			}
		}
	case EnvSustain:
		if !e.gate {
			e.stage = EnvRelease
			e.counter = 0
		}
	case EnvRelease:
		if e.ReleaseSamples <= 0 {
			e.level = 0
			e.stage = EnvIdle
		} else {
			e.level -= e.level / float32(e.ReleaseSamples-e.counter+1)
			e.counter++
			if e.counter >= e.ReleaseSamples {
				e.level = 0
				e.stage = EnvIdle
			}
		}
	}
	return e.level
}

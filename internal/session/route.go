package session

// Route sends one rack's output into a bus at a fixed gain, per
// spec.md's glossary entry `{ fromRack, toBus, gain }`. Racks with no
// route sum directly into the final mix.
type Route struct {
	FromRack string
	ToBus    string
	Gain     float32
}

// XfaderRoute is a session-level two-rack crossfade whose blended
// output feeds a bus (or, if DestBus is empty, the final mix
// directly), per spec.md 4.7 and the glossary's Crossfader entry.
type XfaderRoute struct {
	RackA, RackB string
	DestBus      string
	Fader        *Xfader
}

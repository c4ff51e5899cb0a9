// Package command defines the Command type and a lock-free
// single-producer/single-consumer ring queue that the feeder thread
// pushes into and the scheduler drains at block boundaries.
//
// Grounded on the teacher's audio_backend_oto.go OtoPlayer: an
// atomic-pointer hot path touched only by the consumer, with a mutex
// reserved for setup/control operations that never run on the audio
// thread.
package command

// Type identifies the kind of control event a Command carries.
type Type int

const (
	Trigger Type = iota
	SetParam
	SetParamRamp
)

// Command is a single time-stamped control event. NodeID is an
// externally owned stable string, interned once by the caller before
// the event reaches the queue — the consumer never allocates or
// touches the intern pool.
type Command struct {
	SampleTime uint64
	NodeID     string
	Type       Type
	ParamID    uint16
	Value      float64
	RampMs     float64
}

// Less defines the deterministic tie-break order the scheduler sorts
// drained commands by: (sampleTime, nodeId, type, paramId, value).
func Less(a, b Command) bool {
	if a.SampleTime != b.SampleTime {
		return a.SampleTime < b.SampleTime
	}
	if a.NodeID != b.NodeID {
		return a.NodeID < b.NodeID
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	if a.ParamID != b.ParamID {
		return a.ParamID < b.ParamID
	}
	return a.Value < b.Value
}

// Equal reports whether a and b are exact duplicates per the
// scheduler's dedup rule (same time, node, type, paramId) — value is
// deliberately excluded, matching spec.md 4.5's "drop exact duplicates
// (same time, node, type, paramId)".
func Equal(a, b Command) bool {
	return a.SampleTime == b.SampleTime &&
		a.NodeID == b.NodeID &&
		a.Type == b.Type &&
		a.ParamID == b.ParamID
}

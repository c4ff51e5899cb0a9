package command

import "sync/atomic"

// Queue is a fixed-capacity SPSC ring buffer of Commands. Exactly one
// producer (the feeder thread) calls Push; exactly one consumer (the
// scheduler) calls DrainUpTo. The producer writes a slot and then
// publishes head with an atomic store; the consumer loads head before
// reading slots and publishes tail once it has consumed them, so the
// consumer never sees a torn write.
type Queue struct {
	buf  []Command
	mask uint64

	head atomic.Uint64 // next free slot; written by producer, read by both
	tail atomic.Uint64 // next slot to consume; written by consumer, read by both
}

// NewQueue creates a Queue whose capacity is rounded up to the next
// power of two at least as large as capacityHint.
func NewQueue(capacityHint int) *Queue {
	n := 1
	for n < capacityHint {
		n <<= 1
	}
	return &Queue{
		buf:  make([]Command, n),
		mask: uint64(n - 1),
	}
}

// Push enqueues cmd, returning false if the queue is full. It never
// blocks — the producer is expected to retry after a short yield.
func (q *Queue) Push(cmd Command) bool {
	head := q.head.Load()
	tail := q.tail.Load()
	if head-tail >= uint64(len(q.buf)) {
		return false
	}
	q.buf[head&q.mask] = cmd
	q.head.Store(head + 1)
	return true
}

// DrainUpTo pops every command with SampleTime < cutoff, in FIFO
// order, appending them to out and returning the extended slice. The
// producer is required to push in non-decreasing SampleTime order;
// DrainUpTo stops at the first command at or after cutoff even if a
// later, out-of-order command in the ring would also qualify —
// cross-block ordering beyond one block's cutoff is the producer's
// responsibility, per spec.md 4.5.
func (q *Queue) DrainUpTo(cutoff uint64, out []Command) []Command {
	tail := q.tail.Load()
	head := q.head.Load()
	for tail < head {
		cmd := q.buf[tail&q.mask]
		if cmd.SampleTime >= cutoff {
			break
		}
		out = append(out, cmd)
		tail++
	}
	q.tail.Store(tail)
	return out
}

// Len reports the number of commands currently queued. Advisory only —
// useful for diagnostics, not for control flow on the audio thread.
func (q *Queue) Len() int {
	return int(q.head.Load() - q.tail.Load())
}

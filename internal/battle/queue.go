package battle

import (
	"math"
	"slices"
	"sort"
)

// ActionQueue holds pending actions ordered by scheduled time and releases
// them as the match clock advances. Equal timestamps keep enqueue order.
//
// ActionQueue is not safe for concurrent use; Engine serialises access.
type ActionQueue struct {
	pending   []Action // ascending ExecuteAt, FIFO among equal times
	clock     float64
	timeScale float64
}

func NewActionQueue() *ActionQueue {
	return &ActionQueue{timeScale: 1}
}

// Enqueue inserts a after every pending action scheduled at or before
// a.ExecuteAt, which keeps the slice sorted and ties in insertion order.
func (q *ActionQueue) Enqueue(a Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	i := sort.Search(len(q.pending), func(i int) bool {
		return q.pending[i].ExecuteAt > a.ExecuteAt
	})
	q.pending = slices.Insert(q.pending, i, a)
	return nil
}

// Advance moves the clock by delta scaled by the time scale and returns the
// actions that became due, in release order. When the clock does not move
// (zero delta or zero scale) nothing is released.
func (q *ActionQueue) Advance(delta float64) []Action {
	step := delta * q.timeScale
	if !(step > 0) || math.IsInf(step, 0) {
		return nil
	}
	q.clock += step

	n := 0
	for n < len(q.pending) && q.pending[n].ExecuteAt <= q.clock {
		n++
	}
	if n == 0 {
		return nil
	}
	released := slices.Clone(q.pending[:n])
	q.pending = slices.Delete(q.pending, 0, n)
	return released
}

// SetTimeScale sets the clock multiplier. Negative and NaN values clamp to 0,
// which pauses the clock.
func (q *ActionQueue) SetTimeScale(scale float64) {
	if !(scale > 0) {
		scale = 0
	}
	q.timeScale = scale
}

func (q *ActionQueue) TimeScale() float64 { return q.timeScale }

// Clock returns the match clock in seconds.
func (q *ActionQueue) Clock() float64 { return q.clock }

func (q *ActionQueue) Len() int { return len(q.pending) }

// Remaining returns a copy of the pending actions in release order.
func (q *ActionQueue) Remaining() []Action {
	return slices.Clone(q.pending)
}

// Clear drops every pending action and rewinds the clock to 0.
func (q *ActionQueue) Clear() {
	q.pending = nil
	q.clock = 0
}

// Discard drops every pending action but keeps the clock, returning how many
// actions were dropped.
func (q *ActionQueue) Discard() int {
	n := len(q.pending)
	q.pending = nil
	return n
}

package progress

import "sync/atomic"

// Tracker is a fixed set of byte counters, one per worker. Each counter has a
// single writer and any number of readers.
type Tracker struct {
	counters []atomic.Int64
}

// NewTracker creates a tracker with n zeroed counters.
func NewTracker(n int) *Tracker {
	return &Tracker{counters: make([]atomic.Int64, n)}
}

// Add adds n bytes to counter i and returns the new value.
func (t *Tracker) Add(i int, n int64) int64 {
	return t.counters[i].Add(n)
}

// Load returns the current value of counter i.
func (t *Tracker) Load(i int) int64 {
	return t.counters[i].Load()
}

// Len returns the number of counters.
func (t *Tracker) Len() int {
	return len(t.counters)
}

// Sum returns the sum of all counters.
func (t *Tracker) Sum() int64 {
	var sum int64
	for i := range t.counters {
		sum += t.counters[i].Load()
	}

	return sum
}

// Values returns the current value of every counter, in worker order.
func (t *Tracker) Values() []int64 {
	values := make([]int64, len(t.counters))
	for i := range t.counters {
		values[i] = t.counters[i].Load()
	}

	return values
}

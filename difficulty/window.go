package difficulty

import (
	"github.com/holiman/uint256"
)

// Sample is one accepted block's contribution to the retarget window.
type Sample struct {
	// Timestamp is the block's header timestamp in seconds.
	Timestamp uint64
	// Difficulty is the difficulty the block was accepted at.
	Difficulty *uint256.Int
}

// Window is a fixed-capacity ring buffer of the most recent accepted
// blocks' (timestamp, difficulty) pairs, ordered earliest to latest.
// Appended on every accepted block; the oldest entry is evicted once
// capacity is exceeded.
type Window struct {
	samples []Sample
	start   int
	count   int
}

// NewWindow creates a window holding at most capacity samples.
func NewWindow(capacity int) *Window {
	if capacity < 2 {
		panic("difficulty window capacity must be at least 2")
	}
	return &Window{samples: make([]Sample, capacity)}
}

// Push appends a sample, evicting the oldest if the window is full.
func (w *Window) Push(timestamp uint64, diff *uint256.Int) {
	idx := (w.start + w.count) % len(w.samples)
	w.samples[idx] = Sample{Timestamp: timestamp, Difficulty: new(uint256.Int).Set(diff)}
	if w.count < len(w.samples) {
		w.count++
	} else {
		w.start = (w.start + 1) % len(w.samples)
	}
}

// Len returns the number of samples currently held.
func (w *Window) Len() int {
	return w.count
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return len(w.samples)
}

// At returns the i-th sample, earliest first.
func (w *Window) At(i int) Sample {
	if i < 0 || i >= w.count {
		panic("difficulty window index out of range")
	}
	return w.samples[(w.start+i)%len(w.samples)]
}

// Last returns the most recent sample, or false if the window is empty.
func (w *Window) Last() (Sample, bool) {
	if w.count == 0 {
		return Sample{}, false
	}
	return w.At(w.count - 1), true
}

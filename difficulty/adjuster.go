// Package difficulty computes the required difficulty for the next block
// from a bounded window of recent block times. This is a consensus-critical
// pure function: integer arithmetic only, bit-exact across nodes.
package difficulty

import (
	"github.com/holiman/uint256"

	"github.com/cinderchain/cinder/params"
)

// Damp moves actual linearly toward goal: (actual + (f-1)*goal) / f.
func Damp(actual, goal, dampFactor *uint256.Int) *uint256.Int {
	f1 := new(uint256.Int).Sub(dampFactor, uint256.NewInt(1))
	out := new(uint256.Int).Mul(f1, goal)
	out.Add(out, actual)
	return out.Div(out, dampFactor)
}

// Clamp limits actual to within clampFactor of goal.
func Clamp(actual, goal, clampFactor *uint256.Int) *uint256.Int {
	lo := new(uint256.Int).Div(goal, clampFactor)
	hi := new(uint256.Int).Mul(goal, clampFactor)
	if actual.Lt(lo) {
		return lo
	}
	if actual.Gt(hi) {
		return hi
	}
	return new(uint256.Int).Set(actual)
}

// NextDifficulty returns the required difficulty for the block following
// the window's latest sample.
//
// With n samples there are n-1 observed block intervals, so the time goal
// is (n-1) * target block time. The observed span is damped toward the
// goal, clamped to within the per-step factor, and the next difficulty is
//
//	diffSum * blockTime * (n-1) / (adjusted * n)
//
// which leaves difficulty exactly unchanged when blocks arrive exactly on
// target. A difficulty floor keeps the chain from becoming trivially easy.
// Timestamps are trusted from headers; ordering and drift bounds are
// enforced upstream before samples enter the window.
func NextDifficulty(w *Window, targetBlockTime uint64) *uint256.Int {
	n := w.Len()
	if n < 2 {
		// Not enough history to observe an interval.
		if last, ok := w.Last(); ok {
			return new(uint256.Int).Set(last.Difficulty)
		}
		return params.InitialDifficulty()
	}

	blockTime := uint256.NewInt(targetBlockTime)
	intervals := uint256.NewInt(uint64(n - 1))
	count := uint256.NewInt(uint64(n))

	tsDelta := new(uint256.Int)
	diffSum := new(uint256.Int).Set(w.At(0).Difficulty)
	for i := 1; i < n; i++ {
		prev, cur := w.At(i-1), w.At(i)
		if cur.Timestamp > prev.Timestamp {
			tsDelta.Add(tsDelta, uint256.NewInt(cur.Timestamp-prev.Timestamp))
		}
		diffSum.Add(diffSum, cur.Difficulty)
	}

	goal := new(uint256.Int).Mul(blockTime, intervals)

	// Adjust the observed span toward the goal subject to damping, then
	// bound the step.
	adjusted := Clamp(
		Damp(tsDelta, goal, uint256.NewInt(params.DampFactor)),
		goal,
		uint256.NewInt(params.ClampFactor),
	)

	next := new(uint256.Int).Mul(diffSum, blockTime)
	next.Mul(next, intervals)
	denom := new(uint256.Int).Mul(adjusted, count)
	next.Div(next, denom)

	// Floor avoids getting stuck when trying to raise difficulty subject
	// to damping.
	if min := params.MinDifficultyInt(); next.Lt(min) {
		return min
	}
	return next
}

package params

import "github.com/holiman/uint256"

// Era is a governance-delimited range of block heights sharing one
// reward-emission rule. Eras are advanced by coordinated fork, never by
// anything in the consensus core.
type Era struct {
	// StartHeight is the first block height of the era.
	StartHeight uint64
	// EmissionPerSec is the emission rate in base units per second. The
	// per-block reward is EmissionPerSec * BlockTimeSec.
	EmissionPerSec uint64
}

// Eras lists the emission regimes from genesis onward, ordered by start
// height. The first entry must start at height 0.
var Eras = []Era{
	{StartHeight: 0, EmissionPerSec: 1_000_000},
	{StartHeight: 2 * YearHeight, EmissionPerSec: 500_000},
	{StartHeight: 4 * YearHeight, EmissionPerSec: 250_000},
}

// EraAt returns the era in force at the given height.
func EraAt(height uint64) Era {
	era := Eras[0]
	for _, e := range Eras[1:] {
		if height >= e.StartHeight {
			era = e
		}
	}
	return era
}

// EraIndexAt returns the index of the era in force at the given height.
func EraIndexAt(height uint64) int {
	idx := 0
	for i, e := range Eras[1:] {
		if height >= e.StartHeight {
			idx = i + 1
		}
	}
	return idx
}

// BlockReward returns the emission owed to the author of a block at the
// given height.
func BlockReward(height uint64) *uint256.Int {
	era := EraAt(height)
	return new(uint256.Int).Mul(uint256.NewInt(era.EmissionPerSec), uint256.NewInt(BlockTimeSec))
}

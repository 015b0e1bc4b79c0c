// Package params holds the protocol constants shared by every node on the
// network. Changing any value here is a hard fork.
package params

import (
	"github.com/holiman/uint256"

	"github.com/cinderchain/cinder/common"
)

const (
	// BlockTimeSec is the block interval, in seconds, the network tunes its
	// next difficulty target for.
	BlockTimeSec uint64 = 60

	// HourHeight is the nominal number of blocks per hour.
	HourHeight uint64 = 3600 / BlockTimeSec
	// DayHeight is the nominal number of blocks per day.
	DayHeight uint64 = 24 * HourHeight
	// YearHeight is the nominal number of blocks per year.
	YearHeight uint64 = 365 * DayHeight

	// DifficultyAdjustWindow is the number of recent blocks consulted when
	// retargeting difficulty.
	DifficultyAdjustWindow uint64 = HourHeight

	// BlockTimeWindowSec is the target time span of a full adjustment window.
	BlockTimeWindowSec uint64 = DifficultyAdjustWindow * BlockTimeSec

	// ClampFactor limits a single retarget step to within this factor of the
	// window goal.
	ClampFactor uint64 = 2

	// DampFactor moves the observed window time linearly toward the goal,
	// damping oscillation from bursty hash rate.
	DampFactor uint64 = 3

	// MinDifficulty is the difficulty floor, enforced during retargeting.
	// Avoids getting stuck when trying to increase difficulty subject to
	// damping.
	MinDifficulty uint64 = DampFactor

	// EpochLength is the number of blocks sharing one dataset seed
	// (~2.8 days at the nominal block time).
	EpochLength uint64 = 4096

	// SeedLookbackOffset delays seed rotation past the epoch boundary
	// (~2 hours) so a miner can never influence its own upcoming dataset.
	SeedLookbackOffset uint64 = 128

	// TimestampDriftSec is the tolerated future drift of header timestamps.
	TimestampDriftSec uint64 = 60

	// DatasetBuildRetries bounds retries of a failed dataset build before a
	// verification attempt is abandoned as unverifiable.
	DatasetBuildRetries = 3

	// FinalizeDepth is the number of descendants required before a block is
	// considered final and its author reward is credited.
	FinalizeDepth uint64 = 8
)

// Dataset sizing. The dataset is deliberately large enough that evaluation is
// bound by memory bandwidth on commodity hardware.
const (
	// DatasetItems is the number of 64-byte items in an epoch dataset.
	DatasetItems = 1 << 21 // 128 MiB

	// DatasetItemSize is the byte size of one dataset item.
	DatasetItemSize = 64

	// DatasetSeedMemKiB is the argon2id memory cost used to derive the
	// dataset master key from the epoch seed.
	DatasetSeedMemKiB = 64 * 1024

	// HashRounds is the number of dataset-mixing rounds per work hash.
	HashRounds = 64
)

// GenesisSeed is the fallback dataset seed for epoch 0, before the chain is
// long enough to supply a seed block.
var GenesisSeed = common.HexToHash("0x636e647230000000000000000000000000000000000000000000000000000000")

// InitialDifficulty is the genesis difficulty target.
func InitialDifficulty() *uint256.Int {
	return uint256.NewInt(1_000_000)
}

// MinDifficultyInt returns the difficulty floor as an integer.
func MinDifficultyInt() *uint256.Int {
	return uint256.NewInt(MinDifficulty)
}

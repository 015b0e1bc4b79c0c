package pow

import (
	"fmt"

	"github.com/cinderchain/cinder/common"
	"github.com/cinderchain/cinder/params"
	"github.com/cinderchain/cinder/types"
)

// SeedChain is the slice of the chain seed resolution needs: headers by
// block hash. Resolving through hashes rather than a height index keeps the
// seed well-defined on every branch, not just the canonical one.
type SeedChain interface {
	// HeaderByHash returns the header with the given block hash. found is
	// false for hashes the chain does not have.
	HeaderByHash(hash common.Hash) (*types.Header, bool, error)
}

// EpochOf returns the seed epoch a block at the given height belongs to.
func EpochOf(height uint64) uint64 {
	return height / params.EpochLength
}

// SeedHeight returns the height of the block whose hash seeds the dataset
// used at the given height. The seed block sits a full offset behind the
// epoch boundary, so a miner can never mine the block that keys its own
// upcoming dataset.
func SeedHeight(height uint64) uint64 {
	if height == 0 {
		return 0
	}
	parent := height - 1
	key := parent - parent%params.EpochLength
	if parent-key < params.SeedLookbackOffset {
		if key >= params.EpochLength {
			key -= params.EpochLength
		} else {
			key = 0
		}
	}
	return key
}

// SeedHash resolves the dataset seed for a candidate at the given height by
// walking the candidate's own ancestry, starting from its parent, down to
// the seed height. Two blocks on different branches therefore key their
// datasets off their own ancestors, and the verdict never depends on which
// branch the local node considers canonical. For the earliest blocks,
// before the chain can supply a seed block, the fixed genesis seed is used.
func SeedHash(chain SeedChain, parentHash common.Hash, height uint64) (common.Hash, error) {
	key := SeedHeight(height)
	if key == 0 {
		return params.GenesisSeed, nil
	}

	cur, found, err := chain.HeaderByHash(parentHash)
	if err != nil {
		return common.Hash{}, fmt.Errorf("looking up parent %s: %w", parentHash.StringShort(), err)
	}
	if !found {
		return common.Hash{}, fmt.Errorf("parent %s not in chain", parentHash.StringShort())
	}
	hash := parentHash
	for cur.Number > key {
		hash = cur.ParentHash
		cur, found, err = chain.HeaderByHash(hash)
		if err != nil {
			return common.Hash{}, fmt.Errorf("walking to seed block %d: %w", key, err)
		}
		if !found {
			return common.Hash{}, fmt.Errorf("ancestor %s not in chain", hash.StringShort())
		}
	}
	if cur.Number != key {
		return common.Hash{}, fmt.Errorf("ancestry of %s skips seed height %d", parentHash.StringShort(), key)
	}
	return hash, nil
}

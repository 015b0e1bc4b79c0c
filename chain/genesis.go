package chain

import (
	"github.com/cinderchain/cinder/params"
	"github.com/cinderchain/cinder/types"
)

// genesisTimestamp is the network launch time (2026-01-01T00:00:00Z).
const genesisTimestamp uint64 = 1767225600

// DefaultGenesis returns the network's genesis header. Genesis carries no
// seal; its difficulty is the fixed initial constant.
func DefaultGenesis() *types.Header {
	return &types.Header{
		Number:     0,
		Timestamp:  genesisTimestamp,
		Difficulty: params.InitialDifficulty(),
	}
}

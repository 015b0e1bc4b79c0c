package chain

import (
	"encoding/binary"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinderchain/cinder/miner"
	"github.com/cinderchain/cinder/params"
	"github.com/cinderchain/cinder/pow"
	"github.com/cinderchain/cinder/powhash"
	"github.com/cinderchain/cinder/rewards"
	"github.com/cinderchain/cinder/types"
)

// testChain bundles a chain over an in-memory store with a settable clock
// and a mining key, so tests can mine real blocks deterministically.
type testChain struct {
	c      *Chain
	oracle *powhash.Oracle
	key    *types.MiningKey
	clock  uint64
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()

	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	oracle := powhash.NewOracleWithConfig(powhash.Config{
		NumItems:   64,
		ItemSize:   64,
		Rounds:     4,
		SeedMemKiB: 64,
	})
	key, err := types.MiningKeyFromSeed(make([]byte, 32))
	require.NoError(t, err)

	tc := &testChain{c: NewChain(store, oracle), oracle: oracle, key: key, clock: genesisTimestamp}
	tc.c.now = func() uint64 { return tc.clock }
	return tc
}

func testGenesis() *types.Header {
	return &types.Header{
		Number:     0,
		Timestamp:  genesisTimestamp,
		Difficulty: uint256.NewInt(4),
	}
}

func (tc *testChain) bootstrap(t *testing.T) *types.Header {
	t.Helper()
	genesis, err := tc.c.Bootstrap(testGenesis())
	require.NoError(t, err)
	return genesis
}

// mineOn builds the snapshot for the block after parent, advances the clock
// one block time, and grinds nonces until the seal meets the difficulty.
func (tc *testChain) mineOn(t *testing.T, parent *types.Header) *types.Header {
	t.Helper()

	tc.clock = parent.Timestamp + params.BlockTimeSec
	snap, err := tc.c.BuildSnapshot(parent)
	require.NoError(t, err)

	ds, err := tc.oracle.Prepare(snap.Epoch, snap.Seed)
	require.NoError(t, err)

	header := snap.Candidate
	preSealHash := header.PreSealHash()
	var nonce types.Nonce
	for i := uint64(0); ; i++ {
		binary.LittleEndian.PutUint64(nonce[:8], i)
		work := tc.oracle.Compute(ds, preSealHash, nonce)
		if pow.IsValidWork(work, header.Difficulty) {
			header.Seal = &types.Seal{
				Nonce:     nonce,
				Work:      work,
				Signature: tc.key.Sign(preSealHash, nonce),
				Author:    tc.key.Public,
			}
			return header
		}
	}
}

func TestBootstrap(t *testing.T) {
	tc := newTestChain(t)

	genesis := tc.bootstrap(t)
	assert.Equal(t, uint64(0), genesis.Number)

	best, err := tc.c.Best()
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash(), best.Hash())

	// Bootstrapping again is a no-op returning the existing head.
	again, err := tc.c.Bootstrap(testGenesis())
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash(), again.Hash())
}

func TestBootstrapRejectsNonGenesisNumber(t *testing.T) {
	tc := newTestChain(t)
	bad := testGenesis()
	bad.Number = 5
	_, err := tc.c.Bootstrap(bad)
	assert.Error(t, err)
}

func TestImportMinedChain(t *testing.T) {
	tc := newTestChain(t)
	head := tc.bootstrap(t)

	for i := 0; i < 3; i++ {
		block := tc.mineOn(t, head)
		require.NoError(t, tc.c.ImportHeader(block))
		head = block
	}

	best, err := tc.c.Best()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), best.Number)

	// Canonical index covers the whole chain.
	for n := uint64(0); n <= 3; n++ {
		_, found, err := tc.c.Store().HashByNumber(n)
		require.NoError(t, err)
		assert.True(t, found, "height %d missing from canonical index", n)
	}
	hash, _, err := tc.c.Store().HashByNumber(3)
	require.NoError(t, err)
	assert.Equal(t, best.Hash(), hash)
}

func TestImportRejectsDuplicate(t *testing.T) {
	tc := newTestChain(t)
	block := tc.mineOn(t, tc.bootstrap(t))

	require.NoError(t, tc.c.ImportHeader(block))
	assert.ErrorIs(t, tc.c.ImportHeader(block), ErrKnownBlock)
}

func TestImportRejectsUnknownParent(t *testing.T) {
	tc := newTestChain(t)
	genesis := tc.bootstrap(t)

	block := tc.mineOn(t, genesis)
	orphan := block.Copy()
	orphan.ParentHash[0] ^= 0xff

	assert.ErrorIs(t, tc.c.ImportHeader(orphan), ErrUnknownParent)
}

func TestImportRejectsBadNumber(t *testing.T) {
	tc := newTestChain(t)
	genesis := tc.bootstrap(t)

	block := tc.mineOn(t, genesis)
	block.Number = 7

	assert.ErrorIs(t, tc.c.ImportHeader(block), ErrInvalidNumber)
}

func TestImportRejectsTimestampBeforeParent(t *testing.T) {
	tc := newTestChain(t)
	genesis := tc.bootstrap(t)

	// Timestamp checks run before seal verification, so an unsealed
	// header suffices.
	bad := &types.Header{
		ParentHash: genesis.Hash(),
		Number:     1,
		Timestamp:  genesis.Timestamp - 1,
		Difficulty: uint256.NewInt(4),
	}
	assert.ErrorIs(t, tc.c.ImportHeader(bad), ErrTimestampOrder)
}

func TestImportRejectsFutureTimestamp(t *testing.T) {
	tc := newTestChain(t)
	genesis := tc.bootstrap(t)

	bad := &types.Header{
		ParentHash: genesis.Hash(),
		Number:     1,
		Timestamp:  tc.clock + params.TimestampDriftSec + 1,
		Difficulty: uint256.NewInt(4),
	}
	assert.ErrorIs(t, tc.c.ImportHeader(bad), ErrTimestampFuture)
}

func TestSideBlockKeepsHead(t *testing.T) {
	tc := newTestChain(t)
	genesis := tc.bootstrap(t)

	first := tc.mineOn(t, genesis)
	require.NoError(t, tc.c.ImportHeader(first))

	// A second child of genesis with a later timestamp has the same total
	// difficulty, so the incumbent head stays.
	second := tc.mineOn(t, genesis)
	second.Timestamp = genesis.Timestamp + 2*params.BlockTimeSec
	resealSameDifficulty(t, tc, second)
	require.NotEqual(t, first.Hash(), second.Hash())
	tc.clock = second.Timestamp
	require.NoError(t, tc.c.ImportHeader(second))

	best, err := tc.c.Best()
	require.NoError(t, err)
	assert.Equal(t, first.Hash(), best.Hash())

	// Both branches are stored.
	_, found, err := tc.c.Store().HeaderByHash(second.Hash())
	require.NoError(t, err)
	assert.True(t, found)
}

// resealSameDifficulty re-mines a header in place after its pre-seal fields
// changed.
func resealSameDifficulty(t *testing.T, tc *testChain, header *types.Header) {
	t.Helper()
	ds, err := tc.oracle.Prepare(pow.EpochOf(header.Number), params.GenesisSeed)
	require.NoError(t, err)
	preSealHash := header.PreSealHash()
	var nonce types.Nonce
	for i := uint64(0); ; i++ {
		binary.LittleEndian.PutUint64(nonce[:8], i)
		work := tc.oracle.Compute(ds, preSealHash, nonce)
		if pow.IsValidWork(work, header.Difficulty) {
			header.Seal = &types.Seal{
				Nonce:     nonce,
				Work:      work,
				Signature: tc.key.Sign(preSealHash, nonce),
				Author:    tc.key.Public,
			}
			return
		}
	}
}

func TestFinalizationCreditsAuthor(t *testing.T) {
	tc := newTestChain(t)
	head := tc.bootstrap(t)

	// Head at FinalizeDepth+1 finalizes exactly block 1.
	n := params.FinalizeDepth + 1
	for i := uint64(0); i < n; i++ {
		block := tc.mineOn(t, head)
		require.NoError(t, tc.c.ImportHeader(block))
		head = block
	}

	final, err := tc.c.Store().FinalizedNumber()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), final)

	expected := rewards.RewardFor(1)
	balance, err := tc.c.Store().Balance(tc.key.Public)
	require.NoError(t, err)
	assert.Equal(t, expected, balance)

	issued, err := tc.c.Store().Issuance()
	require.NoError(t, err)
	assert.Equal(t, expected, issued)
}

func TestSubscribeHeadDeliversLatestSnapshot(t *testing.T) {
	tc := newTestChain(t)
	head := tc.bootstrap(t)

	sub := tc.c.SubscribeHead()

	// Two imports without a consumer: the second snapshot replaces the
	// first in the capacity-1 channel.
	for i := 0; i < 2; i++ {
		block := tc.mineOn(t, head)
		require.NoError(t, tc.c.ImportHeader(block))
		head = block
	}

	var snap miner.Snapshot
	select {
	case snap = <-sub:
	default:
		t.Fatal("no snapshot published")
	}
	assert.Equal(t, uint64(3), snap.Candidate.Number)
	assert.Equal(t, head.Hash(), snap.Candidate.ParentHash)
	assert.Nil(t, snap.Candidate.Seal)
	require.NotNil(t, snap.Candidate.Difficulty)

	select {
	case <-sub:
		t.Fatal("stale snapshot was not replaced")
	default:
	}
}

func TestStartMiningOnPrimesSubscribers(t *testing.T) {
	tc := newTestChain(t)
	head := tc.bootstrap(t)

	sub := tc.c.SubscribeHead()
	require.NoError(t, tc.c.StartMiningOn())

	select {
	case snap := <-sub:
		assert.Equal(t, head.Hash(), snap.Candidate.ParentHash)
		assert.Equal(t, uint64(1), snap.Candidate.Number)
	default:
		t.Fatal("no snapshot primed")
	}
}

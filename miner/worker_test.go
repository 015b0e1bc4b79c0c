package miner

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinderchain/cinder/common"
	"github.com/cinderchain/cinder/pow"
	"github.com/cinderchain/cinder/powhash"
	"github.com/cinderchain/cinder/types"
)

func testOracle() *powhash.Oracle {
	return powhash.NewOracleWithConfig(powhash.Config{
		NumItems:   64,
		ItemSize:   64,
		Rounds:     4,
		SeedMemKiB: 64,
	})
}

func testKey(t *testing.T) *types.MiningKey {
	t.Helper()
	key, err := types.MiningKeyFromSeed(make([]byte, 32))
	require.NoError(t, err)
	return key
}

func testSnapshot(number uint64, diff *uint256.Int) Snapshot {
	return Snapshot{
		Candidate: &types.Header{
			ParentHash: common.Blake2Hash([]byte("parent")),
			Number:     number,
			Timestamp:  number * 60,
			Difficulty: diff,
		},
		Epoch: 0,
		Seed:  common.Blake2Hash([]byte("seed")),
	}
}

func TestWorkerSealsSnapshot(t *testing.T) {
	oracle := testOracle()
	key := testKey(t)
	w := NewWorker(oracle, key, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	snap := testSnapshot(1, uint256.NewInt(2))
	w.HeadCh() <- snap

	var sealed *types.Header
	select {
	case sealed = <-w.Sealed():
	case <-time.After(30 * time.Second):
		t.Fatal("worker never sealed an easy candidate")
	}

	require.NotNil(t, sealed.Seal)
	assert.Equal(t, snap.Candidate.Number, sealed.Number)
	assert.Nil(t, snap.Candidate.Seal, "candidate is sealed on a copy, not in place")

	preSealHash := sealed.PreSealHash()
	assert.True(t, types.VerifySealSignature(sealed.Seal.Author, preSealHash, sealed.Seal.Nonce, sealed.Seal.Signature))
	assert.Equal(t, key.Public, sealed.Seal.Author)

	ds, err := oracle.Prepare(snap.Epoch, snap.Seed)
	require.NoError(t, err)
	assert.Equal(t, sealed.Seal.Work, oracle.Compute(ds, preSealHash, sealed.Seal.Nonce))
	assert.True(t, pow.IsValidWork(sealed.Seal.Work, sealed.Difficulty))

	cancel()
	<-done
	assert.Equal(t, Idle, w.State())
}

func TestWorkerEmitsOneSealPerAssignment(t *testing.T) {
	// Slow hashing widens the window in which several search goroutines
	// finish the same assignment; difficulty 1 admits every nonce, so all
	// eight find a seal near-simultaneously.
	oracle := powhash.NewOracleWithConfig(powhash.Config{
		NumItems:   64,
		ItemSize:   64,
		Rounds:     50_000,
		SeedMemKiB: 64,
	})
	w := NewWorker(oracle, testKey(t), 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	w.HeadCh() <- testSnapshot(1, uint256.NewInt(1))

	select {
	case <-w.Sealed():
	case <-time.After(30 * time.Second):
		t.Fatal("worker never sealed an easy candidate")
	}

	// The accepted find retires the assignment; sibling finds must be
	// discarded, not forwarded.
	select {
	case h := <-w.Sealed():
		t.Fatalf("second seal emitted for block %d on the same assignment", h.Number)
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	<-done
	assert.Equal(t, Idle, w.State())
}

func TestWorkerAbandonsStaleSearch(t *testing.T) {
	oracle := testOracle()
	w := NewWorker(oracle, testKey(t), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	// Only the all-zero work hash satisfies the maximal difficulty, so the
	// search runs until it is cancelled.
	impossible := new(uint256.Int).Not(uint256.NewInt(0))
	w.HeadCh() <- testSnapshot(1, impossible)

	require.Eventually(t, func() bool { return w.State() == Searching },
		5*time.Second, 10*time.Millisecond)

	// A new head replaces the assignment; the old search must not surface
	// a seal for the abandoned candidate.
	w.HeadCh() <- testSnapshot(2, impossible)

	select {
	case h := <-w.Sealed():
		t.Fatalf("unexpected seal for block %d", h.Number)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	<-done
	assert.Equal(t, Idle, w.State())
}

func TestWorkerWithoutKeyStaysIdle(t *testing.T) {
	w := NewWorker(testOracle(), nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	w.HeadCh() <- testSnapshot(1, uint256.NewInt(1))

	select {
	case h := <-w.Sealed():
		t.Fatalf("keyless worker sealed block %d", h.Number)
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, Idle, w.State())

	cancel()
	<-done
}

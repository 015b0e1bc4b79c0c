// Package chain is the import pipeline glue around the consensus core:
// it verifies candidate headers, persists them, rolls the difficulty
// window, picks the best head by cumulative work, credits finalized
// authors, and publishes mining snapshots.
package chain

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/cinderchain/cinder/common"
	"github.com/cinderchain/cinder/difficulty"
	"github.com/cinderchain/cinder/log"
	"github.com/cinderchain/cinder/miner"
	"github.com/cinderchain/cinder/params"
	"github.com/cinderchain/cinder/pow"
	"github.com/cinderchain/cinder/powhash"
	"github.com/cinderchain/cinder/rewards"
	"github.com/cinderchain/cinder/types"
)

var (
	ErrKnownBlock      = errors.New("block already known")
	ErrUnknownParent   = errors.New("parent not found")
	ErrInvalidNumber   = errors.New("block number does not follow parent")
	ErrTimestampOrder  = errors.New("timestamp before parent")
	ErrTimestampFuture = errors.New("timestamp too far in the future")
	ErrNoGenesis       = errors.New("chain has no genesis block")
)

// Chain serializes block import and owns the best-head decision. Import is
// safe to invoke concurrently; calls are serialized internally.
type Chain struct {
	mu       sync.Mutex
	store    *Store
	verifier *pow.Verifier
	dist     *rewards.Distributor

	subs []chan miner.Snapshot

	// now is the wall clock, replaceable in tests.
	now func() uint64
}

func NewChain(store *Store, oracle *powhash.Oracle) *Chain {
	return &Chain{
		store:    store,
		verifier: pow.NewVerifier(oracle, store),
		dist:     rewards.NewDistributor(store),
		now:      func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// Bootstrap writes the genesis block if the store is empty, and returns
// the current best header either way.
func (c *Chain) Bootstrap(genesis *types.Header) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hash, found, err := c.store.BestHash(); err != nil {
		return nil, err
	} else if found {
		head, _, err := c.store.HeaderByHash(hash)
		return head, err
	}

	if genesis.Number != 0 {
		return nil, fmt.Errorf("genesis block must have number 0, got %d", genesis.Number)
	}
	if genesis.Difficulty == nil {
		genesis.Difficulty = params.InitialDifficulty()
	}
	hash := genesis.Hash()
	if err := c.store.PutHeader(genesis); err != nil {
		return nil, err
	}
	if err := c.store.SetTotalDifficulty(hash, genesis.Difficulty); err != nil {
		return nil, err
	}
	if err := c.store.SetCanonical(0, hash); err != nil {
		return nil, err
	}
	if err := c.store.SetBestHash(hash); err != nil {
		return nil, err
	}
	log.Info(log.ChainMonitoring, "Genesis written", "hash", hash.StringShort(), "difficulty", genesis.Difficulty)
	return genesis, nil
}

// Best returns the current best header.
func (c *Chain) Best() (*types.Header, error) {
	hash, found, err := c.store.BestHash()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoGenesis
	}
	head, _, err := c.store.HeaderByHash(hash)
	return head, err
}

// Store exposes the underlying store (read paths, CLI inspection).
func (c *Chain) Store() *Store {
	return c.store
}

// SubscribeHead registers a capacity-1 channel that receives a fresh
// mining snapshot whenever the best head changes. The newest snapshot
// replaces an unconsumed older one.
func (c *Chain) SubscribeHead() <-chan miner.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan miner.Snapshot, 1)
	c.subs = append(c.subs, ch)
	return ch
}

// windowFor builds the retarget window from the ancestry ending at the
// given header. Rebuilding from ancestry keeps the window correct on every
// branch without reorg bookkeeping.
func (c *Chain) windowFor(head *types.Header) (*difficulty.Window, error) {
	capacity := int(params.DifficultyAdjustWindow)
	samples := make([]difficulty.Sample, 0, capacity)
	cur := head
	for len(samples) < capacity {
		samples = append(samples, difficulty.Sample{Timestamp: cur.Timestamp, Difficulty: cur.Difficulty})
		if cur.Number == 0 {
			break
		}
		parent, found, err := c.store.HeaderByHash(cur.ParentHash)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParent, cur.ParentHash.StringShort())
		}
		cur = parent
	}

	w := difficulty.NewWindow(capacity)
	for i := len(samples) - 1; i >= 0; i-- {
		w.Push(samples[i].Timestamp, samples[i].Difficulty)
	}
	return w, nil
}

// ExpectedDifficulty returns the difficulty required of the block that
// follows the given parent.
func (c *Chain) ExpectedDifficulty(parent *types.Header) (*uint256.Int, error) {
	w, err := c.windowFor(parent)
	if err != nil {
		return nil, err
	}
	return difficulty.NextDifficulty(w, params.BlockTimeSec), nil
}

// ImportHeader runs the full accept path for a sealed candidate header.
// Verification rejections are terminal for the block; the error conveys
// the reason.
func (c *Chain) ImportHeader(h *types.Header) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := h.Hash()
	if _, found, err := c.store.HeaderByHash(hash); err != nil {
		return err
	} else if found {
		return ErrKnownBlock
	}

	parent, found, err := c.store.HeaderByHash(h.ParentHash)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownParent, h.ParentHash.StringShort())
	}
	if h.Number != parent.Number+1 {
		return fmt.Errorf("%w: %d after %d", ErrInvalidNumber, h.Number, parent.Number)
	}
	if h.Timestamp < parent.Timestamp {
		return fmt.Errorf("%w: %d < %d", ErrTimestampOrder, h.Timestamp, parent.Timestamp)
	}
	if h.Timestamp > c.now()+params.TimestampDriftSec {
		return fmt.Errorf("%w: %d", ErrTimestampFuture, h.Timestamp)
	}

	expected, err := c.ExpectedDifficulty(parent)
	if err != nil {
		return err
	}
	if err := c.verifier.Verify(h, expected); err != nil {
		return err
	}

	parentTD, found, err := c.store.TotalDifficulty(h.ParentHash)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no total difficulty for %s", ErrUnknownParent, h.ParentHash.StringShort())
	}
	td := new(uint256.Int).Add(parentTD, h.Difficulty)

	if err := c.store.PutHeader(h); err != nil {
		return err
	}
	if err := c.store.SetTotalDifficulty(hash, td); err != nil {
		return err
	}

	bestTD, err := c.bestTotalDifficulty()
	if err != nil {
		return err
	}
	if !td.Gt(bestTD) {
		// Stored but not canonical; heaviest chain keeps the head.
		log.Debug(log.ChainMonitoring, "Imported side block", "number", h.Number, "hash", hash.StringShort())
		return nil
	}

	if err := c.setBestHead(h, hash); err != nil {
		return err
	}
	log.Info(log.ChainMonitoring, "New best head",
		"number", h.Number,
		"hash", hash.StringShort(),
		"difficulty", h.Difficulty,
		"td", td,
	)

	if err := c.finalizeUpTo(h.Number); err != nil {
		return err
	}

	c.publishSnapshot(h)
	return nil
}

func (c *Chain) bestTotalDifficulty() (*uint256.Int, error) {
	hash, found, err := c.store.BestHash()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoGenesis
	}
	td, found, err := c.store.TotalDifficulty(hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("missing total difficulty for best head %s", hash.StringShort())
	}
	return td, nil
}

// setBestHead updates the canonical number index from the new head back to
// the fork point.
func (c *Chain) setBestHead(h *types.Header, hash common.Hash) error {
	if err := c.store.SetBestHash(hash); err != nil {
		return err
	}
	cur, curHash := h, hash
	for {
		existing, found, err := c.store.HashByNumber(cur.Number)
		if err != nil {
			return err
		}
		if found && existing == curHash {
			return nil
		}
		if err := c.store.SetCanonical(cur.Number, curHash); err != nil {
			return err
		}
		if cur.Number == 0 {
			return nil
		}
		parent, found, err := c.store.HeaderByHash(cur.ParentHash)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrUnknownParent, cur.ParentHash.StringShort())
		}
		curHash = cur.ParentHash
		cur = parent
	}
}

// finalizeUpTo finalizes every canonical block at least FinalizeDepth
// below the new head and credits its author.
func (c *Chain) finalizeUpTo(headNumber uint64) error {
	if headNumber < params.FinalizeDepth {
		return nil
	}
	target := headNumber - params.FinalizeDepth
	last, err := c.store.FinalizedNumber()
	if err != nil {
		return err
	}
	for n := last + 1; n <= target; n++ {
		hash, found, err := c.store.HashByNumber(n)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("canonical block %d missing during finalization", n)
		}
		header, found, err := c.store.HeaderByHash(hash)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("header %s missing during finalization", hash.StringShort())
		}
		if err := c.dist.OnFinalize(header); err != nil {
			return err
		}
		if err := c.store.SetFinalizedNumber(n); err != nil {
			return err
		}
	}
	return nil
}

// BuildSnapshot assembles the mining assignment for the block following
// the given head.
func (c *Chain) BuildSnapshot(head *types.Header) (miner.Snapshot, error) {
	number := head.Number + 1
	expected, err := c.ExpectedDifficulty(head)
	if err != nil {
		return miner.Snapshot{}, err
	}
	ts := c.now()
	if ts < head.Timestamp {
		ts = head.Timestamp
	}
	headHash := head.Hash()
	seed, err := pow.SeedHash(c.store, headHash, number)
	if err != nil {
		return miner.Snapshot{}, err
	}
	return miner.Snapshot{
		Candidate: &types.Header{
			ParentHash: headHash,
			Number:     number,
			Timestamp:  ts,
			Difficulty: expected,
		},
		Epoch: pow.EpochOf(number),
		Seed:  seed,
	}, nil
}

// publishSnapshot fans the new assignment out to subscribers, replacing
// any unconsumed older snapshot so workers always see the latest head.
func (c *Chain) publishSnapshot(head *types.Header) {
	if len(c.subs) == 0 {
		return
	}
	snap, err := c.BuildSnapshot(head)
	if err != nil {
		log.Error(log.ChainMonitoring, "Failed to build mining snapshot", "number", head.Number+1, "err", err)
		return
	}
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// StartMiningOn primes subscribers with a snapshot for the current best
// head, used when a miner starts on an already-running chain.
func (c *Chain) StartMiningOn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	head, err := c.Best()
	if err != nil {
		return err
	}
	c.publishSnapshot(head)
	return nil
}

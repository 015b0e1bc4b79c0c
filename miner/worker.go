// Package miner runs the background proof-of-work search. It is decoupled
// from verification: the import pipeline publishes immutable best-head
// snapshots, the worker races to find a nonce, and sealed headers flow
// back for import. A saturated search never delays verification.
package miner

import (
	"context"
	"crypto/rand"
	"sync/atomic"

	"github.com/cinderchain/cinder/common"
	"github.com/cinderchain/cinder/log"
	"github.com/cinderchain/cinder/pow"
	"github.com/cinderchain/cinder/powhash"
	"github.com/cinderchain/cinder/types"
)

// Snapshot is an immutable mining assignment: a sealless candidate header
// whose difficulty is already set, plus the dataset coordinates for its
// epoch. Snapshots are produced by a single writer (the import pipeline)
// whenever the best head changes.
type Snapshot struct {
	Candidate *types.Header
	Epoch     uint64
	Seed      common.Hash
}

// State is the worker's coarse lifecycle state.
type State int32

const (
	Idle State = iota
	Searching
)

type foundResult struct {
	gen    uint64
	header *types.Header
}

// Worker is a cancellable mining loop. A new snapshot immediately
// invalidates the in-flight search: results carry the generation they were
// started under and stale generations are discarded, so stale work is
// never submitted.
type Worker struct {
	oracle  *powhash.Oracle
	key     *types.MiningKey
	threads int

	heads  chan Snapshot
	sealed chan *types.Header

	gen   atomic.Uint64
	state atomic.Int32
}

// NewWorker creates a worker mining with the given key across the given
// number of parallel search goroutines.
func NewWorker(oracle *powhash.Oracle, key *types.MiningKey, threads int) *Worker {
	if threads < 1 {
		threads = 1
	}
	return &Worker{
		oracle:  oracle,
		key:     key,
		threads: threads,
		heads:   make(chan Snapshot, 1),
		sealed:  make(chan *types.Header, 1),
	}
}

// HeadCh is where the import pipeline publishes new best-head snapshots.
func (w *Worker) HeadCh() chan<- Snapshot {
	return w.heads
}

// Sealed delivers fully sealed headers ready for import.
func (w *Worker) Sealed() <-chan *types.Header {
	return w.sealed
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Run drives the worker until ctx is cancelled. Mining errors (a missing
// signing key, a failed dataset build) halt only the current search; the
// worker keeps accepting snapshots so the node keeps validating either
// way.
func (w *Worker) Run(ctx context.Context) {
	var cancel context.CancelFunc
	results := make(chan foundResult, w.threads)

	defer func() {
		if cancel != nil {
			cancel()
		}
		w.state.Store(int32(Idle))
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case snap := <-w.heads:
			gen := w.gen.Add(1)
			if cancel != nil {
				cancel()
				cancel = nil
			}
			w.state.Store(int32(Idle))

			if w.key == nil {
				log.Error(log.MinerMonitoring, "No mining key loaded, not mining", "number", snap.Candidate.Number)
				continue
			}

			searchCtx, c := context.WithCancel(ctx)
			cancel = c
			w.state.Store(int32(Searching))
			log.Debug(log.MinerMonitoring, "Starting search",
				"number", snap.Candidate.Number,
				"difficulty", snap.Candidate.Difficulty,
				"epoch", snap.Epoch,
			)
			go w.search(searchCtx, gen, snap, results)

		case f := <-results:
			if f.gen != w.gen.Load() {
				// Raced with a newer snapshot; this work is stale.
				log.Trace(log.MinerMonitoring, "Discarding stale seal", "number", f.header.Number)
				continue
			}
			// Retire the generation so finds from sibling goroutines of
			// the same search are discarded: one assignment, one seal.
			w.gen.Add(1)
			if cancel != nil {
				cancel()
				cancel = nil
			}
			w.state.Store(int32(Idle))
			log.Info(log.MinerMonitoring, "Sealed block",
				"number", f.header.Number,
				"work", f.header.Seal.Work.StringShort(),
			)
			select {
			case w.sealed <- f.header:
			case <-ctx.Done():
				return
			}
		}
	}
}

// search prepares the epoch dataset and fans out nonce draws across the
// worker's threads. Each goroutine checks cancellation once per hash
// evaluation.
func (w *Worker) search(ctx context.Context, gen uint64, snap Snapshot, results chan<- foundResult) {
	ds, err := w.oracle.Prepare(snap.Epoch, snap.Seed)
	if err != nil {
		log.Error(log.MinerMonitoring, "Dataset not available for mining", "epoch", snap.Epoch, "err", err)
		return
	}
	if ctx.Err() != nil {
		return
	}

	preSealHash := snap.Candidate.PreSealHash()
	target := snap.Candidate.Difficulty

	for t := 0; t < w.threads; t++ {
		go func() {
			var nonce types.Nonce
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if _, err := rand.Read(nonce[:]); err != nil {
					log.Error(log.MinerMonitoring, "Randomness unavailable, stopping search", "err", err)
					return
				}
				work := w.oracle.Compute(ds, preSealHash, nonce)
				if !pow.IsValidWork(work, target) {
					continue
				}

				header := snap.Candidate.Copy()
				header.Seal = &types.Seal{
					Nonce:     nonce,
					Work:      work,
					Signature: w.key.Sign(preSealHash, nonce),
					Author:    w.key.Public,
				}
				select {
				case results <- foundResult{gen: gen, header: header}:
				case <-ctx.Done():
				}
				return
			}
		}()
	}
}

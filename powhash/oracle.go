package powhash

import (
	"sync"
	"time"

	"github.com/cinderchain/cinder/common"
	"github.com/cinderchain/cinder/log"
)

// cacheEpochs is how many recent epoch datasets stay resident. Two, so
// that blocks from the tail of the previous epoch remain verifiable while
// the current epoch's dataset is in use.
const cacheEpochs = 2

type cacheEntry struct {
	seed common.Hash
	done chan struct{} // closed when the build finishes

	ds  *Dataset
	err error
}

// Oracle owns the per-epoch dataset cache. Reads never block each other; a
// build for a new epoch runs outside the lock so verification against a
// resident dataset is never delayed. At most one build per seed runs at a
// time; concurrent callers wait for the first build instead of duplicating
// the work.
type Oracle struct {
	cfg Config

	mu      sync.Mutex
	entries map[common.Hash]*cacheEntry
	order   []common.Hash // oldest first
}

// NewOracle creates an oracle with the consensus dataset parameters.
func NewOracle() *Oracle {
	return NewOracleWithConfig(Default())
}

// NewOracleWithConfig creates an oracle with custom dataset sizing, used
// by tests.
func NewOracleWithConfig(cfg Config) *Oracle {
	return &Oracle{
		cfg:     cfg,
		entries: make(map[common.Hash]*cacheEntry),
	}
}

// Prepare returns the dataset for the given epoch seed, building it if
// necessary. Idempotent: repeated calls for an already-built seed return
// the cached handle. A failed build is forgotten so the caller can retry.
func (o *Oracle) Prepare(epoch uint64, seed common.Hash) (*Dataset, error) {
	o.mu.Lock()
	if e, ok := o.entries[seed]; ok {
		o.mu.Unlock()
		<-e.done
		return e.ds, e.err
	}

	e := &cacheEntry{seed: seed, done: make(chan struct{})}
	o.entries[seed] = e
	o.order = append(o.order, seed)
	for len(o.order) > cacheEpochs {
		evict := o.order[0]
		o.order = o.order[1:]
		// In-flight computations keep their handle; eviction only drops
		// the cache reference.
		delete(o.entries, evict)
		log.Debug(log.PowMonitoring, "Evicted dataset", "seed", evict.StringShort())
	}
	o.mu.Unlock()

	start := time.Now()
	log.Info(log.PowMonitoring, "Building dataset", "epoch", epoch, "seed", seed.StringShort())
	ds, err := buildDataset(o.cfg, epoch, seed)

	e.ds, e.err = ds, err
	close(e.done)

	if err != nil {
		log.Error(log.PowMonitoring, "Dataset build failed", "epoch", epoch, "err", err)
		o.mu.Lock()
		if o.entries[seed] == e {
			delete(o.entries, seed)
			for i, s := range o.order {
				if s == seed {
					o.order = append(o.order[:i], o.order[i+1:]...)
					break
				}
			}
		}
		o.mu.Unlock()
		return nil, err
	}

	log.Info(log.PowMonitoring, "Dataset ready", "epoch", epoch, "size", ds.Size(), "elapsed", time.Since(start))
	return ds, nil
}

// Cached reports whether a dataset for the seed is resident and built.
func (o *Oracle) Cached(seed common.Hash) bool {
	o.mu.Lock()
	e, ok := o.entries[seed]
	o.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-e.done:
		return e.err == nil
	default:
		return false
	}
}

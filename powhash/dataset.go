// Package powhash implements the memory-hard work hash. Evaluation reads
// pseudo-random 64-byte items out of a large per-epoch dataset, so that
// commodity hardware with plenty of RAM is competitive with custom silicon.
package powhash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"

	"github.com/cinderchain/cinder/common"
	"github.com/cinderchain/cinder/params"
)

// ErrDatasetBuild marks a dataset build that failed on resource
// exhaustion. It is the only environment-dependent failure in the core and
// must never turn into a block rejection.
var ErrDatasetBuild = errors.New("powhash: dataset build failed")

const datasetSalt = "cinder/dataset/v1"

// Dataset is an epoch's precomputed item table. Immutable once built;
// callers holding a handle may keep computing against it after the cache
// has rotated past its epoch.
type Dataset struct {
	Epoch uint64
	Seed  common.Hash

	items    []byte // numItems * itemSize
	numItems int
	itemSize int
}

// Config sizes a dataset. Production uses Default(); tests shrink it.
type Config struct {
	NumItems   int
	ItemSize   int
	Rounds     int
	SeedMemKiB uint32

	// MemoryBudget caps the dataset allocation in bytes; zero means
	// unlimited. Exceeding it fails the build with ErrDatasetBuild.
	MemoryBudget int
}

// Default returns the consensus dataset parameters.
func Default() Config {
	return Config{
		NumItems:   params.DatasetItems,
		ItemSize:   params.DatasetItemSize,
		Rounds:     params.HashRounds,
		SeedMemKiB: params.DatasetSeedMemKiB,
	}
}

// buildDataset derives the full item table for an epoch from its seed.
// The master key derivation runs argon2id so even the light build touches
// a significant amount of memory; items are then expanded sequentially so
// the table cannot be computed lazily per item.
func buildDataset(cfg Config, epoch uint64, seed common.Hash) (*Dataset, error) {
	size := cfg.NumItems * cfg.ItemSize
	if cfg.MemoryBudget > 0 && size > cfg.MemoryBudget {
		return nil, fmt.Errorf("%w: dataset of %d bytes exceeds budget of %d", ErrDatasetBuild, size, cfg.MemoryBudget)
	}

	master := argon2.IDKey(seed.Bytes(), []byte(datasetSalt), 3, cfg.SeedMemKiB, 1, uint32(cfg.ItemSize))

	items := make([]byte, size)
	prev := master
	for i := 0; i < cfg.NumItems; i++ {
		h, err := blake2b.New512(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatasetBuild, err)
		}
		h.Write(prev)
		h.Write(common.Uint64ToBytes(uint64(i)))
		item := h.Sum(nil)[:cfg.ItemSize]
		copy(items[i*cfg.ItemSize:], item)
		prev = item
	}

	return &Dataset{Epoch: epoch, Seed: seed, items: items, numItems: cfg.NumItems, itemSize: cfg.ItemSize}, nil
}

// Item returns the i-th dataset item.
func (d *Dataset) Item(i int) []byte {
	return d.items[i*d.itemSize : (i+1)*d.itemSize]
}

// NumItems returns the number of items in the dataset.
func (d *Dataset) NumItems() int {
	return d.numItems
}

// Size returns the dataset size in bytes.
func (d *Dataset) Size() int {
	return len(d.items)
}

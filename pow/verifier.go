// Package pow decides whether a candidate block's proof of work is valid.
// Verification is pure and consensus-critical: identical inputs must
// produce identical accept/reject decisions on every node.
package pow

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/cinderchain/cinder/common"
	"github.com/cinderchain/cinder/log"
	"github.com/cinderchain/cinder/params"
	"github.com/cinderchain/cinder/powhash"
	"github.com/cinderchain/cinder/types"
)

// Verifier checks header seals against the difficulty rule.
type Verifier struct {
	oracle *powhash.Oracle
	chain  SeedChain
}

func NewVerifier(oracle *powhash.Oracle, chain SeedChain) *Verifier {
	return &Verifier{oracle: oracle, chain: chain}
}

// IsValidWork reports whether a work hash meets the difficulty target:
// valid iff work * difficulty does not overflow 2^256, i.e. the work hash
// as an integer is at most 2^256 / difficulty.
func IsValidWork(work common.Hash, diff *uint256.Int) bool {
	num := new(uint256.Int).SetBytes(work.Bytes())
	_, overflow := num.MulOverflow(num, diff)
	return !overflow
}

// Verify checks the seal on a header. expected is the difficulty the
// adjuster requires at this height; the header must assert exactly that
// value. A nil return means accept; any error is a terminal rejection,
// except powhash.ErrDatasetBuild which means "not yet verifiable".
func (v *Verifier) Verify(header *types.Header, expected *uint256.Int) error {
	if header.Seal == nil {
		return ErrSealMissing
	}
	if header.Difficulty == nil || header.Difficulty.IsZero() {
		return fmt.Errorf("%w: difficulty not set", ErrDifficultyMismatch)
	}
	if expected != nil && !header.Difficulty.Eq(expected) {
		return fmt.Errorf("%w: header asserts %s, adjuster requires %s",
			ErrDifficultyMismatch, header.Difficulty, expected)
	}

	if algo := powhash.AlgorithmAt(header.Number); algo != powhash.AlgorithmV1 {
		return fmt.Errorf("unsupported work algorithm %d at height %d", algo, header.Number)
	}

	seal := header.Seal
	preSealHash := header.PreSealHash()

	// Signature check first: it is cheap relative to the work hash and
	// already rules out reuse of someone else's proof of work.
	if !types.VerifySealSignature(seal.Author, preSealHash, seal.Nonce, seal.Signature) {
		return ErrSignatureInvalid
	}

	ds, err := v.prepare(header.ParentHash, header.Number)
	if err != nil {
		return err
	}

	work := v.oracle.Compute(ds, preSealHash, seal.Nonce)
	if work != seal.Work {
		return fmt.Errorf("%w: computed %s, sealed %s", ErrWorkMismatch, work.StringShort(), seal.Work.StringShort())
	}

	if !IsValidWork(work, header.Difficulty) {
		return ErrWorkTooEasy
	}

	log.Trace(log.PowMonitoring, "Seal verified", "number", header.Number, "work", work.StringShort())
	return nil
}

// prepare resolves the dataset for a block height, retrying a bounded
// number of times on build failure. Build failure is environment-dependent
// (memory pressure) and must surface as "unverifiable", never as an
// invalid block.
func (v *Verifier) prepare(parentHash common.Hash, height uint64) (*powhash.Dataset, error) {
	seed, err := SeedHash(v.chain, parentHash, height)
	if err != nil {
		return nil, err
	}
	epoch := EpochOf(height)

	var lastErr error
	for attempt := 0; attempt < params.DatasetBuildRetries; attempt++ {
		ds, err := v.oracle.Prepare(epoch, seed)
		if err == nil {
			return ds, nil
		}
		lastErr = err
		if !errors.Is(err, powhash.ErrDatasetBuild) {
			return nil, err
		}
		log.Warn(log.PowMonitoring, "Dataset build failed, retrying", "epoch", epoch, "attempt", attempt+1, "err", err)
	}
	return nil, lastErr
}

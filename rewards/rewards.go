// Package rewards credits block authors with the emission in force at the
// block's height. Amounts are fixed per era; fork/tie resolution happens
// upstream, this package only pays out already-finalized blocks.
package rewards

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/cinderchain/cinder/log"
	"github.com/cinderchain/cinder/params"
	"github.com/cinderchain/cinder/types"
)

// RewardFor returns the emission owed to the author of a block at the
// given height: the era's per-second rate times the nominal block time.
func RewardFor(height uint64) *uint256.Int {
	return params.BlockReward(height)
}

// Ledger is the chain-state surface the distributor writes to.
type Ledger interface {
	// AddBalance credits amount to the author's balance and returns the
	// new balance.
	AddBalance(author types.Ed25519Key, amount *uint256.Int) (*uint256.Int, error)

	// Issuance returns the cumulative issued amount.
	Issuance() (*uint256.Int, error)

	// SetIssuance stores the cumulative issued amount.
	SetIssuance(total *uint256.Int) error
}

// Distributor applies rewards at block finalization.
type Distributor struct {
	ledger Ledger
}

func NewDistributor(ledger Ledger) *Distributor {
	return &Distributor{ledger: ledger}
}

// OnFinalize credits the block's author with the reward for its height and
// rolls the cumulative issuance forward. Issuance overflow is a fatal
// consistency violation: with bounded emission it is unreachable within
// any realistic chain length.
func (d *Distributor) OnFinalize(header *types.Header) error {
	if header.Seal == nil {
		return fmt.Errorf("finalized block %d has no seal", header.Number)
	}
	amount := RewardFor(header.Number)

	issued, err := d.ledger.Issuance()
	if err != nil {
		return fmt.Errorf("reading issuance: %w", err)
	}
	total, overflow := new(uint256.Int).AddOverflow(issued, amount)
	if overflow {
		panic(fmt.Sprintf("cumulative issuance overflow at block %d", header.Number))
	}
	if err := d.ledger.SetIssuance(total); err != nil {
		return fmt.Errorf("writing issuance: %w", err)
	}

	balance, err := d.ledger.AddBalance(header.Seal.Author, amount)
	if err != nil {
		return fmt.Errorf("crediting author: %w", err)
	}

	log.Debug(log.RewardMonitoring, "Author rewarded",
		"number", header.Number,
		"era", params.EraIndexAt(header.Number),
		"author", header.Seal.Author.String(),
		"amount", amount,
		"balance", balance,
	)
	return nil
}

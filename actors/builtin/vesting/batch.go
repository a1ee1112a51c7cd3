package vesting

import (
	addr "github.com/filecoin-project/go-address"
	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
)

// VestBatch is one slot of an account's ring.
type VestBatch struct {
	Total       abi.TokenAmount // Cumulative amount deposited into this batch.
	Released    abi.TokenAmount // Cumulative amount already moved to spendable balance.
	StartEpoch  abi.ChainEpoch  // Period-aligned epoch at which the batch starts unlocking.
	UpdateEpoch abi.ChainEpoch  // Epoch of the most recent deposit.
}

// Remaining is the amount deposited but not yet released.
func (b *VestBatch) Remaining() abi.TokenAmount {
	return big.Sub(b.Total, b.Released)
}

// Releasable returns the amount of the batch that may be released at epoch now.
// At or before the last deposit epoch the entire remainder is reported, as it is once the
// batch has been live for the full duration. In between, the batch unlocks linearly with
// truncating division.
func (b *VestBatch) Releasable(duration abi.ChainEpoch, now abi.ChainEpoch) abi.TokenAmount {
	if now <= b.UpdateEpoch {
		return b.Remaining()
	}
	if now >= b.StartEpoch+duration {
		return b.Remaining()
	}
	elapsed := now - b.StartEpoch
	vested := big.Div(big.Mul(b.Total, big.NewInt(int64(elapsed))), big.NewInt(int64(duration)))
	return big.Max(big.Sub(vested, b.Released), big.Zero())
}

// AccountVestState is the persisted ring for one account.
type AccountVestState struct {
	Batches cid.Cid // AMT[slot]VestBatch; an absent slot is empty
	Cursor  uint64  // Slot most recently written.
}

// ReleaseInfo aggregates an account's live batches.
type ReleaseInfo struct {
	Total      abi.TokenAmount
	CanRelease abi.TokenAmount
	Released   abi.TokenAmount
}

// Locked is the deposited amount that is neither released nor currently releasable.
func (ri ReleaseInfo) Locked() abi.TokenAmount {
	return big.Sub(big.Sub(ri.Total, ri.Released), ri.CanRelease)
}

// DepositResult describes where a deposit landed.
type DepositResult struct {
	Slot    uint64
	Merged  bool
	Evicted abi.TokenAmount // Un-released remainder of an overwritten batch.
}

// SlotBatch pairs a live batch with its slot index.
type SlotBatch struct {
	Slot  uint64
	Batch VestBatch
}

// AccountBatches is a snapshot of one account's ring, used by state audits.
type AccountBatches struct {
	Account addr.Address
	Cursor  uint64
	Batches []SlotBatch
}

package vesting

import (
	"math/big"

	abi "github.com/filecoin-project/go-state-types/abi"
	bigt "github.com/filecoin-project/go-state-types/big"

	"github.com/lockstep-finance/vest-actors/actors/builtin"
)

// Bitwidth of the HAMT mapping accounts to their vesting state.
const LedgerHamtBitwidth = builtin.DefaultHamtBitwidth

// Bitwidth of each account's slot AMT. A single node holds 2^5 slots, which covers
// every period count the host accepts.
const SlotAmtBitwidth = 5

// Largest amount a single batch (or any balance) may hold: 2^256 - 1.
var MaxTokenAmount = abi.TokenAmount(bigt.Int{Int: new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))})

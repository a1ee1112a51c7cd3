package token

import (
	abi "github.com/filecoin-project/go-state-types/abi"

	"github.com/lockstep-finance/vest-actors/actors/builtin"
)

// Largest batch ring an account may carry. Every transfer walks both parties' rings.
const MaxPeriodCount = 20

// Basis points denominator for transfer fees.
const FeeBpsDenominator = 10_000

// Upper bound on the configurable transfer fee (25%).
const MaxTransferFeeBps = 2_500

// Unlock window used by tooling when none is given.
var DefaultVestDuration = abi.ChainEpoch(30 * builtin.EpochsInDay)

// Ring capacity used by tooling when none is given.
var DefaultPeriodCount = uint64(10)

// Bitwidth of the exclusion and router sets.
const FlagSetBitwidth = builtin.DefaultHamtBitwidth

package token

import (
	addr "github.com/filecoin-project/go-address"
	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/lockstep-finance/vest-actors/actors/builtin"
	"github.com/lockstep-finance/vest-actors/actors/builtin/vesting"
	"github.com/lockstep-finance/vest-actors/actors/util/adt"
)

type StateSummary struct {
	Spendable     abi.TokenAmount
	Locked        abi.TokenAmount // Deposited but not yet released, across all live batches.
	VestedHolders int
	LiveBatches   int
}

// Checks internal invariants of token state.
func CheckStateInvariants(st *State, store adt.Store) (*StateSummary, *builtin.MessageAccumulator) {
	acc := &builtin.MessageAccumulator{}
	summary := &StateSummary{Spendable: big.Zero(), Locked: big.Zero()}

	acc.Require(st.Owner.Protocol() == addr.ID, "owner %v is not an ID address", st.Owner)
	acc.Require(st.FeeCollector.Protocol() == addr.ID, "fee collector %v is not an ID address", st.FeeCollector)
	acc.Require(st.FeeRateBps <= MaxTransferFeeBps, "fee rate %d exceeds maximum", st.FeeRateBps)
	acc.RequireNoError(st.Schedule.Validate(), "invalid schedule")
	acc.Require(st.Schedule.PeriodCount <= MaxPeriodCount, "period count %d exceeds maximum", st.Schedule.PeriodCount)
	if !acc.IsEmpty() {
		return summary, acc
	}

	if balances, err := adt.AsBalanceTable(store, st.Balances); err != nil {
		acc.Addf("error loading balances: %v", err)
	} else {
		var balance abi.TokenAmount
		err = (*adt.Map)(balances).ForEach(&balance, func(key string) error {
			acc.Require(balance.Sign() > 0, "non-positive balance %v stored for %x", balance, key)
			return nil
		})
		acc.RequireNoError(err, "error iterating balances")

		spendable, err := balances.Total()
		acc.RequireNoError(err, "error totalling balances")
		if err == nil {
			summary.Spendable = spendable
		}
	}

	if ledger, err := vesting.AsLedger(store, st.Vesting, st.Schedule); err != nil {
		acc.Addf("error loading vesting ledger: %v", err)
	} else {
		err = ledger.ForEachAccount(func(ab *vesting.AccountBatches) error {
			checkAccountBatches(ab, st.Schedule, summary, acc.WithPrefix("account %v: ", ab.Account))
			return nil
		})
		acc.RequireNoError(err, "error iterating vesting ledger")
	}

	total := big.Add(summary.Spendable, summary.Locked)
	acc.Require(total.Equals(st.TotalSupply), "spendable %v plus locked %v does not equal supply %v",
		summary.Spendable, summary.Locked, st.TotalSupply)
	return summary, acc
}

func checkAccountBatches(ab *vesting.AccountBatches, schedule vesting.ScheduleConfig, summary *StateSummary, acc *builtin.MessageAccumulator) {
	summary.VestedHolders++
	acc.Require(ab.Cursor < schedule.PeriodCount, "cursor %d outside ring of %d", ab.Cursor, schedule.PeriodCount)
	acc.Require(len(ab.Batches) > 0, "vesting state with no batches")

	cursorLive := false
	for _, sb := range ab.Batches {
		b := sb.Batch
		summary.LiveBatches++
		if sb.Slot == ab.Cursor {
			cursorLive = true
		}
		acc.Require(sb.Slot < schedule.PeriodCount, "slot %d outside ring of %d", sb.Slot, schedule.PeriodCount)
		acc.Require(b.Released.Sign() >= 0, "slot %d negative released %v", sb.Slot, b.Released)
		acc.Require(!b.Released.GreaterThan(b.Total), "slot %d released %v exceeds total %v", sb.Slot, b.Released, b.Total)
		acc.Require(!b.Total.GreaterThan(vesting.MaxTokenAmount), "slot %d total %v exceeds maximum", sb.Slot, b.Total)
		acc.Require(schedule.BucketStart(b.StartEpoch) == b.StartEpoch, "slot %d start %d not period aligned", sb.Slot, b.StartEpoch)
		acc.Require(b.UpdateEpoch >= b.StartEpoch, "slot %d updated at %d before start %d", sb.Slot, b.UpdateEpoch, b.StartEpoch)
		acc.Require(b.UpdateEpoch < b.StartEpoch+schedule.Period(), "slot %d updated at %d outside its bucket", sb.Slot, b.UpdateEpoch)
		summary.Locked = big.Add(summary.Locked, b.Remaining())
	}
	acc.Require(cursorLive, "cursor slot %d is empty", ab.Cursor)
}

package token

import (
	addr "github.com/filecoin-project/go-address"
	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	rtt "github.com/filecoin-project/go-state-types/rt"
	cid "github.com/ipfs/go-cid"
	"golang.org/x/xerrors"

	"github.com/lockstep-finance/vest-actors/actors/builtin"
	"github.com/lockstep-finance/vest-actors/actors/builtin/vesting"
	"github.com/lockstep-finance/vest-actors/actors/runtime"
	"github.com/lockstep-finance/vest-actors/actors/util/adt"
)

type Runtime = runtime.Runtime

type Actor struct{}

func (a Actor) Exports() []interface{} {
	return []interface{}{
		builtin.MethodConstructor: a.Constructor,
		2:                         a.Transfer,
		3:                         a.ClaimRelease,
		4:                         a.GetCanReleaseInfo,
		5:                         a.UserVestInfo,
		6:                         a.SetExcludedVest,
		7:                         a.SetSwapRouter,
		8:                         a.BalanceOf,
		9:                         a.SetTransferFee,
		10:                        a.ChangeOwner,
	}
}

func (a Actor) Code() cid.Cid {
	return builtin.VestTokenActorCodeID
}

func (a Actor) IsSingleton() bool {
	return false
}

func (a Actor) State() cbor.Er {
	return new(State)
}

var _ runtime.VMActor = Actor{}

type ConstructorParams struct {
	Owner         addr.Address
	InitialHolder addr.Address
	InitialSupply abi.TokenAmount
	Duration      abi.ChainEpoch
	PeriodCount   uint64
	FeeRateBps    uint64
	FeeCollector  addr.Address
}

func (a Actor) Constructor(rt Runtime, params *ConstructorParams) *adt.EmptyValue {
	rt.ValidateImmediateCallerIs(builtin.SystemActorAddr)

	requireIDAddress(rt, params.Owner, "owner")
	requireIDAddress(rt, params.InitialHolder, "initial holder")
	requireIDAddress(rt, params.FeeCollector, "fee collector")
	builtin.RequireParam(rt, params.InitialSupply.Sign() >= 0, "negative initial supply %v", params.InitialSupply)
	builtin.RequireParam(rt, !params.InitialSupply.GreaterThan(vesting.MaxTokenAmount), "initial supply %v exceeds maximum", params.InitialSupply)
	builtin.RequireParam(rt, params.FeeRateBps <= MaxTransferFeeBps, "fee rate %d exceeds maximum %d", params.FeeRateBps, MaxTransferFeeBps)

	schedule, err := vesting.NewScheduleConfig(params.Duration, params.PeriodCount)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalArgument, "invalid schedule")
	builtin.RequireParam(rt, schedule.PeriodCount <= MaxPeriodCount, "period count %d exceeds maximum %d", schedule.PeriodCount, MaxPeriodCount)
	// The oldest batch must be fully vested before its slot is reused.
	builtin.RequireParam(rt, schedule.Duration%abi.ChainEpoch(schedule.PeriodCount) == 0,
		"duration %d not divisible by period count %d", schedule.Duration, schedule.PeriodCount)

	st, err := ConstructState(adt.AsStore(rt), params)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to construct state")
	rt.StateCreate(st)
	return nil
}

type TransferParams struct {
	To     addr.Address
	Amount abi.TokenAmount
}

func (a Actor) Transfer(rt Runtime, params *TransferParams) *adt.EmptyValue {
	rt.ValidateImmediateCallerType(builtin.CallerTypesSignable...)
	requireIDAddress(rt, params.To, "recipient")
	builtin.RequireParam(rt, params.Amount.Sign() >= 0, "negative transfer amount %v", params.Amount)

	from := rt.Caller()
	var st State
	var out *TransferOutcome
	rt.StateTransaction(&st, func() {
		var err error
		out, err = st.Transfer(adt.AsStore(rt), from, params.To, params.Amount, rt.CurrEpoch())
		if xerrors.Is(err, vesting.ErrEvictedUnreleased) {
			logf(rt, rtt.WARN, "transfer %v -> %v would evict locked funds: %v", from, params.To, err)
		}
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to transfer %v from %v to %v", params.Amount, from, params.To)
	})

	logf(rt, rtt.DEBUG, "transfer %v -> %v amount %v fee %v route %v", from, params.To, params.Amount, out.Fee, out.Route)
	if !out.SenderClaimed.IsZero() || !out.RecipientClaimed.IsZero() {
		logf(rt, rtt.DEBUG, "settled %v for %v and %v for %v", out.SenderClaimed, from, out.RecipientClaimed, params.To)
	}
	return nil
}

func (a Actor) ClaimRelease(rt Runtime, _ *adt.EmptyValue) *abi.TokenAmount {
	rt.ValidateImmediateCallerType(builtin.CallerTypesSignable...)

	account := rt.Caller()
	var st State
	var claimed abi.TokenAmount
	rt.StateTransaction(&st, func() {
		var err error
		claimed, err = st.ClaimRelease(adt.AsStore(rt), account, rt.CurrEpoch())
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to claim release for %v", account)
	})

	logf(rt, rtt.DEBUG, "claimed %v for %v", claimed, account)
	return &claimed
}

type CanReleaseInfo struct {
	Total      abi.TokenAmount
	CanRelease abi.TokenAmount
	Released   abi.TokenAmount
}

func (a Actor) GetCanReleaseInfo(rt Runtime, account *addr.Address) *CanReleaseInfo {
	rt.ValidateImmediateCallerAcceptAny()
	requireIDAddress(rt, *account, "account")

	var st State
	rt.StateReadonly(&st)
	info, err := st.CanReleaseInfo(adt.AsStore(rt), *account, rt.CurrEpoch())
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to total batches for %v", *account)
	return &CanReleaseInfo{
		Total:      info.Total,
		CanRelease: info.CanRelease,
		Released:   info.Released,
	}
}

type UserVestInfoParams struct {
	Account addr.Address
	Index   uint64
}

type UserVestInfoReturn struct {
	Total      abi.TokenAmount
	Released   abi.TokenAmount
	StartEpoch abi.ChainEpoch
}

func (a Actor) UserVestInfo(rt Runtime, params *UserVestInfoParams) *UserVestInfoReturn {
	rt.ValidateImmediateCallerAcceptAny()
	requireIDAddress(rt, params.Account, "account")

	var st State
	rt.StateReadonly(&st)
	b, err := st.UserVestInfo(adt.AsStore(rt), params.Account, params.Index)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to read slot %d of %v", params.Index, params.Account)
	return &UserVestInfoReturn{
		Total:      b.Total,
		Released:   b.Released,
		StartEpoch: b.StartEpoch,
	}
}

type SetFlagParams struct {
	Account addr.Address
	Flag    bool
}

func (a Actor) SetExcludedVest(rt Runtime, params *SetFlagParams) *adt.EmptyValue {
	a.setFlag(rt, params, "exclusion", (*State).SetExcludedVest)
	return nil
}

func (a Actor) SetSwapRouter(rt Runtime, params *SetFlagParams) *adt.EmptyValue {
	a.setFlag(rt, params, "router", (*State).SetSwapRouter)
	return nil
}

func (a Actor) setFlag(rt Runtime, params *SetFlagParams, name string, set func(*State, adt.Store, addr.Address, bool) error) {
	validateCallerIsOwner(rt)
	requireIDAddress(rt, params.Account, "account")

	var st State
	rt.StateTransaction(&st, func() {
		err := set(&st, adt.AsStore(rt), params.Account, params.Flag)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to set %s flag", name)
	})
	logf(rt, rtt.INFO, "%s flag of %v set to %t", name, params.Account, params.Flag)
}

func (a Actor) BalanceOf(rt Runtime, account *addr.Address) *abi.TokenAmount {
	rt.ValidateImmediateCallerAcceptAny()
	requireIDAddress(rt, *account, "account")

	var st State
	rt.StateReadonly(&st)
	balance, err := st.BalanceOf(adt.AsStore(rt), *account, rt.CurrEpoch())
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to compute balance of %v", *account)
	return &balance
}

type SetTransferFeeParams struct {
	RateBps   uint64
	Collector addr.Address
}

func (a Actor) SetTransferFee(rt Runtime, params *SetTransferFeeParams) *adt.EmptyValue {
	validateCallerIsOwner(rt)
	builtin.RequireParam(rt, params.RateBps <= MaxTransferFeeBps, "fee rate %d exceeds maximum %d", params.RateBps, MaxTransferFeeBps)
	requireIDAddress(rt, params.Collector, "fee collector")

	var st State
	rt.StateTransaction(&st, func() {
		st.FeeRateBps = params.RateBps
		st.FeeCollector = params.Collector
	})
	logf(rt, rtt.INFO, "transfer fee set to %d bps collected by %v", params.RateBps, params.Collector)
	return nil
}

func (a Actor) ChangeOwner(rt Runtime, newOwner *addr.Address) *adt.EmptyValue {
	validateCallerIsOwner(rt)
	requireIDAddress(rt, *newOwner, "owner")

	var st State
	rt.StateTransaction(&st, func() {
		st.Owner = *newOwner
	})
	return nil
}

func validateCallerIsOwner(rt Runtime) {
	var st State
	rt.StateReadonly(&st)
	rt.ValidateImmediateCallerIs(st.Owner)
}

func requireIDAddress(rt Runtime, a addr.Address, name string) {
	builtin.RequireParam(rt, a.Protocol() == addr.ID, "%s %v must be an ID address", name, a)
}

func logf(rt Runtime, level rtt.LogLevel, msg string, args ...interface{}) {
	if builtin.ShouldLog(Actor{}, level) {
		rt.Log(level, msg, args...)
	}
}

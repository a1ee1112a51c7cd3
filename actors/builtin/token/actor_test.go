package token_test

import (
	"context"
	"testing"

	addr "github.com/filecoin-project/go-address"
	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockstep-finance/vest-actors/actors/builtin"
	"github.com/lockstep-finance/vest-actors/actors/builtin/token"
	"github.com/lockstep-finance/vest-actors/actors/util/adt"
	"github.com/lockstep-finance/vest-actors/support/mock"
	tutil "github.com/lockstep-finance/vest-actors/support/testing"
)

func TestExports(t *testing.T) {
	mock.CheckActorExports(t, token.Actor{})
}

const initialSupply = 1_000_000

func TestConstruction(t *testing.T) {
	receiver := tutil.NewIDAddr(t, 1000)
	owner := tutil.NewIDAddr(t, 100)
	builder := mock.NewBuilder(context.Background(), receiver).
		WithCaller(builtin.SystemActorAddr, builtin.SystemActorCodeID)

	t.Run("simple construction", func(t *testing.T) {
		rt := builder.Build(t)
		h := newHarness(t, owner)
		h.constructAndVerify(rt, 700, 7, 0)

		var st token.State
		rt.GetState(&st)
		assert.Equal(t, owner, st.Owner)
		assert.Equal(t, abi.ChainEpoch(700), st.Schedule.Duration)
		assert.Equal(t, uint64(7), st.Schedule.PeriodCount)
		assert.Equal(t, abi.NewTokenAmount(initialSupply), st.TotalSupply)
		assert.Equal(t, h.collector, st.FeeCollector)

		assertAmount(t, initialSupply, h.spendable(rt, h.holder))
		excluded, err := st.IsExcludedVest(adt.AsStore(rt), h.holder)
		require.NoError(t, err)
		assert.True(t, excluded)
		h.checkState(rt)
	})

	t.Run("only the system actor may construct", func(t *testing.T) {
		rt := builder.Build(t)
		h := newHarness(t, owner)
		rt.SetCaller(owner, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(h.a.Constructor, h.constructorParams(700, 7, 0))
		})
		rt.Verify()
	})

	t.Run("rejects invalid parameters", func(t *testing.T) {
		h := newHarness(t, owner)
		for name, params := range map[string]*token.ConstructorParams{
			"zero duration":      h.constructorParams(0, 7, 0),
			"zero period count":  h.constructorParams(700, 0, 0),
			"period exceeds max": h.constructorParams(2100, token.MaxPeriodCount+1, 0),
			"uneven period":      h.constructorParams(705, 7, 0),
			"fee above max":      h.constructorParams(700, 7, token.MaxTransferFeeBps+1),
		} {
			t.Run(name, func(t *testing.T) {
				rt := builder.Build(t)
				rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
				rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
					rt.Call(h.a.Constructor, params)
				})
				rt.Verify()
			})
		}

		rt := builder.Build(t)
		params := h.constructorParams(700, 7, 0)
		params.Owner = tutil.NewSECP256K1Addr(t, "owner")
		rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "ID address", func() {
			rt.Call(h.a.Constructor, params)
		})
		rt.Verify()
	})
}

func TestLinearRelease(t *testing.T) {
	owner := tutil.NewIDAddr(t, 100)
	alice := tutil.NewIDAddr(t, 201)
	rt, h := setup(t, owner, 700, 7, 0)

	h.transfer(rt, h.holder, alice, 700)
	b := h.userVestInfo(rt, alice, 0)
	assertAmount(t, 700, b.Total)
	assertAmount(t, 0, b.Released)
	assert.Equal(t, abi.ChainEpoch(0), b.StartEpoch)
	assertAmount(t, 0, h.spendable(rt, alice))

	rt.SetEpoch(350)
	info := h.canReleaseInfo(rt, alice)
	assertAmount(t, 700, info.Total)
	assertAmount(t, 350, info.CanRelease)
	assertAmount(t, 0, info.Released)
	assertAmount(t, 350, h.balanceOf(rt, alice))

	assertAmount(t, 350, h.claim(rt, alice))
	assertAmount(t, 350, h.spendable(rt, alice))
	b = h.userVestInfo(rt, alice, 0)
	assertAmount(t, 350, b.Released)
	summary := h.checkState(rt)
	assertAmount(t, initialSupply-350, summary.Spendable)
	assertAmount(t, 350, summary.Locked)
	assert.Equal(t, 1, summary.VestedHolders)

	rt.SetEpoch(700)
	info = h.canReleaseInfo(rt, alice)
	assertAmount(t, 350, info.CanRelease)
	assertAmount(t, 350, h.claim(rt, alice))
	assertAmount(t, 700, h.spendable(rt, alice))

	rt.SetEpoch(1000)
	assertAmount(t, 0, h.claim(rt, alice))
	assertAmount(t, 700, h.balanceOf(rt, alice))
	h.checkState(rt)
}

func TestConsolidation(t *testing.T) {
	owner := tutil.NewIDAddr(t, 100)
	alice := tutil.NewIDAddr(t, 201)

	t.Run("transfers in one period share a batch", func(t *testing.T) {
		rt, h := setup(t, owner, 700, 7, 0)
		rt.SetEpoch(50)
		h.transfer(rt, h.holder, alice, 100)
		rt.SetEpoch(80)
		h.transfer(rt, h.holder, alice, 50)

		b := h.userVestInfo(rt, alice, 0)
		assertAmount(t, 150, b.Total)
		assert.Equal(t, abi.ChainEpoch(0), b.StartEpoch)
		empty := h.userVestInfo(rt, alice, 1)
		assert.True(t, empty.Total.IsZero())
		h.checkState(rt)
	})

	t.Run("ring wraps after every slot is used", func(t *testing.T) {
		rt, h := setup(t, owner, 700, 7, 0)
		for i := 0; i < 8; i++ {
			rt.SetEpoch(abi.ChainEpoch(i * 100))
			h.transfer(rt, h.holder, alice, 100)
		}
		b := h.userVestInfo(rt, alice, 0)
		assert.Equal(t, abi.ChainEpoch(700), b.StartEpoch)
		assertAmount(t, 100, b.Total)
		// The first batch was fully vested and settled before it was overwritten.
		assertAmount(t, 100+sumVested(100, 600, 500, 400, 300, 200, 100), h.spendable(rt, alice))
		h.checkState(rt)
	})

	t.Run("slot index out of range", func(t *testing.T) {
		rt, h := setup(t, owner, 700, 7, 0)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(h.a.UserVestInfo, &token.UserVestInfoParams{Account: alice, Index: 7})
		})
		rt.Verify()
	})
}

func TestRouting(t *testing.T) {
	owner := tutil.NewIDAddr(t, 100)
	alice := tutil.NewIDAddr(t, 201)
	pool := tutil.NewIDAddr(t, 202)
	router := tutil.NewIDAddr(t, 203)

	rt, h := setup(t, owner, 700, 7, 100)
	h.setExcludedVest(rt, pool, true)
	h.setExcludedVest(rt, router, true)
	h.setSwapRouter(rt, router, true)

	t.Run("vested recipient locks the net amount", func(t *testing.T) {
		rt.ExpectLogsContain("route vested")
		h.transfer(rt, h.holder, alice, 1000)
		b := h.userVestInfo(rt, alice, 0)
		assertAmount(t, 990, b.Total)
		assertAmount(t, 0, h.spendable(rt, alice))
		assertAmount(t, 10, h.spendable(rt, h.collector))
		h.checkState(rt)
	})

	t.Run("excluded recipient receives the net amount", func(t *testing.T) {
		rt.ExpectLogsContain("route excluded")
		h.transfer(rt, h.holder, pool, 1000)
		assertAmount(t, 990, h.spendable(rt, pool))
		assertAmount(t, 20, h.spendable(rt, h.collector))
		info := h.canReleaseInfo(rt, pool)
		assert.True(t, info.Total.IsZero())
		h.checkState(rt)
	})

	t.Run("router receives the gross amount", func(t *testing.T) {
		rt.ExpectLogsContain("route excluded-router")
		h.transfer(rt, h.holder, router, 1000)
		assertAmount(t, 1000, h.spendable(rt, router))
		assertAmount(t, 20, h.spendable(rt, h.collector))
		h.checkState(rt)
	})

	t.Run("router flag alone does not exclude", func(t *testing.T) {
		h.setExcludedVest(rt, router, false)
		h.transfer(rt, h.holder, router, 1000)
		assertAmount(t, 1000, h.spendable(rt, router))
		b := h.userVestInfo(rt, router, 0)
		assertAmount(t, 990, b.Total)
		h.checkState(rt)
	})

	t.Run("locked funds cannot be spent", func(t *testing.T) {
		rt.SetCaller(alice, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		rt.ExpectAbort(exitcode.ErrInsufficientFunds, func() {
			rt.Call(h.a.Transfer, &token.TransferParams{To: pool, Amount: abi.NewTokenAmount(1)})
		})
		rt.Verify()
		h.checkState(rt)
	})

	t.Run("spending released funds settles first", func(t *testing.T) {
		rt.SetEpoch(350)
		rt.ExpectLogsContain("settled 495")
		h.transfer(rt, alice, pool, 100)
		// 990 * 350 / 700 claimed, 100 sent.
		assertAmount(t, 395, h.spendable(rt, alice))
		h.checkState(rt)
	})
}

func TestAdministration(t *testing.T) {
	owner := tutil.NewIDAddr(t, 100)
	alice := tutil.NewIDAddr(t, 201)
	newOwner := tutil.NewIDAddr(t, 300)

	t.Run("setters are owner only", func(t *testing.T) {
		rt, h := setup(t, owner, 700, 7, 0)
		rt.SetCaller(alice, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(owner)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(h.a.SetExcludedVest, &token.SetFlagParams{Account: alice, Flag: true})
		})
		rt.Verify()

		rt.ExpectValidateCallerAddr(owner)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(h.a.SetTransferFee, &token.SetTransferFeeParams{RateBps: 10, Collector: alice})
		})
		rt.Verify()
	})

	t.Run("change owner", func(t *testing.T) {
		rt, h := setup(t, owner, 700, 7, 0)
		rt.SetCaller(owner, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(owner)
		rt.Call(h.a.ChangeOwner, &newOwner)
		rt.Verify()

		h.owner = newOwner
		h.setExcludedVest(rt, alice, true)
		h.transfer(rt, h.holder, alice, 10)
		assertAmount(t, 10, h.spendable(rt, alice))

		rt.SetCaller(owner, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(newOwner)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(h.a.ChangeOwner, &owner)
		})
		rt.Verify()
		h.checkState(rt)
	})

	t.Run("transfer fee", func(t *testing.T) {
		rt, h := setup(t, owner, 700, 7, 0)
		collector := tutil.NewIDAddr(t, 400)
		h.setTransferFee(rt, 250, collector)

		var st token.State
		rt.GetState(&st)
		assert.Equal(t, uint64(250), st.FeeRateBps)
		assert.Equal(t, collector, st.FeeCollector)

		h.transfer(rt, h.holder, alice, 1001)
		// floor(1001 * 250 / 10000) = 25
		assertAmount(t, 25, h.spendable(rt, collector))
		b := h.userVestInfo(rt, alice, 0)
		assertAmount(t, 976, b.Total)

		rt.SetCaller(h.owner, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(h.owner)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(h.a.SetTransferFee, &token.SetTransferFeeParams{RateBps: token.MaxTransferFeeBps + 1, Collector: collector})
		})
		rt.Verify()
		h.checkState(rt)
	})

	t.Run("rejects negative transfers", func(t *testing.T) {
		rt, h := setup(t, owner, 700, 7, 0)
		rt.SetCaller(h.holder, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(h.a.Transfer, &token.TransferParams{To: alice, Amount: abi.NewTokenAmount(-1)})
		})
		rt.Verify()
	})
}

// Sum of floor(100 * elapsed / 700) over the given elapsed epochs.
func sumVested(total int64, elapsed ...int64) int64 {
	sum := int64(0)
	for _, e := range elapsed {
		sum += total * e / 700
	}
	return sum
}

//
// Harness
//

type tokenHarness struct {
	a         token.Actor
	t         *testing.T
	owner     addr.Address
	holder    addr.Address
	collector addr.Address
}

func newHarness(t *testing.T, owner addr.Address) *tokenHarness {
	return &tokenHarness{
		t:         t,
		owner:     owner,
		holder:    tutil.NewIDAddr(t, 101),
		collector: tutil.NewIDAddr(t, 102),
	}
}

func setup(t *testing.T, owner addr.Address, duration abi.ChainEpoch, periodCount uint64, feeBps uint64) (*mock.Runtime, *tokenHarness) {
	receiver := tutil.NewIDAddr(t, 1000)
	rt := mock.NewBuilder(context.Background(), receiver).
		WithCaller(builtin.SystemActorAddr, builtin.SystemActorCodeID).
		Build(t)
	h := newHarness(t, owner)
	h.constructAndVerify(rt, duration, periodCount, feeBps)
	return rt, h
}

func (h *tokenHarness) constructorParams(duration abi.ChainEpoch, periodCount uint64, feeBps uint64) *token.ConstructorParams {
	return &token.ConstructorParams{
		Owner:         h.owner,
		InitialHolder: h.holder,
		InitialSupply: abi.NewTokenAmount(initialSupply),
		Duration:      duration,
		PeriodCount:   periodCount,
		FeeRateBps:    feeBps,
		FeeCollector:  h.collector,
	}
}

func (h *tokenHarness) constructAndVerify(rt *mock.Runtime, duration abi.ChainEpoch, periodCount uint64, feeBps uint64) {
	rt.SetCaller(builtin.SystemActorAddr, builtin.SystemActorCodeID)
	rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
	ret := rt.Call(h.a.Constructor, h.constructorParams(duration, periodCount, feeBps))
	assert.Nil(h.t, ret)
	rt.Verify()
}

func (h *tokenHarness) transfer(rt *mock.Runtime, from, to addr.Address, amount int64) {
	rt.SetCaller(from, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
	rt.Call(h.a.Transfer, &token.TransferParams{To: to, Amount: abi.NewTokenAmount(amount)})
	rt.Verify()
}

func (h *tokenHarness) claim(rt *mock.Runtime, account addr.Address) abi.TokenAmount {
	rt.SetCaller(account, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
	ret := rt.Call(h.a.ClaimRelease, nil).(*abi.TokenAmount)
	rt.Verify()
	return *ret
}

func (h *tokenHarness) canReleaseInfo(rt *mock.Runtime, account addr.Address) *token.CanReleaseInfo {
	rt.ExpectValidateCallerAny()
	ret := rt.Call(h.a.GetCanReleaseInfo, &account).(*token.CanReleaseInfo)
	rt.Verify()
	return ret
}

func (h *tokenHarness) userVestInfo(rt *mock.Runtime, account addr.Address, index uint64) *token.UserVestInfoReturn {
	rt.ExpectValidateCallerAny()
	ret := rt.Call(h.a.UserVestInfo, &token.UserVestInfoParams{Account: account, Index: index}).(*token.UserVestInfoReturn)
	rt.Verify()
	return ret
}

func (h *tokenHarness) balanceOf(rt *mock.Runtime, account addr.Address) abi.TokenAmount {
	rt.ExpectValidateCallerAny()
	ret := rt.Call(h.a.BalanceOf, &account).(*abi.TokenAmount)
	rt.Verify()
	return *ret
}

func (h *tokenHarness) setExcludedVest(rt *mock.Runtime, account addr.Address, flag bool) {
	rt.SetCaller(h.owner, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(h.owner)
	rt.Call(h.a.SetExcludedVest, &token.SetFlagParams{Account: account, Flag: flag})
	rt.Verify()
}

func (h *tokenHarness) setSwapRouter(rt *mock.Runtime, account addr.Address, flag bool) {
	rt.SetCaller(h.owner, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(h.owner)
	rt.Call(h.a.SetSwapRouter, &token.SetFlagParams{Account: account, Flag: flag})
	rt.Verify()
}

func (h *tokenHarness) setTransferFee(rt *mock.Runtime, rateBps uint64, collector addr.Address) {
	rt.SetCaller(h.owner, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(h.owner)
	rt.Call(h.a.SetTransferFee, &token.SetTransferFeeParams{RateBps: rateBps, Collector: collector})
	rt.Verify()
}

func (h *tokenHarness) spendable(rt *mock.Runtime, account addr.Address) abi.TokenAmount {
	var st token.State
	rt.GetState(&st)
	balance, err := st.SpendableBalance(adt.AsStore(rt), account)
	require.NoError(h.t, err)
	return balance
}

func (h *tokenHarness) checkState(rt *mock.Runtime) *token.StateSummary {
	var st token.State
	rt.GetState(&st)
	summary, msgs := token.CheckStateInvariants(&st, adt.AsStore(rt))
	assert.True(h.t, msgs.IsEmpty(), "%v", msgs.Messages())
	return summary
}

func assertAmount(t *testing.T, expected int64, actual abi.TokenAmount) {
	t.Helper()
	assert.True(t, actual.Equals(big.NewInt(expected)), "expected %d, got %v", expected, actual)
}

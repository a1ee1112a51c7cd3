package token

import (
	addr "github.com/filecoin-project/go-address"
	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/exitcode"
	"golang.org/x/xerrors"

	"github.com/lockstep-finance/vest-actors/actors/builtin/vesting"
	"github.com/lockstep-finance/vest-actors/actors/util/adt"
)

// Spendable balances backed by a balance table.
type balanceLedger struct {
	table *adt.BalanceTable
}

var _ vesting.BalanceLedger = (*balanceLedger)(nil)

func (b *balanceLedger) Credit(account addr.Address, amount abi.TokenAmount) error {
	prev, err := b.table.Get(account)
	if err != nil {
		return err
	}
	if big.Add(prev, amount).GreaterThan(vesting.MaxTokenAmount) {
		return xerrors.Errorf("credit %v to %v: %w", amount, account, vesting.ErrAmountOverflow)
	}
	return b.table.Add(account, amount)
}

func (b *balanceLedger) Debit(account addr.Address, amount abi.TokenAmount) error {
	prev, err := b.table.Get(account)
	if err != nil {
		return err
	}
	if prev.LessThan(amount) {
		return exitcode.ErrInsufficientFunds.Wrapf("spendable balance of %v is %v, need %v", account, prev, amount)
	}
	return b.table.MustSubtract(account, amount)
}

// Exclusion and router flags backed by two sets.
type routeSets struct {
	excluded *adt.Set
	routers  *adt.Set
}

var _ vesting.RouteConfig = (*routeSets)(nil)

func (r *routeSets) IsExcluded(account addr.Address) (bool, error) {
	return r.excluded.Has(abi.AddrKey(account))
}

func (r *routeSets) IsRouter(account addr.Address) (bool, error) {
	return r.routers.Has(abi.AddrKey(account))
}

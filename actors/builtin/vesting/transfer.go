package vesting

import (
	"fmt"

	addr "github.com/filecoin-project/go-address"
	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"golang.org/x/xerrors"
)

// BalanceLedger holds spendable balances on behalf of the vesting ledger.
type BalanceLedger interface {
	Credit(account addr.Address, amount abi.TokenAmount) error
	// Debit fails if the account's spendable balance is less than amount.
	Debit(account addr.Address, amount abi.TokenAmount) error
}

// RouteConfig reports the exclusion and router flags of an account.
type RouteConfig interface {
	IsExcluded(account addr.Address) (bool, error)
	IsRouter(account addr.Address) (bool, error)
}

// Route is how an incoming transfer reaches its recipient.
type Route int

const (
	// The net amount is deposited into the recipient's ring.
	RouteVested Route = iota
	// The net amount is credited directly to spendable balance.
	RouteExcluded
	// The gross amount is credited directly to spendable balance.
	RouteExcludedRouter
)

func (r Route) String() string {
	switch r {
	case RouteVested:
		return "vested"
	case RouteExcluded:
		return "excluded"
	case RouteExcludedRouter:
		return "excluded-router"
	default:
		return fmt.Sprintf("route(%d)", int(r))
	}
}

// ResolveRoute decides the route for a recipient. The router flag only applies to
// excluded accounts.
func ResolveRoute(routes RouteConfig, to addr.Address) (Route, error) {
	excluded, err := routes.IsExcluded(to)
	if err != nil {
		return RouteVested, xerrors.Errorf("failed to check exclusion of %v: %w", to, err)
	}
	if !excluded {
		return RouteVested, nil
	}
	router, err := routes.IsRouter(to)
	if err != nil {
		return RouteVested, xerrors.Errorf("failed to check router flag of %v: %w", to, err)
	}
	if router {
		return RouteExcludedRouter, nil
	}
	return RouteExcluded, nil
}

// Transfer moves Amount out of From. NetAmount is the quantity that reaches To unless To is a
// router, in which case the gross Amount does.
type Transfer struct {
	From      addr.Address
	To        addr.Address
	Amount    abi.TokenAmount
	NetAmount abi.TokenAmount
}

type TransferResult struct {
	Route            Route
	SenderClaimed    abi.TokenAmount
	RecipientClaimed abi.TokenAmount
	// Amount credited to the recipient's spendable balance by the route itself.
	Credited abi.TokenAmount
	// Set for RouteVested.
	Deposit *DepositResult
}

// Settle claims the account's releasable amount and credits it to spendable balance.
func (l *Ledger) Settle(balances BalanceLedger, account addr.Address, now abi.ChainEpoch) (abi.TokenAmount, error) {
	claimed, err := l.Claim(account, now)
	if err != nil {
		return big.Zero(), err
	}
	if claimed.Sign() > 0 {
		if err := balances.Credit(account, claimed); err != nil {
			return big.Zero(), xerrors.Errorf("failed to credit %v released to %v: %w", claimed, account, err)
		}
	}
	return claimed, nil
}

// OnTransfer applies a transfer: the sender is settled and debited, then the recipient is
// credited or, when subject to vesting, settled and given a new or merged batch.
// A deposit that would evict un-released funds fails with ErrEvictedUnreleased.
func (l *Ledger) OnTransfer(balances BalanceLedger, routes RouteConfig, tr Transfer, now abi.ChainEpoch) (TransferResult, error) {
	res := TransferResult{SenderClaimed: big.Zero(), RecipientClaimed: big.Zero(), Credited: big.Zero()}
	if tr.Amount.Sign() < 0 || tr.NetAmount.Sign() < 0 {
		return res, xerrors.Errorf("transfer %v (net %v): %w", tr.Amount, tr.NetAmount, ErrNegativeAmount)
	}

	var err error
	if res.SenderClaimed, err = l.Settle(balances, tr.From, now); err != nil {
		return res, xerrors.Errorf("failed to settle sender: %w", err)
	}
	if err = balances.Debit(tr.From, tr.Amount); err != nil {
		return res, xerrors.Errorf("failed to debit %v from %v: %w", tr.Amount, tr.From, err)
	}

	if res.Route, err = ResolveRoute(routes, tr.To); err != nil {
		return res, err
	}
	switch res.Route {
	case RouteExcludedRouter:
		res.Credited = tr.Amount
	case RouteExcluded:
		res.Credited = tr.NetAmount
	case RouteVested:
		if res.RecipientClaimed, err = l.Settle(balances, tr.To, now); err != nil {
			return res, xerrors.Errorf("failed to settle recipient: %w", err)
		}
		dep, err := l.DepositInto(tr.To, tr.NetAmount, now)
		if err != nil {
			return res, xerrors.Errorf("failed to deposit into %v: %w", tr.To, err)
		}
		if dep.Evicted.Sign() > 0 {
			return res, xerrors.Errorf("slot %d of %v held %v: %w", dep.Slot, tr.To, dep.Evicted, ErrEvictedUnreleased)
		}
		res.Deposit = &dep
		return res, nil
	}
	if err := balances.Credit(tr.To, res.Credited); err != nil {
		return res, xerrors.Errorf("failed to credit %v to %v: %w", res.Credited, tr.To, err)
	}
	return res, nil
}

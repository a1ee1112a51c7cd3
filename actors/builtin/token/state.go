package token

import (
	addr "github.com/filecoin-project/go-address"
	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
	"golang.org/x/xerrors"

	"github.com/lockstep-finance/vest-actors/actors/builtin/vesting"
	"github.com/lockstep-finance/vest-actors/actors/util/adt"
)

type State struct {
	Owner       addr.Address
	Schedule    vesting.ScheduleConfig
	TotalSupply abi.TokenAmount

	Balances         cid.Cid // BalanceTable, spendable amounts
	Vesting          cid.Cid // HAMT[addr]AccountVestState
	ExcludedFromVest cid.Cid // Set of addresses
	SwapRouters      cid.Cid // Set of addresses

	FeeRateBps   uint64
	FeeCollector addr.Address
}

func ConstructState(store adt.Store, params *ConstructorParams) (*State, error) {
	emptyBalances, err := adt.StoreEmptyMap(store, adt.BalanceTableBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to create empty balance table: %w", err)
	}
	emptyLedger, err := vesting.StoreEmptyLedger(store)
	if err != nil {
		return nil, xerrors.Errorf("failed to create empty vesting ledger: %w", err)
	}
	emptySet, err := adt.StoreEmptyMap(store, FlagSetBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to create empty set: %w", err)
	}

	st := &State{
		Owner:            params.Owner,
		Schedule:         vesting.ScheduleConfig{Duration: params.Duration, PeriodCount: params.PeriodCount},
		TotalSupply:      params.InitialSupply,
		Balances:         emptyBalances,
		Vesting:          emptyLedger,
		ExcludedFromVest: emptySet,
		SwapRouters:      emptySet,
		FeeRateBps:       params.FeeRateBps,
		FeeCollector:     params.FeeCollector,
	}

	if err := st.modifyBalances(store, func(b *balanceLedger) error {
		return b.Credit(params.InitialHolder, params.InitialSupply)
	}); err != nil {
		return nil, xerrors.Errorf("failed to mint initial supply: %w", err)
	}
	// The initial holder distributes the supply and is never subject to vesting.
	if err := st.SetExcludedVest(store, params.InitialHolder, true); err != nil {
		return nil, err
	}
	return st, nil
}

// TransferFee returns the fee withheld from a non-router transfer of amount.
func (st *State) TransferFee(amount abi.TokenAmount) abi.TokenAmount {
	if st.FeeRateBps == 0 {
		return big.Zero()
	}
	return big.Div(big.Mul(amount, big.NewInt(int64(st.FeeRateBps))), big.NewInt(FeeBpsDenominator))
}

type TransferOutcome struct {
	vesting.TransferResult
	Fee abi.TokenAmount
}

// Transfer moves amount from one account to another, routing the received amount through
// the vesting ledger and crediting any fee to the collector.
func (st *State) Transfer(store adt.Store, from, to addr.Address, amount abi.TokenAmount, now abi.ChainEpoch) (*TransferOutcome, error) {
	ledger, err := st.loadLedger(store)
	if err != nil {
		return nil, err
	}
	balances, err := st.loadBalances(store)
	if err != nil {
		return nil, err
	}
	routes, err := st.loadRoutes(store)
	if err != nil {
		return nil, err
	}

	route, err := vesting.ResolveRoute(routes, to)
	if err != nil {
		return nil, err
	}
	fee := big.Zero()
	if route != vesting.RouteExcludedRouter {
		fee = st.TransferFee(amount)
	}

	res, err := ledger.OnTransfer(balances, routes, vesting.Transfer{
		From:      from,
		To:        to,
		Amount:    amount,
		NetAmount: big.Sub(amount, fee),
	}, now)
	if err != nil {
		return nil, err
	}
	if fee.Sign() > 0 {
		if err := balances.Credit(st.FeeCollector, fee); err != nil {
			return nil, xerrors.Errorf("failed to credit fee %v to %v: %w", fee, st.FeeCollector, err)
		}
	}

	if st.Balances, err = balances.table.Root(); err != nil {
		return nil, xerrors.Errorf("failed to flush balances: %w", err)
	}
	if st.Vesting, err = ledger.Root(); err != nil {
		return nil, xerrors.Errorf("failed to flush vesting ledger: %w", err)
	}
	return &TransferOutcome{TransferResult: res, Fee: fee}, nil
}

// ClaimRelease moves the account's releasable amount to its spendable balance.
func (st *State) ClaimRelease(store adt.Store, account addr.Address, now abi.ChainEpoch) (abi.TokenAmount, error) {
	ledger, err := st.loadLedger(store)
	if err != nil {
		return big.Zero(), err
	}
	balances, err := st.loadBalances(store)
	if err != nil {
		return big.Zero(), err
	}
	claimed, err := ledger.Settle(balances, account, now)
	if err != nil {
		return big.Zero(), err
	}
	if claimed.IsZero() {
		return claimed, nil
	}
	if st.Balances, err = balances.table.Root(); err != nil {
		return big.Zero(), xerrors.Errorf("failed to flush balances: %w", err)
	}
	if st.Vesting, err = ledger.Root(); err != nil {
		return big.Zero(), xerrors.Errorf("failed to flush vesting ledger: %w", err)
	}
	return claimed, nil
}

func (st *State) CanReleaseInfo(store adt.Store, account addr.Address, now abi.ChainEpoch) (vesting.ReleaseInfo, error) {
	ledger, err := st.loadLedger(store)
	if err != nil {
		return vesting.ReleaseInfo{}, err
	}
	return ledger.TotalsAndReleasable(account, now)
}

func (st *State) UserVestInfo(store adt.Store, account addr.Address, index uint64) (vesting.VestBatch, error) {
	ledger, err := st.loadLedger(store)
	if err != nil {
		return vesting.VestBatch{}, err
	}
	b, _, err := ledger.BatchAt(account, index)
	return b, err
}

// SpendableBalance returns the account's unlocked, claimed balance.
func (st *State) SpendableBalance(store adt.Store, account addr.Address) (abi.TokenAmount, error) {
	balances, err := st.loadBalances(store)
	if err != nil {
		return big.Zero(), err
	}
	return balances.table.Get(account)
}

// BalanceOf is the spendable balance plus whatever could be claimed at now.
func (st *State) BalanceOf(store adt.Store, account addr.Address, now abi.ChainEpoch) (abi.TokenAmount, error) {
	spendable, err := st.SpendableBalance(store, account)
	if err != nil {
		return big.Zero(), err
	}
	info, err := st.CanReleaseInfo(store, account, now)
	if err != nil {
		return big.Zero(), err
	}
	return big.Add(spendable, info.CanRelease), nil
}

func (st *State) SetExcludedVest(store adt.Store, account addr.Address, flag bool) error {
	root, err := setFlag(store, st.ExcludedFromVest, account, flag)
	if err != nil {
		return xerrors.Errorf("failed to set exclusion of %v: %w", account, err)
	}
	st.ExcludedFromVest = root
	return nil
}

func (st *State) SetSwapRouter(store adt.Store, account addr.Address, flag bool) error {
	root, err := setFlag(store, st.SwapRouters, account, flag)
	if err != nil {
		return xerrors.Errorf("failed to set router flag of %v: %w", account, err)
	}
	st.SwapRouters = root
	return nil
}

func (st *State) IsExcludedVest(store adt.Store, account addr.Address) (bool, error) {
	routes, err := st.loadRoutes(store)
	if err != nil {
		return false, err
	}
	return routes.IsExcluded(account)
}

func (st *State) IsSwapRouter(store adt.Store, account addr.Address) (bool, error) {
	routes, err := st.loadRoutes(store)
	if err != nil {
		return false, err
	}
	return routes.IsRouter(account)
}

func setFlag(store adt.Store, root cid.Cid, account addr.Address, flag bool) (cid.Cid, error) {
	set, err := adt.AsSet(store, root, FlagSetBitwidth)
	if err != nil {
		return cid.Undef, err
	}
	if flag {
		err = set.Put(abi.AddrKey(account))
	} else {
		_, err = set.TryDelete(abi.AddrKey(account))
	}
	if err != nil {
		return cid.Undef, err
	}
	return set.Root()
}

func (st *State) modifyBalances(store adt.Store, f func(b *balanceLedger) error) error {
	balances, err := st.loadBalances(store)
	if err != nil {
		return err
	}
	if err := f(balances); err != nil {
		return err
	}
	if st.Balances, err = balances.table.Root(); err != nil {
		return xerrors.Errorf("failed to flush balances: %w", err)
	}
	return nil
}

func (st *State) loadLedger(store adt.Store) (*vesting.Ledger, error) {
	ledger, err := vesting.AsLedger(store, st.Vesting, st.Schedule)
	if err != nil {
		return nil, xerrors.Errorf("failed to load vesting ledger: %w", err)
	}
	return ledger, nil
}

func (st *State) loadBalances(store adt.Store) (*balanceLedger, error) {
	table, err := adt.AsBalanceTable(store, st.Balances)
	if err != nil {
		return nil, xerrors.Errorf("failed to load balances: %w", err)
	}
	return &balanceLedger{table: table}, nil
}

func (st *State) loadRoutes(store adt.Store) (*routeSets, error) {
	excluded, err := adt.AsSet(store, st.ExcludedFromVest, FlagSetBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to load exclusion set: %w", err)
	}
	routers, err := adt.AsSet(store, st.SwapRouters, FlagSetBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to load router set: %w", err)
	}
	return &routeSets{excluded: excluded, routers: routers}, nil
}

package vesting

import (
	addr "github.com/filecoin-project/go-address"
	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
	"golang.org/x/xerrors"

	"github.com/lockstep-finance/vest-actors/actors/util/adt"
)

// Ledger holds the vesting ring of every account, keyed by address.
// Mutations are buffered in the HAMT and AMT nodes until Root flushes them. A caller that
// receives an error from a mutating method must discard the ledger instead of flushing it.
type Ledger struct {
	store    adt.Store
	schedule ScheduleConfig
	accounts *adt.Map
}

// StoreEmptyLedger writes an empty account map and returns its root.
func StoreEmptyLedger(store adt.Store) (cid.Cid, error) {
	return adt.StoreEmptyMap(store, LedgerHamtBitwidth)
}

// AsLedger loads the ledger rooted at root under the given schedule.
func AsLedger(store adt.Store, root cid.Cid, schedule ScheduleConfig) (*Ledger, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	accounts, err := adt.AsMap(store, root, LedgerHamtBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to load vesting accounts: %w", err)
	}
	return &Ledger{store: store, schedule: schedule, accounts: accounts}, nil
}

func (l *Ledger) Schedule() ScheduleConfig {
	return l.schedule
}

// Root flushes pending changes and returns the ledger's root.
func (l *Ledger) Root() (cid.Cid, error) {
	return l.accounts.Root()
}

// accountRing is a loaded account ring with its slot array.
type accountRing struct {
	state   AccountVestState
	batches *adt.Array
	fresh   bool
}

func (l *Ledger) loadRing(account addr.Address) (*accountRing, error) {
	var st AccountVestState
	found, err := l.accounts.Get(abi.AddrKey(account), &st)
	if err != nil {
		return nil, xerrors.Errorf("failed to load vesting state for %v: %w", account, err)
	}
	if !found {
		batches, err := adt.MakeEmptyArray(l.store, SlotAmtBitwidth)
		if err != nil {
			return nil, xerrors.Errorf("failed to create slots for %v: %w", account, err)
		}
		return &accountRing{batches: batches, fresh: true}, nil
	}
	batches, err := adt.AsArray(l.store, st.Batches, SlotAmtBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to load slots for %v: %w", account, err)
	}
	return &accountRing{state: st, batches: batches}, nil
}

func (l *Ledger) saveRing(account addr.Address, ring *accountRing) error {
	root, err := ring.batches.Root()
	if err != nil {
		return xerrors.Errorf("failed to flush slots for %v: %w", account, err)
	}
	ring.state.Batches = root
	if err := l.accounts.Put(abi.AddrKey(account), &ring.state); err != nil {
		return xerrors.Errorf("failed to save vesting state for %v: %w", account, err)
	}
	ring.fresh = false
	return nil
}

// Loads the batch at slot, reporting whether the slot is live.
func (r *accountRing) batchAt(slot uint64) (VestBatch, bool, error) {
	var b VestBatch
	found, err := r.batches.Get(slot, &b)
	if err != nil {
		return VestBatch{}, false, xerrors.Errorf("failed to load slot %d: %w", slot, err)
	}
	return b, found, nil
}

// Calls fn for each live slot in index order.
func (l *Ledger) forEachLive(r *accountRing, fn func(slot uint64, b *VestBatch) error) error {
	if r.fresh {
		return nil
	}
	for slot := uint64(0); slot < l.schedule.PeriodCount; slot++ {
		b, found, err := r.batchAt(slot)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := fn(slot, &b); err != nil {
			return err
		}
	}
	return nil
}

// DepositInto adds amount to the account's ring at epoch now.
// A deposit in the same period bucket as the cursor's batch merges into it. Otherwise the
// cursor advances and the batch it lands on is overwritten; any un-released remainder of that
// batch is lost and reported as Evicted.
func (l *Ledger) DepositInto(account addr.Address, amount abi.TokenAmount, now abi.ChainEpoch) (DepositResult, error) {
	if amount.Sign() < 0 {
		return DepositResult{}, xerrors.Errorf("deposit %v for %v: %w", amount, account, ErrNegativeAmount)
	}
	if amount.GreaterThan(MaxTokenAmount) {
		return DepositResult{}, xerrors.Errorf("deposit %v for %v: %w", amount, account, ErrAmountOverflow)
	}
	ring, err := l.loadRing(account)
	if err != nil {
		return DepositResult{}, err
	}
	bucket := l.schedule.BucketStart(now)

	if ring.fresh {
		// An untouched ring reads as an empty bucket-zero batch at slot 0.
		if bucket != 0 {
			ring.state.Cursor = 1 % l.schedule.PeriodCount
		}
	} else {
		current, live, err := ring.batchAt(ring.state.Cursor)
		if err != nil {
			return DepositResult{}, err
		}
		if live && current.StartEpoch == bucket {
			total := big.Add(current.Total, amount)
			if total.GreaterThan(MaxTokenAmount) {
				return DepositResult{}, xerrors.Errorf("merging %v into %v for %v: %w", amount, current.Total, account, ErrAmountOverflow)
			}
			current.Total = total
			current.UpdateEpoch = now
			if err := ring.batches.Set(ring.state.Cursor, &current); err != nil {
				return DepositResult{}, xerrors.Errorf("failed to merge into slot %d for %v: %w", ring.state.Cursor, account, err)
			}
			if err := l.saveRing(account, ring); err != nil {
				return DepositResult{}, err
			}
			return DepositResult{Slot: ring.state.Cursor, Merged: true, Evicted: big.Zero()}, nil
		}
		ring.state.Cursor = (ring.state.Cursor + 1) % l.schedule.PeriodCount
	}

	evicted := big.Zero()
	old, live, err := ring.batchAt(ring.state.Cursor)
	if err != nil {
		return DepositResult{}, err
	}
	if live {
		evicted = old.Remaining()
	}
	fresh := VestBatch{
		Total:       amount,
		Released:    big.Zero(),
		StartEpoch:  bucket,
		UpdateEpoch: now,
	}
	if err := ring.batches.Set(ring.state.Cursor, &fresh); err != nil {
		return DepositResult{}, xerrors.Errorf("failed to write slot %d for %v: %w", ring.state.Cursor, account, err)
	}
	if err := l.saveRing(account, ring); err != nil {
		return DepositResult{}, err
	}
	return DepositResult{Slot: ring.state.Cursor, Merged: false, Evicted: evicted}, nil
}

// TotalsAndReleasable sums the account's live batches without mutating them.
func (l *Ledger) TotalsAndReleasable(account addr.Address, now abi.ChainEpoch) (ReleaseInfo, error) {
	info := ReleaseInfo{Total: big.Zero(), CanRelease: big.Zero(), Released: big.Zero()}
	ring, err := l.loadRing(account)
	if err != nil {
		return info, err
	}
	err = l.forEachLive(ring, func(_ uint64, b *VestBatch) error {
		info.Total = big.Add(info.Total, b.Total)
		info.Released = big.Add(info.Released, b.Released)
		info.CanRelease = big.Add(info.CanRelease, b.Releasable(l.schedule.Duration, now))
		return nil
	})
	if err != nil {
		return ReleaseInfo{}, xerrors.Errorf("failed to total batches for %v: %w", account, err)
	}
	return info, nil
}

// Claim marks every releasable amount of the account's batches as released and returns the sum.
// Batches that have not started or are fully drained are skipped. Crediting the claimed
// amount to a spendable balance is the caller's responsibility; see Settle.
func (l *Ledger) Claim(account addr.Address, now abi.ChainEpoch) (abi.TokenAmount, error) {
	claimed := big.Zero()
	ring, err := l.loadRing(account)
	if err != nil {
		return claimed, err
	}
	var updates []SlotBatch
	err = l.forEachLive(ring, func(slot uint64, b *VestBatch) error {
		if now <= b.StartEpoch || b.Released.Equals(b.Total) {
			return nil
		}
		r := b.Releasable(l.schedule.Duration, now)
		if r.Sign() <= 0 {
			return nil
		}
		b.Released = big.Add(b.Released, r)
		claimed = big.Add(claimed, r)
		updates = append(updates, SlotBatch{Slot: slot, Batch: *b})
		return nil
	})
	if err != nil {
		return big.Zero(), xerrors.Errorf("failed to claim for %v: %w", account, err)
	}
	if len(updates) == 0 {
		return claimed, nil
	}
	for i := range updates {
		if err := ring.batches.Set(updates[i].Slot, &updates[i].Batch); err != nil {
			return big.Zero(), xerrors.Errorf("failed to update slot %d for %v: %w", updates[i].Slot, account, err)
		}
	}
	if err := l.saveRing(account, ring); err != nil {
		return big.Zero(), err
	}
	return claimed, nil
}

// BatchAt reads one slot of the account's ring. An empty slot reads as a zero batch with
// found false.
func (l *Ledger) BatchAt(account addr.Address, index uint64) (VestBatch, bool, error) {
	zero := VestBatch{Total: big.Zero(), Released: big.Zero()}
	if index >= l.schedule.PeriodCount {
		return zero, false, xerrors.Errorf("index %d, period count %d: %w", index, l.schedule.PeriodCount, ErrSlotIndexOutOfRange)
	}
	ring, err := l.loadRing(account)
	if err != nil {
		return zero, false, err
	}
	if ring.fresh {
		return zero, false, nil
	}
	b, found, err := ring.batchAt(index)
	if err != nil {
		return zero, false, xerrors.Errorf("failed to read batch for %v: %w", account, err)
	}
	if !found {
		return zero, false, nil
	}
	return b, true, nil
}

// Cursor returns the slot most recently written for the account, and whether the account
// has any vesting state.
func (l *Ledger) Cursor(account addr.Address) (uint64, bool, error) {
	var st AccountVestState
	found, err := l.accounts.Get(abi.AddrKey(account), &st)
	if err != nil {
		return 0, false, xerrors.Errorf("failed to load vesting state for %v: %w", account, err)
	}
	return st.Cursor, found, nil
}

// ForEachAccount calls fn with a snapshot of each account's ring.
func (l *Ledger) ForEachAccount(fn func(ab *AccountBatches) error) error {
	var st AccountVestState
	return l.accounts.ForEach(&st, func(key string) error {
		account, err := addr.NewFromBytes([]byte(key))
		if err != nil {
			return xerrors.Errorf("invalid account key %x: %w", key, err)
		}
		batches, err := adt.AsArray(l.store, st.Batches, SlotAmtBitwidth)
		if err != nil {
			return xerrors.Errorf("failed to load slots for %v: %w", account, err)
		}
		ab := &AccountBatches{Account: account, Cursor: st.Cursor}
		var b VestBatch
		err = batches.ForEach(&b, func(i int64) error {
			ab.Batches = append(ab.Batches, SlotBatch{Slot: uint64(i), Batch: b})
			return nil
		})
		if err != nil {
			return xerrors.Errorf("failed to iterate slots for %v: %w", account, err)
		}
		return fn(ab)
	})
}

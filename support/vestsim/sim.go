package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	addr "github.com/filecoin-project/go-address"
	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"golang.org/x/xerrors"

	"github.com/lockstep-finance/vest-actors/actors/builtin/token"
	"github.com/lockstep-finance/vest-actors/actors/builtin/vesting"
	"github.com/lockstep-finance/vest-actors/actors/util/adt"
	"github.com/lockstep-finance/vest-actors/support/ipld"
)

type EventKind int

const (
	EventDeposit EventKind = iota
	EventClaim
	EventReport
)

func (k EventKind) String() string {
	switch k {
	case EventDeposit:
		return "deposit"
	case EventClaim:
		return "claim"
	default:
		return "report"
	}
}

type Event struct {
	Kind   EventKind
	Epoch  abi.ChainEpoch
	Amount abi.TokenAmount
}

// ParseDeposit reads a deposit in the form "epoch:amount".
func ParseDeposit(s string) (Event, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Event{}, xerrors.Errorf("deposit %q is not epoch:amount", s)
	}
	epoch, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Event{}, xerrors.Errorf("deposit %q epoch: %w", s, err)
	}
	amount, err := big.FromString(parts[1])
	if err != nil {
		return Event{}, xerrors.Errorf("deposit %q amount: %w", s, err)
	}
	return Event{Kind: EventDeposit, Epoch: abi.ChainEpoch(epoch), Amount: amount}, nil
}

type Config struct {
	Duration    abi.ChainEpoch
	PeriodCount uint64
	FeeRateBps  uint64
	Supply      abi.TokenAmount
}

// Step is the recipient's position after one event.
type Step struct {
	Event
	Moved      abi.TokenAmount // Deposited net of fee, or claimed.
	Spendable  abi.TokenAmount
	Total      abi.TokenAmount
	CanRelease abi.TokenAmount
	Released   abi.TokenAmount
}

var (
	simOwner     = mustIDAddr(100)
	simHolder    = mustIDAddr(101)
	simCollector = mustIDAddr(102)
	simRecipient = mustIDAddr(200)
)

// Simulate replays events in epoch order against a fresh token state held in memory.
// Deposits are transfers from an excluded holder to a single vested recipient.
func Simulate(ctx context.Context, cfg Config, events []Event) ([]Step, error) {
	schedule, err := vesting.NewScheduleConfig(cfg.Duration, cfg.PeriodCount)
	if err != nil {
		return nil, err
	}
	if schedule.Duration%abi.ChainEpoch(schedule.PeriodCount) != 0 {
		return nil, xerrors.Errorf("duration %d not divisible by period count %d", schedule.Duration, schedule.PeriodCount)
	}

	store := ipld.NewADTStore(ctx)
	st, err := token.ConstructState(store, &token.ConstructorParams{
		Owner:         simOwner,
		InitialHolder: simHolder,
		InitialSupply: cfg.Supply,
		Duration:      cfg.Duration,
		PeriodCount:   cfg.PeriodCount,
		FeeRateBps:    cfg.FeeRateBps,
		FeeCollector:  simCollector,
	})
	if err != nil {
		return nil, err
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Epoch < sorted[j].Epoch })

	steps := make([]Step, 0, len(sorted))
	for _, ev := range sorted {
		step, err := apply(store, st, ev)
		if err != nil {
			return steps, xerrors.Errorf("%v at epoch %d: %w", ev.Kind, ev.Epoch, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func apply(store adt.Store, st *token.State, ev Event) (Step, error) {
	step := Step{Event: ev, Moved: big.Zero()}
	switch ev.Kind {
	case EventDeposit:
		out, err := st.Transfer(store, simHolder, simRecipient, ev.Amount, ev.Epoch)
		if err != nil {
			return step, err
		}
		step.Moved = big.Sub(ev.Amount, out.Fee)
	case EventClaim:
		claimed, err := st.ClaimRelease(store, simRecipient, ev.Epoch)
		if err != nil {
			return step, err
		}
		step.Moved = claimed
	}

	spendable, err := st.SpendableBalance(store, simRecipient)
	if err != nil {
		return step, err
	}
	info, err := st.CanReleaseInfo(store, simRecipient, ev.Epoch)
	if err != nil {
		return step, err
	}
	step.Spendable = spendable
	step.Total = info.Total
	step.CanRelease = info.CanRelease
	step.Released = info.Released
	return step, nil
}

func WriteSteps(w io.Writer, steps []Step) error {
	if _, err := fmt.Fprintf(w, "%8s %-8s %12s %12s %12s %12s %12s\n",
		"epoch", "event", "moved", "spendable", "total", "releasable", "released"); err != nil {
		return err
	}
	for _, s := range steps {
		if _, err := fmt.Fprintf(w, "%8d %-8s %12v %12v %12v %12v %12v\n",
			s.Epoch, s.Kind, s.Moved, s.Spendable, s.Total, s.CanRelease, s.Released); err != nil {
			return err
		}
	}
	return nil
}

func mustIDAddr(id uint64) addr.Address {
	a, err := addr.NewIDAddress(id)
	if err != nil {
		panic(err)
	}
	return a
}

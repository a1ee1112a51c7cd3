package vesting

import (
	abi "github.com/filecoin-project/go-state-types/abi"
	"golang.org/x/xerrors"
)

// ScheduleConfig fixes the unlock window and the number of batches each account may hold.
// It is written once at construction and read-only afterwards.
type ScheduleConfig struct {
	Duration    abi.ChainEpoch // Epochs over which a batch unlocks linearly.
	PeriodCount uint64         // Capacity of each account's batch ring.
}

// NewScheduleConfig returns a validated schedule.
func NewScheduleConfig(duration abi.ChainEpoch, periodCount uint64) (ScheduleConfig, error) {
	sc := ScheduleConfig{Duration: duration, PeriodCount: periodCount}
	if err := sc.Validate(); err != nil {
		return ScheduleConfig{}, err
	}
	return sc, nil
}

// Period is the width of the bucket within which deposits merge.
func (sc ScheduleConfig) Period() abi.ChainEpoch {
	if sc.PeriodCount == 0 {
		return 0
	}
	return sc.Duration / abi.ChainEpoch(sc.PeriodCount)
}

// BucketStart aligns an epoch down to the start of its period.
func (sc ScheduleConfig) BucketStart(now abi.ChainEpoch) abi.ChainEpoch {
	period := sc.Period()
	return (now / period) * period
}

func (sc ScheduleConfig) Validate() error {
	if sc.Duration <= 0 {
		return xerrors.Errorf("duration %d must be positive: %w", sc.Duration, ErrInvalidSchedule)
	}
	if sc.PeriodCount == 0 {
		return xerrors.Errorf("period count must be positive: %w", ErrInvalidSchedule)
	}
	if abi.ChainEpoch(sc.PeriodCount) > sc.Duration {
		return xerrors.Errorf("period count %d exceeds duration %d: %w", sc.PeriodCount, sc.Duration, ErrInvalidSchedule)
	}
	return nil
}

package vesting

import (
	"github.com/filecoin-project/go-state-types/exitcode"
)

var (
	// The schedule's duration, period count or derived period is not positive.
	ErrInvalidSchedule = exitcode.ErrIllegalArgument.Wrapf("invalid vesting schedule")
	// A raw slot read named an index outside the account's ring.
	ErrSlotIndexOutOfRange = exitcode.ErrIllegalArgument.Wrapf("slot index out of range")
	// Accumulating into a batch would exceed MaxTokenAmount.
	ErrAmountOverflow = exitcode.ErrIllegalState.Wrapf("vesting amount overflow")
	// A deposit, credit or transfer amount is below zero.
	ErrNegativeAmount = exitcode.ErrIllegalArgument.Wrapf("negative amount")
	// A deposit inside a transfer would overwrite a batch that still holds locked funds.
	ErrEvictedUnreleased = exitcode.ErrIllegalState.Wrapf("evicted batch with unreleased funds")
)

package vesting_test

import (
	"testing"

	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"

	"github.com/lockstep-finance/vest-actors/actors/builtin/vesting"
)

func TestReleasable(t *testing.T) {
	const duration = abi.ChainEpoch(700)

	t.Run("linear accrual truncates", func(t *testing.T) {
		b := vesting.VestBatch{Total: abi.NewTokenAmount(1000), Released: big.Zero(), StartEpoch: 100, UpdateEpoch: 100}
		assertAmount(t, 1, b.Releasable(duration, 101))   // floor(1000/700)
		assertAmount(t, 142, b.Releasable(duration, 200)) // floor(100000/700)
		assertAmount(t, 500, b.Releasable(duration, 450))
		assertAmount(t, 998, b.Releasable(duration, 799))
	})

	t.Run("monotonic in time", func(t *testing.T) {
		b := vesting.VestBatch{Total: abi.NewTokenAmount(12345), Released: big.Zero(), StartEpoch: 0, UpdateEpoch: 0}
		prev := big.Zero()
		for now := abi.ChainEpoch(1); now <= duration+10; now += 7 {
			r := b.Releasable(duration, now)
			assert.False(t, r.LessThan(prev), "releasable decreased at %d", now)
			prev = r
		}
	})

	t.Run("fully vested returns remainder", func(t *testing.T) {
		b := vesting.VestBatch{Total: abi.NewTokenAmount(700), Released: abi.NewTokenAmount(123), StartEpoch: 0, UpdateEpoch: 0}
		assertAmount(t, 577, b.Releasable(duration, 700))
		assertAmount(t, 577, b.Releasable(duration, 100000))
	})

	t.Run("at or before the last deposit the remainder is releasable", func(t *testing.T) {
		b := vesting.VestBatch{Total: abi.NewTokenAmount(700), Released: abi.NewTokenAmount(100), StartEpoch: 0, UpdateEpoch: 50}
		assertAmount(t, 600, b.Releasable(duration, 50))
		assertAmount(t, 600, b.Releasable(duration, 10))
		assertAmount(t, 0, b.Releasable(duration, 51)) // floor(700*51/700) - 100 clamps to zero
	})

	t.Run("clamps below released", func(t *testing.T) {
		b := vesting.VestBatch{Total: abi.NewTokenAmount(700), Released: abi.NewTokenAmount(400), StartEpoch: 0, UpdateEpoch: 0}
		assertAmount(t, 0, b.Releasable(duration, 350))
		assertAmount(t, 50, b.Releasable(duration, 450))
	})
}

func assertAmount(t *testing.T, expected int64, actual abi.TokenAmount) {
	t.Helper()
	assert.True(t, actual.Equals(abi.NewTokenAmount(expected)), "expected %d, got %v", expected, actual)
}

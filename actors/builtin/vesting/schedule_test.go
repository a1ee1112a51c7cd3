package vesting_test

import (
	"testing"

	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/lockstep-finance/vest-actors/actors/builtin/vesting"
)

func TestScheduleConfig(t *testing.T) {
	t.Run("period and bucket", func(t *testing.T) {
		sc, err := vesting.NewScheduleConfig(700, 7)
		require.NoError(t, err)
		assert.Equal(t, abi.ChainEpoch(100), sc.Period())
		assert.Equal(t, abi.ChainEpoch(0), sc.BucketStart(0))
		assert.Equal(t, abi.ChainEpoch(0), sc.BucketStart(99))
		assert.Equal(t, abi.ChainEpoch(100), sc.BucketStart(100))
		assert.Equal(t, abi.ChainEpoch(300), sc.BucketStart(350))
	})

	t.Run("period truncates", func(t *testing.T) {
		sc, err := vesting.NewScheduleConfig(705, 7)
		require.NoError(t, err)
		assert.Equal(t, abi.ChainEpoch(100), sc.Period())
	})

	t.Run("rejects non-positive parameters", func(t *testing.T) {
		for _, sc := range []vesting.ScheduleConfig{
			{Duration: 0, PeriodCount: 7},
			{Duration: -700, PeriodCount: 7},
			{Duration: 700, PeriodCount: 0},
			{Duration: 6, PeriodCount: 7},
		} {
			err := sc.Validate()
			assert.True(t, xerrors.Is(err, vesting.ErrInvalidSchedule), "schedule %+v: %v", sc, err)
		}
	})

	t.Run("period count equal to duration is valid", func(t *testing.T) {
		sc, err := vesting.NewScheduleConfig(7, 7)
		require.NoError(t, err)
		assert.Equal(t, abi.ChainEpoch(1), sc.Period())
	})
}

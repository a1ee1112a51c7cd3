package adt_test

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockstep-finance/vest-actors/actors/util/adt"
	"github.com/lockstep-finance/vest-actors/support/ipld"
	tutil "github.com/lockstep-finance/vest-actors/support/testing"
)

func TestBalanceTable(t *testing.T) {
	t.Run("Add adds or creates", func(t *testing.T) {
		addr := tutil.NewIDAddr(t, 100)
		store := ipld.NewADTStore(context.Background())
		emptyMap, err := adt.StoreEmptyMap(store, adt.BalanceTableBitwidth)
		require.NoError(t, err)

		bt, err := adt.AsBalanceTable(store, emptyMap)
		require.NoError(t, err)

		prev, err := bt.Get(addr)
		assert.NoError(t, err)
		assert.True(t, prev.IsZero())

		err = bt.Add(addr, abi.NewTokenAmount(10))
		assert.NoError(t, err)
		amount, err := bt.Get(addr)
		assert.NoError(t, err)
		assert.Equal(t, abi.NewTokenAmount(10), amount)

		err = bt.Add(addr, abi.NewTokenAmount(20))
		assert.NoError(t, err)
		amount, err = bt.Get(addr)
		assert.NoError(t, err)
		assert.Equal(t, abi.NewTokenAmount(30), amount)

		// Add negative to subtract.
		err = bt.Add(addr, abi.NewTokenAmount(-30))
		assert.NoError(t, err)
		amount, err = bt.Get(addr)
		assert.NoError(t, err)
		assert.True(t, amount.IsZero())

		// The zero entry is removed.
		keys, err := (*adt.Map)(bt).CollectKeys()
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("refuses to go negative", func(t *testing.T) {
		addr := tutil.NewIDAddr(t, 100)
		store := ipld.NewADTStore(context.Background())
		emptyMap, err := adt.StoreEmptyMap(store, adt.BalanceTableBitwidth)
		require.NoError(t, err)

		bt, err := adt.AsBalanceTable(store, emptyMap)
		require.NoError(t, err)

		require.NoError(t, bt.Add(addr, abi.NewTokenAmount(5)))
		assert.Error(t, bt.Add(addr, abi.NewTokenAmount(-6)))
		assert.Error(t, bt.MustSubtract(addr, abi.NewTokenAmount(6)))
		assert.Error(t, bt.MustSubtract(addr, abi.NewTokenAmount(-1)))

		// Failed subtractions leave the balance untouched.
		amount, err := bt.Get(addr)
		require.NoError(t, err)
		assert.True(t, amount.Equals(abi.NewTokenAmount(5)))

		require.NoError(t, bt.MustSubtract(addr, abi.NewTokenAmount(5)))
		amount, err = bt.Get(addr)
		require.NoError(t, err)
		assert.True(t, amount.IsZero())
	})

	t.Run("Total returns total amount tracked", func(t *testing.T) {
		addr1 := tutil.NewIDAddr(t, 100)
		addr2 := tutil.NewIDAddr(t, 101)
		store := ipld.NewADTStore(context.Background())
		emptyMap, err := adt.StoreEmptyMap(store, adt.BalanceTableBitwidth)
		require.NoError(t, err)

		bt, err := adt.AsBalanceTable(store, emptyMap)
		require.NoError(t, err)

		require.NoError(t, bt.Add(addr1, abi.NewTokenAmount(10)))
		require.NoError(t, bt.Add(addr2, abi.NewTokenAmount(20)))
		require.NoError(t, bt.Add(addr1, abi.NewTokenAmount(5)))

		total, err := bt.Total()
		require.NoError(t, err)
		assert.Equal(t, abi.NewTokenAmount(35), total)
	})
}

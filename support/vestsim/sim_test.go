package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeposit(t *testing.T) {
	ev, err := ParseDeposit("350:1000")
	require.NoError(t, err)
	assert.Equal(t, EventDeposit, ev.Kind)
	assert.Equal(t, abi.ChainEpoch(350), ev.Epoch)
	assert.True(t, ev.Amount.Equals(big.NewInt(1000)))

	for _, bad := range []string{"350", "x:10", "10:y"} {
		_, err := ParseDeposit(bad)
		assert.Error(t, err, bad)
	}
}

func TestSimulate(t *testing.T) {
	cfg := Config{Duration: 700, PeriodCount: 7, Supply: big.NewInt(1_000_000)}
	events := []Event{
		{Kind: EventClaim, Epoch: 700},
		{Kind: EventDeposit, Epoch: 0, Amount: big.NewInt(700)},
		{Kind: EventClaim, Epoch: 350},
		{Kind: EventReport, Epoch: 1000},
	}
	steps, err := Simulate(context.Background(), cfg, events)
	require.NoError(t, err)
	require.Len(t, steps, 4)

	assert.Equal(t, EventDeposit, steps[0].Kind)
	assert.True(t, steps[1].Moved.Equals(big.NewInt(350)))
	assert.True(t, steps[2].Moved.Equals(big.NewInt(350)))
	assert.True(t, steps[3].Spendable.Equals(big.NewInt(700)))
	assert.True(t, steps[3].CanRelease.IsZero())

	var buf bytes.Buffer
	require.NoError(t, WriteSteps(&buf, steps))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 5)
	assert.Contains(t, lines[2], "claim")
}

func TestSimulateRejectsBadSchedule(t *testing.T) {
	for _, cfg := range []Config{
		{Duration: 0, PeriodCount: 7, Supply: big.NewInt(1)},
		{Duration: 700, PeriodCount: 6, Supply: big.NewInt(1)},
	} {
		_, err := Simulate(context.Background(), cfg, nil)
		assert.Error(t, err)
	}
}

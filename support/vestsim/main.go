package main

import (
	"context"
	"os"

	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/urfave/cli/v2"

	"github.com/lockstep-finance/vest-actors/actors/builtin/token"
)

var simulateCmd = &cli.Command{
	Name:        "simulate",
	Description: "replay deposits and claims for one vested recipient",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "duration", Value: int64(token.DefaultVestDuration), Usage: "unlock window in epochs"},
		&cli.Uint64Flag{Name: "periods", Value: token.DefaultPeriodCount, Usage: "batch ring capacity"},
		&cli.Uint64Flag{Name: "fee-bps", Value: 0, Usage: "transfer fee in basis points"},
		&cli.StringFlag{Name: "supply", Value: "1000000000", Usage: "tokens minted to the distributing holder"},
		&cli.StringSliceFlag{Name: "deposit", Usage: "epoch:amount transfer to the recipient"},
		&cli.Int64SliceFlag{Name: "claim", Usage: "epoch at which the recipient claims"},
		&cli.Int64SliceFlag{Name: "report", Usage: "epoch at which to report without acting"},
	},
	Action: runSimulateCmd,
}

func main() {
	app := &cli.App{
		Name:     "vestsim",
		Usage:    "Simulate vesting schedules against an in-memory ledger",
		Commands: []*cli.Command{simulateCmd},
	}
	if err := app.Run(os.Args); err != nil {
		panic(err)
	}
}

func runSimulateCmd(cctx *cli.Context) error {
	supply, err := big.FromString(cctx.String("supply"))
	if err != nil {
		return err
	}
	cfg := Config{
		Duration:    abi.ChainEpoch(cctx.Int64("duration")),
		PeriodCount: cctx.Uint64("periods"),
		FeeRateBps:  cctx.Uint64("fee-bps"),
		Supply:      supply,
	}

	var events []Event
	for _, d := range cctx.StringSlice("deposit") {
		ev, err := ParseDeposit(d)
		if err != nil {
			return err
		}
		events = append(events, ev)
	}
	for _, e := range cctx.Int64Slice("claim") {
		events = append(events, Event{Kind: EventClaim, Epoch: abi.ChainEpoch(e)})
	}
	for _, e := range cctx.Int64Slice("report") {
		events = append(events, Event{Kind: EventReport, Epoch: abi.ChainEpoch(e)})
	}

	steps, err := Simulate(context.Background(), cfg, events)
	if werr := WriteSteps(cctx.App.Writer, steps); werr != nil {
		return werr
	}
	return err
}

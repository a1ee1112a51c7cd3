package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/urfave/cli/v2"

	"github.com/lockstep-finance/vest-actors/actors/builtin/token"
	"github.com/lockstep-finance/vest-actors/actors/builtin/vesting"
)

var intDecodeCmd = &cli.Command{
	Name:        "int",
	Description: "decode big.Int from hex bytes",
	Action:      runDecodeIntCmd,
}

var batchDecodeCmd = &cli.Command{
	Name:        "batch",
	Description: "decode a CBOR vesting batch from hex bytes",
	Action:      runDecodeBatchCmd,
}

var accountDecodeCmd = &cli.Command{
	Name:        "account",
	Description: "decode CBOR per-account vesting state from hex bytes",
	Action:      runDecodeAccountCmd,
}

var stateDecodeCmd = &cli.Command{
	Name:        "state",
	Description: "decode CBOR token actor state from hex bytes",
	Action:      runDecodeStateCmd,
}

func main() {
	app := &cli.App{
		Name:        "decode",
		Usage:       "Decode a hex encoded data structure",
		Description: "Decode a hex encoded data structure",
		Commands: []*cli.Command{
			intDecodeCmd,
			batchDecodeCmd,
			accountDecodeCmd,
			stateDecodeCmd,
		},
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	for _, c := range app.Commands {
		sort.Sort(cli.FlagsByName(c.Flags))
	}
	err := app.Run(os.Args)
	if err != nil {
		panic(err)
	}
}

func runDecodeIntCmd(ctx *cli.Context) error {
	b, err := hex.DecodeString(ctx.Args().First())
	if err != nil {
		return err
	}

	i, err := big.FromBytes(b)
	if err != nil {
		return err
	}

	fmt.Println(i)
	return nil
}

func runDecodeBatchCmd(ctx *cli.Context) error {
	var batch vesting.VestBatch
	if err := decodeHex(ctx.Args().First(), &batch); err != nil {
		return err
	}
	fmt.Printf("total=%v released=%v start=%d updated=%d\n", batch.Total, batch.Released, batch.StartEpoch, batch.UpdateEpoch)
	return nil
}

func runDecodeAccountCmd(ctx *cli.Context) error {
	var st vesting.AccountVestState
	if err := decodeHex(ctx.Args().First(), &st); err != nil {
		return err
	}
	fmt.Printf("batches=%v cursor=%d\n", st.Batches, st.Cursor)
	return nil
}

func runDecodeStateCmd(ctx *cli.Context) error {
	var st token.State
	if err := decodeHex(ctx.Args().First(), &st); err != nil {
		return err
	}
	fmt.Printf("owner=%v supply=%v duration=%d periods=%d fee=%dbps collector=%v\n",
		st.Owner, st.TotalSupply, st.Schedule.Duration, st.Schedule.PeriodCount, st.FeeRateBps, st.FeeCollector)
	fmt.Printf("balances=%v vesting=%v excluded=%v routers=%v\n", st.Balances, st.Vesting, st.ExcludedFromVest, st.SwapRouters)
	return nil
}

func decodeHex(s string, out cbor.Unmarshaler) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	return out.UnmarshalCBOR(bytes.NewReader(b))
}

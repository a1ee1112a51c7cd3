package main

import (
	gen "github.com/whyrusleeping/cbor-gen"

	"github.com/lockstep-finance/vest-actors/actors/builtin/token"
	"github.com/lockstep-finance/vest-actors/actors/builtin/vesting"
)

func main() {
	if err := gen.WriteTupleEncodersToFile("./actors/builtin/vesting/cbor_gen.go", "vesting",
		// schedule and per-account state
		vesting.ScheduleConfig{},
		vesting.VestBatch{},
		vesting.AccountVestState{},
	); err != nil {
		panic(err)
	}

	if err := gen.WriteTupleEncodersToFile("./actors/builtin/token/cbor_gen.go", "token",
		// actor state
		token.State{},
		// method params and returns
		token.ConstructorParams{},
		token.TransferParams{},
		token.CanReleaseInfo{},
		token.UserVestInfoParams{},
		token.UserVestInfoReturn{},
		token.SetFlagParams{},
		token.SetTransferFeeParams{},
	); err != nil {
		panic(err)
	}
}

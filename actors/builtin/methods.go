package builtin

import (
	"github.com/filecoin-project/go-state-types/abi"
)

const (
	MethodSend        = abi.MethodNum(0)
	MethodConstructor = abi.MethodNum(1)
)

var MethodsVestToken = struct {
	Constructor       abi.MethodNum
	Transfer          abi.MethodNum
	ClaimRelease      abi.MethodNum
	GetCanReleaseInfo abi.MethodNum
	UserVestInfo      abi.MethodNum
	SetExcludedVest   abi.MethodNum
	SetSwapRouter     abi.MethodNum
	BalanceOf         abi.MethodNum
	SetTransferFee    abi.MethodNum
	ChangeOwner       abi.MethodNum
}{MethodConstructor, 2, 3, 4, 5, 6, 7, 8, 9, 10}

package builtin

import (
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// The built-in actor code IDs
var SystemActorCodeID cid.Cid
var AccountActorCodeID cid.Cid
var MultisigActorCodeID cid.Cid
var VestTokenActorCodeID cid.Cid

// Set of actor code types that can represent external signing parties.
var CallerTypesSignable []cid.Cid

func init() {
	builder := cid.V1Builder{Codec: cid.Raw, MhType: mh.IDENTITY}
	makeBuiltin := func(s string) cid.Cid {
		c, err := builder.Sum([]byte(s))
		if err != nil {
			panic(err)
		}
		return c
	}

	SystemActorCodeID = makeBuiltin("vest/1/system")
	AccountActorCodeID = makeBuiltin("vest/1/account")
	MultisigActorCodeID = makeBuiltin("vest/1/multisig")
	VestTokenActorCodeID = makeBuiltin("vest/1/vesttoken")

	CallerTypesSignable = []cid.Cid{AccountActorCodeID, MultisigActorCodeID}
}

// IsBuiltinActor returns true if the code belongs to an actor defined in this repo.
func IsBuiltinActor(code cid.Cid) bool {
	return code.Equals(SystemActorCodeID) ||
		code.Equals(AccountActorCodeID) ||
		code.Equals(MultisigActorCodeID) ||
		code.Equals(VestTokenActorCodeID)
}

// ActorNameByCode returns the (string) name of the actor given a cid code.
func ActorNameByCode(code cid.Cid) string {
	if !code.Defined() {
		return "<undefined>"
	}
	switch {
	case code.Equals(SystemActorCodeID):
		return "vest/1/system"
	case code.Equals(AccountActorCodeID):
		return "vest/1/account"
	case code.Equals(MultisigActorCodeID):
		return "vest/1/multisig"
	case code.Equals(VestTokenActorCodeID):
		return "vest/1/vesttoken"
	default:
		return "<unknown>"
	}
}

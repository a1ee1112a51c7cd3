package exported

import (
	cid "github.com/ipfs/go-cid"

	"github.com/lockstep-finance/vest-actors/actors/builtin/token"
	"github.com/lockstep-finance/vest-actors/actors/runtime"
)

func BuiltinActors() []runtime.VMActor {
	return []runtime.VMActor{
		token.Actor{},
	}
}

// ActorByCode returns the exported actor with the given code, if any.
func ActorByCode(code cid.Cid) (runtime.VMActor, bool) {
	for _, act := range BuiltinActors() {
		if act.Code().Equals(code) {
			return act, true
		}
	}
	return nil, false
}

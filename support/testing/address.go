package testing

import (
	"testing"

	addr "github.com/filecoin-project/go-address"
	"github.com/stretchr/testify/require"
)

func NewIDAddr(t testing.TB, id uint64) addr.Address {
	address, err := addr.NewIDAddress(id)
	require.NoError(t, err)
	return address
}

// NewSECP256K1Addr derives a key-based address, which the token rejects as an account.
func NewSECP256K1Addr(t testing.TB, pubkey string) addr.Address {
	address, err := addr.NewSecp256k1Address([]byte(pubkey))
	require.NoError(t, err)
	return address
}

// Package contracts implements the contracts hosted on the ledger: the
// fungible XToken, the CryptoPunksMarket NFT registry and the XVault that
// swaps one for the other.
package contracts

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// Contract kinds as reported by Kind and stored by persistence backends.
const (
	KindToken  = "XToken"
	KindMarket = "CryptoPunksMarket"
	KindVault  = "XVault"
)

// Factories returns the factories needed to import a ledger holding these
// contracts.
func Factories() map[string]chain.Factory {
	return map[string]chain.Factory{
		KindToken:  func() chain.Contract { return &XToken{} },
		KindMarket: func() chain.Contract { return &CryptoPunksMarket{} },
		KindVault:  func() chain.Contract { return &XVault{} },
	}
}

type contractAt interface {
	Contract(addr common.Address) (chain.Contract, error)
}

// at looks up the contract at addr and checks its kind.
func at[T chain.Contract](src contractAt, addr common.Address) (T, error) {
	var zero T
	ct, err := src.Contract(addr)
	if err != nil {
		return zero, err
	}
	typed, ok := ct.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is a %s", types.ErrWrongContract, addr.Hex(), ct.Kind())
	}
	return typed, nil
}

func onlyOwner(env *chain.Env, owner common.Address) error {
	if env.Sender() != owner {
		return types.ErrNotOwner
	}
	return nil
}

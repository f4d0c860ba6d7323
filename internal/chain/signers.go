package chain

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// DefaultSignerLabels names the first derived signers. Further signers are
// labelled "signer<N>".
var DefaultSignerLabels = []string{"owner", "alice", "bob", "carol"}

// Signer is a deterministic externally owned account.
type Signer struct {
	Index   int
	Label   string
	Address common.Address
	key     *ecdsa.PrivateKey
}

// PrivateKeyHex returns the hex-encoded private key.
func (s Signer) PrivateKeyHex() string {
	if s.key == nil {
		return ""
	}
	return hex.EncodeToString(crypto.FromECDSA(s.key))
}

// DeriveSigner derives signer i. The private key is
// keccak256("xvault/signer/<i>"), so every ledger sees the same addresses.
func DeriveSigner(i int) (Signer, error) {
	seed := crypto.Keccak256([]byte(fmt.Sprintf("xvault/signer/%d", i)))
	key, err := crypto.ToECDSA(seed)
	if err != nil {
		return Signer{}, fmt.Errorf("derive signer %d: %w", i, err)
	}
	label := fmt.Sprintf("signer%d", i)
	if i < len(DefaultSignerLabels) {
		label = DefaultSignerLabels[i]
	}
	return Signer{
		Index:   i,
		Label:   label,
		Address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
	}, nil
}

// DeriveSigners derives signers 0..n-1.
func DeriveSigners(n int) ([]Signer, error) {
	signers := make([]Signer, 0, n)
	for i := 0; i < n; i++ {
		s, err := DeriveSigner(i)
		if err != nil {
			return nil, err
		}
		signers = append(signers, s)
	}
	return signers, nil
}

// Genesis funds each signer with balance and records its label.
func (c *Chain) Genesis(signers []Signer, balance *uint256.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range signers {
		acct := c.account(s.Address)
		acct.balance = new(uint256.Int).Add(acct.balance, balance)
		acct.label = s.Label
	}
}

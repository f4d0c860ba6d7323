package contracts

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

func newToken(t *testing.T) (*chain.Chain, *XTokenBinding, []chain.Signer) {
	t.Helper()
	c := chain.New(chain.Options{Factories: Factories()})
	signers, err := chain.DeriveSigners(3)
	require.NoError(t, err)
	c.Genesis(signers, types.Ether(1))
	tok, rcpt, err := DeployXToken(ctx, c, from(signers[0].Address), "XToken", "XTO")
	require.NoError(t, err)
	assert.Equal(t, "deployXToken", rcpt.Method)
	return c, tok, signers
}

func TestXToken_Metadata(t *testing.T) {
	_, tok, signers := newToken(t)
	assert.Equal(t, "XToken", tok.Name())
	assert.Equal(t, "XTO", tok.Symbol())
	assert.Equal(t, uint8(18), tok.Decimals())
	assert.Equal(t, signers[0].Address, tok.Owner())
	assert.True(t, tok.TotalSupply().IsZero(), "constructor mints nothing")
}

func TestXToken_MintTransfer(t *testing.T) {
	_, tok, signers := newToken(t)
	owner, alice, bob := signers[0].Address, signers[1].Address, signers[2].Address

	_, err := tok.Mint(ctx, from(alice), alice, types.Units(1))
	assert.ErrorIs(t, err, types.ErrNotOwner)

	_, err = tok.Mint(ctx, from(owner), alice, types.Units(5))
	require.NoError(t, err)
	assert.Equal(t, types.Units(5), tok.TotalSupply())

	rcpt, err := tok.Transfer(ctx, from(alice), bob, types.Units(2))
	require.NoError(t, err)
	ev, ok := rcpt.Event("Transfer")
	require.True(t, ok)
	assert.Equal(t, bob.Hex(), ev.Fields["to"])

	assert.Equal(t, types.Units(3), tok.BalanceOf(alice))
	assert.Equal(t, types.Units(2), tok.BalanceOf(bob))

	_, err = tok.Transfer(ctx, from(bob), alice, types.Units(3))
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
	_, err = tok.Transfer(ctx, from(bob), common.Address{}, types.Units(1))
	assert.ErrorIs(t, err, types.ErrZeroAddress)
}

func TestXToken_Allowance(t *testing.T) {
	_, tok, signers := newToken(t)
	owner, alice, bob := signers[0].Address, signers[1].Address, signers[2].Address
	_, err := tok.Mint(ctx, from(owner), alice, types.Units(4))
	require.NoError(t, err)

	_, err = tok.Approve(ctx, from(alice), bob, types.Units(2))
	require.NoError(t, err)
	assert.Equal(t, types.Units(2), tok.Allowance(alice, bob))

	_, err = tok.TransferFrom(ctx, from(bob), alice, bob, types.Units(3))
	assert.ErrorIs(t, err, types.ErrInsufficientAllowance)

	_, err = tok.TransferFrom(ctx, from(bob), alice, bob, types.Units(2))
	require.NoError(t, err)
	assert.True(t, tok.Allowance(alice, bob).IsZero())
	assert.Equal(t, types.Units(2), tok.BalanceOf(bob))
}

func TestXToken_Burn(t *testing.T) {
	_, tok, signers := newToken(t)
	owner, alice := signers[0].Address, signers[1].Address
	_, err := tok.Mint(ctx, from(owner), alice, types.Units(3))
	require.NoError(t, err)

	_, err = tok.Burn(ctx, from(alice), types.Units(1))
	require.NoError(t, err)
	assert.Equal(t, types.Units(2), tok.TotalSupply())

	// burnFrom consumes the allowance granted to the owner.
	_, err = tok.BurnFrom(ctx, from(owner), alice, types.Units(1))
	assert.ErrorIs(t, err, types.ErrInsufficientAllowance)
	_, err = tok.Approve(ctx, from(alice), owner, types.Units(1))
	require.NoError(t, err)
	_, err = tok.BurnFrom(ctx, from(alice), alice, types.Units(1))
	assert.ErrorIs(t, err, types.ErrNotOwner)
	_, err = tok.BurnFrom(ctx, from(owner), alice, types.Units(1))
	require.NoError(t, err)
	assert.Equal(t, types.Units(1), tok.BalanceOf(alice))
	assert.Equal(t, types.Units(1), tok.TotalSupply())
}

func TestXToken_Overflow(t *testing.T) {
	_, tok, signers := newToken(t)
	owner := signers[0].Address
	max := new(uint256.Int).SetAllOne()
	_, err := tok.Mint(ctx, from(owner), owner, max)
	require.NoError(t, err)
	_, err = tok.Mint(ctx, from(owner), signers[1].Address, uint256.NewInt(1))
	assert.ErrorIs(t, err, types.ErrOverflow)
	assert.Equal(t, max, tok.TotalSupply())
}

func TestXToken_Ownership(t *testing.T) {
	_, tok, signers := newToken(t)
	owner, alice := signers[0].Address, signers[1].Address

	_, err := tok.ChangeName(ctx, from(alice), "Nope")
	assert.ErrorIs(t, err, types.ErrNotOwner)
	_, err = tok.ChangeName(ctx, from(owner), "Renamed")
	require.NoError(t, err)
	_, err = tok.ChangeSymbol(ctx, from(owner), "RNM")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", tok.Name())
	assert.Equal(t, "RNM", tok.Symbol())

	_, err = tok.TransferOwnership(ctx, from(owner), common.Address{})
	assert.ErrorIs(t, err, types.ErrZeroAddress)
	_, err = tok.TransferOwnership(ctx, from(owner), alice)
	require.NoError(t, err)
	assert.Equal(t, alice, tok.Owner())
}

func TestXToken_StateRoundTrip(t *testing.T) {
	_, tok, signers := newToken(t)
	owner, alice := signers[0].Address, signers[1].Address
	_, err := tok.Mint(ctx, from(owner), alice, types.Units(2))
	require.NoError(t, err)
	_, err = tok.Approve(ctx, from(alice), owner, types.Units(1))
	require.NoError(t, err)

	data, err := tok.c.MarshalState()
	require.NoError(t, err)
	var back XToken
	require.NoError(t, back.UnmarshalState(data))
	assert.Equal(t, types.Units(2), back.BalanceOf(alice))
	assert.Equal(t, types.Units(1), back.Allowance(alice, owner))
	assert.Equal(t, "XToken", back.Name())
}

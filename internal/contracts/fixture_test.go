package contracts

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

var ctx = context.Background()

type fixture struct {
	chain  *chain.Chain
	clock  *chain.ManualClock
	owner  common.Address
	alice  common.Address
	bob    common.Address
	carol  common.Address
	market *MarketBinding
	token  *XTokenBinding
	vault  *VaultBinding
}

func from(addr common.Address) chain.TxOpts { return chain.TxOpts{From: addr} }

func pay(addr common.Address, wei uint64) chain.TxOpts {
	return chain.TxOpts{From: addr, Value: uint256.NewInt(wei)}
}

// newFixture deploys market, token and vault the way the local profile
// does: the vault owns the token and starts in safe mode.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := chain.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := chain.New(chain.Options{Clock: clock, Factories: Factories()})
	signers, err := chain.DeriveSigners(4)
	require.NoError(t, err)
	c.Genesis(signers, types.Ether(100))

	f := &fixture{
		chain: c,
		clock: clock,
		owner: signers[0].Address,
		alice: signers[1].Address,
		bob:   signers[2].Address,
		carol: signers[3].Address,
	}
	f.market, _, err = DeployMarket(ctx, c, from(f.owner))
	require.NoError(t, err)
	f.token, _, err = DeployXToken(ctx, c, from(f.owner), "XToken", "XTO")
	require.NoError(t, err)
	f.vault, _, err = DeployXVault(ctx, c, from(f.owner), "", f.token.Address(), f.market.Address())
	require.NoError(t, err)
	_, err = f.token.TransferOwnership(ctx, from(f.owner), f.vault.Address())
	require.NoError(t, err)
	return f
}

// give assigns punk id to who and offers it to the vault for free.
func (f *fixture) give(t *testing.T, who common.Address, ids ...uint64) {
	t.Helper()
	for _, id := range ids {
		_, err := f.market.SetInitialOwner(ctx, from(who), who, id)
		require.NoError(t, err)
		f.offer(t, who, id)
	}
}

func (f *fixture) offer(t *testing.T, who common.Address, ids ...uint64) {
	t.Helper()
	for _, id := range ids {
		_, err := f.market.OfferPunkForSaleToAddress(ctx, from(who), id, new(uint256.Int), f.vault.Address())
		require.NoError(t, err)
	}
}

// deposit gives who the punks and mints them one by one.
func (f *fixture) deposit(t *testing.T, who common.Address, ids ...uint64) {
	t.Helper()
	f.give(t, who, ids...)
	for _, id := range ids {
		_, err := f.vault.MintPunk(ctx, from(who), id)
		require.NoError(t, err)
	}
}

func (f *fixture) approve(t *testing.T, who common.Address, units uint64) {
	t.Helper()
	_, err := f.token.Approve(ctx, from(who), f.vault.Address(), types.Units(units))
	require.NoError(t, err)
}

func (f *fixture) unlock(t *testing.T, slot types.Slot) {
	t.Helper()
	_, err := f.vault.InitiateUnlock(ctx, from(f.vault.Owner()), slot)
	require.NoError(t, err)
	f.clock.Advance(3 * time.Second)
}

func (f *fixture) safeModeOff(t *testing.T) {
	t.Helper()
	_, err := f.vault.TurnOffSafeMode(ctx, from(f.owner))
	require.NoError(t, err)
}

// requireBacked checks every unit of supply is backed by a reserve punk
// held in the market.
func (f *fixture) requireBacked(t *testing.T) {
	t.Helper()
	supply := f.token.TotalSupply()
	reserves := uint64(len(f.vault.Reserves()))
	require.Equal(t, types.Units(reserves), supply)
	require.Equal(t, reserves, f.market.BalanceOf(f.vault.Address()))
	require.True(t, f.token.BalanceOf(f.vault.Address()).IsZero())
}

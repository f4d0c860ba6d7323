package contracts

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/xvault/pkg/types"
)

func TestMarket_SetInitialOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.market.SetInitialOwner(ctx, from(f.alice), f.alice, 3)
	require.NoError(t, err)
	assert.Equal(t, f.alice, f.market.PunkIndexToAddress(3))
	assert.Equal(t, uint64(1), f.market.BalanceOf(f.alice))

	// Re-assigning to the same owner is a no-op.
	_, err = f.market.SetInitialOwner(ctx, from(f.alice), f.alice, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), f.market.BalanceOf(f.alice))

	_, err = f.market.SetInitialOwner(ctx, from(f.bob), f.bob, 3)
	assert.ErrorIs(t, err, types.ErrPunkAssigned)
	_, err = f.market.SetInitialOwner(ctx, from(f.bob), f.bob, PunkSupply)
	assert.ErrorIs(t, err, types.ErrInvalidPunk)

	_, err = f.market.AllInitialOwnersAssigned(ctx, from(f.alice))
	assert.ErrorIs(t, err, types.ErrNotOwner)
	_, err = f.market.AllInitialOwnersAssigned(ctx, from(f.owner))
	require.NoError(t, err)
	assert.True(t, f.market.AssignmentClosed())

	_, err = f.market.SetInitialOwner(ctx, from(f.bob), f.bob, 4)
	assert.ErrorIs(t, err, types.ErrAssignmentClosed)
}

func TestMarket_TransferClearsOffer(t *testing.T) {
	f := newFixture(t)
	f.give(t, f.alice, 1)
	require.True(t, f.market.PunksOfferedForSale(1).IsForSale)

	_, err := f.market.TransferPunk(ctx, from(f.bob), f.bob, 1)
	assert.ErrorIs(t, err, types.ErrNotPunkOwner)

	_, err = f.market.TransferPunk(ctx, from(f.alice), f.bob, 1)
	require.NoError(t, err)
	assert.Equal(t, f.bob, f.market.PunkIndexToAddress(1))
	assert.False(t, f.market.PunksOfferedForSale(1).IsForSale)
	assert.Equal(t, uint64(0), f.market.BalanceOf(f.alice))
	assert.Equal(t, []uint64{1}, f.market.PunksOf(f.bob))
}

func TestMarket_BuyPunk(t *testing.T) {
	f := newFixture(t)
	_, err := f.market.SetInitialOwner(ctx, from(f.alice), f.alice, 9)
	require.NoError(t, err)

	_, err = f.market.BuyPunk(ctx, pay(f.bob, 10), 9)
	assert.ErrorIs(t, err, types.ErrNotForSale)

	_, err = f.market.OfferPunkForSaleToAddress(ctx, from(f.alice), 9, uint256.NewInt(10), f.carol)
	require.NoError(t, err)
	_, err = f.market.BuyPunk(ctx, pay(f.bob, 10), 9)
	assert.ErrorIs(t, err, types.ErrRestrictedBuyer)

	_, err = f.market.OfferPunkForSale(ctx, from(f.alice), 9, uint256.NewInt(10))
	require.NoError(t, err)
	_, err = f.market.BuyPunk(ctx, pay(f.bob, 9), 9)
	assert.ErrorIs(t, err, types.ErrPriceTooLow)

	bobBefore := f.chain.Balance(f.bob)
	_, err = f.market.BuyPunk(ctx, pay(f.bob, 10), 9)
	require.NoError(t, err)
	assert.Equal(t, f.bob, f.market.PunkIndexToAddress(9))
	assert.Equal(t, uint64(10), f.market.PendingWithdrawals(f.alice).Uint64())
	assert.Equal(t, new(uint256.Int).Sub(bobBefore, uint256.NewInt(10)), f.chain.Balance(f.bob))

	aliceBefore := f.chain.Balance(f.alice)
	_, err = f.market.Withdraw(ctx, from(f.alice))
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Add(aliceBefore, uint256.NewInt(10)), f.chain.Balance(f.alice))
	assert.True(t, f.chain.Balance(f.market.Address()).IsZero())

	_, err = f.market.Withdraw(ctx, from(f.alice))
	assert.ErrorIs(t, err, types.ErrNothingToWithdraw)
}

func TestMarket_NoLongerForSale(t *testing.T) {
	f := newFixture(t)
	f.give(t, f.alice, 2)
	_, err := f.market.PunkNoLongerForSale(ctx, from(f.bob), 2)
	assert.ErrorIs(t, err, types.ErrNotPunkOwner)
	rcpt, err := f.market.PunkNoLongerForSale(ctx, from(f.alice), 2)
	require.NoError(t, err)
	_, ok := rcpt.Event("PunkNoLongerForSale")
	assert.True(t, ok)
	assert.False(t, f.market.PunksOfferedForSale(2).IsForSale)
}

func TestInstallMarket(t *testing.T) {
	f := newFixture(t)
	addr := types.MainnetPunksAddress
	m, err := InstallMarket(f.chain, addr, f.owner)
	require.NoError(t, err)
	assert.Equal(t, addr, m.Address())

	_, err = InstallMarket(f.chain, addr, f.owner)
	assert.ErrorIs(t, err, types.ErrAddressInUse)

	_, err = BindVault(f.chain, addr)
	assert.ErrorIs(t, err, types.ErrWrongContract)
}

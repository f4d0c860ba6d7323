package contracts

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/xvault/pkg/types"
)

var chainZero common.Address

func fees(base, step, threshold uint64) []*uint256.Int {
	return []*uint256.Int{uint256.NewInt(base), uint256.NewInt(step), uint256.NewInt(threshold)}
}

func TestXVault_Timelock(t *testing.T) {
	f := newFixture(t)

	_, err := f.vault.InitiateUnlock(ctx, from(f.alice), types.SlotMedium)
	assert.ErrorIs(t, err, types.ErrNotOwner)
	_, err = f.vault.InitiateUnlock(ctx, from(f.owner), types.Slot(7))
	assert.ErrorIs(t, err, types.ErrInvalidSlot)

	_, err = f.vault.ChangeTokenName(ctx, from(f.owner), "Name")
	assert.ErrorIs(t, err, types.ErrLocked)

	_, err = f.vault.InitiateUnlock(ctx, from(f.owner), types.SlotMedium)
	require.NoError(t, err)
	want := f.chain.Head().Time.Add(2 * time.Second)
	assert.True(t, want.Equal(f.vault.UnlockAt(types.SlotMedium)))

	// Not yet elapsed.
	_, err = f.vault.ChangeTokenName(ctx, from(f.owner), "Name")
	assert.ErrorIs(t, err, types.ErrLocked)
	assert.False(t, f.vault.IsUnlocked(types.SlotMedium))

	f.clock.Advance(2 * time.Second)
	assert.True(t, f.vault.IsUnlocked(types.SlotMedium))
	_, err = f.vault.ChangeTokenName(ctx, from(f.alice), "Name")
	assert.ErrorIs(t, err, types.ErrNotOwner)
	_, err = f.vault.ChangeTokenName(ctx, from(f.owner), "Name")
	require.NoError(t, err)
	_, err = f.vault.ChangeTokenSymbol(ctx, from(f.owner), "NAME")
	require.NoError(t, err)
	assert.Equal(t, "Name", f.token.Name())
	assert.Equal(t, "NAME", f.token.Symbol())

	// Medium does not open the long slot.
	_, err = f.vault.Migrate(ctx, from(f.owner), f.owner)
	assert.ErrorIs(t, err, types.ErrLocked)

	_, err = f.vault.Lock(ctx, from(f.owner), types.SlotMedium)
	require.NoError(t, err)
	assert.True(t, f.vault.UnlockAt(types.SlotMedium).IsZero())
	_, err = f.vault.ChangeTokenName(ctx, from(f.owner), "Again")
	assert.ErrorIs(t, err, types.ErrLocked)
}

func TestXVault_SecurityLevel(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < types.MaxSecurityLevel; i++ {
		_, err := f.vault.IncreaseSecurityLevel(ctx, from(f.owner))
		require.NoError(t, err)
	}
	_, err := f.vault.IncreaseSecurityLevel(ctx, from(f.owner))
	assert.ErrorIs(t, err, types.ErrMaxSecurityLevel)
	assert.Equal(t, types.MaxSecurityLevel, f.vault.SecurityLevel())

	_, err = f.vault.InitiateUnlock(ctx, from(f.owner), types.SlotShort)
	require.NoError(t, err)
	want := f.chain.Head().Time.Add(3 * 24 * time.Hour)
	assert.True(t, want.Equal(f.vault.UnlockAt(types.SlotShort)))

	f.clock.Advance(3 * time.Second)
	assert.False(t, f.vault.IsUnlocked(types.SlotShort))
}

func TestXVault_MintFees(t *testing.T) {
	f := newFixture(t)
	f.safeModeOff(t)

	_, err := f.vault.SetMintFees(ctx, from(f.owner), fees(2, 2, 2))
	assert.ErrorIs(t, err, types.ErrLocked)
	f.unlock(t, types.SlotMedium)

	_, err = f.vault.SetMintFees(ctx, from(f.owner), fees(2, 2, 2)[:2])
	assert.ErrorIs(t, err, types.ErrInvalidFees)
	_, err = f.vault.SetBurnFees(ctx, from(f.owner), fees(2, 2, 2))
	assert.ErrorIs(t, err, types.ErrLocked, "burn fees sit behind the long slot")

	_, err = f.vault.SetMintFees(ctx, from(f.owner), fees(2, 2, 2))
	require.NoError(t, err)
	f.give(t, f.alice, 0, 2, 3, 4)

	_, err = f.vault.MintPunk(ctx, pay(f.alice, 1), 0)
	assert.ErrorIs(t, err, types.ErrFeeTooLow)
	_, err = f.vault.MintPunk(ctx, pay(f.alice, 2), 0)
	require.NoError(t, err)

	_, err = f.vault.MintPunkMultiple(ctx, pay(f.alice, 7), []uint64{2, 3, 4})
	assert.ErrorIs(t, err, types.ErrFeeTooLow)
	_, err = f.vault.MintPunkMultiple(ctx, pay(f.alice, 8), []uint64{2, 3, 4})
	require.NoError(t, err)

	assert.Equal(t, uint64(10), f.vault.FeesCollected().Uint64())
	assert.Equal(t, uint64(10), f.chain.Balance(f.vault.Address()).Uint64())
	f.requireBacked(t)
}

func TestXVault_DualFees(t *testing.T) {
	f := newFixture(t)
	f.safeModeOff(t)
	f.deposit(t, f.bob, 10, 11, 12)
	f.unlock(t, types.SlotMedium)
	_, err := f.vault.SetDualFees(ctx, from(f.owner), fees(2, 2, 2))
	require.NoError(t, err)
	f.give(t, f.alice, 1, 2, 3, 4)

	_, err = f.vault.MintAndRedeem(ctx, pay(f.alice, 1), 1)
	assert.ErrorIs(t, err, types.ErrFeeTooLow)
	_, err = f.vault.MintAndRedeem(ctx, pay(f.alice, 2), 1)
	require.NoError(t, err)
	_, err = f.vault.MintAndRedeemMultiple(ctx, pay(f.alice, 7), []uint64{2, 3, 4})
	assert.ErrorIs(t, err, types.ErrFeeTooLow)
	_, err = f.vault.MintAndRedeemMultiple(ctx, pay(f.alice, 8), []uint64{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), f.vault.FeesCollected().Uint64())
	f.requireBacked(t)
}

func TestXVault_Integrator(t *testing.T) {
	f := newFixture(t)
	f.unlock(t, types.SlotMedium)
	_, err := f.vault.SetMintFees(ctx, from(f.owner), fees(2, 2, 2))
	require.NoError(t, err)
	f.give(t, f.alice, 0)

	_, err = f.vault.SetIntegrator(ctx, from(f.alice), f.alice, true)
	assert.ErrorIs(t, err, types.ErrNotOwner)
	_, err = f.vault.MintPunk(ctx, from(f.alice), 0)
	assert.ErrorIs(t, err, types.ErrFeeTooLow)

	_, err = f.vault.SetIntegrator(ctx, from(f.owner), f.alice, true)
	require.NoError(t, err)
	assert.True(t, f.vault.IsIntegrator(f.alice))
	_, err = f.vault.MintPunk(ctx, from(f.alice), 0)
	require.NoError(t, err)

	_, err = f.vault.SetIntegrator(ctx, from(f.owner), f.alice, false)
	require.NoError(t, err)
	assert.False(t, f.vault.IsIntegrator(f.alice))
}

func TestXVault_DirectRedeem(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, f.alice, 0, 1, 2)
	f.approve(t, f.alice, 1)

	_, err := f.vault.DirectRedeem(ctx, from(f.alice), 1, f.alice)
	assert.ErrorIs(t, err, types.ErrNotController)

	_, err = f.vault.SetController(ctx, from(f.owner), f.alice, true)
	assert.ErrorIs(t, err, types.ErrLocked)
	f.unlock(t, types.SlotMedium)
	_, err = f.vault.SetController(ctx, from(f.bob), f.alice, true)
	assert.ErrorIs(t, err, types.ErrNotOwner)
	_, err = f.vault.SetController(ctx, from(f.owner), f.alice, true)
	require.NoError(t, err)

	_, err = f.vault.DirectRedeem(ctx, from(f.alice), 99, f.alice)
	assert.ErrorIs(t, err, types.ErrNotHeld)
	_, err = f.vault.DirectRedeem(ctx, from(f.alice), 1, f.bob)
	require.NoError(t, err)
	assert.Equal(t, f.bob, f.market.PunkIndexToAddress(1))
	assert.ElementsMatch(t, []uint64{0, 2}, f.vault.Reserves())
	assert.Equal(t, types.Units(2), f.token.BalanceOf(f.alice))
	f.requireBacked(t)
}

func TestXVault_Retroactive(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, f.bob, 10)
	_, err := f.market.SetInitialOwner(ctx, from(f.alice), f.alice, 5)
	require.NoError(t, err)

	_, err = f.vault.MintRetroactively(ctx, from(f.owner), 5, f.alice)
	assert.ErrorIs(t, err, types.ErrLocked)

	_, err = f.market.TransferPunk(ctx, from(f.alice), f.vault.Address(), 5)
	require.NoError(t, err)
	f.unlock(t, types.SlotShort)

	_, err = f.vault.MintPunk(ctx, from(f.alice), 5)
	assert.ErrorIs(t, err, types.ErrNotPunkOwner)
	_, err = f.vault.MintRetroactively(ctx, from(f.owner), 10, f.alice)
	assert.ErrorIs(t, err, types.ErrAlreadyHeld)
	_, err = f.vault.MintRetroactively(ctx, from(f.owner), 6, f.alice)
	assert.ErrorIs(t, err, types.ErrNotVaultOwned)

	_, err = f.vault.MintRetroactively(ctx, from(f.owner), 5, f.alice)
	require.NoError(t, err)
	assert.Equal(t, types.Units(1), f.token.BalanceOf(f.alice))
	f.requireBacked(t)

	half := new(uint256.Int).Div(types.Unit(), uint256.NewInt(2))
	_, err = f.token.Transfer(ctx, from(f.alice), f.vault.Address(), half)
	require.NoError(t, err)
	_, err = f.vault.RedeemRetroactively(ctx, from(f.owner), f.alice)
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)

	_, err = f.token.Transfer(ctx, from(f.alice), f.vault.Address(), half)
	require.NoError(t, err)
	_, err = f.vault.RedeemRetroactively(ctx, from(f.owner), f.alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), f.market.BalanceOf(f.alice))
	f.requireBacked(t)
}

func TestXVault_MigrateAndWithdrawFees(t *testing.T) {
	f := newFixture(t)
	f.unlock(t, types.SlotMedium)
	_, err := f.vault.SetMintFees(ctx, from(f.owner), fees(3, 0, 0))
	require.NoError(t, err)
	f.give(t, f.alice, 0, 1)
	for _, id := range []uint64{0, 1} {
		_, err = f.vault.MintPunk(ctx, pay(f.alice, 3), id)
		require.NoError(t, err)
	}

	_, err = f.vault.Migrate(ctx, from(f.owner), f.bob)
	assert.ErrorIs(t, err, types.ErrLocked)
	_, err = f.vault.WithdrawFees(ctx, from(f.owner), f.carol)
	assert.ErrorIs(t, err, types.ErrLocked)

	f.unlock(t, types.SlotLong)
	_, err = f.vault.Migrate(ctx, from(f.owner), chainZero)
	assert.ErrorIs(t, err, types.ErrZeroAddress)
	_, err = f.vault.Migrate(ctx, from(f.owner), f.bob)
	require.NoError(t, err)
	assert.Empty(t, f.vault.Reserves())
	assert.Equal(t, []uint64{0, 1}, f.market.PunksOf(f.bob))

	carolBefore := f.chain.Balance(f.carol)
	_, err = f.vault.WithdrawFees(ctx, from(f.owner), f.carol)
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Add(carolBefore, uint256.NewInt(6)), f.chain.Balance(f.carol))
	assert.True(t, f.vault.FeesCollected().IsZero())

	_, err = f.vault.WithdrawFees(ctx, from(f.owner), f.carol)
	assert.ErrorIs(t, err, types.ErrNothingToWithdraw)
}

func TestXVault_BurnFees(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, f.alice, 0, 1)
	f.unlock(t, types.SlotLong)
	_, err := f.vault.SetBurnFees(ctx, from(f.owner), fees(2, 2, 2))
	require.NoError(t, err)
	f.approve(t, f.alice, 1)

	_, err = f.vault.RedeemPunk(ctx, pay(f.alice, 1))
	assert.ErrorIs(t, err, types.ErrFeeTooLow)
	_, err = f.vault.RedeemPunk(ctx, pay(f.alice, 2))
	require.NoError(t, err)
	f.requireBacked(t)
}

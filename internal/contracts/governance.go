package contracts

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// Owner returns the vault owner.
func (v *XVault) Owner() common.Address { return v.st.Owner }

// IsPaused reports whether the vault is paused.
func (v *XVault) IsPaused() bool { return v.st.Paused }

// IsSafeMode reports whether safe mode is on.
func (v *XVault) IsSafeMode() bool { return v.st.SafeMode }

// SecurityLevel returns the timelock security level.
func (v *XVault) SecurityLevel() int { return v.st.SecurityLevel }

// UnlockAt returns when slot unlocks, or the zero time if it is locked.
func (v *XVault) UnlockAt(slot types.Slot) time.Time {
	if !slot.Valid() || v.st.UnlockAt[slot] == 0 {
		return time.Time{}
	}
	return time.Unix(v.st.UnlockAt[slot], 0).UTC()
}

// IsUnlocked reports whether slot is unlocked at now.
func (v *XVault) IsUnlocked(slot types.Slot, now time.Time) bool {
	if !slot.Valid() {
		return false
	}
	at := v.st.UnlockAt[slot]
	return at != 0 && now.Unix() >= at
}

// MintFees returns the mint fee schedule.
func (v *XVault) MintFees() types.FeeSchedule { return cloneFees(v.st.MintFees) }

// BurnFees returns the burn fee schedule.
func (v *XVault) BurnFees() types.FeeSchedule { return cloneFees(v.st.BurnFees) }

// DualFees returns the swap fee schedule.
func (v *XVault) DualFees() types.FeeSchedule { return cloneFees(v.st.DualFees) }

// IsIntegrator reports whether addr is fee exempt.
func (v *XVault) IsIntegrator(addr common.Address) bool { return v.st.Integrators[addr] }

// IsController reports whether addr may use directRedeem.
func (v *XVault) IsController(addr common.Address) bool { return v.st.Controllers[addr] }

func cloneFees(f types.FeeSchedule) types.FeeSchedule {
	return types.FeeSchedule{
		Base:          types.OrZero(f.Base).Clone(),
		Step:          types.OrZero(f.Step).Clone(),
		BulkThreshold: f.BulkThreshold,
	}
}

func (v *XVault) onlyOwner(env *chain.Env) error {
	return onlyOwner(env, v.st.Owner)
}

// onlyUnlocked requires the owner and an unlocked slot.
func (v *XVault) onlyUnlocked(env *chain.Env, slot types.Slot) error {
	if err := v.onlyOwner(env); err != nil {
		return err
	}
	if !v.IsUnlocked(slot, env.Now()) {
		return types.ErrLocked
	}
	return nil
}

func (v *XVault) transferOwnership(env *chain.Env, newOwner common.Address) error {
	if err := v.onlyOwner(env); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return types.ErrZeroAddress
	}
	env.Emit("OwnershipTransferred", "previous", v.st.Owner, "next", newOwner)
	v.st.Owner = newOwner
	return nil
}

func (v *XVault) pause(env *chain.Env) error {
	if err := v.onlyOwner(env); err != nil {
		return err
	}
	if v.st.Paused {
		return types.ErrPaused
	}
	v.st.Paused = true
	env.Emit("Paused", "by", env.Sender())
	return nil
}

func (v *XVault) unpause(env *chain.Env) error {
	if err := v.onlyOwner(env); err != nil {
		return err
	}
	if !v.st.Paused {
		return types.ErrNotPaused
	}
	v.st.Paused = false
	env.Emit("Unpaused", "by", env.Sender())
	return nil
}

func (v *XVault) setSafeMode(env *chain.Env, on bool) error {
	if err := v.onlyOwner(env); err != nil {
		return err
	}
	v.st.SafeMode = on
	env.Emit("SafeModeChanged", "on", on)
	return nil
}

func (v *XVault) increaseSecurityLevel(env *chain.Env) error {
	if err := v.onlyOwner(env); err != nil {
		return err
	}
	if v.st.SecurityLevel >= types.MaxSecurityLevel {
		return types.ErrMaxSecurityLevel
	}
	v.st.SecurityLevel++
	env.Emit("SecurityLevelIncreased", "level", v.st.SecurityLevel)
	return nil
}

func (v *XVault) initiateUnlock(env *chain.Env, slot types.Slot) error {
	if err := v.onlyOwner(env); err != nil {
		return err
	}
	d, err := types.TimelockDuration(v.st.SecurityLevel, slot)
	if err != nil {
		return err
	}
	at := env.Now().Add(d)
	v.st.UnlockAt[slot] = at.Unix()
	env.Emit("UnlockInitiated", "slot", slot, "unlock_at", at.Format(time.RFC3339))
	return nil
}

func (v *XVault) lock(env *chain.Env, slot types.Slot) error {
	if err := v.onlyOwner(env); err != nil {
		return err
	}
	if !slot.Valid() {
		return types.ErrInvalidSlot
	}
	v.st.UnlockAt[slot] = 0
	env.Emit("Locked", "slot", slot)
	return nil
}

func (v *XVault) changeTokenName(env *chain.Env, name string) error {
	if err := v.onlyUnlocked(env, types.SlotMedium); err != nil {
		return err
	}
	tok, inner, err := v.token(env)
	if err != nil {
		return err
	}
	return tok.changeName(inner, name)
}

func (v *XVault) changeTokenSymbol(env *chain.Env, symbol string) error {
	if err := v.onlyUnlocked(env, types.SlotMedium); err != nil {
		return err
	}
	tok, inner, err := v.token(env)
	if err != nil {
		return err
	}
	return tok.changeSymbol(inner, symbol)
}

// Fee schedule names used in FeesChanged events and by the CLI.
const (
	FeesMint = "mint"
	FeesBurn = "burn"
	FeesDual = "dual"
)

func (v *XVault) setFees(env *chain.Env, kind string, values []*uint256.Int) error {
	slot := types.SlotMedium
	if kind == FeesBurn {
		slot = types.SlotLong
	}
	if err := v.onlyUnlocked(env, slot); err != nil {
		return err
	}
	sched, err := types.NewFeeSchedule(values)
	if err != nil {
		return err
	}
	switch kind {
	case FeesMint:
		v.st.MintFees = sched
	case FeesBurn:
		v.st.BurnFees = sched
	case FeesDual:
		v.st.DualFees = sched
	default:
		return types.ErrInvalidFees
	}
	env.Emit("FeesChanged", "kind", kind, "values", sched.Values())
	return nil
}

func (v *XVault) setIntegrator(env *chain.Env, addr common.Address, on bool) error {
	if err := v.onlyUnlocked(env, types.SlotMedium); err != nil {
		return err
	}
	if on {
		v.st.Integrators[addr] = true
	} else {
		delete(v.st.Integrators, addr)
	}
	env.Emit("IntegratorSet", "account", addr, "on", on)
	return nil
}

func (v *XVault) setController(env *chain.Env, addr common.Address, on bool) error {
	if err := v.onlyUnlocked(env, types.SlotMedium); err != nil {
		return err
	}
	if on {
		v.st.Controllers[addr] = true
	} else {
		delete(v.st.Controllers, addr)
	}
	env.Emit("ControllerSet", "account", addr, "on", on)
	return nil
}

// withdrawFees sends the vault's whole native balance to to.
func (v *XVault) withdrawFees(env *chain.Env, to common.Address) error {
	if err := v.onlyUnlocked(env, types.SlotLong); err != nil {
		return err
	}
	amount := env.NativeBalance(env.Self())
	if amount.IsZero() {
		return types.ErrNothingToWithdraw
	}
	if err := env.Transfer(to, amount); err != nil {
		return err
	}
	v.st.FeesCollected = new(uint256.Int)
	env.Emit("FeesWithdrawn", "to", to, "value", amount)
	return nil
}

package contracts

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// VaultBinding calls an XVault on a ledger.
type VaultBinding struct {
	binding[*XVault]
}

// BindVault binds the vault at addr.
func BindVault(c *chain.Chain, addr common.Address) (*VaultBinding, error) {
	b, err := bind[*XVault](c, addr)
	if err != nil {
		return nil, err
	}
	return &VaultBinding{b}, nil
}

// DeployXVault deploys a vault over an existing token and market, owned by
// the sender. name is recorded in the receipt method, so PunkVault
// deployments stay distinguishable.
func DeployXVault(ctx context.Context, c *chain.Chain, opts chain.TxOpts, name string, token, market common.Address) (*VaultBinding, *chain.Receipt, error) {
	if name == "" {
		name = KindVault
	}
	addr, rcpt, err := c.Deploy(ctx, opts, name, []any{token, market}, func(env *chain.Env) (chain.Contract, error) {
		if _, err := at[*XToken](env, token); err != nil {
			return nil, err
		}
		if _, err := at[*CryptoPunksMarket](env, market); err != nil {
			return nil, err
		}
		return NewXVault(token, market, env.Sender()), nil
	})
	if err != nil {
		return nil, rcpt, err
	}
	b, err := BindVault(c, addr)
	return b, rcpt, err
}

// VaultStatus is a snapshot of the vault's views.
type VaultStatus struct {
	Address       common.Address         `json:"address"`
	Owner         common.Address         `json:"owner"`
	Token         common.Address         `json:"token"`
	Market        common.Address         `json:"market"`
	Paused        bool                   `json:"paused"`
	SafeMode      bool                   `json:"safe_mode"`
	SecurityLevel int                    `json:"security_level"`
	UnlockAt      [types.NumSlots]string `json:"unlock_at"`
	Unlocked      [types.NumSlots]bool   `json:"unlocked"`
	MintFees      types.FeeSchedule      `json:"mint_fees"`
	BurnFees      types.FeeSchedule      `json:"burn_fees"`
	DualFees      types.FeeSchedule      `json:"dual_fees"`
	Reserves      []uint64               `json:"reserves"`
	FeesCollected *uint256.Int           `json:"fees_collected"`
}

// Status collects every vault view at the current ledger time.
func (b *VaultBinding) Status() VaultStatus {
	now := b.chain.Now()
	return view(b.binding, func(v *XVault) VaultStatus {
		st := VaultStatus{
			Address:       b.addr,
			Owner:         v.Owner(),
			Token:         v.Token(),
			Market:        v.Market(),
			Paused:        v.IsPaused(),
			SafeMode:      v.IsSafeMode(),
			SecurityLevel: v.SecurityLevel(),
			MintFees:      v.MintFees(),
			BurnFees:      v.BurnFees(),
			DualFees:      v.DualFees(),
			Reserves:      v.Reserves(),
			FeesCollected: v.FeesCollected(),
		}
		for s := types.Slot(0); s < types.NumSlots; s++ {
			if at := v.UnlockAt(s); !at.IsZero() {
				st.UnlockAt[s] = at.Format(time.RFC3339)
			}
			st.Unlocked[s] = v.IsUnlocked(s, now)
		}
		return st
	})
}

func (b *VaultBinding) Owner() common.Address { return view(b.binding, (*XVault).Owner) }

func (b *VaultBinding) Token() common.Address { return view(b.binding, (*XVault).Token) }

func (b *VaultBinding) Market() common.Address { return view(b.binding, (*XVault).Market) }

func (b *VaultBinding) Reserves() []uint64 { return view(b.binding, (*XVault).Reserves) }

func (b *VaultBinding) IsPaused() bool { return view(b.binding, (*XVault).IsPaused) }

func (b *VaultBinding) IsSafeMode() bool { return view(b.binding, (*XVault).IsSafeMode) }

func (b *VaultBinding) SecurityLevel() int { return view(b.binding, (*XVault).SecurityLevel) }

func (b *VaultBinding) MintFees() types.FeeSchedule { return view(b.binding, (*XVault).MintFees) }

func (b *VaultBinding) BurnFees() types.FeeSchedule { return view(b.binding, (*XVault).BurnFees) }

func (b *VaultBinding) DualFees() types.FeeSchedule { return view(b.binding, (*XVault).DualFees) }

func (b *VaultBinding) FeesCollected() *uint256.Int { return view(b.binding, (*XVault).FeesCollected) }

func (b *VaultBinding) UnlockAt(slot types.Slot) time.Time {
	return view(b.binding, func(v *XVault) time.Time { return v.UnlockAt(slot) })
}

// IsUnlocked reports whether slot is unlocked at the current ledger time.
func (b *VaultBinding) IsUnlocked(slot types.Slot) bool {
	now := b.chain.Now()
	return view(b.binding, func(v *XVault) bool { return v.IsUnlocked(slot, now) })
}

func (b *VaultBinding) IsIntegrator(addr common.Address) bool {
	return view(b.binding, func(v *XVault) bool { return v.IsIntegrator(addr) })
}

func (b *VaultBinding) IsController(addr common.Address) bool {
	return view(b.binding, func(v *XVault) bool { return v.IsController(addr) })
}

func (b *VaultBinding) call(ctx context.Context, opts chain.TxOpts, method string, args []any, fn func(v *XVault, env *chain.Env) error) (*chain.Receipt, error) {
	return b.transact(ctx, opts, method, args, func(env *chain.Env) error {
		return fn(b.c, env)
	})
}

func (b *VaultBinding) MintPunk(ctx context.Context, opts chain.TxOpts, id uint64) (*chain.Receipt, error) {
	return b.call(ctx, opts, "mintPunk", []any{id}, func(v *XVault, env *chain.Env) error {
		return v.mintPunk(env, id)
	})
}

func (b *VaultBinding) MintPunkMultiple(ctx context.Context, opts chain.TxOpts, ids []uint64) (*chain.Receipt, error) {
	return b.call(ctx, opts, "mintPunkMultiple", []any{ids}, func(v *XVault, env *chain.Env) error {
		return v.mintPunkMultiple(env, ids)
	})
}

func (b *VaultBinding) RedeemPunk(ctx context.Context, opts chain.TxOpts) (*chain.Receipt, error) {
	return b.call(ctx, opts, "redeemPunk", nil, func(v *XVault, env *chain.Env) error {
		return v.redeemPunk(env)
	})
}

func (b *VaultBinding) RedeemPunkMultiple(ctx context.Context, opts chain.TxOpts, n uint64) (*chain.Receipt, error) {
	return b.call(ctx, opts, "redeemPunkMultiple", []any{n}, func(v *XVault, env *chain.Env) error {
		return v.redeemPunkMultiple(env, n)
	})
}

func (b *VaultBinding) MintAndRedeem(ctx context.Context, opts chain.TxOpts, id uint64) (*chain.Receipt, error) {
	return b.call(ctx, opts, "mintAndRedeem", []any{id}, func(v *XVault, env *chain.Env) error {
		return v.mintAndRedeem(env, id)
	})
}

func (b *VaultBinding) MintAndRedeemMultiple(ctx context.Context, opts chain.TxOpts, ids []uint64) (*chain.Receipt, error) {
	return b.call(ctx, opts, "mintAndRedeemMultiple", []any{ids}, func(v *XVault, env *chain.Env) error {
		return v.mintAndRedeemMultiple(env, ids)
	})
}

func (b *VaultBinding) DirectRedeem(ctx context.Context, opts chain.TxOpts, id uint64, to common.Address) (*chain.Receipt, error) {
	return b.call(ctx, opts, "directRedeem", []any{id, to}, func(v *XVault, env *chain.Env) error {
		return v.directRedeem(env, id, to)
	})
}

func (b *VaultBinding) SimpleRedeem(ctx context.Context, opts chain.TxOpts) (*chain.Receipt, error) {
	return b.call(ctx, opts, "simpleRedeem", nil, func(v *XVault, env *chain.Env) error {
		return v.simpleRedeem(env)
	})
}

func (b *VaultBinding) MintRetroactively(ctx context.Context, opts chain.TxOpts, id uint64, to common.Address) (*chain.Receipt, error) {
	return b.call(ctx, opts, "mintRetroactively", []any{id, to}, func(v *XVault, env *chain.Env) error {
		return v.mintRetroactively(env, id, to)
	})
}

func (b *VaultBinding) RedeemRetroactively(ctx context.Context, opts chain.TxOpts, to common.Address) (*chain.Receipt, error) {
	return b.call(ctx, opts, "redeemRetroactively", []any{to}, func(v *XVault, env *chain.Env) error {
		return v.redeemRetroactively(env, to)
	})
}

func (b *VaultBinding) Migrate(ctx context.Context, opts chain.TxOpts, to common.Address) (*chain.Receipt, error) {
	return b.call(ctx, opts, "migrate", []any{to}, func(v *XVault, env *chain.Env) error {
		return v.migrate(env, to)
	})
}

func (b *VaultBinding) TransferOwnership(ctx context.Context, opts chain.TxOpts, newOwner common.Address) (*chain.Receipt, error) {
	return b.call(ctx, opts, "transferOwnership", []any{newOwner}, func(v *XVault, env *chain.Env) error {
		return v.transferOwnership(env, newOwner)
	})
}

func (b *VaultBinding) Pause(ctx context.Context, opts chain.TxOpts) (*chain.Receipt, error) {
	return b.call(ctx, opts, "pause", nil, func(v *XVault, env *chain.Env) error {
		return v.pause(env)
	})
}

func (b *VaultBinding) Unpause(ctx context.Context, opts chain.TxOpts) (*chain.Receipt, error) {
	return b.call(ctx, opts, "unpause", nil, func(v *XVault, env *chain.Env) error {
		return v.unpause(env)
	})
}

func (b *VaultBinding) TurnOnSafeMode(ctx context.Context, opts chain.TxOpts) (*chain.Receipt, error) {
	return b.call(ctx, opts, "turnOnSafeMode", nil, func(v *XVault, env *chain.Env) error {
		return v.setSafeMode(env, true)
	})
}

func (b *VaultBinding) TurnOffSafeMode(ctx context.Context, opts chain.TxOpts) (*chain.Receipt, error) {
	return b.call(ctx, opts, "turnOffSafeMode", nil, func(v *XVault, env *chain.Env) error {
		return v.setSafeMode(env, false)
	})
}

func (b *VaultBinding) IncreaseSecurityLevel(ctx context.Context, opts chain.TxOpts) (*chain.Receipt, error) {
	return b.call(ctx, opts, "increaseSecurityLevel", nil, func(v *XVault, env *chain.Env) error {
		return v.increaseSecurityLevel(env)
	})
}

func (b *VaultBinding) InitiateUnlock(ctx context.Context, opts chain.TxOpts, slot types.Slot) (*chain.Receipt, error) {
	return b.call(ctx, opts, "initiateUnlock", []any{slot}, func(v *XVault, env *chain.Env) error {
		return v.initiateUnlock(env, slot)
	})
}

func (b *VaultBinding) Lock(ctx context.Context, opts chain.TxOpts, slot types.Slot) (*chain.Receipt, error) {
	return b.call(ctx, opts, "lock", []any{slot}, func(v *XVault, env *chain.Env) error {
		return v.lock(env, slot)
	})
}

func (b *VaultBinding) ChangeTokenName(ctx context.Context, opts chain.TxOpts, name string) (*chain.Receipt, error) {
	return b.call(ctx, opts, "changeTokenName", []any{name}, func(v *XVault, env *chain.Env) error {
		return v.changeTokenName(env, name)
	})
}

func (b *VaultBinding) ChangeTokenSymbol(ctx context.Context, opts chain.TxOpts, symbol string) (*chain.Receipt, error) {
	return b.call(ctx, opts, "changeTokenSymbol", []any{symbol}, func(v *XVault, env *chain.Env) error {
		return v.changeTokenSymbol(env, symbol)
	})
}

func (b *VaultBinding) SetMintFees(ctx context.Context, opts chain.TxOpts, values []*uint256.Int) (*chain.Receipt, error) {
	return b.setFees(ctx, opts, "setMintFees", FeesMint, values)
}

func (b *VaultBinding) SetBurnFees(ctx context.Context, opts chain.TxOpts, values []*uint256.Int) (*chain.Receipt, error) {
	return b.setFees(ctx, opts, "setBurnFees", FeesBurn, values)
}

func (b *VaultBinding) SetDualFees(ctx context.Context, opts chain.TxOpts, values []*uint256.Int) (*chain.Receipt, error) {
	return b.setFees(ctx, opts, "setDualFees", FeesDual, values)
}

func (b *VaultBinding) setFees(ctx context.Context, opts chain.TxOpts, method, kind string, values []*uint256.Int) (*chain.Receipt, error) {
	return b.call(ctx, opts, method, []any{values}, func(v *XVault, env *chain.Env) error {
		return v.setFees(env, kind, values)
	})
}

func (b *VaultBinding) SetIntegrator(ctx context.Context, opts chain.TxOpts, addr common.Address, on bool) (*chain.Receipt, error) {
	return b.call(ctx, opts, "setIntegrator", []any{addr, on}, func(v *XVault, env *chain.Env) error {
		return v.setIntegrator(env, addr, on)
	})
}

func (b *VaultBinding) SetController(ctx context.Context, opts chain.TxOpts, addr common.Address, on bool) (*chain.Receipt, error) {
	return b.call(ctx, opts, "setController", []any{addr, on}, func(v *XVault, env *chain.Env) error {
		return v.setController(env, addr, on)
	})
}

func (b *VaultBinding) WithdrawFees(ctx context.Context, opts chain.TxOpts, to common.Address) (*chain.Receipt, error) {
	return b.call(ctx, opts, "withdrawFees", []any{to}, func(v *XVault, env *chain.Env) error {
		return v.withdrawFees(env, to)
	})
}

// Fees returns the schedule named kind: FeesMint, FeesBurn or FeesDual.
func (b *VaultBinding) Fees(kind string) (types.FeeSchedule, error) {
	switch kind {
	case FeesMint:
		return b.MintFees(), nil
	case FeesBurn:
		return b.BurnFees(), nil
	case FeesDual:
		return b.DualFees(), nil
	}
	return types.FeeSchedule{}, types.ErrInvalidFees
}

// SetFees sets the schedule named kind.
func (b *VaultBinding) SetFees(ctx context.Context, opts chain.TxOpts, kind string, values []*uint256.Int) (*chain.Receipt, error) {
	switch kind {
	case FeesMint:
		return b.SetMintFees(ctx, opts, values)
	case FeesBurn:
		return b.SetBurnFees(ctx, opts, values)
	case FeesDual:
		return b.SetDualFees(ctx, opts, values)
	}
	return nil, types.ErrInvalidFees
}

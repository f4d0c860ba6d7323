package contracts

import (
	"encoding/binary"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// XVault holds punks in the market and backs each one with one unit of its
// token. PunkVault is the same contract deployed under its legacy name.
type XVault struct {
	st vaultState
}

type vaultState struct {
	Token         common.Address          `json:"token"`
	Market        common.Address          `json:"market"`
	Owner         common.Address          `json:"owner"`
	Paused        bool                    `json:"paused"`
	SafeMode      bool                    `json:"safe_mode"`
	SecurityLevel int                     `json:"security_level"`
	UnlockAt      [types.NumSlots]int64   `json:"unlock_at"`
	MintFees      types.FeeSchedule       `json:"mint_fees"`
	BurnFees      types.FeeSchedule       `json:"burn_fees"`
	DualFees      types.FeeSchedule       `json:"dual_fees"`
	Integrators   map[common.Address]bool `json:"integrators"`
	Controllers   map[common.Address]bool `json:"controllers"`
	Reserves      *holdings               `json:"reserves"`
	Nonce         uint64                  `json:"nonce"`
	FeesCollected *uint256.Int            `json:"fees_collected"`
}

// NewXVault creates a vault for token and market owned by owner, in safe
// mode with every timelock slot locked and no fees.
func NewXVault(token, market, owner common.Address) *XVault {
	v := &XVault{st: vaultState{
		Token:    token,
		Market:   market,
		Owner:    owner,
		SafeMode: true,
		MintFees: types.ZeroFees(),
		BurnFees: types.ZeroFees(),
		DualFees: types.ZeroFees(),
	}}
	v.init()
	return v
}

func (v *XVault) init() {
	if v.st.Integrators == nil {
		v.st.Integrators = make(map[common.Address]bool)
	}
	if v.st.Controllers == nil {
		v.st.Controllers = make(map[common.Address]bool)
	}
	if v.st.Reserves == nil {
		v.st.Reserves = newHoldings()
	}
	if v.st.FeesCollected == nil {
		v.st.FeesCollected = new(uint256.Int)
	}
	for _, f := range []*types.FeeSchedule{&v.st.MintFees, &v.st.BurnFees, &v.st.DualFees} {
		f.Base = types.OrZero(f.Base)
		f.Step = types.OrZero(f.Step)
	}
}

func (v *XVault) Kind() string { return KindVault }

func (v *XVault) MarshalState() ([]byte, error) { return json.Marshal(v.st) }

func (v *XVault) UnmarshalState(data []byte) error {
	var st vaultState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	v.st = st
	v.init()
	return nil
}

// Token returns the address of the vault token.
func (v *XVault) Token() common.Address { return v.st.Token }

// Market returns the address of the punk market.
func (v *XVault) Market() common.Address { return v.st.Market }

// Reserves lists the punks the vault accounts for.
func (v *XVault) Reserves() []uint64 { return v.st.Reserves.list() }

// FeesCollected returns the value received through fee-charging calls
// since the last withdrawal.
func (v *XVault) FeesCollected() *uint256.Int { return v.st.FeesCollected.Clone() }

func (v *XVault) token(env *chain.Env) (*XToken, *chain.Env, error) {
	tok, err := at[*XToken](env, v.st.Token)
	if err != nil {
		return nil, nil, err
	}
	inner, err := env.Call(v.st.Token, nil)
	if err != nil {
		return nil, nil, err
	}
	return tok, inner, nil
}

func (v *XVault) market(env *chain.Env) (*CryptoPunksMarket, error) {
	return at[*CryptoPunksMarket](env, v.st.Market)
}

func (v *XVault) whenNotPaused() error {
	if v.st.Paused {
		return types.ErrPaused
	}
	return nil
}

func (v *XVault) whenNotSafeMode() error {
	if v.st.SafeMode {
		return types.ErrSafeMode
	}
	return nil
}

// chargeFee checks the attached value covers fee(n) of sched and books it.
// Integrators pay nothing but any value they attach is still kept.
func (v *XVault) chargeFee(env *chain.Env, sched types.FeeSchedule, n uint64) error {
	value := env.Value()
	if !v.st.Integrators[env.Sender()] {
		fee, err := sched.Fee(n)
		if err != nil {
			return err
		}
		if value.Lt(fee) {
			return types.ErrFeeTooLow
		}
	}
	sum, overflow := new(uint256.Int).AddOverflow(v.st.FeesCollected, value)
	if overflow {
		return types.ErrOverflow
	}
	v.st.FeesCollected = sum
	return nil
}

// pick removes and returns a pseudo-random reserve punk. The index is
// keccak256(parent block hash, nonce) modulo the reserve size.
func (v *XVault) pick(env *chain.Env) (uint64, error) {
	n := v.st.Reserves.len()
	if n == 0 {
		return 0, types.ErrEmptyReserves
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v.st.Nonce)
	v.st.Nonce++
	h := crypto.Keccak256Hash(env.ParentHash().Bytes(), buf[:])
	idx := new(uint256.Int).Mod(new(uint256.Int).SetBytes(h.Bytes()), uint256.NewInt(uint64(n)))
	return v.st.Reserves.removeAt(int(idx.Uint64())), nil
}

// receivePunk buys punk id from the sender, who must own it and have
// offered it to the vault for free, and adds it to the reserves.
func (v *XVault) receivePunk(env *chain.Env, id uint64) error {
	mkt, err := v.market(env)
	if err != nil {
		return err
	}
	if err := checkPunk(id); err != nil {
		return err
	}
	if mkt.PunkIndexToAddress(id) != env.Sender() {
		return types.ErrNotPunkOwner
	}
	o := mkt.PunksOfferedForSale(id)
	if !o.IsForSale || o.OnlySellTo != env.Self() || !o.MinValue.IsZero() {
		return types.ErrNotOffered
	}
	inner, err := env.Call(v.st.Market, nil)
	if err != nil {
		return err
	}
	if err := mkt.buyPunk(inner, id); err != nil {
		return err
	}
	return v.st.Reserves.add(id)
}

func (v *XVault) sendPunk(env *chain.Env, to common.Address, id uint64) error {
	mkt, err := v.market(env)
	if err != nil {
		return err
	}
	inner, err := env.Call(v.st.Market, nil)
	if err != nil {
		return err
	}
	return mkt.transferPunk(inner, to, id)
}

func (v *XVault) mintUnits(env *chain.Env, to common.Address, n uint64) error {
	tok, inner, err := v.token(env)
	if err != nil {
		return err
	}
	return tok.mint(inner, to, types.Units(n))
}

func (v *XVault) burnUnits(env *chain.Env, from common.Address, n uint64) error {
	tok, inner, err := v.token(env)
	if err != nil {
		return err
	}
	return tok.burnFrom(inner, from, types.Units(n))
}

func checkDistinct(ids []uint64) error {
	if len(ids) == 0 {
		return types.ErrInvalidCount
	}
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return types.ErrDuplicatePunk
		}
		seen[id] = true
	}
	return nil
}

func (v *XVault) deposit(env *chain.Env, ids []uint64) error {
	for _, id := range ids {
		if err := v.receivePunk(env, id); err != nil {
			return err
		}
	}
	return nil
}

// withdrawRandom sends n random reserve punks to to.
func (v *XVault) withdrawRandom(env *chain.Env, to common.Address, n uint64) ([]uint64, error) {
	if n == 0 {
		return nil, types.ErrInvalidCount
	}
	if n > uint64(v.st.Reserves.len()) {
		return nil, types.ErrEmptyReserves
	}
	out := make([]uint64, 0, n)
	for i := uint64(0); i < n; i++ {
		id, err := v.pick(env)
		if err != nil {
			return nil, err
		}
		if err := v.sendPunk(env, to, id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (v *XVault) mintPunk(env *chain.Env, id uint64) error {
	if err := v.whenNotPaused(); err != nil {
		return err
	}
	if err := v.chargeFee(env, v.st.MintFees, 1); err != nil {
		return err
	}
	if err := v.receivePunk(env, id); err != nil {
		return err
	}
	if err := v.mintUnits(env, env.Sender(), 1); err != nil {
		return err
	}
	env.Emit("PunkMinted", "punk", id, "to", env.Sender())
	return nil
}

func (v *XVault) mintPunkMultiple(env *chain.Env, ids []uint64) error {
	if err := v.whenNotPaused(); err != nil {
		return err
	}
	if err := v.whenNotSafeMode(); err != nil {
		return err
	}
	if err := checkDistinct(ids); err != nil {
		return err
	}
	if err := v.chargeFee(env, v.st.MintFees, uint64(len(ids))); err != nil {
		return err
	}
	if err := v.deposit(env, ids); err != nil {
		return err
	}
	if err := v.mintUnits(env, env.Sender(), uint64(len(ids))); err != nil {
		return err
	}
	env.Emit("PunksMinted", "punks", ids, "to", env.Sender())
	return nil
}

func (v *XVault) redeem(env *chain.Env, n uint64) ([]uint64, error) {
	if n == 0 {
		return nil, types.ErrInvalidCount
	}
	if n > uint64(v.st.Reserves.len()) {
		return nil, types.ErrEmptyReserves
	}
	if err := v.burnUnits(env, env.Sender(), n); err != nil {
		return nil, err
	}
	return v.withdrawRandom(env, env.Sender(), n)
}

func (v *XVault) redeemPunk(env *chain.Env) error {
	if err := v.whenNotPaused(); err != nil {
		return err
	}
	if err := v.chargeFee(env, v.st.BurnFees, 1); err != nil {
		return err
	}
	ids, err := v.redeem(env, 1)
	if err != nil {
		return err
	}
	env.Emit("PunkRedeemed", "punk", ids[0], "to", env.Sender())
	return nil
}

func (v *XVault) redeemPunkMultiple(env *chain.Env, n uint64) error {
	if err := v.whenNotPaused(); err != nil {
		return err
	}
	if err := v.whenNotSafeMode(); err != nil {
		return err
	}
	if err := v.chargeFee(env, v.st.BurnFees, n); err != nil {
		return err
	}
	ids, err := v.redeem(env, n)
	if err != nil {
		return err
	}
	env.Emit("PunksRedeemed", "punks", ids, "to", env.Sender())
	return nil
}

func (v *XVault) mintAndRedeem(env *chain.Env, id uint64) error {
	return v.swap(env, []uint64{id})
}

func (v *XVault) mintAndRedeemMultiple(env *chain.Env, ids []uint64) error {
	return v.swap(env, ids)
}

// swap deposits ids and sends back as many random reserve punks. The
// deposited punks are eligible, so supply never changes.
func (v *XVault) swap(env *chain.Env, ids []uint64) error {
	if err := v.whenNotPaused(); err != nil {
		return err
	}
	if err := v.whenNotSafeMode(); err != nil {
		return err
	}
	if err := checkDistinct(ids); err != nil {
		return err
	}
	if err := v.chargeFee(env, v.st.DualFees, uint64(len(ids))); err != nil {
		return err
	}
	if err := v.deposit(env, ids); err != nil {
		return err
	}
	out, err := v.withdrawRandom(env, env.Sender(), uint64(len(ids)))
	if err != nil {
		return err
	}
	env.Emit("PunksSwapped", "in", ids, "out", out, "to", env.Sender())
	return nil
}

// directRedeem lets a controller choose which reserve punk to redeem.
func (v *XVault) directRedeem(env *chain.Env, id uint64, to common.Address) error {
	if err := v.whenNotPaused(); err != nil {
		return err
	}
	if !v.st.Controllers[env.Sender()] {
		return types.ErrNotController
	}
	if to == (common.Address{}) {
		return types.ErrZeroAddress
	}
	if !v.st.Reserves.contains(id) {
		return types.ErrNotHeld
	}
	if err := v.burnUnits(env, env.Sender(), 1); err != nil {
		return err
	}
	if err := v.st.Reserves.remove(id); err != nil {
		return err
	}
	if err := v.sendPunk(env, to, id); err != nil {
		return err
	}
	env.Emit("DirectRedeemed", "punk", id, "to", to)
	return nil
}

// simpleRedeem is the degraded redeem path available only while paused. It
// returns the first reserve punk and charges no fee.
func (v *XVault) simpleRedeem(env *chain.Env) error {
	if !v.st.Paused {
		return types.ErrNotPaused
	}
	if v.st.Reserves.len() == 0 {
		return types.ErrEmptyReserves
	}
	if err := v.burnUnits(env, env.Sender(), 1); err != nil {
		return err
	}
	id := v.st.Reserves.removeAt(0)
	if err := v.sendPunk(env, env.Sender(), id); err != nil {
		return err
	}
	env.Emit("SimpleRedeemed", "punk", id, "to", env.Sender())
	return nil
}

// mintRetroactively accounts for a punk that reached the vault outside
// mintPunk and mints its unit to to.
func (v *XVault) mintRetroactively(env *chain.Env, id uint64, to common.Address) error {
	if err := v.onlyUnlocked(env, types.SlotShort); err != nil {
		return err
	}
	if err := checkPunk(id); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return types.ErrZeroAddress
	}
	mkt, err := v.market(env)
	if err != nil {
		return err
	}
	if mkt.PunkIndexToAddress(id) != env.Self() {
		return types.ErrNotVaultOwned
	}
	if err := v.st.Reserves.add(id); err != nil {
		return err
	}
	if err := v.mintUnits(env, to, 1); err != nil {
		return err
	}
	env.Emit("MintedRetroactively", "punk", id, "to", to)
	return nil
}

// redeemRetroactively burns a unit sent directly to the vault and sends a
// random reserve punk to to.
func (v *XVault) redeemRetroactively(env *chain.Env, to common.Address) error {
	if err := v.onlyUnlocked(env, types.SlotShort); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return types.ErrZeroAddress
	}
	tok, inner, err := v.token(env)
	if err != nil {
		return err
	}
	if tok.BalanceOf(env.Self()).Lt(types.Unit()) {
		return types.ErrInsufficientBalance
	}
	if v.st.Reserves.len() == 0 {
		return types.ErrEmptyReserves
	}
	if err := tok.burn(inner, types.Unit()); err != nil {
		return err
	}
	ids, err := v.withdrawRandom(env, to, 1)
	if err != nil {
		return err
	}
	env.Emit("RedeemedRetroactively", "punk", ids[0], "to", to)
	return nil
}

// migrate hands every reserve punk to to and empties the reserves.
func (v *XVault) migrate(env *chain.Env, to common.Address) error {
	if err := v.onlyUnlocked(env, types.SlotLong); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return types.ErrZeroAddress
	}
	ids := v.st.Reserves.list()
	for _, id := range ids {
		if err := v.sendPunk(env, to, id); err != nil {
			return err
		}
	}
	v.st.Reserves.clear()
	env.Emit("Migrated", "punks", ids, "to", to)
	return nil
}

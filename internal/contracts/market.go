package contracts

import (
	"encoding/json"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// PunkSupply is the number of punks in the registry.
const PunkSupply = 10000

// Offer is a standing sale offer for one punk. A zero OnlySellTo means
// anyone may buy.
type Offer struct {
	IsForSale  bool           `json:"is_for_sale"`
	PunkIndex  uint64         `json:"punk_index"`
	Seller     common.Address `json:"seller"`
	MinValue   *uint256.Int   `json:"min_value"`
	OnlySellTo common.Address `json:"only_sell_to"`
}

// CryptoPunksMarket is the NFT registry the vault holds punks in. It keeps
// the parts of the market the vault depends on: initial assignment,
// transfers, sale offers and purchases.
type CryptoPunksMarket struct {
	st marketState
}

type marketState struct {
	Deployer           common.Address                  `json:"deployer"`
	AllAssigned        bool                            `json:"all_assigned"`
	Owners             map[uint64]common.Address       `json:"owners"`
	Balances           map[common.Address]uint64       `json:"balances"`
	Offers             map[uint64]Offer                `json:"offers"`
	PendingWithdrawals map[common.Address]*uint256.Int `json:"pending_withdrawals"`
}

// NewCryptoPunksMarket creates an empty registry. Only deployer may close
// initial assignment.
func NewCryptoPunksMarket(deployer common.Address) *CryptoPunksMarket {
	m := &CryptoPunksMarket{st: marketState{Deployer: deployer}}
	m.init()
	return m
}

func (m *CryptoPunksMarket) init() {
	if m.st.Owners == nil {
		m.st.Owners = make(map[uint64]common.Address)
	}
	if m.st.Balances == nil {
		m.st.Balances = make(map[common.Address]uint64)
	}
	if m.st.Offers == nil {
		m.st.Offers = make(map[uint64]Offer)
	}
	if m.st.PendingWithdrawals == nil {
		m.st.PendingWithdrawals = make(map[common.Address]*uint256.Int)
	}
}

func (m *CryptoPunksMarket) Kind() string { return KindMarket }

func (m *CryptoPunksMarket) MarshalState() ([]byte, error) { return json.Marshal(m.st) }

func (m *CryptoPunksMarket) UnmarshalState(data []byte) error {
	var st marketState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	m.st = st
	m.init()
	return nil
}

// Deployer returns the account that may close initial assignment.
func (m *CryptoPunksMarket) Deployer() common.Address { return m.st.Deployer }

// AllInitialOwnersAssigned reports whether initial assignment is closed.
func (m *CryptoPunksMarket) AllInitialOwnersAssigned() bool { return m.st.AllAssigned }

// PunkIndexToAddress returns the owner of punk i, zero if unassigned.
func (m *CryptoPunksMarket) PunkIndexToAddress(i uint64) common.Address {
	return m.st.Owners[i]
}

// BalanceOf returns how many punks owner holds.
func (m *CryptoPunksMarket) BalanceOf(owner common.Address) uint64 {
	return m.st.Balances[owner]
}

// PunksOf lists the punks held by owner in ascending order.
func (m *CryptoPunksMarket) PunksOf(owner common.Address) []uint64 {
	var out []uint64
	for i, o := range m.st.Owners {
		if o == owner {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// PunksOfferedForSale returns the current offer for punk i.
func (m *CryptoPunksMarket) PunksOfferedForSale(i uint64) Offer {
	o, ok := m.st.Offers[i]
	if !ok {
		return Offer{PunkIndex: i, MinValue: new(uint256.Int)}
	}
	o.MinValue = types.OrZero(o.MinValue).Clone()
	return o
}

// PendingWithdrawals returns the sale proceeds account may withdraw.
func (m *CryptoPunksMarket) PendingWithdrawals(account common.Address) *uint256.Int {
	return types.OrZero(m.st.PendingWithdrawals[account]).Clone()
}

func checkPunk(i uint64) error {
	if i >= PunkSupply {
		return types.ErrInvalidPunk
	}
	return nil
}

func (m *CryptoPunksMarket) setOwner(i uint64, to common.Address) {
	if from, ok := m.st.Owners[i]; ok {
		if n := m.st.Balances[from]; n <= 1 {
			delete(m.st.Balances, from)
		} else {
			m.st.Balances[from] = n - 1
		}
	}
	m.st.Owners[i] = to
	m.st.Balances[to]++
}

func (m *CryptoPunksMarket) onlyPunkOwner(env *chain.Env, i uint64) error {
	if err := checkPunk(i); err != nil {
		return err
	}
	if m.st.Owners[i] != env.Sender() {
		return types.ErrNotPunkOwner
	}
	return nil
}

func (m *CryptoPunksMarket) setInitialOwner(env *chain.Env, to common.Address, i uint64) error {
	if m.st.AllAssigned {
		return types.ErrAssignmentClosed
	}
	if err := checkPunk(i); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return types.ErrZeroAddress
	}
	if current, ok := m.st.Owners[i]; ok && current != to {
		return types.ErrPunkAssigned
	}
	if m.st.Owners[i] != to {
		m.setOwner(i, to)
	}
	env.Emit("Assign", "to", to, "punk", i)
	return nil
}

func (m *CryptoPunksMarket) allInitialOwnersAssigned(env *chain.Env) error {
	if err := onlyOwner(env, m.st.Deployer); err != nil {
		return err
	}
	m.st.AllAssigned = true
	return nil
}

func (m *CryptoPunksMarket) transferPunk(env *chain.Env, to common.Address, i uint64) error {
	if err := m.onlyPunkOwner(env, i); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return types.ErrZeroAddress
	}
	delete(m.st.Offers, i)
	m.setOwner(i, to)
	env.Emit("PunkTransfer", "from", env.Sender(), "to", to, "punk", i)
	return nil
}

func (m *CryptoPunksMarket) offer(env *chain.Env, i uint64, minPrice *uint256.Int, onlySellTo common.Address) error {
	if err := m.onlyPunkOwner(env, i); err != nil {
		return err
	}
	minPrice = types.OrZero(minPrice).Clone()
	m.st.Offers[i] = Offer{
		IsForSale:  true,
		PunkIndex:  i,
		Seller:     env.Sender(),
		MinValue:   minPrice,
		OnlySellTo: onlySellTo,
	}
	env.Emit("PunkOffered", "punk", i, "min_value", minPrice, "to", onlySellTo)
	return nil
}

func (m *CryptoPunksMarket) punkNoLongerForSale(env *chain.Env, i uint64) error {
	if err := m.onlyPunkOwner(env, i); err != nil {
		return err
	}
	delete(m.st.Offers, i)
	env.Emit("PunkNoLongerForSale", "punk", i)
	return nil
}

// buyPunk pays the attached value for punk i. The proceeds are credited to
// the seller's pending withdrawals.
func (m *CryptoPunksMarket) buyPunk(env *chain.Env, i uint64) error {
	if err := checkPunk(i); err != nil {
		return err
	}
	o, ok := m.st.Offers[i]
	if !ok || !o.IsForSale {
		return types.ErrNotForSale
	}
	if o.OnlySellTo != (common.Address{}) && o.OnlySellTo != env.Sender() {
		return types.ErrRestrictedBuyer
	}
	value := env.Value()
	if value.Lt(types.OrZero(o.MinValue)) {
		return types.ErrPriceTooLow
	}
	if m.st.Owners[i] != o.Seller {
		return types.ErrSellerNotOwner
	}
	delete(m.st.Offers, i)
	m.setOwner(i, env.Sender())
	if !value.IsZero() {
		pending, overflow := new(uint256.Int).AddOverflow(m.PendingWithdrawals(o.Seller), value)
		if overflow {
			return types.ErrOverflow
		}
		m.st.PendingWithdrawals[o.Seller] = pending
	}
	env.Emit("PunkBought", "punk", i, "value", value, "from", o.Seller, "to", env.Sender())
	return nil
}

func (m *CryptoPunksMarket) withdraw(env *chain.Env) error {
	amount := m.PendingWithdrawals(env.Sender())
	if amount.IsZero() {
		return types.ErrNothingToWithdraw
	}
	delete(m.st.PendingWithdrawals, env.Sender())
	return env.Transfer(env.Sender(), amount)
}

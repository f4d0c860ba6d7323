package chain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mesh-intelligence/xvault/pkg/types"
)

// AccountState is the persisted form of an account.
type AccountState struct {
	Address common.Address `json:"address"`
	Label   string         `json:"label,omitempty"`
	Balance *uint256.Int   `json:"balance"`
	Nonce   uint64         `json:"nonce"`
}

// ContractState is the persisted form of a contract.
type ContractState struct {
	Address common.Address  `json:"address"`
	Kind    string          `json:"kind"`
	State   json.RawMessage `json:"state"`
}

// State is a full copy of the ledger, used by storage backends.
type State struct {
	Head      Block           `json:"head"`
	Offset    time.Duration   `json:"offset"`
	Accounts  []AccountState  `json:"accounts"`
	Contracts []ContractState `json:"contracts"`
	Receipts  []*Receipt      `json:"receipts"`
}

// Export copies the ledger state. Accounts and contracts are ordered by
// address.
func (c *Chain) Export() (*State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := &State{Head: c.head, Offset: c.offset}
	for addr, acct := range c.accounts {
		st.Accounts = append(st.Accounts, AccountState{
			Address: addr,
			Label:   acct.label,
			Balance: acct.balance.Clone(),
			Nonce:   acct.nonce,
		})
	}
	sort.Slice(st.Accounts, func(i, j int) bool {
		return st.Accounts[i].Address.Cmp(st.Accounts[j].Address) < 0
	})
	for addr, ct := range c.contracts {
		data, err := ct.MarshalState()
		if err != nil {
			return nil, fmt.Errorf("marshal %s at %s: %w", ct.Kind(), addr.Hex(), err)
		}
		st.Contracts = append(st.Contracts, ContractState{Address: addr, Kind: ct.Kind(), State: data})
	}
	sort.Slice(st.Contracts, func(i, j int) bool {
		return st.Contracts[i].Address.Cmp(st.Contracts[j].Address) < 0
	})
	st.Receipts = make([]*Receipt, len(c.receipts))
	copy(st.Receipts, c.receipts)
	return st, nil
}

// Import replaces the ledger state with st. Contracts are rebuilt through
// the factories passed in Options; an unknown kind fails the import and
// leaves the ledger unchanged.
func (c *Chain) Import(st *State) error {
	contracts := make(map[common.Address]Contract, len(st.Contracts))
	for _, cs := range st.Contracts {
		factory, ok := c.factories[cs.Kind]
		if !ok {
			return fmt.Errorf("%w: %q", types.ErrUnknownKind, cs.Kind)
		}
		ct := factory()
		if err := ct.UnmarshalState(cs.State); err != nil {
			return fmt.Errorf("unmarshal %s at %s: %w", cs.Kind, cs.Address.Hex(), err)
		}
		contracts[cs.Address] = ct
	}
	accounts := make(map[common.Address]*account, len(st.Accounts))
	for _, as := range st.Accounts {
		accounts[as.Address] = &account{
			balance: types.OrZero(as.Balance).Clone(),
			nonce:   as.Nonce,
			label:   as.Label,
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = st.Head
	c.offset = st.Offset
	c.accounts = accounts
	c.contracts = contracts
	c.receipts = make([]*Receipt, len(st.Receipts))
	copy(c.receipts, st.Receipts)
	return nil
}

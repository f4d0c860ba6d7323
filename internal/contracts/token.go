package contracts

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// XToken is an ERC-20 shaped fungible token with a single owner allowed to
// mint, burn on behalf of holders, and rename it.
type XToken struct {
	st tokenState
}

type tokenState struct {
	Name        string                                            `json:"name"`
	Symbol      string                                            `json:"symbol"`
	Owner       common.Address                                    `json:"owner"`
	TotalSupply *uint256.Int                                      `json:"total_supply"`
	Balances    map[common.Address]*uint256.Int                   `json:"balances"`
	Allowances  map[common.Address]map[common.Address]*uint256.Int `json:"allowances"`
}

// NewXToken creates a token owned by owner with an empty supply.
func NewXToken(name, symbol string, owner common.Address) *XToken {
	return &XToken{st: tokenState{
		Name:        name,
		Symbol:      symbol,
		Owner:       owner,
		TotalSupply: new(uint256.Int),
		Balances:    make(map[common.Address]*uint256.Int),
		Allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
	}}
}

func (t *XToken) Kind() string { return KindToken }

func (t *XToken) MarshalState() ([]byte, error) { return json.Marshal(t.st) }

func (t *XToken) UnmarshalState(data []byte) error {
	var st tokenState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if st.TotalSupply == nil {
		st.TotalSupply = new(uint256.Int)
	}
	if st.Balances == nil {
		st.Balances = make(map[common.Address]*uint256.Int)
	}
	if st.Allowances == nil {
		st.Allowances = make(map[common.Address]map[common.Address]*uint256.Int)
	}
	t.st = st
	return nil
}

// Name returns the token name.
func (t *XToken) Name() string { return t.st.Name }

// Symbol returns the token symbol.
func (t *XToken) Symbol() string { return t.st.Symbol }

// Decimals returns the number of decimals of one unit.
func (t *XToken) Decimals() uint8 { return types.TokenDecimals }

// Owner returns the account allowed to mint and burn.
func (t *XToken) Owner() common.Address { return t.st.Owner }

// TotalSupply returns the amount in circulation.
func (t *XToken) TotalSupply() *uint256.Int { return t.st.TotalSupply.Clone() }

// BalanceOf returns the balance of account.
func (t *XToken) BalanceOf(account common.Address) *uint256.Int {
	return types.OrZero(t.st.Balances[account]).Clone()
}

// Allowance returns how much spender may move on behalf of owner.
func (t *XToken) Allowance(owner, spender common.Address) *uint256.Int {
	return types.OrZero(t.st.Allowances[owner][spender]).Clone()
}

func (t *XToken) setBalance(account common.Address, v *uint256.Int) {
	if v.IsZero() {
		delete(t.st.Balances, account)
		return
	}
	t.st.Balances[account] = v
}

func (t *XToken) setAllowance(owner, spender common.Address, v *uint256.Int) {
	m, ok := t.st.Allowances[owner]
	if !ok {
		if v.IsZero() {
			return
		}
		m = make(map[common.Address]*uint256.Int)
		t.st.Allowances[owner] = m
	}
	if v.IsZero() {
		delete(m, spender)
		if len(m) == 0 {
			delete(t.st.Allowances, owner)
		}
		return
	}
	m[spender] = v
}

func (t *XToken) move(env *chain.Env, from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return types.ErrZeroAddress
	}
	bal := t.BalanceOf(from)
	if bal.Lt(amount) {
		return types.ErrInsufficientBalance
	}
	t.setBalance(from, new(uint256.Int).Sub(bal, amount))
	sum, overflow := new(uint256.Int).AddOverflow(t.BalanceOf(to), amount)
	if overflow {
		return types.ErrOverflow
	}
	t.setBalance(to, sum)
	env.Emit("Transfer", "from", from, "to", to, "value", amount)
	return nil
}

func (t *XToken) spendAllowance(owner, spender common.Address, amount *uint256.Int) error {
	allowed := t.Allowance(owner, spender)
	if allowed.Lt(amount) {
		return types.ErrInsufficientAllowance
	}
	t.setAllowance(owner, spender, new(uint256.Int).Sub(allowed, amount))
	return nil
}

func (t *XToken) transfer(env *chain.Env, to common.Address, amount *uint256.Int) error {
	return t.move(env, env.Sender(), to, types.OrZero(amount))
}

func (t *XToken) approve(env *chain.Env, spender common.Address, amount *uint256.Int) error {
	if spender == (common.Address{}) {
		return types.ErrZeroAddress
	}
	amount = types.OrZero(amount)
	t.setAllowance(env.Sender(), spender, amount.Clone())
	env.Emit("Approval", "owner", env.Sender(), "spender", spender, "value", amount)
	return nil
}

func (t *XToken) transferFrom(env *chain.Env, from, to common.Address, amount *uint256.Int) error {
	amount = types.OrZero(amount)
	if err := t.spendAllowance(from, env.Sender(), amount); err != nil {
		return err
	}
	return t.move(env, from, to, amount)
}

func (t *XToken) mint(env *chain.Env, to common.Address, amount *uint256.Int) error {
	if err := onlyOwner(env, t.st.Owner); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return types.ErrZeroAddress
	}
	amount = types.OrZero(amount)
	supply, overflow := new(uint256.Int).AddOverflow(t.st.TotalSupply, amount)
	if overflow {
		return types.ErrOverflow
	}
	bal, overflow := new(uint256.Int).AddOverflow(t.BalanceOf(to), amount)
	if overflow {
		return types.ErrOverflow
	}
	t.st.TotalSupply = supply
	t.setBalance(to, bal)
	env.Emit("Transfer", "from", common.Address{}, "to", to, "value", amount)
	return nil
}

func (t *XToken) burnBalance(env *chain.Env, from common.Address, amount *uint256.Int) error {
	bal := t.BalanceOf(from)
	if bal.Lt(amount) {
		return types.ErrInsufficientBalance
	}
	t.setBalance(from, new(uint256.Int).Sub(bal, amount))
	t.st.TotalSupply = new(uint256.Int).Sub(t.st.TotalSupply, amount)
	env.Emit("Transfer", "from", from, "to", common.Address{}, "value", amount)
	return nil
}

func (t *XToken) burn(env *chain.Env, amount *uint256.Int) error {
	return t.burnBalance(env, env.Sender(), types.OrZero(amount))
}

// burnFrom burns from account using the allowance account granted to the
// owner.
func (t *XToken) burnFrom(env *chain.Env, account common.Address, amount *uint256.Int) error {
	if err := onlyOwner(env, t.st.Owner); err != nil {
		return err
	}
	amount = types.OrZero(amount)
	if err := t.spendAllowance(account, env.Sender(), amount); err != nil {
		return err
	}
	return t.burnBalance(env, account, amount)
}

func (t *XToken) changeName(env *chain.Env, name string) error {
	if err := onlyOwner(env, t.st.Owner); err != nil {
		return err
	}
	t.st.Name = name
	env.Emit("NameChanged", "name", name)
	return nil
}

func (t *XToken) changeSymbol(env *chain.Env, symbol string) error {
	if err := onlyOwner(env, t.st.Owner); err != nil {
		return err
	}
	t.st.Symbol = symbol
	env.Emit("SymbolChanged", "symbol", symbol)
	return nil
}

func (t *XToken) transferOwnership(env *chain.Env, newOwner common.Address) error {
	if err := onlyOwner(env, t.st.Owner); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return types.ErrZeroAddress
	}
	env.Emit("OwnershipTransferred", "previous", t.st.Owner, "next", newOwner)
	t.st.Owner = newOwner
	return nil
}

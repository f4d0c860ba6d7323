package chain

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mesh-intelligence/xvault/pkg/types"
)

// ErrCallDepth is returned when nested contract calls go too deep.
var ErrCallDepth = errors.New("call depth exceeded")

const maxCallDepth = 16

// Env is the execution context handed to contract code. It identifies the
// executing contract, its caller and the attached value, and gives access
// to the block being built.
type Env struct {
	chain  *Chain
	self   common.Address
	sender common.Address
	value  *uint256.Int
	block  *Block
	logs   *[]Log
	depth  int
}

// Self is the address of the executing contract.
func (e *Env) Self() common.Address { return e.self }

// Sender is the immediate caller: the transaction signer for top-level
// calls, the calling contract for nested ones.
func (e *Env) Sender() common.Address { return e.sender }

// Value is the native value attached to this call.
func (e *Env) Value() *uint256.Int { return e.value.Clone() }

// Now is the timestamp of the block being built.
func (e *Env) Now() time.Time { return e.block.Time }

// BlockNumber is the number of the block being built.
func (e *Env) BlockNumber() uint64 { return e.block.Number }

// ParentHash is the hash of the previous block.
func (e *Env) ParentHash() common.Hash { return e.block.ParentHash }

// Emit records an event from the executing contract. kv alternates field
// names and values.
func (e *Env) Emit(event string, kv ...any) {
	l := Log{Address: e.self, Event: event}
	if len(kv) > 0 {
		l.Fields = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			key, _ := kv[i].(string)
			l.Fields[key] = formatValue(kv[i+1])
		}
	}
	*e.logs = append(*e.logs, l)
}

// Contract returns the contract deployed at addr.
func (e *Env) Contract(addr common.Address) (Contract, error) {
	ct, ok := e.chain.contracts[addr]
	if !ok {
		return nil, types.ErrUnknownContract
	}
	return ct, nil
}

// Call returns the context for a nested call from the executing contract
// into the contract at to, moving value along with it.
func (e *Env) Call(to common.Address, value *uint256.Int) (*Env, error) {
	if e.depth+1 >= maxCallDepth {
		return nil, ErrCallDepth
	}
	if _, ok := e.chain.contracts[to]; !ok {
		return nil, types.ErrUnknownContract
	}
	value = types.OrZero(value)
	if err := e.chain.transferNative(e.self, to, value); err != nil {
		return nil, err
	}
	return &Env{
		chain:  e.chain,
		self:   to,
		sender: e.self,
		value:  value.Clone(),
		block:  e.block,
		logs:   e.logs,
		depth:  e.depth + 1,
	}, nil
}

// Transfer sends native value from the executing contract to addr.
func (e *Env) Transfer(to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return types.ErrZeroAddress
	}
	return e.chain.transferNative(e.self, to, amount)
}

// NativeBalance returns the native balance of addr.
func (e *Env) NativeBalance(addr common.Address) *uint256.Int {
	if acct, ok := e.chain.accounts[addr]; ok {
		return acct.balance.Clone()
	}
	return new(uint256.Int)
}

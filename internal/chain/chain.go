// Package chain implements the single-process ledger that hosts the vault
// contracts: accounts with native balances, automined blocks, atomic
// transactions with rollback on revert, receipts and event fan-out.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/xvault/pkg/types"
)

// Contract is implemented by every contract hosted on the ledger. Its
// whole state must round-trip through MarshalState and UnmarshalState:
// the ledger uses them for rollback and persistence.
type Contract interface {
	Kind() string
	MarshalState() ([]byte, error)
	UnmarshalState(data []byte) error
}

// Factory creates an empty contract of one kind, ready for UnmarshalState.
type Factory func() Contract

// Event bus topics. Every log is published on TopicAllLogs and on
// TopicLogPrefix+event.
const (
	TopicAllLogs   = "log:*"
	TopicLogPrefix = "log:"
)

type account struct {
	balance *uint256.Int
	nonce   uint64
	label   string
}

// Options configures a new Chain.
type Options struct {
	Clock     Clock
	Logger    *zap.Logger
	Registry  prometheus.Registerer
	Factories map[string]Factory
}

// Chain is the ledger. It is safe for concurrent use; transactions are
// applied one at a time.
type Chain struct {
	mu        sync.RWMutex
	clock     Clock
	offset    time.Duration
	logger    *zap.Logger
	bus       evbus.Bus
	metrics   *Metrics
	factories map[string]Factory

	head      Block
	accounts  map[common.Address]*account
	contracts map[common.Address]Contract
	receipts  []*Receipt
}

// New creates a ledger holding only the genesis block.
func New(opts Options) *Chain {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	factories := make(map[string]Factory, len(opts.Factories))
	for k, f := range opts.Factories {
		factories[k] = f
	}
	return &Chain{
		clock:     opts.Clock,
		logger:    opts.Logger.With(zap.String("module", "chain")),
		bus:       evbus.New(),
		metrics:   NewMetrics(opts.Registry),
		factories: factories,
		head:      genesisBlock(opts.Clock.Now()),
		accounts:  make(map[common.Address]*account),
		contracts: make(map[common.Address]Contract),
	}
}

// account returns the account for addr, creating it if needed.
// The caller must hold c.mu.
func (c *Chain) account(addr common.Address) *account {
	acct, ok := c.accounts[addr]
	if !ok {
		acct = &account{balance: new(uint256.Int)}
		c.accounts[addr] = acct
	}
	return acct
}

// transferNative moves native value between accounts.
// The caller must hold c.mu.
func (c *Chain) transferNative(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	src := c.account(from)
	if src.balance.Lt(amount) {
		return types.ErrInsufficientFunds
	}
	dst := c.account(to)
	sum, overflow := new(uint256.Int).AddOverflow(dst.balance, amount)
	if overflow {
		return types.ErrOverflow
	}
	src.balance = new(uint256.Int).Sub(src.balance, amount)
	dst.balance = sum
	return nil
}

// Metrics returns the ledger's collectors.
func (c *Chain) Metrics() *Metrics { return c.metrics }

// Head returns the latest block.
func (c *Chain) Head() Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.head
}

// Now returns the ledger time: the clock plus any IncreaseTime offset.
func (c *Chain) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clock.Now().Add(c.offset)
}

// IncreaseTime shifts ledger time forward by d for all following blocks.
func (c *Chain) IncreaseTime(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.offset += d
	c.mu.Unlock()
}

// nextBlockTime is the timestamp of the next block. Timestamps never
// decrease. The caller must hold c.mu.
func (c *Chain) nextBlockTime() time.Time {
	t := blockTimestamp(c.clock.Now().Add(c.offset))
	if t.Before(c.head.Time) {
		return c.head.Time
	}
	return t
}

// Balance returns the native balance of addr.
func (c *Chain) Balance(addr common.Address) *uint256.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if acct, ok := c.accounts[addr]; ok {
		return acct.balance.Clone()
	}
	return new(uint256.Int)
}

// Nonce returns the number of transactions sent from addr.
func (c *Chain) Nonce(addr common.Address) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if acct, ok := c.accounts[addr]; ok {
		return acct.nonce
	}
	return 0
}

// SetLabel attaches a human-readable name to addr.
func (c *Chain) SetLabel(addr common.Address, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account(addr).label = label
}

// Label returns the name attached to addr, or "" if none.
func (c *Chain) Label(addr common.Address) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if acct, ok := c.accounts[addr]; ok {
		return acct.label
	}
	return ""
}

// LookupLabel returns the address carrying label.
func (c *Chain) LookupLabel(label string) (common.Address, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for addr, acct := range c.accounts {
		if acct.label == label {
			return addr, true
		}
	}
	return common.Address{}, false
}

// AccountInfo describes one account.
type AccountInfo struct {
	Address  common.Address
	Label    string
	Balance  *uint256.Int
	Nonce    uint64
	Contract string // contract kind, empty for externally owned accounts
}

// Accounts lists every known account and contract, ordered by address.
func (c *Chain) Accounts() []AccountInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[common.Address]bool)
	var out []AccountInfo
	add := func(addr common.Address) {
		if seen[addr] {
			return
		}
		seen[addr] = true
		info := AccountInfo{Address: addr, Balance: new(uint256.Int)}
		if acct, ok := c.accounts[addr]; ok {
			info.Label = acct.label
			info.Balance = acct.balance.Clone()
			info.Nonce = acct.nonce
		}
		if ct, ok := c.contracts[addr]; ok {
			info.Contract = ct.Kind()
		}
		out = append(out, info)
	}
	for addr := range c.accounts {
		add(addr)
	}
	for addr := range c.contracts {
		add(addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Cmp(out[j].Address) < 0
	})
	return out
}

// Contract returns the contract at addr.
func (c *Chain) Contract(addr common.Address) (Contract, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ct, ok := c.contracts[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownContract, addr.Hex())
	}
	return ct, nil
}

// View runs fn while holding the ledger read lock. Contract view methods
// must be called through View when transactions may run concurrently.
func (c *Chain) View(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// Receipts returns every receipt recorded so far, oldest first.
func (c *Chain) Receipts() []*Receipt {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Receipt, len(c.receipts))
	copy(out, c.receipts)
	return out
}

// Install places ct at addr without a transaction. It is used for fixtures
// that must live at a well-known address.
func (c *Chain) Install(addr common.Address, ct Contract) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.contracts[addr]; ok {
		return fmt.Errorf("%w: %s", types.ErrAddressInUse, addr.Hex())
	}
	c.contracts[addr] = ct
	c.account(addr)
	return nil
}

// Subscribe registers fn for events published on topic.
func (c *Chain) Subscribe(topic string, fn interface{}) error {
	return c.bus.Subscribe(topic, fn)
}

// Unsubscribe removes a handler registered with Subscribe.
func (c *Chain) Unsubscribe(topic string, fn interface{}) error {
	return c.bus.Unsubscribe(topic, fn)
}

// Deploy runs ctor in a transaction from opts.From and installs the returned
// contract at the CREATE address derived from the sender and its nonce.
func (c *Chain) Deploy(ctx context.Context, opts TxOpts, name string, args []any, ctor func(env *Env) (Contract, error)) (common.Address, *Receipt, error) {
	if err := ctx.Err(); err != nil {
		return common.Address{}, nil, err
	}
	c.mu.Lock()
	addr := crypto.CreateAddress(opts.From, c.account(opts.From).nonce)
	rcpt, logs, err := c.execute(opts, addr, "deploy"+name, args, false, func(env *Env) error {
		if _, ok := c.contracts[addr]; ok {
			return types.ErrAddressInUse
		}
		ct, err := ctor(env)
		if err != nil {
			return err
		}
		c.contracts[addr] = ct
		return nil
	})
	c.mu.Unlock()
	c.publish(logs)
	if err != nil {
		return common.Address{}, rcpt, err
	}
	return addr, rcpt, nil
}

// Transact runs fn as a transaction from opts.From to the contract at to.
// If fn returns an error all state changes are rolled back and the returned
// error is a *types.RevertError. A receipt is returned in both cases.
func (c *Chain) Transact(ctx context.Context, opts TxOpts, to common.Address, method string, args []any, fn func(env *Env) error) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	rcpt, logs, err := c.execute(opts, to, method, args, true, fn)
	c.mu.Unlock()
	c.publish(logs)
	return rcpt, err
}

// execute applies one transaction. The caller must hold c.mu.
func (c *Chain) execute(opts TxOpts, to common.Address, method string, args []any, requireContract bool, fn func(env *Env) error) (*Receipt, []Log, error) {
	value := types.OrZero(opts.Value).Clone()
	snap, err := c.snapshot()
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: %w", err)
	}
	nonce := c.account(opts.From).nonce

	pending := Block{
		Number:     c.head.Number + 1,
		ParentHash: c.head.Hash,
		Time:       c.nextBlockTime(),
	}
	var logs []Log
	env := &Env{
		chain:  c,
		self:   to,
		sender: opts.From,
		value:  value,
		block:  &pending,
		logs:   &logs,
	}

	runErr := func() error {
		if requireContract {
			if _, ok := c.contracts[to]; !ok {
				return types.ErrUnknownContract
			}
		}
		if err := c.transferNative(opts.From, to, value); err != nil {
			return err
		}
		return fn(env)
	}()

	rcpt := &Receipt{
		ID:     newReceiptID(),
		Block:  pending.Number,
		From:   opts.From,
		To:     to,
		Method: method,
		Args:   formatArgs(args),
		Value:  value,
		Time:   pending.Time,
	}
	if runErr != nil {
		if err := c.restore(snap); err != nil {
			return nil, nil, fmt.Errorf("restore after revert: %w", err)
		}
		rcpt.Status = StatusReverted
		rcpt.Error = runErr.Error()
		logs = nil
	} else {
		rcpt.Status = StatusSuccess
		rcpt.Logs = logs
	}
	c.account(opts.From).nonce = nonce + 1

	seed := append(opts.From.Bytes(), []byte(fmt.Sprintf("/%d/%s", nonce, method))...)
	pending.Hash = hashBlock(pending.ParentHash, pending.Number, pending.Time, seed)
	rcpt.BlockHash = pending.Hash
	c.head = pending
	c.receipts = append(c.receipts, rcpt)
	c.metrics.observe(method, rcpt.Status)

	c.logger.Debug("transaction",
		zap.String("method", method),
		zap.Stringer("from", opts.From),
		zap.Stringer("to", to),
		zap.Uint64("block", pending.Number),
		zap.String("status", rcpt.Status),
		zap.String("error", rcpt.Error),
	)

	if runErr != nil {
		return rcpt, nil, asRevert(method, runErr)
	}
	return rcpt, logs, nil
}

func asRevert(method string, err error) error {
	var re *types.RevertError
	if errors.As(err, &re) {
		return err
	}
	return &types.RevertError{Method: method, Err: err}
}

// publish fans logs out on the event bus. It must be called without c.mu
// held so handlers may query the ledger.
func (c *Chain) publish(logs []Log) {
	for _, l := range logs {
		c.bus.Publish(TopicAllLogs, l)
		c.bus.Publish(TopicLogPrefix+l.Event, l)
	}
}

type snapshot struct {
	accounts  map[common.Address]account
	contracts map[common.Address][]byte
}

// snapshot captures all mutable state. The caller must hold c.mu.
func (c *Chain) snapshot() (*snapshot, error) {
	s := &snapshot{
		accounts:  make(map[common.Address]account, len(c.accounts)),
		contracts: make(map[common.Address][]byte, len(c.contracts)),
	}
	for addr, acct := range c.accounts {
		s.accounts[addr] = account{balance: acct.balance.Clone(), nonce: acct.nonce, label: acct.label}
	}
	for addr, ct := range c.contracts {
		data, err := ct.MarshalState()
		if err != nil {
			return nil, fmt.Errorf("marshal %s at %s: %w", ct.Kind(), addr.Hex(), err)
		}
		s.contracts[addr] = data
	}
	return s, nil
}

// restore rolls state back to s. The caller must hold c.mu.
func (c *Chain) restore(s *snapshot) error {
	c.accounts = make(map[common.Address]*account, len(s.accounts))
	for addr, acct := range s.accounts {
		a := acct
		c.accounts[addr] = &a
	}
	for addr := range c.contracts {
		if _, ok := s.contracts[addr]; !ok {
			delete(c.contracts, addr)
		}
	}
	for addr, data := range s.contracts {
		if err := c.contracts[addr].UnmarshalState(data); err != nil {
			return fmt.Errorf("unmarshal %s: %w", addr.Hex(), err)
		}
	}
	return nil
}

package contracts

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mesh-intelligence/xvault/internal/chain"
)

// binding is the part shared by every typed binding. Bindings hold the
// contract object itself, so they must be recreated after Chain.Import.
type binding[T chain.Contract] struct {
	chain *chain.Chain
	addr  common.Address
	c     T
}

func bind[T chain.Contract](c *chain.Chain, addr common.Address) (binding[T], error) {
	ct, err := at[T](c, addr)
	if err != nil {
		return binding[T]{}, err
	}
	return binding[T]{chain: c, addr: addr, c: ct}, nil
}

// Address returns the contract address.
func (b binding[T]) Address() common.Address { return b.addr }

func (b binding[T]) transact(ctx context.Context, opts chain.TxOpts, method string, args []any, fn func(env *chain.Env) error) (*chain.Receipt, error) {
	return b.chain.Transact(ctx, opts, b.addr, method, args, fn)
}

func view[T chain.Contract, R any](b binding[T], fn func(T) R) R {
	var out R
	b.chain.View(func() { out = fn(b.c) })
	return out
}

// XTokenBinding calls an XToken on a ledger.
type XTokenBinding struct {
	binding[*XToken]
}

// BindToken binds the XToken at addr.
func BindToken(c *chain.Chain, addr common.Address) (*XTokenBinding, error) {
	b, err := bind[*XToken](c, addr)
	if err != nil {
		return nil, err
	}
	return &XTokenBinding{b}, nil
}

// DeployXToken deploys a token owned by the sender.
func DeployXToken(ctx context.Context, c *chain.Chain, opts chain.TxOpts, name, symbol string) (*XTokenBinding, *chain.Receipt, error) {
	addr, rcpt, err := c.Deploy(ctx, opts, KindToken, []any{name, symbol}, func(env *chain.Env) (chain.Contract, error) {
		return NewXToken(name, symbol, env.Sender()), nil
	})
	if err != nil {
		return nil, rcpt, err
	}
	b, err := BindToken(c, addr)
	return b, rcpt, err
}

func (b *XTokenBinding) Name() string {
	return view(b.binding, (*XToken).Name)
}

func (b *XTokenBinding) Symbol() string {
	return view(b.binding, (*XToken).Symbol)
}

func (b *XTokenBinding) Decimals() uint8 {
	return view(b.binding, (*XToken).Decimals)
}

func (b *XTokenBinding) Owner() common.Address {
	return view(b.binding, (*XToken).Owner)
}

func (b *XTokenBinding) TotalSupply() *uint256.Int {
	return view(b.binding, (*XToken).TotalSupply)
}

func (b *XTokenBinding) BalanceOf(account common.Address) *uint256.Int {
	return view(b.binding, func(t *XToken) *uint256.Int { return t.BalanceOf(account) })
}

func (b *XTokenBinding) Allowance(owner, spender common.Address) *uint256.Int {
	return view(b.binding, func(t *XToken) *uint256.Int { return t.Allowance(owner, spender) })
}

func (b *XTokenBinding) Transfer(ctx context.Context, opts chain.TxOpts, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "transfer", []any{to, amount}, func(env *chain.Env) error {
		return b.c.transfer(env, to, amount)
	})
}

func (b *XTokenBinding) Approve(ctx context.Context, opts chain.TxOpts, spender common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "approve", []any{spender, amount}, func(env *chain.Env) error {
		return b.c.approve(env, spender, amount)
	})
}

func (b *XTokenBinding) TransferFrom(ctx context.Context, opts chain.TxOpts, from, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "transferFrom", []any{from, to, amount}, func(env *chain.Env) error {
		return b.c.transferFrom(env, from, to, amount)
	})
}

func (b *XTokenBinding) Mint(ctx context.Context, opts chain.TxOpts, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "mint", []any{to, amount}, func(env *chain.Env) error {
		return b.c.mint(env, to, amount)
	})
}

func (b *XTokenBinding) Burn(ctx context.Context, opts chain.TxOpts, amount *uint256.Int) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "burn", []any{amount}, func(env *chain.Env) error {
		return b.c.burn(env, amount)
	})
}

func (b *XTokenBinding) BurnFrom(ctx context.Context, opts chain.TxOpts, account common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "burnFrom", []any{account, amount}, func(env *chain.Env) error {
		return b.c.burnFrom(env, account, amount)
	})
}

func (b *XTokenBinding) ChangeName(ctx context.Context, opts chain.TxOpts, name string) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "changeName", []any{name}, func(env *chain.Env) error {
		return b.c.changeName(env, name)
	})
}

func (b *XTokenBinding) ChangeSymbol(ctx context.Context, opts chain.TxOpts, symbol string) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "changeSymbol", []any{symbol}, func(env *chain.Env) error {
		return b.c.changeSymbol(env, symbol)
	})
}

func (b *XTokenBinding) TransferOwnership(ctx context.Context, opts chain.TxOpts, newOwner common.Address) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "transferOwnership", []any{newOwner}, func(env *chain.Env) error {
		return b.c.transferOwnership(env, newOwner)
	})
}

// MarketBinding calls a CryptoPunksMarket on a ledger.
type MarketBinding struct {
	binding[*CryptoPunksMarket]
}

// BindMarket binds the market at addr.
func BindMarket(c *chain.Chain, addr common.Address) (*MarketBinding, error) {
	b, err := bind[*CryptoPunksMarket](c, addr)
	if err != nil {
		return nil, err
	}
	return &MarketBinding{b}, nil
}

// DeployMarket deploys an empty market.
func DeployMarket(ctx context.Context, c *chain.Chain, opts chain.TxOpts) (*MarketBinding, *chain.Receipt, error) {
	addr, rcpt, err := c.Deploy(ctx, opts, KindMarket, nil, func(env *chain.Env) (chain.Contract, error) {
		return NewCryptoPunksMarket(env.Sender()), nil
	})
	if err != nil {
		return nil, rcpt, err
	}
	b, err := BindMarket(c, addr)
	return b, rcpt, err
}

// InstallMarket places an empty market at a fixed address, for ledgers
// standing in for a network where the market already exists.
func InstallMarket(c *chain.Chain, addr, deployer common.Address) (*MarketBinding, error) {
	if err := c.Install(addr, NewCryptoPunksMarket(deployer)); err != nil {
		return nil, err
	}
	return BindMarket(c, addr)
}

func (b *MarketBinding) PunkIndexToAddress(i uint64) common.Address {
	return view(b.binding, func(m *CryptoPunksMarket) common.Address { return m.PunkIndexToAddress(i) })
}

func (b *MarketBinding) BalanceOf(owner common.Address) uint64 {
	return view(b.binding, func(m *CryptoPunksMarket) uint64 { return m.BalanceOf(owner) })
}

func (b *MarketBinding) PunksOf(owner common.Address) []uint64 {
	return view(b.binding, func(m *CryptoPunksMarket) []uint64 { return m.PunksOf(owner) })
}

func (b *MarketBinding) PunksOfferedForSale(i uint64) Offer {
	return view(b.binding, func(m *CryptoPunksMarket) Offer { return m.PunksOfferedForSale(i) })
}

func (b *MarketBinding) PendingWithdrawals(account common.Address) *uint256.Int {
	return view(b.binding, func(m *CryptoPunksMarket) *uint256.Int { return m.PendingWithdrawals(account) })
}

// AssignmentClosed reports whether AllInitialOwnersAssigned has run.
func (b *MarketBinding) AssignmentClosed() bool {
	return view(b.binding, (*CryptoPunksMarket).AllInitialOwnersAssigned)
}

func (b *MarketBinding) SetInitialOwner(ctx context.Context, opts chain.TxOpts, to common.Address, i uint64) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "setInitialOwner", []any{to, i}, func(env *chain.Env) error {
		return b.c.setInitialOwner(env, to, i)
	})
}

func (b *MarketBinding) AllInitialOwnersAssigned(ctx context.Context, opts chain.TxOpts) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "allInitialOwnersAssigned", nil, func(env *chain.Env) error {
		return b.c.allInitialOwnersAssigned(env)
	})
}

func (b *MarketBinding) TransferPunk(ctx context.Context, opts chain.TxOpts, to common.Address, i uint64) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "transferPunk", []any{to, i}, func(env *chain.Env) error {
		return b.c.transferPunk(env, to, i)
	})
}

func (b *MarketBinding) OfferPunkForSale(ctx context.Context, opts chain.TxOpts, i uint64, minPrice *uint256.Int) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "offerPunkForSale", []any{i, minPrice}, func(env *chain.Env) error {
		return b.c.offer(env, i, minPrice, common.Address{})
	})
}

func (b *MarketBinding) OfferPunkForSaleToAddress(ctx context.Context, opts chain.TxOpts, i uint64, minPrice *uint256.Int, to common.Address) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "offerPunkForSaleToAddress", []any{i, minPrice, to}, func(env *chain.Env) error {
		return b.c.offer(env, i, minPrice, to)
	})
}

func (b *MarketBinding) PunkNoLongerForSale(ctx context.Context, opts chain.TxOpts, i uint64) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "punkNoLongerForSale", []any{i}, func(env *chain.Env) error {
		return b.c.punkNoLongerForSale(env, i)
	})
}

func (b *MarketBinding) BuyPunk(ctx context.Context, opts chain.TxOpts, i uint64) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "buyPunk", []any{i}, func(env *chain.Env) error {
		return b.c.buyPunk(env, i)
	})
}

func (b *MarketBinding) Withdraw(ctx context.Context, opts chain.TxOpts) (*chain.Receipt, error) {
	return b.transact(ctx, opts, "withdraw", nil, func(env *chain.Env) error {
		return b.c.withdraw(env)
	})
}

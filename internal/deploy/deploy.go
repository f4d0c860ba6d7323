// Package deploy runs the deployment sequences that put a market, a token
// and a vault on a ledger and wire them together.
package deploy

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/internal/contracts"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// Options selects a profile and the accounts it uses.
type Options struct {
	// Profile is one of types.KnownProfiles.
	Profile string

	// Name identifies the deployment in storage. Defaults to Profile.
	Name string

	Deployer common.Address

	// Governance receives vault ownership in the testnet profile.
	// Defaults to types.DefaultGovernanceAddress.
	Governance common.Address

	Logger *zap.Logger
}

// Result is a finished deployment with bindings to its contracts.
type Result struct {
	Deployment types.Deployment
	Market     *contracts.MarketBinding
	Token      *contracts.XTokenBinding
	Vault      *contracts.VaultBinding
}

// Run deploys the contracts of opts.Profile from opts.Deployer.
func Run(ctx context.Context, c *chain.Chain, opts Options) (*Result, error) {
	if !types.ValidProfile(opts.Profile) {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownProfile, opts.Profile)
	}
	if opts.Name == "" {
		opts.Name = opts.Profile
	}
	if opts.Governance == (common.Address{}) {
		opts.Governance = types.DefaultGovernanceAddress
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	log := opts.Logger.With(zap.String("module", "deploy"), zap.String("profile", opts.Profile))

	log.Info("deploying contracts",
		zap.Stringer("account", opts.Deployer),
		zap.String("balance", types.FormatUnits(c.Balance(opts.Deployer), types.NativeDecimals)),
	)

	var (
		res *Result
		err error
	)
	switch opts.Profile {
	case types.ProfileLocal:
		res, err = local(ctx, c, opts)
	case types.ProfileTestnet:
		res, err = testnet(ctx, c, opts)
	case types.ProfileMainnet:
		res, err = mainnet(ctx, c, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", opts.Profile, err)
	}

	res.Deployment = types.Deployment{
		Name:      opts.Name,
		Profile:   opts.Profile,
		Deployer:  opts.Deployer,
		Market:    res.Market.Address(),
		Token:     res.Token.Address(),
		Vault:     res.Vault.Address(),
		Block:     c.Head().Number,
		CreatedAt: c.Head().Time,
	}
	log.Info("deployed",
		zap.Stringer("market", res.Deployment.Market),
		zap.Stringer("token", res.Deployment.Token),
		zap.Stringer("vault", res.Deployment.Vault),
		zap.Uint64("block", res.Deployment.Block),
	)
	return res, nil
}

// Bind reattaches to the contracts of a stored deployment.
func Bind(c *chain.Chain, d types.Deployment) (*Result, error) {
	market, err := contracts.BindMarket(c, d.Market)
	if err != nil {
		return nil, fmt.Errorf("bind market: %w", err)
	}
	token, err := contracts.BindToken(c, d.Token)
	if err != nil {
		return nil, fmt.Errorf("bind token: %w", err)
	}
	vault, err := contracts.BindVault(c, d.Vault)
	if err != nil {
		return nil, fmt.Errorf("bind vault: %w", err)
	}
	return &Result{Deployment: d, Market: market, Token: token, Vault: vault}, nil
}

// base deploys market, XToken and XVault and hands token ownership to the
// vault.
func base(ctx context.Context, c *chain.Chain, opts Options) (*Result, error) {
	tx := chain.TxOpts{From: opts.Deployer}
	market, _, err := contracts.DeployMarket(ctx, c, tx)
	if err != nil {
		return nil, fmt.Errorf("market: %w", err)
	}
	token, _, err := contracts.DeployXToken(ctx, c, tx, "XToken", "XTO")
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	vault, _, err := contracts.DeployXVault(ctx, c, tx, "XVault", token.Address(), market.Address())
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	if _, err := token.TransferOwnership(ctx, tx, vault.Address()); err != nil {
		return nil, fmt.Errorf("token ownership: %w", err)
	}
	return &Result{Market: market, Token: token, Vault: vault}, nil
}

func local(ctx context.Context, c *chain.Chain, opts Options) (*Result, error) {
	res, err := base(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	tx := chain.TxOpts{From: opts.Deployer}
	initial := res.Token.BalanceOf(opts.Deployer)
	if _, err := res.Token.Transfer(ctx, tx, res.Vault.Address(), initial); err != nil {
		return nil, fmt.Errorf("initial balance: %w", err)
	}
	return res, nil
}

func testnet(ctx context.Context, c *chain.Chain, opts Options) (*Result, error) {
	res, err := base(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	tx := chain.TxOpts{From: opts.Deployer}
	if _, err := res.Vault.IncreaseSecurityLevel(ctx, tx); err != nil {
		return nil, fmt.Errorf("security level: %w", err)
	}
	if _, err := res.Vault.TransferOwnership(ctx, tx, opts.Governance); err != nil {
		return nil, fmt.Errorf("vault ownership: %w", err)
	}
	return res, nil
}

// mainnet binds a PunkVault to the market at types.MainnetPunksAddress,
// installing an empty market there when the ledger has none.
func mainnet(ctx context.Context, c *chain.Chain, opts Options) (*Result, error) {
	tx := chain.TxOpts{From: opts.Deployer}
	market, err := contracts.BindMarket(c, types.MainnetPunksAddress)
	if err != nil {
		market, err = contracts.InstallMarket(c, types.MainnetPunksAddress, opts.Deployer)
		if err != nil {
			return nil, fmt.Errorf("market: %w", err)
		}
	}
	token, _, err := contracts.DeployXToken(ctx, c, tx, "PunkToken", "PUNK")
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	vault, _, err := contracts.DeployXVault(ctx, c, tx, "PunkVault", token.Address(), market.Address())
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	if _, err := token.TransferOwnership(ctx, tx, vault.Address()); err != nil {
		return nil, fmt.Errorf("token ownership: %w", err)
	}
	return &Result{Market: market, Token: token, Vault: vault}, nil
}

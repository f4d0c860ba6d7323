package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/internal/contracts"
	"github.com/mesh-intelligence/xvault/internal/deploy"
	"github.com/mesh-intelligence/xvault/internal/logging"
	"github.com/mesh-intelligence/xvault/internal/sqlite"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// ErrNotInitialized is returned when the data directory holds no ledger.
var ErrNotInitialized = errors.New("ledger not initialized; run vaultctl init")

// ledger is an attached store with the chain it holds loaded in memory.
type ledger struct {
	store *sqlite.Backend
	chain *chain.Chain
	log   *zap.Logger
}

// newChain builds an empty chain wired to the system clock and a.log.
func (a *app) newChain() *chain.Chain {
	return chain.New(chain.Options{
		Clock:     chain.SystemClock{},
		Logger:    logging.Module(a.log, "chain"),
		Factories: contracts.Factories(),
	})
}

func (a *app) attach() (*sqlite.Backend, error) {
	b := sqlite.NewBackend()
	if err := b.Attach(a.settings.Store); err != nil {
		return nil, sysErr(fmt.Errorf("attach store: %w", err))
	}
	return b, nil
}

// withLedger loads the stored ledger, runs fn and, when write is set,
// saves the ledger back. Reverted transactions are saved too since they
// consume a nonce and leave a receipt.
func (a *app) withLedger(ctx context.Context, write bool, fn func(l *ledger) error) error {
	store, err := a.attach()
	if err != nil {
		return err
	}
	defer store.Detach()

	st, err := store.LoadState(ctx)
	if errors.Is(err, types.ErrNotFound) {
		return ErrNotInitialized
	}
	if err != nil {
		return sysErr(fmt.Errorf("load ledger: %w", err))
	}
	c := a.newChain()
	if err := c.Import(st); err != nil {
		return sysErr(fmt.Errorf("import ledger: %w", err))
	}
	stop, err := logging.ForwardEvents(c, a.log)
	if err != nil {
		return sysErr(err)
	}
	defer stop()

	l := &ledger{store: store, chain: c, log: a.log}
	runErr := fn(l)
	if !write || (runErr != nil && !types.IsRevert(runErr)) {
		return runErr
	}
	if err := l.save(ctx); err != nil {
		return err
	}
	return runErr
}

func (l *ledger) save(ctx context.Context) error {
	st, err := l.chain.Export()
	if err != nil {
		return sysErr(fmt.Errorf("export ledger: %w", err))
	}
	if err := l.store.SaveState(ctx, st); err != nil {
		return sysErr(fmt.Errorf("save ledger: %w", err))
	}
	return nil
}

// deployment binds the contracts of the named deployment.
func (l *ledger) deployment(ctx context.Context, name string) (*deploy.Result, error) {
	d, err := l.store.Deployment(ctx, name)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("%w; run vaultctl deploy", err)
	}
	if err != nil {
		return nil, sysErr(err)
	}
	return deploy.Bind(l.chain, d)
}

// account resolves a hex address, a signer index, a signer label or, when
// d is non-nil, one of the names "vault", "token" and "market".
func (l *ledger) account(s string, d *deploy.Result) (common.Address, error) {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	if d != nil {
		switch strings.ToLower(s) {
		case "vault":
			return d.Vault.Address(), nil
		case "token":
			return d.Token.Address(), nil
		case "market":
			return d.Market.Address(), nil
		}
	}
	if i, err := strconv.Atoi(s); err == nil && i >= 0 {
		signer, err := chain.DeriveSigner(i)
		if err != nil {
			return common.Address{}, err
		}
		return signer.Address, nil
	}
	if addr, ok := l.chain.LookupLabel(s); ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("%w: %q", types.ErrUnknownAccount, s)
}

// txFlags are shared by every command that sends a transaction.
type txFlags struct {
	deployment string
	from       string
	value      string
}

func addTxFlags(cmd *cobra.Command, f *txFlags, defaultFrom string) {
	cmd.Flags().StringVar(&f.deployment, "deployment", "", "deployment name (default: configured profile)")
	cmd.Flags().StringVar(&f.from, "from", defaultFrom, "sender: signer label, index or address")
	cmd.Flags().StringVar(&f.value, "value", "0", "native value to attach, in ether")
}

// call is the context handed to a transaction command.
type call struct {
	l    *ledger
	d    *deploy.Result
	opts chain.TxOpts
	cmd  *cobra.Command
}

func (c *call) ctx() context.Context { return c.cmd.Context() }

func (c *call) account(s string) (common.Address, error) {
	return c.l.account(s, c.d)
}

// transact resolves the deployment and sender from f, runs fn and reports
// the receipt.
func (a *app) transact(cmd *cobra.Command, f *txFlags, fn func(c *call) (*chain.Receipt, error)) error {
	value, err := types.ParseUnits(f.value, types.NativeDecimals)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	return a.withLedger(ctx, true, func(l *ledger) error {
		d, err := l.deployment(ctx, a.deploymentName(f.deployment))
		if err != nil {
			return err
		}
		from, err := l.account(f.from, d)
		if err != nil {
			return err
		}
		c := &call{l: l, d: d, opts: chain.TxOpts{From: from, Value: value}, cmd: cmd}
		rcpt, err := fn(c)
		if rcpt != nil {
			if perr := a.printReceipt(rcpt, l); perr != nil {
				return perr
			}
		}
		return err
	})
}

func (a *app) deploymentName(flag string) string {
	if flag != "" {
		return flag
	}
	return a.settings.Profile
}

func parseUint(s, what string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return n, nil
}

func parseIDs(args []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(args))
	for _, s := range args {
		id, err := parseUint(s, "punk index")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseTokenAmount(s string) (*uint256.Int, error) {
	return types.ParseUnits(s, types.TokenDecimals)
}

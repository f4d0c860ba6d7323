package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the ledger",
		Long:  "Create the configuration and data directories and a genesis ledger with\nthe configured number of funded signers. Running init again is a no-op.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	ctx := cmd.Context()
	g := a.settings.Genesis
	if err := g.Validate(); err != nil {
		return err
	}
	balance, err := types.ParseUnits(g.Balance, types.NativeDecimals)
	if err != nil {
		return err
	}

	store, err := a.attach()
	if err != nil {
		return err
	}
	defer store.Detach()

	if _, err := store.LoadState(ctx); err == nil {
		fmt.Fprintf(a.out, "Ledger already initialized in %s\n", a.settings.DataDir)
		return nil
	} else if !errors.Is(err, types.ErrNotFound) {
		return sysErr(err)
	}

	signers, err := chain.DeriveSigners(g.Signers)
	if err != nil {
		return err
	}
	c := a.newChain()
	c.Genesis(signers, balance)

	l := &ledger{store: store, chain: c, log: a.log}
	if err := l.save(ctx); err != nil {
		return err
	}
	a.log.Info("ledger initialized",
		zap.String("data_dir", a.settings.DataDir),
		zap.Int("signers", len(signers)),
		zap.String("balance", g.Balance),
	)
	fmt.Fprintf(a.out, "Ledger initialized in %s with %d signers\n", a.settings.DataDir, len(signers))
	return nil
}

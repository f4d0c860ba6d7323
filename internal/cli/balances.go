package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/xvault/internal/scenario"
)

func newBalancesCmd(a *app) *cobra.Command {
	var deployment string
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Reconcile token balances against the vault's punks",
		Long: `Balances lists every signer's token balance and checks that the vault
holds no tokens, that signers hold the whole supply and that every unit is
backed by a punk in the vault. Exits 1 when the check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withLedger(ctx, false, func(l *ledger) error {
				d, err := l.deployment(ctx, a.deploymentName(deployment))
				if err != nil {
					return err
				}
				rep := scenario.CheckBalances(d.Token, d.Market, d.Vault.Address(), signerHolders(l.chain))
				err = a.emit(rep, func(w io.Writer) error {
					out, err := rep.Render()
					if err != nil {
						return err
					}
					fmt.Fprint(w, out)
					fmt.Fprintf(w, "correct: %t\n", rep.Correct)
					return nil
				})
				if err != nil {
					return err
				}
				if !rep.Correct {
					return scenario.ErrUnbalanced
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&deployment, "deployment", "", "deployment name (default: configured profile)")
	return cmd
}

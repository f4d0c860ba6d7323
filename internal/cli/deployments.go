package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func newDeploymentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deployments",
		Short: "List recorded deployments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withLedger(ctx, false, func(l *ledger) error {
				all, err := l.store.Deployments(ctx)
				if err != nil {
					return sysErr(err)
				}
				return a.emit(all, func(w io.Writer) error {
					rows := [][]string{{"name", "profile", "vault", "block", "created"}}
					for _, d := range all {
						rows = append(rows, []string{
							d.Name, d.Profile, d.Vault.Hex(), fmt.Sprint(d.Block), d.CreatedAt.Format(time.RFC3339),
						})
					}
					return table(w, rows)
				})
			})
		},
	}
}

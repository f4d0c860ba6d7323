package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Approve and transfer vault units",
	}
	cmd.AddCommand(
		a.txCmd("approve <spender> <amount>", "Allow a spender (usually the vault) to burn units", cobra.ExactArgs(2), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				spender, err := c.account(args[0])
				if err != nil {
					return nil, err
				}
				amount, err := parseTokenAmount(args[1])
				if err != nil {
					return nil, err
				}
				return c.d.Token.Approve(c.ctx(), c.opts, spender, amount)
			}),
		a.txCmd("transfer <to> <amount>", "Send units to another account", cobra.ExactArgs(2), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				to, err := c.account(args[0])
				if err != nil {
					return nil, err
				}
				amount, err := parseTokenAmount(args[1])
				if err != nil {
					return nil, err
				}
				return c.d.Token.Transfer(c.ctx(), c.opts, to, amount)
			}),
		newTokenInfoCmd(a),
	)
	return cmd
}

type tokenView struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Owner       string `json:"owner"`
	TotalSupply string `json:"total_supply"`
}

func newTokenInfoCmd(a *app) *cobra.Command {
	var deployment string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show token metadata and supply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withLedger(ctx, false, func(l *ledger) error {
				d, err := l.deployment(ctx, a.deploymentName(deployment))
				if err != nil {
					return err
				}
				v := tokenView{
					Address:     d.Token.Address().Hex(),
					Name:        d.Token.Name(),
					Symbol:      d.Token.Symbol(),
					Owner:       displayName(l, d.Token.Owner()),
					TotalSupply: types.FormatUnits(d.Token.TotalSupply(), types.TokenDecimals),
				}
				return a.emit(v, func(w io.Writer) error {
					return table(w, [][]string{
						{"field", "value"},
						{"address", v.Address},
						{"name", v.Name},
						{"symbol", v.Symbol},
						{"owner", v.Owner},
						{"total supply", v.TotalSupply},
					})
				})
			})
		},
	}
	cmd.Flags().StringVar(&deployment, "deployment", "", "deployment name (default: configured profile)")
	return cmd
}

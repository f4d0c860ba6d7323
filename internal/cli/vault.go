package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/internal/contracts"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// txCmd builds a transaction subcommand: parse args, then send.
func (a *app) txCmd(use, short string, args cobra.PositionalArgs, defaultFrom string,
	fn func(c *call, args []string) (*chain.Receipt, error)) *cobra.Command {
	f := &txFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			return a.transact(cmd, f, func(c *call) (*chain.Receipt, error) {
				return fn(c, argv)
			})
		},
	}
	addTxFlags(cmd, f, defaultFrom)
	return cmd
}

func newVaultCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Mint, redeem and swap punks through the vault",
	}
	cmd.AddCommand(
		a.txCmd("mint <punk>", "Deposit an offered punk and mint one unit", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				id, err := parseUint(args[0], "punk index")
				if err != nil {
					return nil, err
				}
				return c.d.Vault.MintPunk(c.ctx(), c.opts, id)
			}),
		a.txCmd("mint-multiple <punk>...", "Deposit several offered punks", cobra.MinimumNArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				ids, err := parseIDs(args)
				if err != nil {
					return nil, err
				}
				return c.d.Vault.MintPunkMultiple(c.ctx(), c.opts, ids)
			}),
		a.txCmd("redeem", "Burn one unit for a reserve punk", cobra.NoArgs, "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				return c.d.Vault.RedeemPunk(c.ctx(), c.opts)
			}),
		a.txCmd("redeem-multiple <count>", "Burn units for several reserve punks", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				n, err := parseUint(args[0], "count")
				if err != nil {
					return nil, err
				}
				return c.d.Vault.RedeemPunkMultiple(c.ctx(), c.opts, n)
			}),
		a.txCmd("swap <punk>", "Swap an offered punk for a reserve punk", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				id, err := parseUint(args[0], "punk index")
				if err != nil {
					return nil, err
				}
				return c.d.Vault.MintAndRedeem(c.ctx(), c.opts, id)
			}),
		a.txCmd("swap-multiple <punk>...", "Swap several offered punks", cobra.MinimumNArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				ids, err := parseIDs(args)
				if err != nil {
					return nil, err
				}
				return c.d.Vault.MintAndRedeemMultiple(c.ctx(), c.opts, ids)
			}),
		a.txCmd("direct-redeem <punk> <to>", "Redeem a chosen punk (controllers only)", cobra.ExactArgs(2), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				id, err := parseUint(args[0], "punk index")
				if err != nil {
					return nil, err
				}
				to, err := c.account(args[1])
				if err != nil {
					return nil, err
				}
				return c.d.Vault.DirectRedeem(c.ctx(), c.opts, id, to)
			}),
		a.txCmd("simple-redeem", "Redeem the first reserve punk while paused", cobra.NoArgs, "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				return c.d.Vault.SimpleRedeem(c.ctx(), c.opts)
			}),
		newVaultStatusCmd(a),
	)
	return cmd
}

func newVaultStatusCmd(a *app) *cobra.Command {
	var deployment string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show vault flags, timelocks, fees and reserves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withLedger(ctx, false, func(l *ledger) error {
				d, err := l.deployment(ctx, a.deploymentName(deployment))
				if err != nil {
					return err
				}
				st := d.Vault.Status()
				return a.emit(st, func(w io.Writer) error {
					return printVaultStatus(w, l, st)
				})
			})
		},
	}
	cmd.Flags().StringVar(&deployment, "deployment", "", "deployment name (default: configured profile)")
	return cmd
}

func printVaultStatus(w io.Writer, l *ledger, st contracts.VaultStatus) error {
	rows := [][]string{
		{"vault", st.Address.Hex()},
		{"owner", displayName(l, st.Owner)},
		{"paused", fmt.Sprint(st.Paused)},
		{"safe mode", fmt.Sprint(st.SafeMode)},
		{"security level", fmt.Sprint(st.SecurityLevel)},
	}
	for s := types.Slot(0); s < types.NumSlots; s++ {
		state := "locked"
		if st.Unlocked[s] {
			state = "unlocked"
		} else if st.UnlockAt[s] != "" {
			state = "unlocks at " + st.UnlockAt[s]
		}
		rows = append(rows, []string{"timelock " + s.String(), state})
	}
	rows = append(rows,
		[]string{"mint fees", feeString(st.MintFees)},
		[]string{"burn fees", feeString(st.BurnFees)},
		[]string{"dual fees", feeString(st.DualFees)},
		[]string{"fees collected", types.FormatUnits(st.FeesCollected, types.NativeDecimals) + " ether"},
		[]string{"reserves", fmt.Sprint(len(st.Reserves))},
	)
	return table(w, append([][]string{{"field", "value"}}, rows...))
}

func feeString(f types.FeeSchedule) string {
	parts := make([]string, 0, 3)
	for _, v := range f.Values() {
		parts = append(parts, v.Dec())
	}
	return strings.Join(parts, " / ")
}

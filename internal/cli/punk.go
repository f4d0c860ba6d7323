package cli

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/internal/contracts"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

func newPunkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "punk",
		Short: "Assign, offer, buy and transfer punks on the market",
	}
	cmd.AddCommand(
		newAssignCmd(a),
		newOfferCmd(a),
		a.txCmd("withdraw-offer <punk>", "Take a punk off sale", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				id, err := parseUint(args[0], "punk index")
				if err != nil {
					return nil, err
				}
				return c.d.Market.PunkNoLongerForSale(c.ctx(), c.opts, id)
			}),
		a.txCmd("buy <punk>", "Buy an offered punk; pay with --value", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				id, err := parseUint(args[0], "punk index")
				if err != nil {
					return nil, err
				}
				return c.d.Market.BuyPunk(c.ctx(), c.opts, id)
			}),
		a.txCmd("withdraw", "Collect pending sale proceeds", cobra.NoArgs, "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				return c.d.Market.Withdraw(c.ctx(), c.opts)
			}),
		a.txCmd("transfer <punk> <to>", "Give a punk to another account", cobra.ExactArgs(2), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				id, err := parseUint(args[0], "punk index")
				if err != nil {
					return nil, err
				}
				to, err := c.account(args[1])
				if err != nil {
					return nil, err
				}
				return c.d.Market.TransferPunk(c.ctx(), c.opts, to, id)
			}),
		newPunkShowCmd(a),
	)
	return cmd
}

func newAssignCmd(a *app) *cobra.Command {
	var to string
	cmd := a.txCmd("assign <punk>...", "Assign initial punk owners (market deployer only)", cobra.MinimumNArgs(1), "owner",
		func(c *call, args []string) (*chain.Receipt, error) {
			ids, err := parseIDs(args)
			if err != nil {
				return nil, err
			}
			recipient := c.opts.From
			if to != "" {
				if recipient, err = c.account(to); err != nil {
					return nil, err
				}
			}
			var rcpt *chain.Receipt
			for _, id := range ids {
				rcpt, err = c.d.Market.SetInitialOwner(c.ctx(), c.opts, recipient, id)
				if err != nil {
					return rcpt, err
				}
			}
			return rcpt, nil
		})
	cmd.Flags().StringVar(&to, "to", "", "recipient (default: sender)")
	return cmd
}

func newOfferCmd(a *app) *cobra.Command {
	var price, only string
	cmd := a.txCmd("offer <punk>...", "Offer punks for sale, by default to the vault at zero", cobra.MinimumNArgs(1), "owner",
		func(c *call, args []string) (*chain.Receipt, error) {
			ids, err := parseIDs(args)
			if err != nil {
				return nil, err
			}
			minPrice, err := types.ParseUnits(price, types.NativeDecimals)
			if err != nil {
				return nil, err
			}
			var rcpt *chain.Receipt
			for _, id := range ids {
				if only == "" || only == "any" {
					rcpt, err = c.d.Market.OfferPunkForSale(c.ctx(), c.opts, id, minPrice)
				} else {
					buyer, aerr := c.account(only)
					if aerr != nil {
						return nil, aerr
					}
					rcpt, err = c.d.Market.OfferPunkForSaleToAddress(c.ctx(), c.opts, id, minPrice, buyer)
				}
				if err != nil {
					return rcpt, err
				}
			}
			return rcpt, nil
		})
	cmd.Flags().StringVar(&price, "price", "0", "minimum price in ether")
	cmd.Flags().StringVar(&only, "only", "vault", `only buyer allowed; "any" for an open offer`)
	return cmd
}

type punkView struct {
	Index uint64          `json:"index"`
	Owner string          `json:"owner"`
	Offer contracts.Offer `json:"offer"`
}

func newPunkShowCmd(a *app) *cobra.Command {
	var deployment string
	cmd := &cobra.Command{
		Use:   "show <punk>",
		Short: "Show a punk's owner and offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUint(args[0], "punk index")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withLedger(ctx, false, func(l *ledger) error {
				d, err := l.deployment(ctx, a.deploymentName(deployment))
				if err != nil {
					return err
				}
				v := punkView{
					Index: id,
					Owner: displayName(l, d.Market.PunkIndexToAddress(id)),
					Offer: d.Market.PunksOfferedForSale(id),
				}
				return a.emit(v, func(w io.Writer) error {
					fmt.Fprintf(w, "punk %d owned by %s\n", v.Index, v.Owner)
					if !v.Offer.IsForSale {
						_, err := fmt.Fprintln(w, "not for sale")
						return err
					}
					buyer := "anyone"
					if v.Offer.OnlySellTo != (common.Address{}) {
						buyer = displayName(l, v.Offer.OnlySellTo)
					}
					_, err := fmt.Fprintf(w, "offered to %s for %s ether\n", buyer,
						types.FormatUnits(v.Offer.MinValue, types.NativeDecimals))
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&deployment, "deployment", "", "deployment name (default: configured profile)")
	return cmd
}

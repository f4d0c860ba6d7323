package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/internal/sqlite"
)

func newChainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Inspect and move the simulated ledger",
	}
	cmd.AddCommand(newAdvanceCmd(a), newHeadCmd(a), newReceiptsCmd(a), newExportCmd(a))
	return cmd
}

func newAdvanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <duration>",
		Short: "Move ledger time forward (e.g. 90s, 25h)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[0])
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid duration %q", args[0])
			}
			return a.withLedger(cmd.Context(), true, func(l *ledger) error {
				l.chain.IncreaseTime(d)
				_, err := fmt.Fprintf(a.out, "ledger time is now %s\n", l.chain.Now().Format(time.RFC3339))
				return err
			})
		},
	}
}

func newHeadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "head",
		Short: "Show the latest block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), false, func(l *ledger) error {
				head := l.chain.Head()
				return a.emit(head, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "block %d %s at %s\n",
						head.Number, head.Hash.Hex(), head.Time.Format(time.RFC3339))
					return err
				})
			})
		},
	}
}

func newReceiptsCmd(a *app) *cobra.Command {
	var (
		method, from, to, status string
		file                     string
		limit                    int
	)
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "List stored transaction receipts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if file != "" {
				rcpts, err := sqlite.ReadReceiptsFile(file)
				if err != nil {
					return err
				}
				return a.emit(rcpts, func(w io.Writer) error {
					return receiptTable(w, rcpts, func(addr common.Address) string { return addr.Hex() })
				})
			}
			return a.withLedger(ctx, false, func(l *ledger) error {
				filter := sqlite.ReceiptFilter{Method: method, Status: status, Limit: limit}
				// Contract names resolve only when the default deployment exists.
				d, _ := l.deployment(ctx, a.deploymentName(""))
				var err error
				if from != "" {
					if filter.From, err = l.account(from, d); err != nil {
						return err
					}
				}
				if to != "" {
					if filter.To, err = l.account(to, d); err != nil {
						return err
					}
				}
				rcpts, err := l.store.Receipts(ctx, filter)
				if err != nil {
					return sysErr(err)
				}
				return a.emit(rcpts, func(w io.Writer) error {
					return receiptTable(w, rcpts, func(addr common.Address) string { return displayName(l, addr) })
				})
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "only receipts of this method")
	cmd.Flags().StringVar(&from, "from", "", "only receipts sent by this account")
	cmd.Flags().StringVar(&to, "to", "", "only receipts sent to this account (address or label)")
	cmd.Flags().StringVar(&status, "status", "", fmt.Sprintf("%s or %s", chain.StatusSuccess, chain.StatusReverted))
	cmd.Flags().IntVar(&limit, "limit", 0, "keep only the most recent N")
	cmd.Flags().StringVar(&file, "file", "", "read an exported receipts.jsonl instead of the ledger; filters do not apply")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write every receipt to receipts.jsonl in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withLedger(ctx, false, func(l *ledger) error {
				path, err := l.store.ExportReceipts(ctx)
				if err != nil {
					return sysErr(err)
				}
				return a.emit(map[string]string{"path": path}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, path)
					return err
				})
			})
		},
	}
}

func receiptTable(w io.Writer, rcpts []*chain.Receipt, name func(common.Address) string) error {
	rows := [][]string{{"block", "status", "method", "from", "to"}}
	for _, r := range rcpts {
		rows = append(rows, []string{fmt.Sprint(r.Block), r.Status, r.Method, name(r.From), name(r.To)})
	}
	return table(w, rows)
}

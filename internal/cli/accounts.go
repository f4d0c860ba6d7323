package cli

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/internal/scenario"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

type accountRow struct {
	Label    string         `json:"label,omitempty"`
	Address  common.Address `json:"address"`
	Balance  string         `json:"balance"`
	Nonce    uint64         `json:"nonce"`
	Contract string         `json:"contract,omitempty"`
}

func newAccountsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List accounts with native balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), false, func(l *ledger) error {
				var rows []accountRow
				for _, info := range l.chain.Accounts() {
					rows = append(rows, accountRow{
						Label:    info.Label,
						Address:  info.Address,
						Balance:  types.FormatUnits(info.Balance, types.NativeDecimals),
						Nonce:    info.Nonce,
						Contract: info.Contract,
					})
				}
				return a.emit(rows, func(w io.Writer) error {
					data := [][]string{{"label", "address", "ether", "nonce", "contract"}}
					for _, r := range rows {
						data = append(data, []string{r.Label, r.Address.Hex(), r.Balance, fmt.Sprint(r.Nonce), r.Contract})
					}
					return table(w, data)
				})
			})
		},
	}
}

// displayName returns the account label, or the hex address when unlabelled.
func displayName(l *ledger, addr common.Address) string {
	if label := l.chain.Label(addr); label != "" {
		return label
	}
	return addr.Hex()
}

// signerHolders lists labelled externally owned accounts.
func signerHolders(c *chain.Chain) []scenario.Holder {
	var out []scenario.Holder
	for _, info := range c.Accounts() {
		if info.Contract == "" && info.Label != "" {
			out = append(out, scenario.Holder{Label: info.Label, Address: info.Address})
		}
	}
	return out
}

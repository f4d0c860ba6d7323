package scenario

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pterm/pterm"

	"github.com/mesh-intelligence/xvault/internal/contracts"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// Holder is an account whose token balance is reconciled against supply.
type Holder struct {
	Label   string
	Address common.Address
}

// HolderBalance is one holder's token balance.
type HolderBalance struct {
	Holder
	Balance *uint256.Int
}

// Report is the outcome of CheckBalances.
type Report struct {
	Holders           []HolderBalance
	VaultTokenBalance *uint256.Int
	TotalSupply       *uint256.Int
	VaultNFTs         uint64

	// Correct holds when the vault has no token balance, the holders own
	// the whole supply and every unit is backed by a punk in the vault.
	Correct bool
}

// SupplyReconciled reports whether the holders own the whole supply and
// the vault owns none of it, ignoring NFT backing.
func (r *Report) SupplyReconciled() bool {
	sum := new(uint256.Int)
	for _, h := range r.Holders {
		sum.Add(sum, h.Balance)
	}
	return r.VaultTokenBalance.IsZero() && sum.Eq(r.TotalSupply)
}

// Backed reports whether total supply in units equals the vault's punks.
func (r *Report) Backed() bool {
	units := new(uint256.Int).Div(r.TotalSupply, types.Unit())
	return units.IsUint64() && units.Uint64() == r.VaultNFTs
}

// CheckBalances reads the token balances of holders and the vault and
// reconciles them against the supply and the vault's punk count.
func CheckBalances(token *contracts.XTokenBinding, market *contracts.MarketBinding, vault common.Address, holders []Holder) *Report {
	r := &Report{
		VaultTokenBalance: token.BalanceOf(vault),
		TotalSupply:       token.TotalSupply(),
		VaultNFTs:         market.BalanceOf(vault),
	}
	for _, h := range holders {
		r.Holders = append(r.Holders, HolderBalance{Holder: h, Balance: token.BalanceOf(h.Address)})
	}
	r.Correct = r.SupplyReconciled() && r.Backed()
	return r
}

// Render formats the report as two tables: token balances and punks held
// by the vault.
func (r *Report) Render() (string, error) {
	erc20 := pterm.TableData{{"ERC20", "balance"}}
	for _, h := range r.Holders {
		erc20 = append(erc20, []string{h.Label, h.Balance.Dec()})
	}
	erc20 = append(erc20,
		[]string{"vault", r.VaultTokenBalance.Dec()},
		[]string{"totalSupply", r.TotalSupply.Dec()},
	)
	top, err := pterm.DefaultTable.WithHasHeader().WithData(erc20).Srender()
	if err != nil {
		return "", err
	}
	erc721 := pterm.TableData{{"ERC721", "punks"}, {"vault", fmt.Sprint(r.VaultNFTs)}}
	bottom, err := pterm.DefaultTable.WithHasHeader().WithData(erc721).Srender()
	if err != nil {
		return "", err
	}
	return top + "\n\n" + bottom + "\n", nil
}

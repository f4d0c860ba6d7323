package cli

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/xvault/internal/deploy"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

func newDeployCmd(a *app) *cobra.Command {
	var (
		profile    string
		name       string
		from       string
		governance string
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy market, token and vault with a profile",
		Long: `Deploy runs one of the deployment profiles and records the resulting
contract addresses under a name (default: the profile).

Profiles:
  local    market, XToken and XVault; token owned by the vault
  testnet  local plus a raised security level and governance ownership
  mainnet  PunkToken and PunkVault bound to the market at the mainnet address`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if profile == "" {
				profile = a.settings.Profile
			}
			if governance == "" {
				governance = a.settings.Governance
			}
			if !common.IsHexAddress(governance) {
				return fmt.Errorf("invalid governance address %q", governance)
			}
			ctx := cmd.Context()
			return a.withLedger(ctx, true, func(l *ledger) error {
				deployer, err := l.account(from, nil)
				if err != nil {
					return err
				}
				res, err := deploy.Run(ctx, l.chain, deploy.Options{
					Profile:    profile,
					Name:       name,
					Deployer:   deployer,
					Governance: common.HexToAddress(governance),
					Logger:     a.log,
				})
				if err != nil {
					return err
				}
				if err := l.store.SaveDeployment(ctx, res.Deployment); err != nil {
					return sysErr(err)
				}
				return a.emit(res.Deployment, func(w io.Writer) error {
					return printDeployment(w, res.Deployment)
				})
			})
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "deploy profile: local, testnet or mainnet (default from config.yaml)")
	cmd.Flags().StringVar(&name, "name", "", "deployment name (default: the profile)")
	cmd.Flags().StringVar(&from, "from", "owner", "deployer: signer label, index or address")
	cmd.Flags().StringVar(&governance, "governance", "", "governance address for the testnet profile")
	return cmd
}

func printDeployment(w io.Writer, d types.Deployment) error {
	return table(w, [][]string{
		{"deployment", d.Name},
		{"profile", d.Profile},
		{"deployer", d.Deployer.Hex()},
		{"market", d.Market.Hex()},
		{"token", d.Token.Hex()},
		{"vault", d.Vault.Hex()},
		{"block", fmt.Sprint(d.Block)},
	})
}

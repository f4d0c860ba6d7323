package cli

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/internal/contracts"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

func newGovernCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "govern",
		Short: "Owner and controller operations on the vault",
		Long: `Govern sends the vault's owner-only transactions. Some of them need a
timelock slot unlocked first (govern unlock <slot>, then wait):

  short   mint-retro, redeem-retro
  medium  rename, symbol, mint and dual fees, integrator, controller
  long    burn fees, migrate, withdraw-fees

Pause, safe mode, security level and ownership transfer take effect at once.`,
	}
	cmd.AddCommand(
		a.txCmd("unlock <slot>", "Start the unlock countdown for a timelock slot", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				slot, err := types.ParseSlot(args[0])
				if err != nil {
					return nil, err
				}
				return c.d.Vault.InitiateUnlock(c.ctx(), c.opts, slot)
			}),
		a.txCmd("lock <slot>", "Relock a timelock slot", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				slot, err := types.ParseSlot(args[0])
				if err != nil {
					return nil, err
				}
				return c.d.Vault.Lock(c.ctx(), c.opts, slot)
			}),
		a.txCmd("security-level", "Raise the security level by one", cobra.NoArgs, "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				return c.d.Vault.IncreaseSecurityLevel(c.ctx(), c.opts)
			}),
		a.txCmd("safe-mode <on|off>", "Turn safe mode on or off", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				switch args[0] {
				case "on":
					return c.d.Vault.TurnOnSafeMode(c.ctx(), c.opts)
				case "off":
					return c.d.Vault.TurnOffSafeMode(c.ctx(), c.opts)
				}
				return nil, fmt.Errorf("safe-mode takes on or off, got %q", args[0])
			}),
		a.txCmd("pause", "Pause minting and redeeming", cobra.NoArgs, "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				return c.d.Vault.Pause(c.ctx(), c.opts)
			}),
		a.txCmd("unpause", "Resume minting and redeeming", cobra.NoArgs, "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				return c.d.Vault.Unpause(c.ctx(), c.opts)
			}),
		a.txCmd("rename <name>", "Change the token name", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				return c.d.Vault.ChangeTokenName(c.ctx(), c.opts, args[0])
			}),
		a.txCmd("symbol <symbol>", "Change the token symbol", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				return c.d.Vault.ChangeTokenSymbol(c.ctx(), c.opts, args[0])
			}),
		newFeesCmd(a),
		a.txCmd("integrator <address> <true|false>", "Add or remove a fee-exempt integrator", cobra.ExactArgs(2), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				addr, on, err := allowArgs(c, args)
				if err != nil {
					return nil, err
				}
				return c.d.Vault.SetIntegrator(c.ctx(), c.opts, addr, on)
			}),
		a.txCmd("controller <address> <true|false>", "Add or remove a controller", cobra.ExactArgs(2), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				addr, on, err := allowArgs(c, args)
				if err != nil {
					return nil, err
				}
				return c.d.Vault.SetController(c.ctx(), c.opts, addr, on)
			}),
		a.txCmd("migrate <to>", "Move every reserve punk and the token to another owner", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				to, err := c.account(args[0])
				if err != nil {
					return nil, err
				}
				return c.d.Vault.Migrate(c.ctx(), c.opts, to)
			}),
		a.txCmd("transfer-ownership <to>", "Hand vault ownership to another account", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				to, err := c.account(args[0])
				if err != nil {
					return nil, err
				}
				return c.d.Vault.TransferOwnership(c.ctx(), c.opts, to)
			}),
		a.txCmd("withdraw-fees <to>", "Send collected fees to an account", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				to, err := c.account(args[0])
				if err != nil {
					return nil, err
				}
				return c.d.Vault.WithdrawFees(c.ctx(), c.opts, to)
			}),
		a.txCmd("mint-retro <punk> <to>", "Mint a unit for a punk already held by the vault", cobra.ExactArgs(2), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				id, err := parseUint(args[0], "punk index")
				if err != nil {
					return nil, err
				}
				to, err := c.account(args[1])
				if err != nil {
					return nil, err
				}
				return c.d.Vault.MintRetroactively(c.ctx(), c.opts, id, to)
			}),
		a.txCmd("redeem-retro <to>", "Burn the caller's unit for a punk sent to another account", cobra.ExactArgs(1), "owner",
			func(c *call, args []string) (*chain.Receipt, error) {
				to, err := c.account(args[0])
				if err != nil {
					return nil, err
				}
				return c.d.Vault.RedeemRetroactively(c.ctx(), c.opts, to)
			}),
	)
	return cmd
}

func newFeesCmd(a *app) *cobra.Command {
	return a.txCmd("fees <mint|burn|dual> <base> <step> <threshold>",
		"Set a fee schedule, in wei", cobra.ExactArgs(4), "owner",
		func(c *call, args []string) (*chain.Receipt, error) {
			switch args[0] {
			case contracts.FeesMint, contracts.FeesBurn, contracts.FeesDual:
			default:
				return nil, fmt.Errorf("unknown fee schedule %q", args[0])
			}
			values := make([]*uint256.Int, 0, 3)
			for _, s := range args[1:] {
				v, err := types.ParseWei(s)
				if err != nil {
					return nil, err
				}
				values = append(values, v)
			}
			return c.d.Vault.SetFees(c.ctx(), c.opts, args[0], values)
		})
}

func allowArgs(c *call, args []string) (common.Address, bool, error) {
	addr, err := c.account(args[0])
	if err != nil {
		return common.Address{}, false, err
	}
	on, err := strconv.ParseBool(args[1])
	if err != nil {
		return common.Address{}, false, fmt.Errorf("invalid flag %q", args[1])
	}
	return addr, on, nil
}

// Package cli implements the vaultctl command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/xvault/internal/logging"
	"github.com/mesh-intelligence/xvault/internal/paths"
	"github.com/mesh-intelligence/xvault/pkg/types"
	"github.com/mesh-intelligence/xvault/pkg/xvault"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

var flags rootFlags

// app is the state shared by subcommands once the root pre-run has
// resolved configuration.
type app struct {
	settings *settings
	log      *zap.Logger
	logClose io.Closer
	out      io.Writer
}

// NewRootCmd creates the top-level "vaultctl" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:     "vaultctl",
		Short:   "Deploy and operate an NFT vault on a local ledger",
		Long:    "vaultctl deploys a punk market, a fungible token and a vault that swaps\none punk for one token unit, then drives them from the command line.",
		Version: xvault.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: $(CWD)/"+paths.DefaultConfigDirName+")")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config.yaml)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newDeployCmd(a),
		newDeploymentsCmd(a),
		newAccountsCmd(a),
		newBalancesCmd(a),
		newScenarioCmd(a),
		newVaultCmd(a),
		newGovernCmd(a),
		newPunkCmd(a),
		newTokenCmd(a),
		newChainCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysErr(err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysErr(err)
	}
	s, err := resolveSettings(v, configDir)
	if err != nil {
		return err
	}
	log, closer, err := logging.New(s.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.settings = s
	a.log = log
	a.logClose = closer
	a.log.Debug("configuration resolved",
		zap.String("config_dir", s.ConfigDir),
		zap.String("data_dir", s.DataDir),
		zap.String("profile", s.Profile),
	)
	return nil
}

func (a *app) teardown() error {
	_ = a.log.Sync()
	if a.logClose != nil {
		return a.logClose.Close()
	}
	return nil
}

// sysError marks failures of the environment (storage, files) rather than
// of the request.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func sysErr(err error) error {
	if err == nil {
		return nil
	}
	return &sysError{err: err}
}

// exitCode maps an error to the process exit status. Reverts and invalid
// input are user errors; storage and filesystem failures are system errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *sysError
	if errors.As(err, &se) && !types.IsRevert(err) {
		return exitSysError
	}
	return exitUserError
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

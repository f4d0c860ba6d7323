package types

import "errors"

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}

// GenesisConfig describes the accounts a fresh ledger starts with.
type GenesisConfig struct {
	// Signers is the number of deterministic signer accounts to create.
	Signers int `json:"signers" yaml:"signers"`

	// Balance is the native balance of each signer, in whole ether.
	Balance string `json:"balance" yaml:"balance"`
}

// Genesis validation errors.
var (
	ErrTooFewSigners  = errors.New("at least one signer is required")
	ErrInvalidBalance = errors.New("invalid genesis balance")
)

// MaxSigners bounds the number of derived signer accounts.
const MaxSigners = 64

// Validate checks the signer count and that Balance parses as a
// non-negative amount.
func (g GenesisConfig) Validate() error {
	if g.Signers < 1 || g.Signers > MaxSigners {
		return ErrTooFewSigners
	}
	if _, err := ParseUnits(g.Balance, NativeDecimals); err != nil {
		return ErrInvalidBalance
	}
	return nil
}

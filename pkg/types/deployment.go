package types

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Deploy profiles. Each reproduces one deployment sequence.
const (
	ProfileLocal   = "local"
	ProfileTestnet = "testnet"
	ProfileMainnet = "mainnet"
)

// KnownProfiles lists the accepted deploy profiles.
var KnownProfiles = []string{ProfileLocal, ProfileTestnet, ProfileMainnet}

// ErrUnknownProfile is returned for a profile name outside KnownProfiles.
var ErrUnknownProfile = errors.New("unknown deploy profile")

// ValidProfile reports whether name is a known deploy profile.
func ValidProfile(name string) bool {
	for _, p := range KnownProfiles {
		if p == name {
			return true
		}
	}
	return false
}

// Well-known addresses used by the deploy profiles.
var (
	// MainnetPunksAddress is the CryptoPunksMarket address the mainnet
	// profile binds its vault to.
	MainnetPunksAddress = common.HexToAddress("0xb47e3cd837dDF8e4c57F05d70Ab865de6e193BBB")

	// DefaultGovernanceAddress receives vault ownership in the testnet profile.
	DefaultGovernanceAddress = common.HexToAddress("0x71D30468Ae4b9B9F931d076e21D1139D44199999")
)

// Deployment records the contracts produced by one deploy run.
type Deployment struct {
	Name      string         `json:"name"`
	Profile   string         `json:"profile"`
	Deployer  common.Address `json:"deployer"`
	Market    common.Address `json:"market"`
	Token     common.Address `json:"token"`
	Vault     common.Address `json:"vault"`
	Block     uint64         `json:"block"`
	CreatedAt time.Time      `json:"created_at"`
}

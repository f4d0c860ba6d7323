// Package xvault holds build metadata for the vaultctl binary.
package xvault

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/mesh-intelligence/xvault/pkg/xvault.Version=...".
var Version = "0.1.0"

// ModulePath is the Go module path of this repository.
const ModulePath = "github.com/mesh-intelligence/xvault"

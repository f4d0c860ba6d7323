//go:build mage

// Package main provides build targets for the xvault project using Mage.
//
// Usage:
//
//	mage build            Compile vaultctl to bin/ (XVAULT_VERSION stamps the version)
//	mage test:all         Run every test
//	mage test:unit        Run tests with -short
//	mage test:cover       Write coverage.out and print the per-function summary
//	mage test:race        Run every test with the race detector
//	mage scenario         Build, then run the end-to-end vault scenario
//	mage lint             Run golangci-lint
//	mage clean            Remove build artifacts
//	mage install          Install vaultctl to GOPATH/bin
package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Scenario builds vaultctl and runs every vault stage on a throwaway ledger.
func Scenario() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binaryDir, binaryName), "scenario", "run", "-v")
}

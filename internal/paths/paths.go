// Package paths resolves the vaultctl configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
)

// Directory names used when nothing overrides them. Both are relative to
// the working directory so a ledger lives next to the project using it.
const (
	DefaultConfigDirName = ".xvault"
	DefaultDataDirName   = ".xvault-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "XVAULT_CONFIG_DIR"
	EnvDataDir   = "XVAULT_DATA_DIR"
)

// File names inside the resolved directories.
const (
	ConfigFileName = "config.yaml"
	LogFileName    = "vaultctl.log"
)

// getwd is replaced in tests.
var getwd = os.Getwd

// resolve returns the first non-empty candidate as an absolute path, or
// fallback joined to the working directory.
func resolve(fallback string, candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	cwd, err := getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, fallback), nil
}

// ResolveConfigDir applies flag > XVAULT_CONFIG_DIR > ./.xvault.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDirName, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir applies flag > data_dir from config.yaml >
// XVAULT_DATA_DIR > ./.xvault-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(DefaultDataDirName, flag, configValue, os.Getenv(EnvDataDir))
}

// ConfigFile is the config.yaml path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// LogFile is the default rotated log path inside dataDir.
func LogFile(dataDir string) string {
	return filepath.Join(dataDir, "logs", LogFileName)
}

// Ensure creates each directory if it does not exist.
func Ensure(dirs ...string) error {
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

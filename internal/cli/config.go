package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/xvault/internal/logging"
	"github.com/mesh-intelligence/xvault/internal/paths"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// Config keys in config.yaml.
const (
	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyProfile         = "profile"
	cfgKeyGovernance      = "governance_address"
	cfgKeySigners         = "signers"
	cfgKeyGenesisBalance  = "genesis_balance"
	cfgKeyLogLevel        = "log.level"
	cfgKeyLogFile         = "log.file"
	cfgKeyLogMaxSizeMB    = "log.max_size_mb"
	cfgKeyLogMaxBackups   = "log.max_backups"
	cfgKeyLogMaxAgeDays   = "log.max_age_days"
	defaultSigners        = 4
	defaultGenesisBalance = "10000"

	// logFileOff in log.file disables the file sink. An empty value
	// selects logs/vaultctl.log inside the data directory.
	logFileOff = "-"
)

// configFile is the structure written to config.yaml on first run.
type configFile struct {
	Backend           string         `yaml:"backend"`
	DataDir           string         `yaml:"data_dir,omitempty"`
	Profile           string         `yaml:"profile"`
	GovernanceAddress string         `yaml:"governance_address"`
	Signers           int            `yaml:"signers"`
	GenesisBalance    string         `yaml:"genesis_balance"`
	Log               logging.Config `yaml:"log"`
}

func defaultConfigFile() configFile {
	return configFile{
		Backend:           types.BackendSQLite,
		Profile:           types.ProfileLocal,
		GovernanceAddress: types.DefaultGovernanceAddress.Hex(),
		Signers:           defaultSigners,
		GenesisBalance:    defaultGenesisBalance,
		Log: logging.Config{
			Level:      logging.DefaultLevel,
			MaxSizeMB:  logging.DefaultMaxSizeMB,
			MaxBackups: logging.DefaultMaxBackups,
			MaxAgeDays: logging.DefaultMaxAgeDays,
		},
	}
}

// settings is the resolved configuration for one command invocation.
type settings struct {
	ConfigDir  string
	DataDir    string
	Store      types.Config
	Profile    string
	Governance string
	Genesis    types.GenesisConfig
	Log        logging.Config
}

// loadConfig reads config.yaml from configDir with viper, creating the
// directory and a default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := paths.Ensure(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := writeConfigIfMissing(paths.ConfigFile(configDir)); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	def := defaultConfigFile()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyProfile, def.Profile)
	v.SetDefault(cfgKeyGovernance, def.GovernanceAddress)
	v.SetDefault(cfgKeySigners, def.Signers)
	v.SetDefault(cfgKeyGenesisBalance, def.GenesisBalance)
	v.SetDefault(cfgKeyLogLevel, def.Log.Level)
	v.SetDefault(cfgKeyLogMaxSizeMB, def.Log.MaxSizeMB)
	v.SetConfigFile(paths.ConfigFile(configDir))
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist.
func writeConfigIfMissing(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# vaultctl configuration\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}

// resolveSettings merges flags, config.yaml and the environment.
func resolveSettings(v *viper.Viper, configDir string) (*settings, error) {
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, err
	}
	s := &settings{
		ConfigDir:  configDir,
		DataDir:    dataDir,
		Store:      types.Config{Backend: v.GetString(cfgKeyBackend), DataDir: dataDir},
		Profile:    v.GetString(cfgKeyProfile),
		Governance: v.GetString(cfgKeyGovernance),
		Genesis: types.GenesisConfig{
			Signers: v.GetInt(cfgKeySigners),
			Balance: v.GetString(cfgKeyGenesisBalance),
		},
		Log: logging.Config{
			Level:      v.GetString(cfgKeyLogLevel),
			File:       v.GetString(cfgKeyLogFile),
			MaxSizeMB:  v.GetInt(cfgKeyLogMaxSizeMB),
			MaxBackups: v.GetInt(cfgKeyLogMaxBackups),
			MaxAgeDays: v.GetInt(cfgKeyLogMaxAgeDays),
		},
	}
	if flags.logLevel != "" {
		s.Log.Level = flags.logLevel
	}
	switch s.Log.File {
	case logFileOff:
		s.Log.File = ""
	case "":
		s.Log.File = paths.LogFile(dataDir)
	}
	if err := s.Store.Validate(); err != nil {
		return nil, err
	}
	if !types.ValidProfile(s.Profile) {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownProfile, s.Profile)
	}
	return s, nil
}

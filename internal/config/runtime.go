package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// RuntimeConfig carries the per-invocation settings resolved from flags,
// environment and defaults.
type RuntimeConfig struct {
	// ConfigPath is the network document passed via --config.
	ConfigPath string `mapstructure:"config"`

	// DataDir holds the progress ledger and manifests.
	DataDir string `mapstructure:"data_dir"`

	// PrivateKey is the hex-encoded deployer key (no 0x prefix required).
	PrivateKey string `mapstructure:"private_key"`

	// RPCURL overrides the network document's rpc_url when set.
	RPCURL string `mapstructure:"rpc_url"`

	// NonInteractive disables confirmation prompts.
	NonInteractive bool `mapstructure:"non_interactive"`

	// Debug enables debug logging.
	Debug bool `mapstructure:"debug"`

	// TxTimeout bounds each transaction confirmation wait.
	TxTimeout time.Duration `mapstructure:"tx_timeout"`
}

// SetupViper creates a viper instance with the VAULTSMITH_* environment
// binding and defaults.
func SetupViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("VAULTSMITH")
	v.AutomaticEnv()

	// Unmarshal only visits known keys, so every env-settable field
	// needs an explicit binding; AutomaticEnv alone is not enough.
	for _, key := range []string{
		"config",
		"data_dir",
		"private_key",
		"rpc_url",
		"non_interactive",
		"debug",
		"tx_timeout",
	} {
		v.MustBindEnv(key)
	}

	v.SetDefault("data_dir", ".vaultsmith")
	v.SetDefault("tx_timeout", 2*time.Minute)

	return v
}

// NewRuntimeConfig resolves the runtime configuration from viper.
func NewRuntimeConfig(v *viper.Viper) (*RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal runtime config: %w", err)
	}

	if !filepath.IsAbs(cfg.DataDir) {
		abs, err := filepath.Abs(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data dir: %w", err)
		}
		cfg.DataDir = abs
	}

	return &cfg, nil
}

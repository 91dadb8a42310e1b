package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeConfigReadsEnvironment(t *testing.T) {
	t.Setenv("VAULTSMITH_PRIVATE_KEY", "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	t.Setenv("VAULTSMITH_RPC_URL", "http://localhost:9545")
	t.Setenv("VAULTSMITH_DATA_DIR", t.TempDir())
	t.Setenv("VAULTSMITH_NON_INTERACTIVE", "true")
	t.Setenv("VAULTSMITH_DEBUG", "true")
	t.Setenv("VAULTSMITH_TX_TIMEOUT", "30s")

	cfg, err := NewRuntimeConfig(SetupViper())
	require.NoError(t, err)

	assert.Equal(t, "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", cfg.PrivateKey)
	assert.Equal(t, "http://localhost:9545", cfg.RPCURL)
	assert.True(t, cfg.NonInteractive)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 30*time.Second, cfg.TxTimeout)
}

func TestRuntimeConfigDefaults(t *testing.T) {
	t.Setenv("VAULTSMITH_PRIVATE_KEY", "")
	t.Setenv("VAULTSMITH_RPC_URL", "")
	t.Setenv("VAULTSMITH_DATA_DIR", "")
	t.Setenv("VAULTSMITH_TX_TIMEOUT", "")
	t.Setenv("VAULTSMITH_NON_INTERACTIVE", "")
	t.Setenv("VAULTSMITH_DEBUG", "")

	cfg, err := NewRuntimeConfig(SetupViper())
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.TxTimeout)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.Equal(t, ".vaultsmith", filepath.Base(cfg.DataDir))
	assert.False(t, cfg.NonInteractive)
	assert.False(t, cfg.Debug)
}

func TestRuntimeConfigExplicitSetOverridesEnv(t *testing.T) {
	t.Setenv("VAULTSMITH_DEBUG", "false")

	v := SetupViper()
	v.Set("debug", "true")

	cfg, err := NewRuntimeConfig(v)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}

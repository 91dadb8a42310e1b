package ledger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/domain/models"
)

func newTestLedger(t *testing.T) (*FileLedger, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := NewFileLedger(&config.RuntimeConfig{DataDir: dir})
	require.NoError(t, err)
	return l, dir
}

func TestFileLedgerLoadMissingReturnsNil(t *testing.T) {
	l, _ := newTestLedger(t)

	progress, err := l.Load(context.Background(), "testnet")
	require.NoError(t, err)
	assert.Nil(t, progress)
}

func TestFileLedgerSaveLoadRoundTrip(t *testing.T) {
	l, dir := newTestLedger(t)

	progress := models.NewDeploymentProgress("testnet")
	progress.Shared = &models.SharedInfrastructure{
		Registry: common.HexToAddress("0x0000000000000000000000000000000000000010"),
	}
	progress.Tokens["A"] = common.HexToAddress("0x0000000000000000000000000000000000000021")
	progress.MarkCompleted("a-b", &models.VaultDeployment{
		VaultID: "a-b",
		Vault:   common.HexToAddress("0x0000000000000000000000000000000000000051"),
	})
	progress.MarkFailed("c-d")

	require.NoError(t, l.Save(context.Background(), "testnet", progress))
	assert.FileExists(t, filepath.Join(dir, "progress-testnet.json"))

	loaded, err := l.Load(context.Background(), "testnet")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "testnet", loaded.Network)
	assert.Equal(t, progress.Shared.Registry, loaded.Shared.Registry)
	assert.Equal(t, progress.Tokens["A"], loaded.Tokens["A"])
	assert.Equal(t, []string{"a-b"}, loaded.Completed)
	assert.Equal(t, []string{"c-d"}, loaded.Failed)
	require.Contains(t, loaded.Deployments, "a-b")
	assert.Equal(t, progress.Deployments["a-b"].Vault, loaded.Deployments["a-b"].Vault)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestFileLedgerSaveOverwrites(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	progress := models.NewDeploymentProgress("testnet")
	require.NoError(t, l.Save(ctx, "testnet", progress))

	progress.MarkCompleted("a-b", &models.VaultDeployment{VaultID: "a-b"})
	require.NoError(t, l.Save(ctx, "testnet", progress))

	loaded, err := l.Load(ctx, "testnet")
	require.NoError(t, err)
	assert.Equal(t, []string{"a-b"}, loaded.Completed)
}

func TestFileLedgerNetworksAreIsolated(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	one := models.NewDeploymentProgress("one")
	one.MarkCompleted("a-b", &models.VaultDeployment{VaultID: "a-b"})
	require.NoError(t, l.Save(ctx, "one", one))

	two, err := l.Load(ctx, "two")
	require.NoError(t, err)
	assert.Nil(t, two)
}

func TestFileLedgerLoadCorruptFileErrors(t *testing.T) {
	l, dir := newTestLedger(t)

	path := filepath.Join(dir, "progress-testnet.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := l.Load(context.Background(), "testnet")
	require.Error(t, err)
}

func TestFileLedgerWritesManifest(t *testing.T) {
	l, dir := newTestLedger(t)

	manifest := &models.DeploymentManifest{
		Network: "testnet",
		ChainID: 31337,
		Vaults: []*models.VaultDeployment{
			{VaultID: "a-b"},
		},
	}
	require.NoError(t, l.Write(context.Background(), manifest))

	data, err := os.ReadFile(filepath.Join(dir, "manifest-testnet.json"))
	require.NoError(t, err)

	var decoded models.DeploymentManifest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, uint64(31337), decoded.ChainID)
	require.Len(t, decoded.Vaults, 1)
	assert.Equal(t, "a-b", decoded.Vaults[0].VaultID)
}

func TestNewFileLedgerCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".vaultsmith")
	_, err := NewFileLedger(&config.RuntimeConfig{DataDir: dir})
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

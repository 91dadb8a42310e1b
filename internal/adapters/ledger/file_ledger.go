package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/domain/models"
	"github.com/vaultsmith-org/vaultsmith/internal/usecase"
)

const (
	progressFilePattern = "progress-%s.json"
	manifestFilePattern = "manifest-%s.json"
)

// FileLedger stores deployment progress and manifests as JSON files in
// the data directory, one pair of files per network. Writes are full
// synchronous overwrites; no locking is needed since a single
// orchestrator instance per run is assumed.
type FileLedger struct {
	dir string
}

// NewFileLedger creates the data directory and returns the ledger.
func NewFileLedger(cfg *config.RuntimeConfig) (*FileLedger, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileLedger{dir: cfg.DataDir}, nil
}

// Load reads the progress record for a network. A missing record
// returns (nil, nil).
func (l *FileLedger) Load(ctx context.Context, network string) (*models.DeploymentProgress, error) {
	data, err := os.ReadFile(l.progressPath(network))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	var progress models.DeploymentProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	return &progress, nil
}

// Save overwrites the progress record for a network.
func (l *FileLedger) Save(ctx context.Context, network string, progress *models.DeploymentProgress) error {
	progress.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := os.WriteFile(l.progressPath(network), data, 0644); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	return nil
}

// Write emits the final manifest for a network, superseding any prior
// manifest.
func (l *FileLedger) Write(ctx context.Context, manifest *models.DeploymentManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	path := filepath.Join(l.dir, fmt.Sprintf(manifestFilePattern, manifest.Network))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

func (l *FileLedger) progressPath(network string) string {
	return filepath.Join(l.dir, fmt.Sprintf(progressFilePattern, network))
}

var (
	_ usecase.ProgressLedger = (*FileLedger)(nil)
	_ usecase.ManifestWriter = (*FileLedger)(nil)
)

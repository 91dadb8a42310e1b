package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/domain/models"
)

// RunState is the orchestrator's coarse state. It advances strictly
// forward: Init → SharedInfraReady → TokensReady → Summarized, with the
// per-vault Pending/Deploying/Completed/Failed cycle in between.
type RunState string

const (
	StateInit             RunState = "init"
	StateSharedInfraReady RunState = "shared-infra-ready"
	StateTokensReady      RunState = "tokens-ready"
	StateSummarized       RunState = "summarized"
)

// OrchestrateVaults sequences shared infrastructure, token provisioning
// and per-vault deployment. Execution is strictly sequential: a single
// signing key's transaction ordering must be preserved, so exactly one
// submission is outstanding at a time.
type OrchestrateVaults struct {
	ledger    ProgressLedger
	manifests ManifestWriter
	chain     ChainBackend
	tokens    *TokenProvisioner
	pairs     *PairResolver
	shared    *SharedInfraDeployer
	vaults    *VaultInstantiator
	sink      ProgressSink
	log       *slog.Logger
}

// NewOrchestrateVaults creates the orchestrator use case.
func NewOrchestrateVaults(
	ledger ProgressLedger,
	manifests ManifestWriter,
	chain ChainBackend,
	tokens *TokenProvisioner,
	pairs *PairResolver,
	shared *SharedInfraDeployer,
	vaults *VaultInstantiator,
	sink ProgressSink,
	log *slog.Logger,
) *OrchestrateVaults {
	return &OrchestrateVaults{
		ledger:    ledger,
		manifests: manifests,
		chain:     chain,
		tokens:    tokens,
		pairs:     pairs,
		shared:    shared,
		vaults:    vaults,
		sink:      sink,
		log:       log,
	}
}

// OrchestrateParams contains the run flags and operator overrides.
type OrchestrateParams struct {
	Network *config.NetworkConfig

	// Resume loads the prior ledger and skips completed work.
	Resume bool

	// VaultIDs restricts the run to an explicit subset of vault ids.
	VaultIDs []string

	// FeeRecipient overrides every vault's configured fee recipient
	// when non-zero.
	FeeRecipient common.Address

	// DryRun validates and plans without touching the chain.
	DryRun bool
}

// OrchestrateResult is the outcome of a run.
type OrchestrateResult struct {
	State    RunState
	Network  string
	Planned  []string
	Skipped  []string
	Progress *models.DeploymentProgress
	Tokens   map[string]*models.DeployedToken
	Manifest *models.DeploymentManifest
}

// Run executes the deployment state machine. It returns an error only
// for configuration and prerequisite failures; per-vault failures are
// isolated, recorded in the ledger, and never abort the batch.
func (o *OrchestrateVaults) Run(ctx context.Context, params OrchestrateParams) (*OrchestrateResult, error) {
	network := params.Network
	if err := network.Validate(); err != nil {
		return nil, err
	}
	if err := validateSubset(network, params.VaultIDs); err != nil {
		return nil, err
	}

	progress, err := o.loadProgress(ctx, network.Name, params.Resume)
	if err != nil {
		return nil, err
	}

	work, skipped := o.workList(network, progress, params.VaultIDs)

	result := &OrchestrateResult{
		State:    StateInit,
		Network:  network.Name,
		Planned:  lo.Map(work, func(v config.VaultConfig, _ int) string { return v.ID }),
		Skipped:  skipped,
		Progress: progress,
	}

	if params.DryRun {
		o.sink.Info(fmt.Sprintf("dry run: %d vault(s) would be deployed", len(work)))
		return result, nil
	}

	if err := o.chain.Connect(ctx, network.RPCURL, network.ChainID); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", network.Name, err)
	}

	// Init → SharedInfraReady. A persisted snapshot is reused
	// unconditionally, guaranteeing exactly-once deployment across
	// any number of resumed runs.
	if progress.Shared == nil {
		o.emit(ctx, "shared_infra", "Deploying shared infrastructure", true)
		shared, err := o.shared.Deploy(ctx, network)
		if err != nil {
			return nil, fmt.Errorf("shared infrastructure deployment failed: %w", err)
		}
		progress.Shared = shared
		if err := o.saveProgress(ctx, progress); err != nil {
			return nil, err
		}
	} else {
		o.log.Info("reusing shared infrastructure", "registry", progress.Shared.Registry)
	}
	result.State = StateSharedInfraReady

	// SharedInfraReady → TokensReady. Token failures are fatal:
	// nothing downstream can proceed without them.
	o.emit(ctx, "tokens", "Provisioning tokens", true)
	tokens, err := o.tokens.Provision(ctx, network, progress)
	if err != nil {
		return nil, fmt.Errorf("token provisioning failed: %w", err)
	}
	if err := o.saveProgress(ctx, progress); err != nil {
		return nil, err
	}
	result.State = StateTokensReady
	result.Tokens = tokens

	// Per-vault loop. Each vault's pipeline short-circuits on its first
	// failure, but the loop itself never does.
	for idx, vault := range work {
		o.sink.OnProgress(ctx, ProgressEvent{
			Stage:   "vault_starting",
			Current: idx + 1,
			Total:   len(work),
			Message: vault.ID,
			Spinner: true,
		})

		deployment, err := o.deployVault(ctx, vault, network, progress, tokens, params.FeeRecipient)
		if err != nil {
			o.log.Error("vault deployment failed", "vault", vault.ID, "error", err)
			o.sink.Error(fmt.Sprintf("vault %s failed: %v", vault.ID, err))
			progress.MarkFailed(vault.ID)
			if saveErr := o.saveProgress(ctx, progress); saveErr != nil {
				return nil, saveErr
			}
			continue
		}

		progress.MarkCompleted(vault.ID, deployment)
		if err := o.saveProgress(ctx, progress); err != nil {
			return nil, err
		}
		o.sink.OnProgress(ctx, ProgressEvent{
			Stage:   "vault_completed",
			Current: idx + 1,
			Total:   len(work),
			Message: vault.ID,
		})
	}

	manifest := o.buildManifest(network, progress)
	if err := o.manifests.Write(ctx, manifest); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	result.Manifest = manifest
	result.State = StateSummarized

	return result, nil
}

// deployVault is the per-vault failure boundary: everything in here is
// caught by the loop above and recorded as a failure of this vault only.
func (o *OrchestrateVaults) deployVault(
	ctx context.Context,
	vault config.VaultConfig,
	network *config.NetworkConfig,
	progress *models.DeploymentProgress,
	tokens map[string]*models.DeployedToken,
	feeRecipient common.Address,
) (*models.VaultDeployment, error) {
	tokenX, ok := tokens[vault.TokenX.Symbol]
	if !ok {
		return nil, fmt.Errorf("token %s was not provisioned", vault.TokenX.Symbol)
	}
	tokenY, ok := tokens[vault.TokenY.Symbol]
	if !ok {
		return nil, fmt.Errorf("token %s was not provisioned", vault.TokenY.Symbol)
	}

	pair, err := o.pairs.Resolve(ctx, vault, tokenX, tokenY, progress.Shared, network)
	if err != nil {
		return nil, err
	}
	progress.Pairs[vault.ID] = pair.Address
	if err := o.saveProgress(ctx, progress); err != nil {
		return nil, err
	}

	if err := o.pairs.SeedLiquidity(ctx, vault, pair, progress.Shared, network); err != nil {
		return nil, err
	}

	deployment, err := o.vaults.Instantiate(ctx, vault, progress.Shared, tokenX, tokenY, pair, network, feeRecipient)
	if err != nil {
		return nil, err
	}

	entry := RegistryEntry{
		VaultID:       vault.ID,
		Vault:         deployment.Vault,
		QueueHandler:  deployment.QueueHandler,
		FeeManager:    deployment.FeeManager,
		RewardClaimer: deployment.RewardClaimer,
		TokenX:        tokenX.Address,
		TokenY:        tokenY.Address,
		Name:          vault.Name,
		Symbol:        vault.Symbol,
		Sequence:      uint64(len(progress.Completed)),
		IsProxy:       true,
	}
	if err := o.chain.RegisterVault(ctx, progress.Shared.Registry, entry); err != nil {
		return nil, fmt.Errorf("failed to register vault: %w", err)
	}

	return deployment, nil
}

// loadProgress returns the persisted record in resume mode, or a fresh
// one otherwise. A missing record in resume mode starts fresh rather
// than erroring: resuming a never-started network is just a first run.
func (o *OrchestrateVaults) loadProgress(ctx context.Context, network string, resume bool) (*models.DeploymentProgress, error) {
	if resume {
		progress, err := o.ledger.Load(ctx, network)
		if err != nil {
			return nil, fmt.Errorf("failed to load progress ledger: %w", err)
		}
		if progress != nil {
			o.log.Info("resuming from ledger",
				"network", network,
				"completed", len(progress.Completed),
				"failed", len(progress.Failed))
			return progress, nil
		}
	}
	return models.NewDeploymentProgress(network), nil
}

// workList selects the enabled vaults still to deploy: completed ids are
// excluded, failed ids are retried wholesale, and an explicit subset
// filter narrows further.
func (o *OrchestrateVaults) workList(
	network *config.NetworkConfig,
	progress *models.DeploymentProgress,
	subset []string,
) (work []config.VaultConfig, skipped []string) {
	for _, vault := range network.EnabledVaults() {
		if len(subset) > 0 && !lo.Contains(subset, vault.ID) {
			continue
		}
		if progress.IsCompleted(vault.ID) {
			skipped = append(skipped, vault.ID)
			continue
		}
		work = append(work, vault)
	}
	return work, skipped
}

func (o *OrchestrateVaults) buildManifest(network *config.NetworkConfig, progress *models.DeploymentProgress) *models.DeploymentManifest {
	manifest := &models.DeploymentManifest{
		Network:     network.Name,
		ChainID:     network.ChainID,
		GeneratedAt: time.Now(),
		Shared:      *progress.Shared,
		Tokens:      progress.Tokens,
	}
	for _, id := range progress.Completed {
		if dep, ok := progress.Deployments[id]; ok {
			manifest.Vaults = append(manifest.Vaults, dep)
		}
	}
	return manifest
}

// saveProgress performs the synchronous full overwrite after a
// milestone. A failed write is fatal: durable state must never lag in a
// way that causes duplicate work after a crash.
func (o *OrchestrateVaults) saveProgress(ctx context.Context, progress *models.DeploymentProgress) error {
	if err := o.ledger.Save(ctx, progress.Network, progress); err != nil {
		return fmt.Errorf("failed to persist progress: %w", err)
	}
	return nil
}

func (o *OrchestrateVaults) emit(ctx context.Context, stage, message string, spinner bool) {
	o.sink.OnProgress(ctx, ProgressEvent{Stage: stage, Message: message, Spinner: spinner})
}

func validateSubset(network *config.NetworkConfig, subset []string) error {
	if len(subset) == 0 {
		return nil
	}
	enabled := lo.Map(network.EnabledVaults(), func(v config.VaultConfig, _ int) string { return v.ID })
	for _, id := range subset {
		if !lo.Contains(enabled, id) {
			return fmt.Errorf("requested vault %q is not an enabled vault of network %s", id, network.Name)
		}
	}
	return nil
}

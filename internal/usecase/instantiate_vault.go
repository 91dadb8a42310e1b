package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/domain/models"
)

// defaultIDSlippage is the price-id movement the reward claimer accepts
// between quote and execution when compounding rewards.
const defaultIDSlippage uint32 = 5

// VaultInstantiator deploys one vault's full contract set and
// consolidates administrative control into the vault itself.
type VaultInstantiator struct {
	chain ChainBackend
	log   *slog.Logger
}

// NewVaultInstantiator creates a new VaultInstantiator.
func NewVaultInstantiator(chain ChainBackend, log *slog.Logger) *VaultInstantiator {
	return &VaultInstantiator{chain: chain, log: log}
}

// Instantiate runs the strict, dependency-ordered vault pipeline: queue
// handler, fee manager, reward-hook probe, reward claimer, main vault,
// then ownership transfer of all three satellites to the vault. Any
// ownership-transfer failure fails the whole vault: administrative
// control must be fully consolidated before the vault is usable.
// feeRecipient overrides the vault's configured recipient when non-zero.
func (i *VaultInstantiator) Instantiate(
	ctx context.Context,
	vault config.VaultConfig,
	shared *models.SharedInfrastructure,
	tokenX, tokenY *models.DeployedToken,
	pair *models.DeployedPair,
	network *config.NetworkConfig,
	feeRecipient common.Address,
) (*models.VaultDeployment, error) {
	if feeRecipient == (common.Address{}) {
		feeRecipient = config.MustAddress(vault.FeeRecipient)
	}

	queueHandler, err := i.chain.InstantiateQueueHandler(ctx, shared.QueueHandlerBeacon)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate queue handler: %w", err)
	}
	i.log.Info("instantiated queue handler", "vault", vault.ID, "address", queueHandler)

	feeManager, err := i.chain.InstantiateFeeManager(ctx, shared.FeeManagerBeacon, feeRecipient)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate fee manager: %w", err)
	}
	i.log.Info("instantiated fee manager", "vault", vault.ID, "address", feeManager)

	hook, hasHook := i.probeRewardHook(ctx, pair.Address, network)
	if hasHook {
		i.log.Info("discovered reward hook", "vault", vault.ID, "hook", hook)
	} else {
		i.log.Info("no rewards configured", "vault", vault.ID)
	}

	claimer, err := i.chain.DeployRewardClaimer(ctx, ClaimerParams{
		RewardHook:    hook,
		RewardToken:   config.MustAddress(network.RewardToken),
		FeeManager:    feeManager,
		TokenX:        tokenX.Address,
		TokenY:        tokenY.Address,
		Pair:          pair.Address,
		Router:        shared.Router,
		Factory:       shared.Factory,
		MaxIDSlippage: defaultIDSlippage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deploy reward claimer: %w", err)
	}
	i.log.Info("deployed reward claimer", "vault", vault.ID, "address", claimer)

	minX, err := config.ParseAmount(vault.MinAmountX)
	if err != nil {
		return nil, fmt.Errorf("invalid min_amount_x: %w", err)
	}
	minY, err := config.ParseAmount(vault.MinAmountY)
	if err != nil {
		return nil, fmt.Errorf("invalid min_amount_y: %w", err)
	}

	vaultAddr, err := i.chain.DeployVault(ctx, VaultParams{
		TokenX:        tokenX.Address,
		TokenY:        tokenY.Address,
		BinStep:       vault.BinStep,
		MinAmountX:    minX,
		MinAmountY:    minY,
		Router:        shared.Router,
		Factory:       shared.Factory,
		Pair:          pair.Address,
		QueueHandler:  queueHandler,
		FeeManager:    feeManager,
		RewardClaimer: claimer,
		Name:          vault.Name,
		Symbol:        vault.Symbol,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deploy vault: %w", err)
	}
	i.log.Info("deployed vault", "vault", vault.ID, "address", vaultAddr)

	for _, satellite := range []struct {
		name string
		addr common.Address
	}{
		{"queue handler", queueHandler},
		{"fee manager", feeManager},
		{"reward claimer", claimer},
	} {
		if err := i.chain.TransferOwnership(ctx, satellite.addr, vaultAddr); err != nil {
			return nil, fmt.Errorf("failed to transfer %s ownership to vault: %w", satellite.name, err)
		}
	}
	i.log.Info("consolidated satellite ownership", "vault", vault.ID)

	return &models.VaultDeployment{
		VaultID:       vault.ID,
		Vault:         vaultAddr,
		QueueHandler:  queueHandler,
		FeeManager:    feeManager,
		RewardClaimer: claimer,
		Pair:          pair.Address,
		TokenX:        tokenX.Address,
		TokenY:        tokenY.Address,
	}, nil
}

// probeRewardHook checks the pair for an external reward-distribution
// hook. This is best-effort by design: every failure path (ephemeral
// network, missing hook, interface mismatch, read error) degrades to
// "no rewards configured" and never aborts the vault.
func (i *VaultInstantiator) probeRewardHook(ctx context.Context, pair common.Address, network *config.NetworkConfig) (common.Address, bool) {
	if network.Ephemeral {
		return common.Address{}, false
	}

	hook, err := i.chain.PairHooksParameters(ctx, pair)
	if err != nil {
		i.log.Debug("hook parameter read failed", "pair", pair, "error", err)
		return common.Address{}, false
	}
	if hook == (common.Address{}) {
		return common.Address{}, false
	}

	ok, err := i.chain.SupportsRewarder(ctx, hook)
	if err != nil {
		i.log.Debug("rewarder interface check failed", "hook", hook, "error", err)
		return common.Address{}, false
	}
	if !ok {
		i.log.Debug("hook does not implement rewarder interface", "hook", hook)
		return common.Address{}, false
	}

	return hook, true
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/domain/models"
)

// SharedInfraDeployer deploys the once-per-network contracts: the vault
// registry, the two satellite upgrade beacons, and the router/factory
// (resolved from config or deployed fresh behind the sentinel). It is
// only invoked when the progress ledger holds no prior snapshot.
type SharedInfraDeployer struct {
	chain ChainBackend
	log   *slog.Logger
}

// NewSharedInfraDeployer creates a new SharedInfraDeployer.
func NewSharedInfraDeployer(chain ChainBackend, log *slog.Logger) *SharedInfraDeployer {
	return &SharedInfraDeployer{chain: chain, log: log}
}

// Deploy provisions the shared layer in strict order: registry first (no
// dependencies), then the beacons, then factory and router.
func (d *SharedInfraDeployer) Deploy(ctx context.Context, network *config.NetworkConfig) (*models.SharedInfrastructure, error) {
	registry, err := d.chain.DeployRegistry(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy registry: %w", err)
	}
	d.log.Info("deployed vault registry", "address", registry)

	queueBeacon, err := d.chain.DeployBeacon(ctx, BeaconQueueHandler)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy queue handler beacon: %w", err)
	}
	d.log.Info("deployed queue handler beacon", "address", queueBeacon)

	feeBeacon, err := d.chain.DeployBeacon(ctx, BeaconFeeManager)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy fee manager beacon: %w", err)
	}
	d.log.Info("deployed fee manager beacon", "address", feeBeacon)

	var factory common.Address
	if config.IsSentinel(network.Factory) {
		factory, err = d.chain.DeployFactory(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to deploy factory: %w", err)
		}
		d.log.Info("deployed pair factory", "address", factory)
	} else {
		factory = config.MustAddress(network.Factory)
		d.log.Debug("using configured factory", "address", factory)
	}

	var router common.Address
	if config.IsSentinel(network.Router) {
		router, err = d.chain.DeployRouter(ctx, factory)
		if err != nil {
			return nil, fmt.Errorf("failed to deploy router: %w", err)
		}
		d.log.Info("deployed router", "address", router)
	} else {
		router = config.MustAddress(network.Router)
		d.log.Debug("using configured router", "address", router)
	}

	return &models.SharedInfrastructure{
		Registry:           registry,
		QueueHandlerBeacon: queueBeacon,
		FeeManagerBeacon:   feeBeacon,
		Router:             router,
		Factory:            factory,
	}, nil
}

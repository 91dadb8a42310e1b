//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/vaultsmith-org/vaultsmith/internal/adapters/chain"
	"github.com/vaultsmith-org/vaultsmith/internal/adapters/ledger"
	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/logging"
	"github.com/vaultsmith-org/vaultsmith/internal/usecase"
)

// InitApp creates a fully wired App instance.
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		config.NewRuntimeConfig,
		logging.LoggingSet,

		// Adapters
		ledger.NewFileLedger,
		wire.Bind(new(usecase.ProgressLedger), new(*ledger.FileLedger)),
		wire.Bind(new(usecase.ManifestWriter), new(*ledger.FileLedger)),
		chain.NewClient,
		wire.Bind(new(usecase.ChainBackend), new(*chain.Client)),

		// Use cases
		usecase.NewTokenProvisioner,
		usecase.NewPairResolver,
		usecase.NewSharedInfraDeployer,
		usecase.NewVaultInstantiator,
		usecase.NewOrchestrateVaults,

		// App
		NewApp,
	)
	return nil, nil
}

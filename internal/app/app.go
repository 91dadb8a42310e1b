package app

import (
	"log/slog"

	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/usecase"
)

// App is the application container holding the wired use cases and the
// shared dependencies the commands need.
type App struct {
	Config *config.RuntimeConfig
	Logger *slog.Logger

	// Use cases
	Orchestrator *usecase.OrchestrateVaults

	// Ledger is exposed for read-only commands (status).
	Ledger usecase.ProgressLedger

	Sink usecase.ProgressSink
}

// NewApp creates a new application instance.
func NewApp(
	cfg *config.RuntimeConfig,
	logger *slog.Logger,
	orchestrator *usecase.OrchestrateVaults,
	ledger usecase.ProgressLedger,
	sink usecase.ProgressSink,
) (*App, error) {
	return &App{
		Config:       cfg,
		Logger:       logger,
		Orchestrator: orchestrator,
		Ledger:       ledger,
		Sink:         sink,
	}, nil
}

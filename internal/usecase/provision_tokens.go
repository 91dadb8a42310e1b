package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/domain/models"
)

// TokenProvisioner resolves or deploys every token referenced by the
// enabled vaults. Tokens are load-bearing prerequisites: any deployment
// failure here is fatal to the whole run.
type TokenProvisioner struct {
	chain ChainBackend
	log   *slog.Logger
}

// NewTokenProvisioner creates a new TokenProvisioner.
func NewTokenProvisioner(chain ChainBackend, log *slog.Logger) *TokenProvisioner {
	return &TokenProvisioner{chain: chain, log: log}
}

// Provision resolves every referenced symbol, reusing addresses already
// recorded in the progress ledger. Freshly deployed addresses are written
// back into progress.Tokens; the caller persists after this returns.
func (p *TokenProvisioner) Provision(
	ctx context.Context,
	network *config.NetworkConfig,
	progress *models.DeploymentProgress,
) (map[string]*models.DeployedToken, error) {
	tokens := make(map[string]*models.DeployedToken)

	for _, ref := range referencedTokens(network) {
		if _, done := tokens[ref.Symbol]; done {
			continue
		}

		// Ledger hit: a prior run already resolved this symbol.
		if addr, ok := progress.Tokens[ref.Symbol]; ok {
			p.log.Debug("reusing token from ledger", "symbol", ref.Symbol, "address", addr)
			tokens[ref.Symbol] = &models.DeployedToken{
				Symbol:   ref.Symbol,
				Address:  addr,
				Decimals: tokenDecimals(ref),
				Fresh:    ref.IsSentinel(),
			}
			continue
		}

		if ref.IsSentinel() {
			name := ref.Name
			if name == "" {
				name = ref.Symbol
			}
			addr, err := p.chain.DeployToken(ctx, name, ref.Symbol, tokenDecimals(ref))
			if err != nil {
				return nil, fmt.Errorf("failed to deploy token %s: %w", ref.Symbol, err)
			}
			p.log.Info("deployed placeholder token", "symbol", ref.Symbol, "address", addr)
			progress.Tokens[ref.Symbol] = addr
			tokens[ref.Symbol] = &models.DeployedToken{
				Symbol:   ref.Symbol,
				Address:  addr,
				Decimals: tokenDecimals(ref),
				Fresh:    true,
			}
			continue
		}

		addr := config.MustAddress(ref.Address)
		p.log.Debug("using configured token", "symbol", ref.Symbol, "address", addr)
		progress.Tokens[ref.Symbol] = addr
		tokens[ref.Symbol] = &models.DeployedToken{
			Symbol:   ref.Symbol,
			Address:  addr,
			Decimals: tokenDecimals(ref),
		}
	}

	return tokens, nil
}

// referencedTokens returns the token refs of all enabled vaults in a
// stable first-seen order, one per symbol.
func referencedTokens(network *config.NetworkConfig) []config.TokenRef {
	var refs []config.TokenRef
	seen := make(map[string]bool)
	for _, v := range network.EnabledVaults() {
		for _, ref := range []config.TokenRef{v.TokenX, v.TokenY} {
			if !seen[ref.Symbol] {
				seen[ref.Symbol] = true
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

func tokenDecimals(ref config.TokenRef) uint8 {
	if ref.Decimals == 0 {
		return 18
	}
	return ref.Decimals
}

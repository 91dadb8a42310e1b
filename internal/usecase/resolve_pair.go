package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/domain/models"
)

const (
	// seedBinRadius is the number of bins seeded on each side of the
	// active bin during liquidity bootstrap.
	seedBinRadius = 5

	// liquidityDeadline bounds how long a bootstrap add-liquidity
	// submission stays valid.
	liquidityDeadline = 20 * time.Minute
)

// distributionPrecision is the denominator of the router's per-bin
// distribution encoding (1e18 = 100%).
var distributionPrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// PairResolver finds or creates the liquidity pair backing a vault's
// token pair, and optionally seeds bootstrap liquidity into pairs it
// created itself.
type PairResolver struct {
	chain ChainBackend
	log   *slog.Logger
}

// NewPairResolver creates a new PairResolver.
func NewPairResolver(chain ChainBackend, log *slog.Logger) *PairResolver {
	return &PairResolver{chain: chain, log: log}
}

// Resolve returns the pair for the vault's token pair and bin step. On
// ephemeral networks a fresh simulated pair is always deployed. Otherwise
// the factory is queried first; a lookup failure is treated the same as
// "not found" and falls through to creation, tolerating factories that
// revert instead of returning an empty result.
func (r *PairResolver) Resolve(
	ctx context.Context,
	vault config.VaultConfig,
	tokenX, tokenY *models.DeployedToken,
	shared *models.SharedInfrastructure,
	network *config.NetworkConfig,
) (*models.DeployedPair, error) {
	if network.Ephemeral {
		addr, err := r.chain.DeploySimulatedPair(ctx, tokenX.Address, tokenY.Address, vault.BinStep, vault.EffectiveActiveID())
		if err != nil {
			return nil, fmt.Errorf("failed to deploy simulated pair for %s: %w", vault.ID, err)
		}
		r.log.Info("deployed simulated pair", "vault", vault.ID, "pair", addr)
		return &models.DeployedPair{
			Address: addr,
			TokenX:  tokenX.Address,
			TokenY:  tokenY.Address,
			BinStep: vault.BinStep,
			IsNew:   true,
		}, nil
	}

	if addr, ok := r.lookupPair(ctx, shared.Factory, tokenX.Address, tokenY.Address, vault.BinStep); ok {
		r.log.Info("found existing pair", "vault", vault.ID, "pair", addr)
		return &models.DeployedPair{
			Address: addr,
			TokenX:  tokenX.Address,
			TokenY:  tokenY.Address,
			BinStep: vault.BinStep,
			IsNew:   false,
		}, nil
	}

	addr, err := r.chain.CreatePair(ctx, shared.Factory, tokenX.Address, tokenY.Address, vault.EffectiveActiveID(), vault.BinStep)
	if err != nil {
		return nil, fmt.Errorf("failed to create pair for %s: %w", vault.ID, err)
	}
	r.log.Info("created pair", "vault", vault.ID, "pair", addr, "bin_step", vault.BinStep)

	return &models.DeployedPair{
		Address: addr,
		TokenX:  tokenX.Address,
		TokenY:  tokenY.Address,
		BinStep: vault.BinStep,
		IsNew:   true,
	}, nil
}

// lookupPair wraps the factory query. Every failure mode, including a
// reverting factory call, is folded into "not found". This conflates a
// genuine absence with a transient read error; kept as-is, see DESIGN.md.
func (r *PairResolver) lookupPair(ctx context.Context, factory, tokenX, tokenY common.Address, binStep uint16) (common.Address, bool) {
	addr, err := r.chain.PairAt(ctx, factory, tokenX, tokenY, binStep)
	if err != nil {
		if !errors.Is(err, ErrPairNotFound) {
			r.log.Debug("pair lookup failed, treating as not found", "error", err)
		}
		return common.Address{}, false
	}
	return addr, true
}

// SeedLiquidity bootstraps a freshly created pair with a symmetric
// distribution over a fixed window of bins around the configured initial
// price. It is a no-op for pre-existing pairs, on ephemeral networks, and
// for vaults with no seed amounts configured. Minimum outputs are zero:
// the deployer supplies and receives this liquidity itself.
func (r *PairResolver) SeedLiquidity(
	ctx context.Context,
	vault config.VaultConfig,
	pair *models.DeployedPair,
	shared *models.SharedInfrastructure,
	network *config.NetworkConfig,
) error {
	if !pair.IsNew || network.Ephemeral || vault.Seed == nil {
		return nil
	}

	amountX, err := config.ParseAmount(vault.Seed.AmountX)
	if err != nil {
		return fmt.Errorf("invalid seed amount for %s: %w", vault.ID, err)
	}
	amountY, err := config.ParseAmount(vault.Seed.AmountY)
	if err != nil {
		return fmt.Errorf("invalid seed amount for %s: %w", vault.ID, err)
	}
	if amountX.Sign() == 0 && amountY.Sign() == 0 {
		return nil
	}

	deltaIDs, distX, distY := seedDistribution()

	if amountX.Sign() > 0 {
		if err := r.chain.Approve(ctx, pair.TokenX, shared.Router, amountX); err != nil {
			return fmt.Errorf("failed to approve token X for %s: %w", vault.ID, err)
		}
	}
	if amountY.Sign() > 0 {
		if err := r.chain.Approve(ctx, pair.TokenY, shared.Router, amountY); err != nil {
			return fmt.Errorf("failed to approve token Y for %s: %w", vault.ID, err)
		}
	}

	params := LiquidityParams{
		Router:        shared.Router,
		Pair:          pair.Address,
		TokenX:        pair.TokenX,
		TokenY:        pair.TokenY,
		BinStep:       pair.BinStep,
		ActiveID:      vault.EffectiveActiveID(),
		AmountX:       amountX,
		AmountY:       amountY,
		DeltaIDs:      deltaIDs,
		DistributionX: distX,
		DistributionY: distY,
		Deadline:      time.Now().Add(liquidityDeadline),
	}

	if err := r.chain.AddLiquidity(ctx, params); err != nil {
		return fmt.Errorf("failed to seed liquidity for %s: %w", vault.ID, translateLiquidityError(err))
	}

	r.log.Info("seeded bootstrap liquidity",
		"vault", vault.ID,
		"pair", pair.Address,
		"bins", len(deltaIDs),
		"amount_x", amountX,
		"amount_y", amountY)
	return nil
}

// seedDistribution builds the symmetric per-bin distribution. The X side
// covers the active bin and the bins above it, the Y side the active bin
// and the bins below; each side sums to exactly the distribution
// precision, with the rounding remainder assigned to the active bin.
func seedDistribution() (deltaIDs []int64, distX, distY []*big.Int) {
	window := 2*seedBinRadius + 1
	deltaIDs = make([]int64, 0, window)
	distX = make([]*big.Int, 0, window)
	distY = make([]*big.Int, 0, window)

	perBin := new(big.Int).Div(distributionPrecision, big.NewInt(seedBinRadius+1))
	activeShare := new(big.Int).Sub(
		distributionPrecision,
		new(big.Int).Mul(perBin, big.NewInt(seedBinRadius)),
	)

	for delta := -seedBinRadius; delta <= seedBinRadius; delta++ {
		deltaIDs = append(deltaIDs, int64(delta))

		switch {
		case delta < 0:
			distX = append(distX, new(big.Int))
			distY = append(distY, new(big.Int).Set(perBin))
		case delta == 0:
			distX = append(distX, new(big.Int).Set(activeShare))
			distY = append(distY, new(big.Int).Set(activeShare))
		default:
			distX = append(distX, new(big.Int).Set(perBin))
			distY = append(distY, new(big.Int))
		}
	}

	return deltaIDs, distX, distY
}

// translateLiquidityError maps the known bootstrap failure causes onto
// actionable messages. Nothing here is retried automatically.
func translateLiquidityError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient allowance"):
		return fmt.Errorf("router allowance too low, re-run after checking token approvals: %w", err)
	case strings.Contains(msg, "insufficient balance"), strings.Contains(msg, "exceeds balance"):
		return fmt.Errorf("deployer balance too low for the configured seed amounts: %w", err)
	case strings.Contains(msg, "deadline"), strings.Contains(msg, "expired"):
		return fmt.Errorf("liquidity deadline expired before confirmation: %w", err)
	default:
		return err
	}
}

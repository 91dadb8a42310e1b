package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/vaultsmith-org/vaultsmith/internal/usecase"
)

// rewarderInterfaceID is the ERC-165 interface id of the reward
// distribution hook expected on a pair.
var rewarderInterfaceID = [4]byte{0x1f, 0x84, 0xd1, 0x9b}

// DeployToken deploys a fresh placeholder ERC20.
func (c *Client) DeployToken(ctx context.Context, name, symbol string, decimals uint8) (common.Address, error) {
	return c.deploy(ctx, artifactERC20Mock, name, symbol, decimals)
}

// DeployRegistry deploys the vault registry.
func (c *Client) DeployRegistry(ctx context.Context) (common.Address, error) {
	return c.deploy(ctx, artifactRegistry)
}

// DeployBeacon deploys a satellite family's implementation and an
// upgradeable beacon pointing at it.
func (c *Client) DeployBeacon(ctx context.Context, family usecase.BeaconFamily) (common.Address, error) {
	var implArtifact string
	switch family {
	case usecase.BeaconQueueHandler:
		implArtifact = artifactQueueHandler
	case usecase.BeaconFeeManager:
		implArtifact = artifactFeeManager
	default:
		return common.Address{}, fmt.Errorf("unknown beacon family %q", family)
	}

	impl, err := c.deploy(ctx, implArtifact)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to deploy %s implementation: %w", family, err)
	}
	return c.deploy(ctx, artifactBeacon, impl)
}

// DeployFactory deploys a fresh pair factory.
func (c *Client) DeployFactory(ctx context.Context) (common.Address, error) {
	return c.deploy(ctx, artifactFactory)
}

// DeployRouter deploys a fresh router bound to the factory.
func (c *Client) DeployRouter(ctx context.Context, factory common.Address) (common.Address, error) {
	return c.deploy(ctx, artifactRouter, factory)
}

// PairAt queries the factory for an existing pair.
func (c *Client) PairAt(ctx context.Context, factory, tokenX, tokenY common.Address, binStep uint16) (common.Address, error) {
	var out []any
	err := c.call(ctx, factory, artifactFactory, "getLBPairInformation", &out,
		tokenX, tokenY, bigFromUint(uint64(binStep)))
	if err != nil {
		return common.Address{}, err
	}

	info := *abi.ConvertType(out[0], new(struct {
		BinStep           uint16
		LBPair            common.Address
		CreatedByOwner    bool
		IgnoredForRouting bool
	})).(*struct {
		BinStep           uint16
		LBPair            common.Address
		CreatedByOwner    bool
		IgnoredForRouting bool
	})

	if info.LBPair == (common.Address{}) {
		return common.Address{}, usecase.ErrPairNotFound
	}
	return info.LBPair, nil
}

// CreatePair asks the factory to create a pair and recovers the new pair
// address from the creation event.
func (c *Client) CreatePair(ctx context.Context, factory, tokenX, tokenY common.Address, activeID uint32, binStep uint16) (common.Address, error) {
	receipt, err := c.transact(ctx, factory, artifactFactory, "createLBPair",
		tokenX, tokenY, bigFromUint(uint64(activeID)), binStep)
	if err != nil {
		return common.Address{}, err
	}

	artifact, err := loadArtifact(artifactFactory)
	if err != nil {
		return common.Address{}, err
	}
	created := artifact.ABI.Events["LBPairCreated"]

	for _, lg := range receipt.Logs {
		if lg.Address != factory || len(lg.Topics) == 0 || lg.Topics[0] != created.ID {
			continue
		}
		var event struct {
			LBPair common.Address
			Pid    *big.Int
		}
		if err := artifact.ABI.UnpackIntoInterface(&event, "LBPairCreated", lg.Data); err != nil {
			return common.Address{}, fmt.Errorf("failed to decode pair creation event: %w", err)
		}
		return event.LBPair, nil
	}

	return common.Address{}, fmt.Errorf("pair creation confirmed but no creation event found (tx %s)", receipt.TxHash)
}

// DeploySimulatedPair deploys a standalone simulated pair for ephemeral
// networks.
func (c *Client) DeploySimulatedPair(ctx context.Context, tokenX, tokenY common.Address, binStep uint16, activeID uint32) (common.Address, error) {
	return c.deploy(ctx, artifactSimulatedPair, tokenX, tokenY, binStep, bigFromUint(uint64(activeID)))
}

// Approve grants the spender an exact allowance on the token.
func (c *Client) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) error {
	_, err := c.transact(ctx, token, artifactERC20Mock, "approve", spender, amount)
	return err
}

// AddLiquidity submits one liquidity addition through the router.
func (c *Client) AddLiquidity(ctx context.Context, params usecase.LiquidityParams) error {
	deltaIDs := make([]*big.Int, len(params.DeltaIDs))
	for i, d := range params.DeltaIDs {
		deltaIDs[i] = big.NewInt(d)
	}

	liquidityParameters := struct {
		TokenX          common.Address
		TokenY          common.Address
		BinStep         *big.Int
		AmountX         *big.Int
		AmountY         *big.Int
		AmountXMin      *big.Int
		AmountYMin      *big.Int
		ActiveIdDesired *big.Int
		IdSlippage      *big.Int
		DeltaIds        []*big.Int
		DistributionX   []*big.Int
		DistributionY   []*big.Int
		To              common.Address
		RefundTo        common.Address
		Deadline        *big.Int
	}{
		TokenX:          params.TokenX,
		TokenY:          params.TokenY,
		BinStep:         bigFromUint(uint64(params.BinStep)),
		AmountX:         params.AmountX,
		AmountY:         params.AmountY,
		AmountXMin:      new(big.Int),
		AmountYMin:      new(big.Int),
		ActiveIdDesired: bigFromUint(uint64(params.ActiveID)),
		IdSlippage:      new(big.Int),
		DeltaIds:        deltaIDs,
		DistributionX:   params.DistributionX,
		DistributionY:   params.DistributionY,
		To:              c.from,
		RefundTo:        c.from,
		Deadline:        big.NewInt(params.Deadline.Unix()),
	}

	_, err := c.transact(ctx, params.Router, artifactRouter, "addLiquidity", liquidityParameters)
	return err
}

// InstantiateQueueHandler deploys a beacon proxy for the queue handler
// family and initializes it.
func (c *Client) InstantiateQueueHandler(ctx context.Context, beacon common.Address) (common.Address, error) {
	initData, err := packInitializer(artifactQueueHandler)
	if err != nil {
		return common.Address{}, err
	}
	return c.deploy(ctx, artifactBeaconProxy, beacon, initData)
}

// InstantiateFeeManager deploys a beacon proxy for the fee manager
// family, initialized with the fee recipient.
func (c *Client) InstantiateFeeManager(ctx context.Context, beacon, feeRecipient common.Address) (common.Address, error) {
	initData, err := packInitializer(artifactFeeManager, feeRecipient)
	if err != nil {
		return common.Address{}, err
	}
	return c.deploy(ctx, artifactBeaconProxy, beacon, initData)
}

// DeployRewardClaimer deploys a vault's reward claimer.
func (c *Client) DeployRewardClaimer(ctx context.Context, params usecase.ClaimerParams) (common.Address, error) {
	return c.deploy(ctx, artifactRewardClaimer,
		params.RewardHook,
		params.RewardToken,
		params.FeeManager,
		params.TokenX,
		params.TokenY,
		params.Pair,
		params.Router,
		params.Factory,
		bigFromUint(uint64(params.MaxIDSlippage)),
	)
}

// DeployVault deploys the main vault contract.
func (c *Client) DeployVault(ctx context.Context, params usecase.VaultParams) (common.Address, error) {
	return c.deploy(ctx, artifactVault,
		params.TokenX,
		params.TokenY,
		params.BinStep,
		params.MinAmountX,
		params.MinAmountY,
		params.Router,
		params.Factory,
		params.Pair,
		params.QueueHandler,
		params.FeeManager,
		params.RewardClaimer,
		params.Name,
		params.Symbol,
	)
}

// TransferOwnership hands a contract's administrative control to the
// new owner.
func (c *Client) TransferOwnership(ctx context.Context, contract, newOwner common.Address) error {
	_, err := c.transact(ctx, contract, artifactOwnable, "transferOwnership", newOwner)
	return err
}

// PairHooksParameters reads the pair's hooks parameters. The hooks
// address occupies the low 160 bits of the packed bytes32.
func (c *Client) PairHooksParameters(ctx context.Context, pair common.Address) (common.Address, error) {
	var out []any
	if err := c.call(ctx, pair, artifactPair, "getLBHooksParameters", &out); err != nil {
		return common.Address{}, err
	}
	packed := *abi.ConvertType(out[0], new([32]byte)).(*[32]byte)
	return common.BytesToAddress(packed[12:]), nil
}

// SupportsRewarder checks the hook's ERC-165 support for the rewarder
// interface.
func (c *Client) SupportsRewarder(ctx context.Context, hook common.Address) (bool, error) {
	var out []any
	if err := c.call(ctx, hook, artifactERC165, "supportsInterface", &out, rewarderInterfaceID); err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// RegisterVault records a completed vault in the shared registry.
func (c *Client) RegisterVault(ctx context.Context, registry common.Address, entry usecase.RegistryEntry) error {
	_, err := c.transact(ctx, registry, artifactRegistry, "registerVault",
		entry.VaultID,
		entry.Vault,
		entry.QueueHandler,
		entry.FeeManager,
		entry.RewardClaimer,
		entry.TokenX,
		entry.TokenY,
		entry.Name,
		entry.Symbol,
		new(big.Int).SetUint64(entry.Sequence),
		entry.IsProxy,
	)
	return err
}

// packInitializer packs a proxy initializer call for an implementation
// artifact.
func packInitializer(artifactName string, args ...any) ([]byte, error) {
	artifact, err := loadArtifact(artifactName)
	if err != nil {
		return nil, err
	}
	data, err := artifact.ABI.Pack("initialize", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s initializer: %w", artifactName, err)
	}
	return data, nil
}

var _ usecase.ChainBackend = (*Client)(nil)

package usecase

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vaultsmith-org/vaultsmith/internal/domain/models"
)

// ErrPairNotFound is returned by ChainBackend.PairAt when the factory
// holds no pair for the queried token/bin-step combination.
var ErrPairNotFound = errors.New("pair not found")

// ProgressLedger persists deployment progress across runs. Load returns
// (nil, nil) when no record exists for the network; a missing record is
// not an error.
type ProgressLedger interface {
	Load(ctx context.Context, network string) (*models.DeploymentProgress, error)
	Save(ctx context.Context, network string, progress *models.DeploymentProgress) error
}

// ManifestWriter emits the final machine-readable manifest of a run,
// superseding the previous one for the same network.
type ManifestWriter interface {
	Write(ctx context.Context, manifest *models.DeploymentManifest) error
}

// BeaconFamily identifies a satellite contract family sharing one
// upgrade beacon across all vaults.
type BeaconFamily string

const (
	BeaconQueueHandler BeaconFamily = "queue-handler"
	BeaconFeeManager   BeaconFamily = "fee-manager"
)

// RegistryEntry is one vault's registration record.
type RegistryEntry struct {
	VaultID       string
	Vault         common.Address
	QueueHandler  common.Address
	FeeManager    common.Address
	RewardClaimer common.Address
	TokenX        common.Address
	TokenY        common.Address
	Name          string
	Symbol        string
	Sequence      uint64
	IsProxy       bool
}

// LiquidityParams describes one bootstrap liquidity addition.
type LiquidityParams struct {
	Router        common.Address
	Pair          common.Address
	TokenX        common.Address
	TokenY        common.Address
	BinStep       uint16
	ActiveID      uint32
	AmountX       *big.Int
	AmountY       *big.Int
	DeltaIDs      []int64
	DistributionX []*big.Int
	DistributionY []*big.Int
	Deadline      time.Time
}

// ClaimerParams parameterizes a RewardClaimer deployment. RewardHook is
// the zero address when no external reward hook was discovered.
type ClaimerParams struct {
	RewardHook    common.Address
	RewardToken   common.Address
	FeeManager    common.Address
	TokenX        common.Address
	TokenY        common.Address
	Pair          common.Address
	Router        common.Address
	Factory       common.Address
	MaxIDSlippage uint32
}

// VaultParams parameterizes the main vault deployment.
type VaultParams struct {
	TokenX        common.Address
	TokenY        common.Address
	BinStep       uint16
	MinAmountX    *big.Int
	MinAmountY    *big.Int
	Router        common.Address
	Factory       common.Address
	Pair          common.Address
	QueueHandler  common.Address
	FeeManager    common.Address
	RewardClaimer common.Address
	Name          string
	Symbol        string
}

// ChainBackend is the single suspension surface of the orchestrator:
// every method is a network round trip that blocks until the submitted
// transaction is mined or the read returns. Implementations submit from
// one signing key, so calls must stay strictly sequential.
type ChainBackend interface {
	// Connect establishes the RPC connection and verifies the chain id.
	Connect(ctx context.Context, rpcURL string, chainID uint64) error

	DeployToken(ctx context.Context, name, symbol string, decimals uint8) (common.Address, error)
	DeployRegistry(ctx context.Context) (common.Address, error)
	DeployBeacon(ctx context.Context, family BeaconFamily) (common.Address, error)
	DeployFactory(ctx context.Context) (common.Address, error)
	DeployRouter(ctx context.Context, factory common.Address) (common.Address, error)

	// PairAt queries the factory for an existing pair. Returns
	// ErrPairNotFound when the factory reports no pair.
	PairAt(ctx context.Context, factory, tokenX, tokenY common.Address, binStep uint16) (common.Address, error)
	CreatePair(ctx context.Context, factory, tokenX, tokenY common.Address, activeID uint32, binStep uint16) (common.Address, error)
	DeploySimulatedPair(ctx context.Context, tokenX, tokenY common.Address, binStep uint16, activeID uint32) (common.Address, error)

	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) error
	AddLiquidity(ctx context.Context, params LiquidityParams) error

	InstantiateQueueHandler(ctx context.Context, beacon common.Address) (common.Address, error)
	InstantiateFeeManager(ctx context.Context, beacon, feeRecipient common.Address) (common.Address, error)
	DeployRewardClaimer(ctx context.Context, params ClaimerParams) (common.Address, error)
	DeployVault(ctx context.Context, params VaultParams) (common.Address, error)

	TransferOwnership(ctx context.Context, contract, newOwner common.Address) error

	// PairHooksParameters reads the pair's configured hooks address.
	PairHooksParameters(ctx context.Context, pair common.Address) (common.Address, error)
	// SupportsRewarder checks whether the hook implements the reward
	// distribution interface.
	SupportsRewarder(ctx context.Context, hook common.Address) (bool, error)

	RegisterVault(ctx context.Context, registry common.Address, entry RegistryEntry) error
}

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata any
}

// ProgressSink receives progress events.
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink.
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

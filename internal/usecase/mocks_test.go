package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/vaultsmith-org/vaultsmith/internal/domain/models"
	"github.com/vaultsmith-org/vaultsmith/internal/usecase"
)

// MockChainBackend is a mock implementation of usecase.ChainBackend.
type MockChainBackend struct {
	mock.Mock
}

func (m *MockChainBackend) Connect(ctx context.Context, rpcURL string, chainID uint64) error {
	args := m.Called(ctx, rpcURL, chainID)
	return args.Error(0)
}

func (m *MockChainBackend) DeployToken(ctx context.Context, name, symbol string, decimals uint8) (common.Address, error) {
	args := m.Called(ctx, name, symbol, decimals)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) DeployRegistry(ctx context.Context) (common.Address, error) {
	args := m.Called(ctx)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) DeployBeacon(ctx context.Context, family usecase.BeaconFamily) (common.Address, error) {
	args := m.Called(ctx, family)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) DeployFactory(ctx context.Context) (common.Address, error) {
	args := m.Called(ctx)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) DeployRouter(ctx context.Context, factory common.Address) (common.Address, error) {
	args := m.Called(ctx, factory)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) PairAt(ctx context.Context, factory, tokenX, tokenY common.Address, binStep uint16) (common.Address, error) {
	args := m.Called(ctx, factory, tokenX, tokenY, binStep)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) CreatePair(ctx context.Context, factory, tokenX, tokenY common.Address, activeID uint32, binStep uint16) (common.Address, error) {
	args := m.Called(ctx, factory, tokenX, tokenY, activeID, binStep)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) DeploySimulatedPair(ctx context.Context, tokenX, tokenY common.Address, binStep uint16, activeID uint32) (common.Address, error) {
	args := m.Called(ctx, tokenX, tokenY, binStep, activeID)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) error {
	args := m.Called(ctx, token, spender, amount)
	return args.Error(0)
}

func (m *MockChainBackend) AddLiquidity(ctx context.Context, params usecase.LiquidityParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockChainBackend) InstantiateQueueHandler(ctx context.Context, beacon common.Address) (common.Address, error) {
	args := m.Called(ctx, beacon)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) InstantiateFeeManager(ctx context.Context, beacon, feeRecipient common.Address) (common.Address, error) {
	args := m.Called(ctx, beacon, feeRecipient)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) DeployRewardClaimer(ctx context.Context, params usecase.ClaimerParams) (common.Address, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) DeployVault(ctx context.Context, params usecase.VaultParams) (common.Address, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) TransferOwnership(ctx context.Context, contract, newOwner common.Address) error {
	args := m.Called(ctx, contract, newOwner)
	return args.Error(0)
}

func (m *MockChainBackend) PairHooksParameters(ctx context.Context, pair common.Address) (common.Address, error) {
	args := m.Called(ctx, pair)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockChainBackend) SupportsRewarder(ctx context.Context, hook common.Address) (bool, error) {
	args := m.Called(ctx, hook)
	return args.Bool(0), args.Error(1)
}

func (m *MockChainBackend) RegisterVault(ctx context.Context, registry common.Address, entry usecase.RegistryEntry) error {
	args := m.Called(ctx, registry, entry)
	return args.Error(0)
}

var _ usecase.ChainBackend = (*MockChainBackend)(nil)

// memLedger is an in-memory ProgressLedger that round-trips records
// through JSON, matching the durability semantics of the file ledger.
type memLedger struct {
	records map[string][]byte
	saves   int
}

func newMemLedger() *memLedger {
	return &memLedger{records: make(map[string][]byte)}
}

func (l *memLedger) Load(ctx context.Context, network string) (*models.DeploymentProgress, error) {
	data, ok := l.records[network]
	if !ok {
		return nil, nil
	}
	var progress models.DeploymentProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func (l *memLedger) Save(ctx context.Context, network string, progress *models.DeploymentProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	l.records[network] = data
	l.saves++
	return nil
}

// manifestRecorder captures written manifests.
type manifestRecorder struct {
	manifests []*models.DeploymentManifest
}

func (r *manifestRecorder) Write(ctx context.Context, manifest *models.DeploymentManifest) error {
	r.manifests = append(r.manifests, manifest)
	return nil
}

// addr builds a deterministic test address.
func addr(n byte) common.Address {
	return common.HexToAddress(fmt.Sprintf("0x%040x", n))
}

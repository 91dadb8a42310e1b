package usecase_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/domain/models"
	"github.com/vaultsmith-org/vaultsmith/internal/usecase"
)

func testShared() *models.SharedInfrastructure {
	return &models.SharedInfrastructure{
		Registry:           registryAddr,
		QueueHandlerBeacon: queueBeaconAddr,
		FeeManagerBeacon:   feeBeaconAddr,
		Router:             routerAddr,
		Factory:            factoryAddr,
	}
}

func testTokens() (*models.DeployedToken, *models.DeployedToken) {
	x := &models.DeployedToken{Symbol: "A", Address: addr(0x21), Decimals: 18, Fresh: true}
	y := &models.DeployedToken{Symbol: "B", Address: addr(0x22), Decimals: 18, Fresh: true}
	return x, y
}

func TestPairResolverReusesExistingPair(t *testing.T) {
	backend := new(MockChainBackend)
	resolver := usecase.NewPairResolver(backend, testLogger())

	vault := testVault("a-b", "A", "B", 25)
	tokenX, tokenY := testTokens()
	existing := addr(0x41)

	backend.On("PairAt", mock.Anything, factoryAddr, tokenX.Address, tokenY.Address, uint16(25)).
		Return(existing, nil)

	pair, err := resolver.Resolve(context.Background(), vault, tokenX, tokenY, testShared(), testNetwork(vault))
	require.NoError(t, err)

	assert.Equal(t, existing, pair.Address)
	assert.False(t, pair.IsNew)
	backend.AssertNotCalled(t, "CreatePair",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPairResolverCreatesMissingPair(t *testing.T) {
	backend := new(MockChainBackend)
	resolver := usecase.NewPairResolver(backend, testLogger())

	vault := testVault("a-b", "A", "B", 25)
	tokenX, tokenY := testTokens()
	created := addr(0x41)

	backend.On("PairAt", mock.Anything, factoryAddr, tokenX.Address, tokenY.Address, uint16(25)).
		Return(common.Address{}, usecase.ErrPairNotFound)
	backend.On("CreatePair", mock.Anything, factoryAddr, tokenX.Address, tokenY.Address, config.MidPriceID, uint16(25)).
		Return(created, nil)

	pair, err := resolver.Resolve(context.Background(), vault, tokenX, tokenY, testShared(), testNetwork(vault))
	require.NoError(t, err)

	assert.Equal(t, created, pair.Address)
	assert.True(t, pair.IsNew)
	assert.Equal(t, uint16(25), pair.BinStep)
}

func TestPairResolverLookupErrorFallsThroughToCreate(t *testing.T) {
	backend := new(MockChainBackend)
	resolver := usecase.NewPairResolver(backend, testLogger())

	vault := testVault("a-b", "A", "B", 25)
	tokenX, tokenY := testTokens()

	// Factories that revert on an unknown pair are indistinguishable
	// from an empty result; the resolver treats both as "create it".
	backend.On("PairAt", mock.Anything, factoryAddr, tokenX.Address, tokenY.Address, uint16(25)).
		Return(common.Address{}, errors.New("execution reverted"))
	backend.On("CreatePair", mock.Anything, factoryAddr, tokenX.Address, tokenY.Address, config.MidPriceID, uint16(25)).
		Return(addr(0x41), nil)

	pair, err := resolver.Resolve(context.Background(), vault, tokenX, tokenY, testShared(), testNetwork(vault))
	require.NoError(t, err)
	assert.True(t, pair.IsNew)
}

func TestPairResolverHonorsConfiguredActiveID(t *testing.T) {
	backend := new(MockChainBackend)
	resolver := usecase.NewPairResolver(backend, testLogger())

	vault := testVault("a-b", "A", "B", 25)
	vault.ActiveID = 8_400_000
	tokenX, tokenY := testTokens()

	backend.On("PairAt", mock.Anything, factoryAddr, tokenX.Address, tokenY.Address, uint16(25)).
		Return(common.Address{}, usecase.ErrPairNotFound)
	backend.On("CreatePair", mock.Anything, factoryAddr, tokenX.Address, tokenY.Address, uint32(8_400_000), uint16(25)).
		Return(addr(0x41), nil)

	_, err := resolver.Resolve(context.Background(), vault, tokenX, tokenY, testShared(), testNetwork(vault))
	require.NoError(t, err)
	backend.AssertExpectations(t)
}

func TestPairResolverEphemeralDeploysSimulatedPair(t *testing.T) {
	backend := new(MockChainBackend)
	resolver := usecase.NewPairResolver(backend, testLogger())

	vault := testVault("a-b", "A", "B", 25)
	tokenX, tokenY := testTokens()
	network := testNetwork(vault)
	network.Ephemeral = true

	backend.On("DeploySimulatedPair", mock.Anything, tokenX.Address, tokenY.Address, uint16(25), config.MidPriceID).
		Return(addr(0x41), nil)

	pair, err := resolver.Resolve(context.Background(), vault, tokenX, tokenY, testShared(), network)
	require.NoError(t, err)

	assert.True(t, pair.IsNew)
	backend.AssertNotCalled(t, "PairAt",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSeedLiquiditySkipsExistingPair(t *testing.T) {
	backend := new(MockChainBackend)
	resolver := usecase.NewPairResolver(backend, testLogger())

	vault := testVault("a-b", "A", "B", 25)
	vault.Seed = &config.SeedConfig{AmountX: "1000", AmountY: "1000"}
	tokenX, tokenY := testTokens()

	pair := &models.DeployedPair{
		Address: addr(0x41),
		TokenX:  tokenX.Address,
		TokenY:  tokenY.Address,
		BinStep: 25,
		IsNew:   false,
	}

	err := resolver.SeedLiquidity(context.Background(), vault, pair, testShared(), testNetwork(vault))
	require.NoError(t, err)
	assert.Empty(t, backend.Calls, "pre-existing pairs already have a market")
}

func TestSeedLiquiditySkipsWithoutSeedConfig(t *testing.T) {
	backend := new(MockChainBackend)
	resolver := usecase.NewPairResolver(backend, testLogger())

	vault := testVault("a-b", "A", "B", 25)
	tokenX, tokenY := testTokens()
	pair := &models.DeployedPair{Address: addr(0x41), TokenX: tokenX.Address, TokenY: tokenY.Address, BinStep: 25, IsNew: true}

	err := resolver.SeedLiquidity(context.Background(), vault, pair, testShared(), testNetwork(vault))
	require.NoError(t, err)
	assert.Empty(t, backend.Calls)
}

func TestSeedLiquidityApprovesAndAdds(t *testing.T) {
	backend := new(MockChainBackend)
	resolver := usecase.NewPairResolver(backend, testLogger())

	vault := testVault("a-b", "A", "B", 25)
	vault.Seed = &config.SeedConfig{AmountX: "5000000", AmountY: "7000000"}
	tokenX, tokenY := testTokens()
	pair := &models.DeployedPair{Address: addr(0x41), TokenX: tokenX.Address, TokenY: tokenY.Address, BinStep: 25, IsNew: true}

	backend.On("Approve", mock.Anything, tokenX.Address, routerAddr, big.NewInt(5_000_000)).Return(nil)
	backend.On("Approve", mock.Anything, tokenY.Address, routerAddr, big.NewInt(7_000_000)).Return(nil)

	var captured usecase.LiquidityParams
	backend.On("AddLiquidity", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(usecase.LiquidityParams)
		}).
		Return(nil)

	err := resolver.SeedLiquidity(context.Background(), vault, pair, testShared(), testNetwork(vault))
	require.NoError(t, err)
	backend.AssertExpectations(t)

	assert.Equal(t, routerAddr, captured.Router)
	assert.Equal(t, big.NewInt(5_000_000), captured.AmountX)
	assert.Equal(t, big.NewInt(7_000_000), captured.AmountY)
	assert.Equal(t, config.MidPriceID, captured.ActiveID)

	// Symmetric window around the active bin, each side distributing
	// exactly 100% in the router's 1e18 fixed-point encoding.
	require.Len(t, captured.DeltaIDs, 11)
	require.Len(t, captured.DistributionX, 11)
	require.Len(t, captured.DistributionY, 11)
	assert.Equal(t, int64(-5), captured.DeltaIDs[0])
	assert.Equal(t, int64(5), captured.DeltaIDs[10])

	precision := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	sumX, sumY := new(big.Int), new(big.Int)
	for i := range captured.DeltaIDs {
		sumX.Add(sumX, captured.DistributionX[i])
		sumY.Add(sumY, captured.DistributionY[i])

		switch {
		case captured.DeltaIDs[i] < 0:
			assert.Zero(t, captured.DistributionX[i].Sign(), "no X below the active bin")
		case captured.DeltaIDs[i] > 0:
			assert.Zero(t, captured.DistributionY[i].Sign(), "no Y above the active bin")
		}
	}
	assert.Zero(t, sumX.Cmp(precision))
	assert.Zero(t, sumY.Cmp(precision))
}

func TestSeedLiquidityTranslatesAllowanceError(t *testing.T) {
	backend := new(MockChainBackend)
	resolver := usecase.NewPairResolver(backend, testLogger())

	vault := testVault("a-b", "A", "B", 25)
	vault.Seed = &config.SeedConfig{AmountX: "1000", AmountY: "1000"}
	tokenX, tokenY := testTokens()
	pair := &models.DeployedPair{Address: addr(0x41), TokenX: tokenX.Address, TokenY: tokenY.Address, BinStep: 25, IsNew: true}

	backend.On("Approve", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	backend.On("AddLiquidity", mock.Anything, mock.Anything).
		Return(errors.New("execution reverted: insufficient allowance"))

	err := resolver.SeedLiquidity(context.Background(), vault, pair, testShared(), testNetwork(vault))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowance")
	assert.Contains(t, err.Error(), "a-b")
}

package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/vaultsmith-org/vaultsmith/internal/config"
)

// Client is the go-ethereum implementation of the chain backend. It
// submits from a single externally-owned key; callers keep submissions
// strictly sequential, so no nonce management beyond the node's pending
// state is needed.
type Client struct {
	cfg  *config.RuntimeConfig
	log  *slog.Logger
	eth  *ethclient.Client
	auth *bind.TransactOpts
	from common.Address
}

// NewClient creates a disconnected client. Connect must be called before
// any other method.
func NewClient(cfg *config.RuntimeConfig, log *slog.Logger) *Client {
	return &Client{cfg: cfg, log: log}
}

// Connect dials the RPC endpoint, verifies the chain id and prepares the
// signer from the configured private key.
func (c *Client) Connect(ctx context.Context, rpcURL string, chainID uint64) error {
	if c.cfg.RPCURL != "" {
		rpcURL = c.cfg.RPCURL
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC: %w", err)
	}

	networkChainID, err := eth.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %w", err)
	}
	if chainID != 0 && networkChainID.Uint64() != chainID {
		return fmt.Errorf("chain ID mismatch: expected %d, got %d", chainID, networkChainID.Uint64())
	}

	keyHex := strings.TrimPrefix(strings.TrimSpace(c.cfg.PrivateKey), "0x")
	if keyHex == "" {
		return fmt.Errorf("no private key configured (set VAULTSMITH_PRIVATE_KEY)")
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, networkChainID)
	if err != nil {
		return fmt.Errorf("failed to create transactor: %w", err)
	}

	c.eth = eth
	c.auth = auth
	c.from = auth.From
	c.log.Debug("connected", "chain_id", networkChainID, "deployer", c.from)
	return nil
}

// txOpts returns per-call transact options bound to ctx.
func (c *Client) txOpts(ctx context.Context) *bind.TransactOpts {
	opts := *c.auth
	opts.Context = ctx
	return &opts
}

// deploy submits a contract creation and blocks until it is mined.
func (c *Client) deploy(ctx context.Context, artifactName string, args ...any) (common.Address, error) {
	if c.eth == nil {
		return common.Address{}, fmt.Errorf("not connected")
	}

	artifact, err := loadArtifact(artifactName)
	if err != nil {
		return common.Address{}, err
	}

	addr, tx, _, err := bind.DeployContract(c.txOpts(ctx), artifact.ABI, artifact.Bytecode, c.eth, args...)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to submit %s deployment: %w", artifactName, err)
	}

	if _, err := c.waitMined(ctx, tx, artifactName); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// transact submits a state-changing call and blocks until it is mined.
func (c *Client) transact(ctx context.Context, addr common.Address, artifactName, method string, args ...any) (*types.Receipt, error) {
	if c.eth == nil {
		return nil, fmt.Errorf("not connected")
	}

	artifact, err := loadArtifact(artifactName)
	if err != nil {
		return nil, err
	}

	bound := bind.NewBoundContract(addr, artifact.ABI, c.eth, c.eth, c.eth)
	tx, err := bound.Transact(c.txOpts(ctx), method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to submit %s.%s: %w", artifactName, method, err)
	}
	return c.waitMined(ctx, tx, artifactName+"."+method)
}

// call performs a read-only contract call.
func (c *Client) call(ctx context.Context, addr common.Address, artifactName, method string, out *[]any, args ...any) error {
	if c.eth == nil {
		return fmt.Errorf("not connected")
	}

	artifact, err := loadArtifact(artifactName)
	if err != nil {
		return err
	}

	bound := bind.NewBoundContract(addr, artifact.ABI, c.eth, c.eth, c.eth)
	if err := bound.Call(&bind.CallOpts{Context: ctx}, out, method, args...); err != nil {
		return fmt.Errorf("%s.%s call failed: %w", artifactName, method, err)
	}
	return nil
}

// waitMined blocks until the transaction is confirmed and checks its
// status. The wait is bounded by the configured tx timeout.
func (c *Client) waitMined(ctx context.Context, tx *types.Transaction, what string) (*types.Receipt, error) {
	if c.cfg.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.TxTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for %s (tx %s): %w", what, tx.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s reverted (tx %s)", what, tx.Hash())
	}
	c.log.Debug("mined", "what", what, "tx", tx.Hash(), "gas_used", receipt.GasUsed)
	return receipt, nil
}

func bigFromUint(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

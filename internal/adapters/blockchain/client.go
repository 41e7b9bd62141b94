package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

const (
	defaultInitialBackoff = 2 * time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultReceiptTimeout = 5 * time.Minute
)

// ClientAdapter implements usecase.ChainClient on top of ethclient. The RPC
// connection and the signing key are set up on first use, so commands that
// never touch the chain work without either.
type ClientAdapter struct {
	network    *config.Network
	privateKey string
	log        *slog.Logger

	initialBackoff time.Duration
	maxBackoff     time.Duration
	receiptTimeout time.Duration

	mu      sync.Mutex
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	sender  common.Address
	chainID *big.Int
}

// NewClientAdapter creates a new chain client for the selected network
func NewClientAdapter(cfg *config.RuntimeConfig, log *slog.Logger) *ClientAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultReceiptTimeout
	}
	return &ClientAdapter{
		network:        cfg.Network,
		privateKey:     cfg.PrivateKey,
		log:            log,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		receiptTimeout: timeout,
	}
}

// connect dials the RPC endpoint once and caches the chain ID it reports
func (c *ClientAdapter) connect(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.network == nil {
		return nil, domain.ErrNoNetwork
	}

	client, err := ethclient.DialContext(ctx, c.network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	c.client = client
	c.chainID = chainID
	return client, nil
}

// signer parses the private key once
func (c *ClientAdapter) signer() (*ecdsa.PrivateKey, common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != nil {
		return c.key, c.sender, nil
	}
	if c.privateKey == "" {
		return nil, common.Address{}, fmt.Errorf("PRIVATE_KEY is not set")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(c.privateKey), "0x"))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("invalid PRIVATE_KEY: %w", err)
	}
	c.key = key
	c.sender = crypto.PubkeyToAddress(key.PublicKey)
	return c.key, c.sender, nil
}

func (c *ClientAdapter) transactOpts(ctx context.Context) (*bind.TransactOpts, *ethclient.Client, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	// never sign for a chain other than the configured one
	if c.chainID.Uint64() != c.network.ChainID {
		return nil, nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrChainIDMismatch, c.network.ChainID, c.chainID.Uint64())
	}
	key, _, err := c.signer()
	if err != nil {
		return nil, nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, c.chainID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, client, nil
}

// ChainID returns the chain ID reported by the RPC endpoint
func (c *ClientAdapter) ChainID(ctx context.Context) (uint64, error) {
	if _, err := c.connect(ctx); err != nil {
		return 0, err
	}
	return c.chainID.Uint64(), nil
}

// BlockNumber returns the current head
func (c *ClientAdapter) BlockNumber(ctx context.Context) (uint64, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return 0, err
	}
	return client.BlockNumber(ctx)
}

// CodeAt returns the runtime code at an address at the latest block
func (c *ClientAdapter) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return client.CodeAt(ctx, address, nil)
}

// Sender returns the deployer address
func (c *ClientAdapter) Sender(ctx context.Context) (common.Address, error) {
	_, sender, err := c.signer()
	return sender, err
}

// Call executes a read-only call from the deployer
func (c *ClientAdapter) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	if _, sender, err := c.signer(); err == nil {
		msg.From = sender
	}
	return client.CallContract(ctx, msg, nil)
}

// DeployContract signs and broadcasts a contract creation
func (c *ClientAdapter) DeployContract(ctx context.Context, bytecode, encodedArgs []byte) (*models.PendingTx, error) {
	opts, client, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	code := make([]byte, 0, len(bytecode)+len(encodedArgs))
	code = append(code, bytecode...)
	code = append(code, encodedArgs...)

	address, tx, _, err := bind.DeployContract(opts, abi.ABI{}, code, client)
	if err != nil {
		return nil, err
	}
	c.log.Debug("broadcast contract creation", "tx", tx.Hash().Hex(), "nonce", tx.Nonce(), "expected_address", address.Hex())

	return &models.PendingTx{Hash: tx.Hash(), Kind: models.TxKindCreate, Nonce: tx.Nonce()}, nil
}

// Transact signs and broadcasts a call with raw calldata
func (c *ClientAdapter) Transact(ctx context.Context, to common.Address, data []byte) (*models.PendingTx, error) {
	opts, client, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	contract := bind.NewBoundContract(to, abi.ABI{}, client, client, client)
	tx, err := contract.RawTransact(opts, data)
	if err != nil {
		return nil, err
	}
	c.log.Debug("broadcast transaction", "tx", tx.Hash().Hex(), "nonce", tx.Nonce(), "to", to.Hex())

	return &models.PendingTx{Hash: tx.Hash(), Kind: models.TxKindCall, Nonce: tx.Nonce(), To: &to}, nil
}

// WaitMined polls for a transaction receipt with exponential backoff
func (c *ClientAdapter) WaitMined(ctx context.Context, tx *models.PendingTx) (*types.Receipt, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	backoff := c.initialBackoff
	deadline := time.Now().Add(c.receiptTimeout)

	for time.Now().Before(deadline) {
		receipt, err := client.TransactionReceipt(ctx, tx.Hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			c.log.Debug("receipt lookup failed", "tx", tx.Hash.Hex(), "error", err)
		}

		// Wait before next attempt
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		// Exponential backoff
		backoff = backoff * 2
		if backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}

	return nil, fmt.Errorf("%w: %s after %s", domain.ErrTransactionTimeout, tx.Hash.Hex(), c.receiptTimeout)
}

// TransactionReceipt returns the receipt of a mined transaction
func (c *ClientAdapter) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), domain.ErrNotFound)
	}
	return receipt, err
}

// Close releases the RPC connection
func (c *ClientAdapter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}

// Ensure the adapter implements the interface
var _ usecase.ChainClient = (*ClientAdapter)(nil)

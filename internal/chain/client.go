package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/compose-network/dex-bootstrap/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	ErrConnection = errors.New("chain endpoint unreachable")
	ErrInvalidKey = errors.New("invalid signer key")
)

type (
	// Backend is everything the bootstrap needs from a node: contract calls and
	// transactions, receipts for inclusion and the chain id for signing.
	Backend interface {
		bind.ContractBackend
		bind.DeployBackend
		ethereum.ChainIDReader
	}

	// Client wraps a single JSON-RPC endpoint. The network identity is fixed
	// once the client is created.
	Client struct {
		backend  Backend
		endpoint string
		chainID  *big.Int
		closer   func()
		logger   *slog.Logger
	}

	// GasSettings are the fixed gas parameters of every transaction of a run.
	// A nil GasPrice asks the node for a suggestion.
	GasSettings struct {
		GasLimit uint64
		GasPrice *big.Int
	}
)

// Dial connects to endpoint and probes it for its chain id.
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	rpcClient, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to dial %s: %w", ErrConnection, endpoint, err)
	}

	client, err := NewClient(ctx, rpcClient, endpoint)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}
	client.closer = rpcClient.Close

	return client, nil
}

// NewClient wraps an existing backend and probes it for its chain id.
func NewClient(ctx context.Context, backend Backend, endpoint string) (*Client, error) {
	log := logger.Named("chain_client").With("endpoint", endpoint)

	log.Debug("fetching chain ID")
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get chain ID from %s: %w", ErrConnection, endpoint, err)
	}
	log.With("chain_id", chainID).Info("connected to chain")

	return &Client{
		backend:  backend,
		endpoint: endpoint,
		chainID:  chainID,
		closer:   func() {},
		logger:   log,
	}, nil
}

// NetworkID returns the chain id reported by the endpoint at connect time.
func (c *Client) NetworkID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) Backend() Backend {
	return c.backend
}

func (c *Client) Close() {
	c.closer()
}

// AddSigner derives a signing identity from a hex encoded private key.
func (c *Client) AddSigner(hexKey string) (*Signer, error) {
	signer, err := NewSigner(hexKey)
	if err != nil {
		return nil, err
	}

	c.logger.With("address", signer.Address.Hex()).Info("signer registered")

	return signer, nil
}

// TransactOpts builds transaction options for signer with the run's fixed
// gas settings.
func (c *Client) TransactOpts(ctx context.Context, signer *Signer, gas GasSettings) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(signer.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	gasPrice := gas.GasPrice
	if gasPrice == nil {
		gasPrice, err = c.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get gas price: %w", err)
		}
	}

	auth.Context = ctx
	auth.GasLimit = gas.GasLimit
	auth.GasPrice = new(big.Int).Set(gasPrice)

	return auth, nil
}

// PendingNonce returns the next nonce the node expects from account.
func (c *Client) PendingNonce(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce for %s: %w", account.Hex(), err)
	}
	return nonce, nil
}

package contracts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/compose-network/dex-bootstrap/internal/chain"
	"github.com/compose-network/dex-bootstrap/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrDeploymentReverted = errors.New("contract deployment reverted")

type (
	// Deployer deploys compiled artifacts and waits for their inclusion
	Deployer struct {
		client    *chain.Client
		gas       chain.GasSettings
		txTimeout time.Duration
		logger    *slog.Logger
	}

	// Deployment is the result of a successful deployment: a bound handle at a
	// non-zero address and the successful receipt.
	Deployment struct {
		Handle  *Handle
		TxHash  common.Hash
		Receipt *types.Receipt
	}
)

// NewDeployer creates a new contract deployer
func NewDeployer(client *chain.Client, gas chain.GasSettings, txTimeout time.Duration) *Deployer {
	return &Deployer{
		client:    client,
		gas:       gas,
		txTimeout: txTimeout,
		logger:    logger.Named("contracts_deployer"),
	}
}

// Deploy submits a deployment of artifact signed by from and blocks until it
// is included. A failed receipt yields ErrDeploymentReverted.
func (d *Deployer) Deploy(ctx context.Context, artifact Artifact, from *chain.Signer, constructorArgs ...any) (*Deployment, error) {
	if len(artifact.Bytecode) == 0 {
		return nil, fmt.Errorf("artifact %s has no bytecode", artifact.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, d.txTimeout)
	defer cancel()

	auth, err := d.client.TransactOpts(ctx, from, d.gas)
	if err != nil {
		return nil, err
	}

	backend := d.client.Backend()
	address, tx, bound, err := bind.DeployContract(auth, artifact.ABI, artifact.Bytecode, backend, constructorArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s: %w", artifact.Name, err)
	}

	d.logger.
		With("contract", artifact.Name).
		With("address", address.Hex()).
		With("tx_hash", tx.Hash().Hex()).
		Info("contract deployment transaction sent")

	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for %s deployment %s: %w", artifact.Name, tx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s deployment %s failed with status %d", ErrDeploymentReverted, artifact.Name, tx.Hash().Hex(), receipt.Status)
	}
	if receipt.ContractAddress != (common.Address{}) && receipt.ContractAddress != address {
		return nil, fmt.Errorf("%s deployed at %s, expected %s", artifact.Name, receipt.ContractAddress.Hex(), address.Hex())
	}

	d.logger.
		With("contract", artifact.Name).
		With("address", address.Hex()).
		With("block", receipt.BlockNumber).
		With("gas_used", receipt.GasUsed).
		Info("deployed")

	return &Deployment{
		Handle: &Handle{
			Name:    artifact.Name,
			Address: address,
			ABI:     artifact.ABI,
			bound:   bound,
		},
		TxHash:  tx.Hash(),
		Receipt: receipt,
	}, nil
}

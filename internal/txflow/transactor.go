package txflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/compose-network/dex-bootstrap/internal/chain"
	"github.com/compose-network/dex-bootstrap/internal/contracts"
	"github.com/compose-network/dex-bootstrap/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrTransactionReverted = errors.New("transaction reverted")

// Transactor sends state-changing calls and diagnoses the ones that fail.
type Transactor struct {
	client    *chain.Client
	gas       chain.GasSettings
	txTimeout time.Duration
	logger    *slog.Logger
}

func NewTransactor(client *chain.Client, gas chain.GasSettings, txTimeout time.Duration) *Transactor {
	return &Transactor{
		client:    client,
		gas:       gas,
		txTimeout: txTimeout,
		logger:    logger.Named("transactor"),
	}
}

// Transact sends method(args...) on handle signed by from and waits for it.
// When sending, inclusion or execution fails, the identical call is replayed
// from the same caller as a read-only call to recover a revert reason. The
// replay never broadcasts a transaction and its result is only reported.
func (t *Transactor) Transact(ctx context.Context, handle *contracts.Handle, from *chain.Signer, method string, args ...any) Outcome {
	log := t.logger.
		With("contract", handle.Name).
		With("address", handle.Address.Hex()).
		With("method", method)

	receipt, txHash, err := t.send(ctx, handle, from, method, args...)
	if err == nil {
		log.
			With("tx_hash", receipt.TxHash.Hex()).
			With("block", receipt.BlockNumber).
			With("gas_used", receipt.GasUsed).
			Info("transaction confirmed")
		return Confirmed{Receipt: receipt}
	}

	log.With("err", err.Error()).Warn("transaction failed, replaying as call to see why")

	reason := t.diagnose(ctx, handle, from, method, args...)
	log.
		With("tx_hash", txHash.Hex()).
		With("reason", reason).
		Warn("transaction reverted")

	return RevertedDiagnosed{TxHash: txHash, Cause: err, Reason: reason}
}

func (t *Transactor) send(ctx context.Context, handle *contracts.Handle, from *chain.Signer, method string, args ...any) (*types.Receipt, common.Hash, error) {
	ctx, cancel := context.WithTimeout(ctx, t.txTimeout)
	defer cancel()

	auth, err := t.client.TransactOpts(ctx, from, t.gas)
	if err != nil {
		return nil, common.Hash{}, err
	}

	tx, err := handle.Bound().Transact(auth, method, args...)
	if err != nil {
		return nil, common.Hash{}, fmt.Errorf("failed to send %s: %w", method, err)
	}

	t.logger.
		With("method", method).
		With("tx_hash", tx.Hash().Hex()).
		Info("transaction sent")

	receipt, err := bind.WaitMined(ctx, t.client.Backend(), tx)
	if err != nil {
		return nil, tx.Hash(), fmt.Errorf("failed to wait for %s: %w", tx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, tx.Hash(), fmt.Errorf("%w: %s status %d", ErrTransactionReverted, tx.Hash().Hex(), receipt.Status)
	}

	return receipt, tx.Hash(), nil
}

func (t *Transactor) diagnose(ctx context.Context, handle *contracts.Handle, from *chain.Signer, method string, args ...any) string {
	ctx, cancel := context.WithTimeout(ctx, t.txTimeout)
	defer cancel()

	opts := &bind.CallOpts{Context: ctx, From: from.Address}

	var out []any
	err := handle.Bound().Call(opts, &out, method, args...)
	if err == nil {
		return "replayed call succeeded; failure not reproducible outside a transaction"
	}

	return RevertReason(err, handle)
}

// Package chaintest runs an in-process chain for tests that need real
// transaction inclusion and eth_call semantics.
package chaintest

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/compose-network/dex-bootstrap/internal/chain"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

const commitInterval = 50 * time.Millisecond

// Chain is a simulated backend that seals a block every commitInterval, plus
// a funded signer.
type Chain struct {
	Backend *simulated.Backend
	Client  *chain.Client
	Signer  *chain.Signer
	// SignerKeyHex is the funded signer's key, 0x-prefixed.
	SignerKeyHex string
}

// New starts a simulated chain funding a fresh key with 1000 ether. The chain
// is shut down when the test ends.
func New(t *testing.T) *Chain {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyHex := hexutil.Encode(crypto.FromECDSA(key))

	signer, err := chain.NewSigner(keyHex)
	require.NoError(t, err)

	balance := new(big.Int).Mul(big.NewInt(1000), big.NewInt(params.Ether))
	backend := simulated.NewBackend(types.GenesisAlloc{
		signer.Address: {Balance: balance},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(commitInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				backend.Commit()
			}
		}
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		_ = backend.Close()
	})

	client, err := chain.NewClient(context.Background(), backend.Client(), "simulated")
	require.NoError(t, err)

	return &Chain{
		Backend:      backend,
		Client:       client,
		Signer:       signer,
		SignerKeyHex: keyHex,
	}
}

// Gas returns settings that let the node price every transaction.
func (c *Chain) Gas() chain.GasSettings {
	return chain.GasSettings{GasLimit: 5_000_000}
}

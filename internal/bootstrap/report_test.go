package bootstrap_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/compose-network/dex-bootstrap/internal/bootstrap"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteReport(t *testing.T) {
	h := newHarness(t)
	h.transactor.revert = map[string]string{"addLiquidity": "TransferHelper: TRANSFER_FROM_FAILED"}

	result, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, bootstrap.WriteReport(&out, result))
	require.Contains(t, out.String(), "reason: 'TransferHelper: TRANSFER_FROM_FAILED'")

	var decoded struct {
		Network struct {
			ChainID string `yaml:"chain-id"`
		} `yaml:"network"`
		Succeeded    bool                         `yaml:"succeeded"`
		Contracts    map[string]map[string]string `yaml:"contracts"`
		Transactions []map[string]string          `yaml:"transactions"`
		Pair         map[string]string            `yaml:"pair"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))

	require.Equal(t, "31337", decoded.Network.ChainID)
	require.True(t, decoded.Succeeded)
	require.Len(t, decoded.Contracts, 4)
	require.Equal(t, "UniswapV2Router02", decoded.Contracts["router"]["contract"])
	require.Len(t, decoded.Transactions, 5)
	require.Equal(t, "confirmed", decoded.Transactions[0]["status"])
	require.Equal(t, "reverted", decoded.Transactions[4]["status"])
	require.Equal(t, "add-liquidity", decoded.Transactions[4]["step"])
	require.Equal(t, "0", decoded.Pair["reserve-a"])
}

func TestWritePartialReport(t *testing.T) {
	result := &bootstrap.Result{Endpoint: "http://127.0.0.1:8545"}

	var out bytes.Buffer
	require.NoError(t, bootstrap.WriteReport(&out, result))
	require.Contains(t, out.String(), "succeeded: false")
}

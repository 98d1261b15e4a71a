package bootstrap_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/compose-network/dex-bootstrap/internal/bootstrap"
	"github.com/compose-network/dex-bootstrap/internal/chain"
	"github.com/compose-network/dex-bootstrap/internal/contracts"
	"github.com/compose-network/dex-bootstrap/internal/dex"
	"github.com/compose-network/dex-bootstrap/internal/txflow"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const anvilKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	wrappedNative = common.HexToAddress("0x3f0D1FAA13cbE43D662a37690f0e8027f9D89eBF")
	fixedNow      = time.Unix(1_700_000_000, 0)
	pairBytecode  = []byte{0x60, 0x80, 0x60, 0x40}
)

type harness struct {
	deployer   *fakeDeployer
	transactor *fakeTransactor
	reader     *fakeReader
	signer     *chain.Signer
	params     bootstrap.Params
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	signer, err := chain.NewSigner(anvilKey)
	require.NoError(t, err)

	supply, err := dex.ParseEther("9999999999999999999")
	require.NoError(t, err)
	amount, err := dex.ParseEther("10000000")
	require.NoError(t, err)

	return &harness{
		deployer:   &fakeDeployer{},
		transactor: &fakeTransactor{},
		reader:     &fakeReader{wrappedNative: wrappedNative},
		signer:     signer,
		params: bootstrap.Params{
			Gas:                  chain.GasSettings{GasLimit: 10_000_000},
			TxTimeout:            time.Minute,
			DeadlineOffset:       200000 * time.Second,
			TokenA:               bootstrap.TokenParams{Name: "tokenA", Symbol: "TA", Supply: supply},
			TokenB:               bootstrap.TokenParams{Name: "tokenB", Symbol: "TB", Supply: supply},
			LiquidityAmountA:     amount,
			LiquidityAmountB:     amount,
			WrappedNative:        wrappedNative,
			ApproveWrappedNative: true,
			LegacySelfApproval:   true,
		},
	}
}

func (h *harness) orchestrator() *bootstrap.Orchestrator {
	artifacts := contracts.Artifacts{}
	for name := range contracts.Contracts {
		artifacts[name] = contracts.Artifact{Name: name, Bytecode: []byte{0x00}}
	}
	artifacts[contracts.ContractNamePair] = contracts.Artifact{Name: contracts.ContractNamePair, Bytecode: pairBytecode}

	return bootstrap.NewOrchestrator(bootstrap.Dependencies{
		Network:    bootstrap.Network{ChainID: big.NewInt(31337), Endpoint: "http://127.0.0.1:8545"},
		Signer:     h.signer,
		Artifacts:  artifacts,
		Deployer:   h.deployer,
		Transactor: h.transactor,
		Reader:     h.reader,
		Bind:       bindHandle,
		Now:        func() time.Time { return fixedNow },
	}, h.params)
}

func TestRunDeploysInDependencyOrder(t *testing.T) {
	h := newHarness(t)
	h.reader.reserves = h.params.LiquidityAmountA
	h.reader.pair = common.HexToAddress("0x00000000000000000000000000000000000000ff")

	result, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)
	require.True(t, result.Succeeded)

	calls := h.deployer.calls
	require.Len(t, calls, 4)
	require.Equal(t, contracts.ContractNameFactory, calls[0].name)
	require.Equal(t, contracts.ContractNameRouter, calls[1].name)
	require.Equal(t, contracts.ContractNameToken, calls[2].name)
	require.Equal(t, contracts.ContractNameToken, calls[3].name)

	for _, call := range calls {
		require.Equal(t, h.signer.Address, call.from)
	}

	require.Equal(t, []any{h.signer.Address}, calls[0].args)
	require.Equal(t, []any{calls[0].address, wrappedNative}, calls[1].args)
	require.Equal(t, []any{"tokenA", "TA", h.params.TokenA.Supply, h.signer.Address}, calls[2].args)
	require.Equal(t, []any{"tokenB", "TB", h.params.TokenB.Supply, h.signer.Address}, calls[3].args)

	require.Equal(t, [][2]common.Address{
		{calls[2].address, h.signer.Address},
		{calls[3].address, h.signer.Address},
	}, h.reader.balanceQueries)

	router, ok := result.Address(bootstrap.RefRouter)
	require.True(t, ok)
	require.Equal(t, calls[1].address, router)
}

func TestRunApprovesBeforeAddingLiquidity(t *testing.T) {
	h := newHarness(t)
	h.reader.reserves = h.params.LiquidityAmountA
	h.reader.pair = common.HexToAddress("0x00000000000000000000000000000000000000ff")

	result, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{
		"ERC20PresetFixedSupply.approve",
		"ERC20PresetFixedSupply.approve",
		"WETH9.approve",
		"WETH9.approve",
		"UniswapV2Router02.addLiquidity",
	}, h.transactor.methods())

	router := h.deployer.calls[1].address
	tokenA := h.deployer.calls[2].address
	tokenB := h.deployer.calls[3].address
	calls := h.transactor.calls

	require.Equal(t, tokenA, calls[0].address)
	require.Equal(t, []any{router, h.params.LiquidityAmountA}, calls[0].args)
	require.Equal(t, tokenB, calls[1].address)
	require.Equal(t, []any{router, h.params.LiquidityAmountB}, calls[1].args)
	require.Equal(t, wrappedNative, calls[2].address)
	require.Equal(t, wrappedNative, calls[2].args[0])
	require.Equal(t, wrappedNative, calls[3].address)
	require.Equal(t, router, calls[3].args[0])

	liquidity := calls[4]
	require.Equal(t, router, liquidity.address)
	require.Equal(t, []any{
		tokenA,
		tokenB,
		h.params.LiquidityAmountA,
		h.params.LiquidityAmountB,
		new(big.Int),
		new(big.Int),
		h.signer.Address,
		big.NewInt(fixedNow.Unix() + 200000),
	}, liquidity.args)

	require.Len(t, result.Transactions, 5)
	for _, record := range result.Transactions {
		require.IsType(t, txflow.Confirmed{}, record.Outcome)
	}
	require.True(t, result.LiquidityAdded())
	require.Equal(t, h.params.LiquidityAmountA, result.Pair.ReserveA)
	require.Equal(t, h.params.LiquidityAmountB, result.Pair.ReserveB)
}

func TestRunSkipsWrappedNativeApprovalsWhenDisabled(t *testing.T) {
	h := newHarness(t)
	h.params.ApproveWrappedNative = false
	h.params.LegacySelfApproval = false

	_, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{
		"ERC20PresetFixedSupply.approve",
		"ERC20PresetFixedSupply.approve",
		"UniswapV2Router02.addLiquidity",
	}, h.transactor.methods())
}

func TestRunHaltsOnDeploymentFailure(t *testing.T) {
	h := newHarness(t)
	h.deployer.failOn = contracts.ContractNameRouter

	result, err := h.orchestrator().Run(context.Background())
	require.ErrorIs(t, err, contracts.ErrDeploymentReverted)
	require.ErrorContains(t, err, "deploy-router")

	require.NotNil(t, result)
	require.False(t, result.Succeeded)
	require.Len(t, result.Contracts, 1)
	require.Empty(t, h.transactor.calls)
	require.Empty(t, h.reader.pairQueries)
}

func TestRunContinuesAfterRevertedLiquidity(t *testing.T) {
	h := newHarness(t)
	h.transactor.revert = map[string]string{
		"approve":      "execution reverted",
		"addLiquidity": "TransferHelper: TRANSFER_FROM_FAILED",
	}

	result, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)
	require.True(t, result.Succeeded)

	last := result.Transactions[len(result.Transactions)-1]
	require.Equal(t, "add-liquidity", last.Step)
	reverted, ok := last.Outcome.(txflow.RevertedDiagnosed)
	require.True(t, ok)
	require.Equal(t, "TransferHelper: TRANSFER_FROM_FAILED", reverted.Reason)

	// verification still ran and tolerated the missing pair
	require.Len(t, h.reader.pairQueries, 1)
	require.Equal(t, common.Address{}, result.Pair.Address)
	require.Zero(t, result.Pair.ReserveA.Sign())
	require.False(t, result.LiquidityAdded())
}

func TestVerifyQueriesFactoryWithBothTokens(t *testing.T) {
	h := newHarness(t)

	_, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, [][3]common.Address{{
		h.deployer.calls[0].address,
		h.deployer.calls[2].address,
		h.deployer.calls[3].address,
	}}, h.reader.pairQueries)
}

func TestVerifyPredictsPairAddress(t *testing.T) {
	h := newHarness(t)
	factory := common.BigToAddress(big.NewInt(0x1001))
	tokenA := common.BigToAddress(big.NewInt(0x1003))
	tokenB := common.BigToAddress(big.NewInt(0x1004))
	h.reader.pair = dex.PredictPairAddress(factory, tokenA, tokenB, pairBytecode)
	h.reader.reserves = big.NewInt(1)

	result, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, h.reader.pair, result.Pair.Predicted)
	require.Equal(t, dex.InitCodeHash(pairBytecode), result.Pair.InitCodeHash)
	require.Equal(t, tokenA, result.Pair.Reserves.Token0)
}

func TestVerifyReadErrorIsTerminal(t *testing.T) {
	h := newHarness(t)
	h.reader.pairErr = errReadFailed

	result, err := h.orchestrator().Run(context.Background())
	require.ErrorIs(t, err, errReadFailed)
	require.ErrorContains(t, err, "verify")
	require.False(t, result.Succeeded)
	require.Len(t, result.Contracts, 4)
}

func TestAllowanceReadErrorIsLoggedOnly(t *testing.T) {
	h := newHarness(t)
	h.reader.allowanceErr = errReadFailed

	result, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)
	require.True(t, result.Succeeded)
}

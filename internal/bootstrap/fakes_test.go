package bootstrap_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/compose-network/dex-bootstrap/internal/chain"
	"github.com/compose-network/dex-bootstrap/internal/contracts"
	"github.com/compose-network/dex-bootstrap/internal/dex"
	"github.com/compose-network/dex-bootstrap/internal/txflow"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type deployCall struct {
	name    contracts.ContractName
	from    common.Address
	args    []any
	address common.Address
}

type fakeDeployer struct {
	calls  []deployCall
	failOn contracts.ContractName
}

func (d *fakeDeployer) Deploy(_ context.Context, artifact contracts.Artifact, from *chain.Signer, args ...any) (*contracts.Deployment, error) {
	if artifact.Name == d.failOn {
		return nil, fmt.Errorf("%w: %s", contracts.ErrDeploymentReverted, artifact.Name)
	}

	address := common.BigToAddress(big.NewInt(int64(0x1000 + len(d.calls) + 1)))
	d.calls = append(d.calls, deployCall{name: artifact.Name, from: from.Address, args: args, address: address})

	txHash := common.BigToHash(big.NewInt(int64(len(d.calls))))
	return &contracts.Deployment{
		Handle:  &contracts.Handle{Name: artifact.Name, Address: address, ABI: artifact.ABI},
		TxHash:  txHash,
		Receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: txHash, ContractAddress: address, GasUsed: 100_000},
	}, nil
}

type transactCall struct {
	contract contracts.ContractName
	address  common.Address
	method   string
	args     []any
}

type fakeTransactor struct {
	calls []transactCall
	// revert maps a method name to the reason its calls revert with.
	revert map[string]string
}

func (f *fakeTransactor) Transact(_ context.Context, handle *contracts.Handle, _ *chain.Signer, method string, args ...any) txflow.Outcome {
	f.calls = append(f.calls, transactCall{contract: handle.Name, address: handle.Address, method: method, args: args})

	txHash := common.BigToHash(big.NewInt(int64(0x100 + len(f.calls))))
	if reason, ok := f.revert[method]; ok {
		return txflow.RevertedDiagnosed{
			TxHash: txHash,
			Cause:  txflow.ErrTransactionReverted,
			Reason: reason,
		}
	}
	return txflow.Confirmed{Receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: txHash, GasUsed: 50_000}}
}

func (f *fakeTransactor) methods() []string {
	methods := make([]string, len(f.calls))
	for i, call := range f.calls {
		methods[i] = string(call.contract) + "." + call.method
	}
	return methods
}

type fakeReader struct {
	wrappedNative  common.Address
	pair           common.Address
	pairErr        error
	reserves       *big.Int
	allowanceErr   error
	pairQueries    [][3]common.Address
	balanceQueries [][2]common.Address
}

func (r *fakeReader) PairAddress(_ context.Context, factory, tokenA, tokenB common.Address) (common.Address, error) {
	r.pairQueries = append(r.pairQueries, [3]common.Address{factory, tokenA, tokenB})
	return r.pair, r.pairErr
}

func (r *fakeReader) Reserves(_ context.Context, pair common.Address) (dex.Reserves, error) {
	if pair == (common.Address{}) {
		return dex.Reserves{Reserve0: new(big.Int), Reserve1: new(big.Int)}, nil
	}
	// token addresses are assigned in deployment order: token-a, token-b
	return dex.Reserves{
		Token0:   common.BigToAddress(big.NewInt(0x1003)),
		Token1:   common.BigToAddress(big.NewInt(0x1004)),
		Reserve0: r.reserves,
		Reserve1: r.reserves,
	}, nil
}

func (r *fakeReader) WrappedNative(context.Context, common.Address) (common.Address, error) {
	return r.wrappedNative, nil
}

func (r *fakeReader) Allowance(context.Context, common.Address, common.Address, common.Address) (*big.Int, error) {
	if r.allowanceErr != nil {
		return nil, r.allowanceErr
	}
	return new(big.Int), nil
}

func (r *fakeReader) BalanceOf(_ context.Context, token, account common.Address) (*big.Int, error) {
	r.balanceQueries = append(r.balanceQueries, [2]common.Address{token, account})
	return new(big.Int), nil
}

var errReadFailed = errors.New("read failed")

func bindHandle(name contracts.ContractName, address common.Address, contractABI abi.ABI) *contracts.Handle {
	return &contracts.Handle{Name: name, Address: address, ABI: contractABI}
}

package contracts

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

type (
	ContractName string

	// Artifact is a compiled contract as shipped by its build tool.
	Artifact struct {
		Name     ContractName
		ABI      abi.ABI
		Bytecode []byte
	}

	// Handle is a deployed (or pre-existing) contract bound to a backend.
	Handle struct {
		Name    ContractName
		Address common.Address
		ABI     abi.ABI
		bound   *bind.BoundContract
	}
)

const (
	ContractNameFactory       ContractName = "UniswapV2Factory"
	ContractNameRouter        ContractName = "UniswapV2Router02"
	ContractNameToken         ContractName = "ERC20PresetFixedSupply"
	ContractNamePair          ContractName = "UniswapV2Pair"
	ContractNameWrappedNative ContractName = "WETH9"
)

// Contracts lists every artifact the bootstrap loads, keyed by name.
var Contracts = map[ContractName]struct{}{
	ContractNameFactory:       {},
	ContractNameRouter:        {},
	ContractNameToken:         {},
	ContractNamePair:          {},
	ContractNameWrappedNative: {},
}

// NewHandle binds the contract at address to backend.
func NewHandle(name ContractName, address common.Address, contractABI abi.ABI, backend bind.ContractBackend) *Handle {
	return &Handle{
		Name:    name,
		Address: address,
		ABI:     contractABI,
		bound:   bind.NewBoundContract(address, contractABI, backend, backend, backend),
	}
}

// Bound exposes the go-ethereum bound contract for transactions and calls.
func (h *Handle) Bound() *bind.BoundContract {
	return h.bound
}

package chaintest

import "github.com/ethereum/go-ethereum/common"

// Hand assembled init code used as deployment fixtures.
var (
	// EmptyContractCode deploys an account with no runtime code; every call
	// to it succeeds.
	EmptyContractCode = common.FromHex("0x00")

	// RevertOnDeployCode reverts inside the constructor.
	RevertOnDeployCode = common.FromHex("0x60006000fd")

	// RevertingContractCode deploys runtime code that reverts every call with
	// Error("nope").
	RevertingContractCode = common.FromHex(
		"0x603e80600b6000396000f3" +
			"6308c379a060e01b600052602060045260046024527f" +
			"6e6f706500000000000000000000000000000000000000000000000000000000" +
			"60445260646000fd",
	)
)

// RevertReason is the reason string RevertingContractCode reverts with.
const RevertReason = "nope"

// TokenLikeABI declares the ERC-20 surface the fixtures are called through.
const TokenLikeABI = `[
	{"type":"constructor","inputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"error","name":"InsufficientAllowance",
	 "inputs":[{"name":"needed","type":"uint256"}]}
]`

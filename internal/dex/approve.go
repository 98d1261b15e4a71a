package dex

import (
	"context"
	"math/big"

	"github.com/compose-network/dex-bootstrap/internal/chain"
	"github.com/compose-network/dex-bootstrap/internal/contracts"
	"github.com/compose-network/dex-bootstrap/internal/txflow"
	"github.com/ethereum/go-ethereum/common"
)

// Transactor sends a state-changing call and reports its outcome.
type Transactor interface {
	Transact(ctx context.Context, handle *contracts.Handle, from *chain.Signer, method string, args ...any) txflow.Outcome
}

// Approve lets spender move amount of token on behalf of from. A failed
// approval is diagnosed and returned, never raised: downstream steps must
// tolerate an allowance that is still zero.
func Approve(ctx context.Context, tx Transactor, token *contracts.Handle, spender common.Address, amount *big.Int, from *chain.Signer) txflow.Outcome {
	return tx.Transact(ctx, token, from, "approve", spender, amount)
}

// AddLiquidity calls router.addLiquidity with the given parameters.
func AddLiquidity(ctx context.Context, tx Transactor, router *contracts.Handle, params LiquidityParams, from *chain.Signer) txflow.Outcome {
	return tx.Transact(ctx, router, from, "addLiquidity",
		params.TokenA,
		params.TokenB,
		params.AmountADesired,
		params.AmountBDesired,
		params.AmountAMin,
		params.AmountBMin,
		params.To,
		params.Deadline,
	)
}

// LiquidityParams are the arguments of router.addLiquidity.
type LiquidityParams struct {
	TokenA         common.Address
	TokenB         common.Address
	AmountADesired *big.Int
	AmountBDesired *big.Int
	AmountAMin     *big.Int
	AmountBMin     *big.Int
	To             common.Address
	Deadline       *big.Int
}

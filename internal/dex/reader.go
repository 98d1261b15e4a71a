package dex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/compose-network/dex-bootstrap/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lmittmann/w3"
)

// errNoCode is returned when a read call hits an address without code.
var errNoCode = errors.New("no contract code at address")

var (
	funcGetPair     = w3.MustNewFunc("getPair(address,address)", "address")
	funcGetReserves = w3.MustNewFunc("getReserves()", "uint112 reserve0,uint112 reserve1,uint32 blockTimestampLast")
	funcToken0      = w3.MustNewFunc("token0()", "address")
	funcToken1      = w3.MustNewFunc("token1()", "address")
	funcWETH        = w3.MustNewFunc("WETH()", "address")
	funcAllowance   = w3.MustNewFunc("allowance(address,address)", "uint256")
	funcBalanceOf   = w3.MustNewFunc("balanceOf(address)", "uint256")
)

type (
	// Reader performs the read-only calls used to verify a bootstrap.
	Reader struct {
		caller ethereum.ContractCaller
		from   common.Address
		logger *slog.Logger
	}

	// Reserves of a pair in smallest units, in the pair's token order.
	Reserves struct {
		Token0   common.Address
		Token1   common.Address
		Reserve0 *big.Int
		Reserve1 *big.Int
	}
)

// NewReader creates a reader issuing calls from the given caller address.
func NewReader(caller ethereum.ContractCaller, from common.Address) *Reader {
	return &Reader{
		caller: caller,
		from:   from,
		logger: logger.Named("dex_reader"),
	}
}

// PairAddress returns factory.getPair(tokenA, tokenB); the zero address when
// no pair exists.
func (r *Reader) PairAddress(ctx context.Context, factory, tokenA, tokenB common.Address) (common.Address, error) {
	var pair common.Address
	err := r.call(ctx, factory, "getPair", funcGetPair, []any{tokenA, tokenB}, &pair)
	if errors.Is(err, errNoCode) {
		r.logger.With("factory", factory.Hex()).Warn("factory has no code, reporting no pair")
		return common.Address{}, nil
	}
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get pair for %s/%s: %w", tokenA.Hex(), tokenB.Hex(), err)
	}
	return pair, nil
}

// Reserves returns the pair's reserves. A zero pair address or a pair
// without code reports zero reserves instead of failing.
func (r *Reader) Reserves(ctx context.Context, pair common.Address) (Reserves, error) {
	reserves := Reserves{Reserve0: new(big.Int), Reserve1: new(big.Int)}
	if pair == (common.Address{}) {
		r.logger.Warn("no pair deployed, reporting zero reserves")
		return reserves, nil
	}

	input, err := funcGetReserves.EncodeArgs()
	if err != nil {
		return Reserves{}, fmt.Errorf("failed to encode getReserves: %w", err)
	}
	output, err := r.caller.CallContract(ctx, ethereum.CallMsg{From: r.from, To: &pair, Data: input}, nil)
	if err != nil {
		return Reserves{}, fmt.Errorf("failed to call getReserves on %s: %w", pair.Hex(), err)
	}
	if len(output) == 0 {
		r.logger.With("pair", pair.Hex()).Warn("pair has no code, reporting zero reserves")
		return reserves, nil
	}

	var blockTimestampLast uint32
	if err := funcGetReserves.DecodeReturns(output, reserves.Reserve0, reserves.Reserve1, &blockTimestampLast); err != nil {
		return Reserves{}, fmt.Errorf("failed to decode getReserves: %w", err)
	}

	if err := r.call(ctx, pair, "token0", funcToken0, nil, &reserves.Token0); err != nil {
		return Reserves{}, fmt.Errorf("failed to get token0 of %s: %w", pair.Hex(), err)
	}
	if err := r.call(ctx, pair, "token1", funcToken1, nil, &reserves.Token1); err != nil {
		return Reserves{}, fmt.Errorf("failed to get token1 of %s: %w", pair.Hex(), err)
	}

	return reserves, nil
}

// WrappedNative returns router.WETH().
func (r *Reader) WrappedNative(ctx context.Context, router common.Address) (common.Address, error) {
	var weth common.Address
	if err := r.call(ctx, router, "WETH", funcWETH, nil, &weth); err != nil {
		return common.Address{}, fmt.Errorf("failed to read WETH from router %s: %w", router.Hex(), err)
	}
	return weth, nil
}

// Allowance returns token.allowance(owner, spender).
func (r *Reader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	allowance := new(big.Int)
	if err := r.call(ctx, token, "allowance", funcAllowance, []any{owner, spender}, allowance); err != nil {
		return nil, fmt.Errorf("failed to read allowance on %s: %w", token.Hex(), err)
	}
	return allowance, nil
}

// BalanceOf returns token.balanceOf(account).
func (r *Reader) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	balance := new(big.Int)
	if err := r.call(ctx, token, "balanceOf", funcBalanceOf, []any{account}, balance); err != nil {
		return nil, fmt.Errorf("failed to read balance on %s: %w", token.Hex(), err)
	}
	return balance, nil
}

func (r *Reader) call(ctx context.Context, to common.Address, name string, fn *w3.Func, args []any, returns ...any) error {
	input, err := fn.EncodeArgs(args...)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	output, err := r.caller.CallContract(ctx, ethereum.CallMsg{From: r.from, To: &to, Data: input}, nil)
	if err != nil {
		return err
	}
	if len(output) == 0 {
		return fmt.Errorf("%s on %s: %w", name, to.Hex(), errNoCode)
	}

	if err := fn.DecodeReturns(output, returns...); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}

	return nil
}

// For returns the reserve held for token, or nil when token is not part of
// the pair.
func (r Reserves) For(token common.Address) *big.Int {
	switch token {
	case r.Token0:
		return r.Reserve0
	case r.Token1:
		return r.Reserve1
	default:
		return nil
	}
}

// SortTokens orders two token addresses the way a pair stores them.
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if tokenA.Cmp(tokenB) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}

// PredictPairAddress computes the CREATE2 address the factory deploys the
// pair of tokenA/tokenB at, given the pair's creation bytecode.
func PredictPairAddress(factory, tokenA, tokenB common.Address, pairBytecode []byte) common.Address {
	token0, token1 := SortTokens(tokenA, tokenB)
	salt := crypto.Keccak256Hash(token0.Bytes(), token1.Bytes())
	return crypto.CreateAddress2(factory, salt, crypto.Keccak256(pairBytecode))
}

// InitCodeHash is the hash a router must embed to locate pairs of this
// bytecode.
func InitCodeHash(pairBytecode []byte) common.Hash {
	return crypto.Keccak256Hash(pairBytecode)
}

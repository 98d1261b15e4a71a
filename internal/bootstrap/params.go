package bootstrap

import (
	"fmt"
	"math/big"
	"time"

	"github.com/compose-network/dex-bootstrap/configs"
	"github.com/compose-network/dex-bootstrap/internal/chain"
	"github.com/compose-network/dex-bootstrap/internal/dex"
	"github.com/ethereum/go-ethereum/common"
)

type (
	// Params holds every constant of a run.
	Params struct {
		Gas                  chain.GasSettings
		TxTimeout            time.Duration
		DeadlineOffset       time.Duration
		TokenA               TokenParams
		TokenB               TokenParams
		LiquidityAmountA     *big.Int
		LiquidityAmountB     *big.Int
		WrappedNative        common.Address
		ApproveWrappedNative bool
		LegacySelfApproval   bool
	}

	TokenParams struct {
		Name   string
		Symbol string
		Supply *big.Int
	}
)

// ParamsFromConfig converts validated configuration into run parameters.
func ParamsFromConfig(cfg configs.Bootstrap) (Params, error) {
	var gasPrice *big.Int
	if cfg.GasPriceWei != "" {
		price, ok := new(big.Int).SetString(cfg.GasPriceWei, 10)
		if !ok {
			return Params{}, fmt.Errorf("invalid gas price %q", cfg.GasPriceWei)
		}
		gasPrice = price
	}

	tokenA, err := tokenParams(cfg.TokenA)
	if err != nil {
		return Params{}, fmt.Errorf("token-a: %w", err)
	}
	tokenB, err := tokenParams(cfg.TokenB)
	if err != nil {
		return Params{}, fmt.Errorf("token-b: %w", err)
	}

	amountA, err := dex.ParseEther(cfg.LiquidityAmountA)
	if err != nil {
		return Params{}, fmt.Errorf("liquidity-amount-a: %w", err)
	}
	amountB, err := dex.ParseEther(cfg.LiquidityAmountB)
	if err != nil {
		return Params{}, fmt.Errorf("liquidity-amount-b: %w", err)
	}

	return Params{
		Gas:                  chain.GasSettings{GasLimit: cfg.GasLimit, GasPrice: gasPrice},
		TxTimeout:            cfg.TxTimeout,
		DeadlineOffset:       time.Duration(cfg.DeadlineOffsetSeconds) * time.Second,
		TokenA:               tokenA,
		TokenB:               tokenB,
		LiquidityAmountA:     amountA,
		LiquidityAmountB:     amountB,
		WrappedNative:        common.HexToAddress(cfg.WrappedNativeAddress),
		ApproveWrappedNative: cfg.ApproveWrappedNative,
		LegacySelfApproval:   cfg.LegacySelfApproval,
	}, nil
}

func tokenParams(cfg configs.Token) (TokenParams, error) {
	supply, err := dex.ParseEther(cfg.Supply)
	if err != nil {
		return TokenParams{}, fmt.Errorf("supply: %w", err)
	}
	return TokenParams{Name: cfg.Name, Symbol: cfg.Symbol, Supply: supply}, nil
}

// usesWrappedNative reports whether any step talks to the wrapped-native token.
func (p Params) usesWrappedNative() bool {
	return p.ApproveWrappedNative || p.LegacySelfApproval
}

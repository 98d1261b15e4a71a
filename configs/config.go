package configs

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var Values Config

type (
	Config struct {
		LogLevel  string    `mapstructure:"log-level"`
		LogOutput string    `mapstructure:"log-output"`
		Bootstrap Bootstrap `mapstructure:"bootstrap"`
		Devnet    Devnet    `mapstructure:"devnet"`
	}

	Bootstrap struct {
		RPCURL                string        `mapstructure:"rpc-url"`
		PrivateKey            string        `mapstructure:"private-key"`
		ArtifactsDir          string        `mapstructure:"artifacts-dir"`
		WrappedNativeAddress  string        `mapstructure:"wrapped-native-address"`
		GasLimit              uint64        `mapstructure:"gas-limit"`
		GasPriceWei           string        `mapstructure:"gas-price-wei"`
		TxTimeout             time.Duration `mapstructure:"tx-timeout"`
		DeadlineOffsetSeconds int           `mapstructure:"deadline-offset-seconds"`
		TokenA                Token         `mapstructure:"token-a"`
		TokenB                Token         `mapstructure:"token-b"`
		LiquidityAmountA      string        `mapstructure:"liquidity-amount-a"`
		LiquidityAmountB      string        `mapstructure:"liquidity-amount-b"`
		ApproveWrappedNative  bool          `mapstructure:"approve-wrapped-native"`
		LegacySelfApproval    bool          `mapstructure:"legacy-wrapped-native-self-approval"`
	}

	// Token describes a fixed-supply ERC-20 deployment. Supply is in whole
	// tokens (18 decimals).
	Token struct {
		Name   string `mapstructure:"name"`
		Symbol string `mapstructure:"symbol"`
		Supply string `mapstructure:"supply"`
	}

	Devnet struct {
		Image         string `mapstructure:"image"`
		ContainerName string `mapstructure:"container-name"`
		HostPort      int    `mapstructure:"host-port"`
		ChainID       int    `mapstructure:"chain-id"`
	}
)

func (c *Bootstrap) Validate() error {
	var errs []error

	if c.RPCURL == "" {
		errs = append(errs, errors.New("bootstrap.rpc-url is required"))
	}
	if c.PrivateKey == "" {
		errs = append(errs, errors.New("bootstrap.private-key is required"))
	}
	if c.ArtifactsDir == "" {
		errs = append(errs, errors.New("bootstrap.artifacts-dir is required"))
	}
	if c.WrappedNativeAddress == "" {
		errs = append(errs, errors.New("bootstrap.wrapped-native-address is required"))
	} else if !common.IsHexAddress(c.WrappedNativeAddress) {
		errs = append(errs, fmt.Errorf("bootstrap.wrapped-native-address %q is not a hex address", c.WrappedNativeAddress))
	}
	if c.GasLimit == 0 {
		errs = append(errs, errors.New("bootstrap.gas-limit is required"))
	}
	if c.GasPriceWei != "" {
		if _, ok := new(big.Int).SetString(c.GasPriceWei, 10); !ok {
			errs = append(errs, fmt.Errorf("bootstrap.gas-price-wei %q is not a base-10 integer", c.GasPriceWei))
		}
	}
	if c.TxTimeout <= 0 {
		errs = append(errs, errors.New("bootstrap.tx-timeout must be positive"))
	}
	if c.DeadlineOffsetSeconds <= 0 {
		errs = append(errs, errors.New("bootstrap.deadline-offset-seconds must be positive"))
	}

	errs = append(errs, c.TokenA.validate("bootstrap.token-a")...)
	errs = append(errs, c.TokenB.validate("bootstrap.token-b")...)

	if strings.TrimSpace(c.LiquidityAmountA) == "" {
		errs = append(errs, errors.New("bootstrap.liquidity-amount-a is required"))
	}
	if strings.TrimSpace(c.LiquidityAmountB) == "" {
		errs = append(errs, errors.New("bootstrap.liquidity-amount-b is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("bootstrap configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (t Token) validate(key string) []error {
	var errs []error
	if t.Name == "" {
		errs = append(errs, fmt.Errorf("%s.name is required", key))
	}
	if t.Symbol == "" {
		errs = append(errs, fmt.Errorf("%s.symbol is required", key))
	}
	if t.Supply == "" {
		errs = append(errs, fmt.Errorf("%s.supply is required", key))
	}
	return errs
}

func (c *Devnet) Validate() error {
	var errs []error

	if c.Image == "" {
		errs = append(errs, errors.New("devnet.image is required"))
	}
	if c.ContainerName == "" {
		errs = append(errs, errors.New("devnet.container-name is required"))
	}
	if c.HostPort <= 0 || c.HostPort > 65535 {
		errs = append(errs, fmt.Errorf("devnet.host-port %d is out of range", c.HostPort))
	}
	if c.ChainID <= 0 {
		errs = append(errs, errors.New("devnet.chain-id is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("devnet configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

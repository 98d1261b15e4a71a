package bootstrap

import (
	"github.com/spf13/viper"
)

type (
	flagType interface {
		string | int | bool
	}

	flagDef[T flagType] struct {
		name         string
		viperKey     string
		defaultValue T
		description  string
	}
)

var (
	stringFlags = []flagDef[string]{
		// Chain
		{"rpc-url", "bootstrap.rpc-url", "", "JSON-RPC endpoint of the target chain"},
		{"private-key", "bootstrap.private-key", "", "Hex private key of the deploying account"},
		{"gas-price-wei", "bootstrap.gas-price-wei", "", "Fixed gas price in wei (empty: node suggestion)"},
		{"tx-timeout", "bootstrap.tx-timeout", "2m", "How long to wait for each transaction to be mined"},

		// Contracts
		{"artifacts-dir", "bootstrap.artifacts-dir", "", "Directory holding compiled contract JSON artifacts"},
		{"wrapped-native-address", "bootstrap.wrapped-native-address", "", "Address of the wrapped native token"},

		// Tokens and liquidity
		{"token-a-name", "bootstrap.token-a.name", "", "Name of the first token"},
		{"token-a-symbol", "bootstrap.token-a.symbol", "", "Symbol of the first token"},
		{"token-a-supply", "bootstrap.token-a.supply", "", "Supply of the first token in whole tokens"},
		{"token-b-name", "bootstrap.token-b.name", "", "Name of the second token"},
		{"token-b-symbol", "bootstrap.token-b.symbol", "", "Symbol of the second token"},
		{"token-b-supply", "bootstrap.token-b.supply", "", "Supply of the second token in whole tokens"},
		{"liquidity-amount-a", "bootstrap.liquidity-amount-a", "", "Amount of the first token to approve and add"},
		{"liquidity-amount-b", "bootstrap.liquidity-amount-b", "", "Amount of the second token to approve and add"},
	}

	intFlags = []flagDef[int]{
		{"gas-limit", "bootstrap.gas-limit", 10_000_000, "Gas limit of every transaction"},
		{"deadline-offset-seconds", "bootstrap.deadline-offset-seconds", 200000, "addLiquidity deadline, seconds from now"},
	}

	boolFlags = []flagDef[bool]{
		{"approve-wrapped-native", "bootstrap.approve-wrapped-native", true, "Approve the router to spend the wrapped native token"},
		{"legacy-wrapped-native-self-approval", "bootstrap.legacy-wrapped-native-self-approval", true, "Also approve the wrapped native token as its own spender"},
	}
)

func init() {
	if err := declareFlags(stringFlags); err != nil {
		panic(err)
	}
	if err := declareFlags(intFlags); err != nil {
		panic(err)
	}
	if err := declareFlags(boolFlags); err != nil {
		panic(err)
	}
	CMD.AddCommand(planCmd)
}

// declareFlags declares persistent flags, shared with the plan subcommand,
// and binds each to its viper key.
func declareFlags[T flagType](flags []flagDef[T]) error {
	for _, flag := range flags {
		if err := declareFlag(flag.name, flag.viperKey, flag.defaultValue, flag.description); err != nil {
			return err
		}
	}
	return nil
}

func declareFlag[T flagType](flagName, viperKey string, defaultValue T, description string) error {
	fs := CMD.PersistentFlags()
	switch v := any(defaultValue).(type) {
	case string:
		fs.String(flagName, v, description)
	case int:
		fs.Int(flagName, v, description)
	case bool:
		fs.Bool(flagName, v, description)
	}
	return viper.BindPFlag(viperKey, fs.Lookup(flagName))
}

package bootstrap

import (
	"fmt"
	"io"
	"math/big"

	"github.com/compose-network/dex-bootstrap/internal/contracts"
	"github.com/compose-network/dex-bootstrap/internal/dex"
	"github.com/compose-network/dex-bootstrap/internal/txflow"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

type (
	// Result is what a run produced, complete or partial.
	Result struct {
		ChainID      *big.Int
		Endpoint     string
		Signer       common.Address
		Contracts    []ContractRecord
		Transactions []TransactionRecord
		Pair         PairRecord
		Succeeded    bool
	}

	ContractRecord struct {
		Ref      Ref
		Contract contracts.ContractName
		Address  common.Address
		TxHash   common.Hash
		GasUsed  uint64
	}

	TransactionRecord struct {
		Step    string
		Label   string
		Outcome txflow.Outcome
	}

	PairRecord struct {
		Address      common.Address
		Predicted    common.Address
		InitCodeHash common.Hash
		Reserves     dex.Reserves
		ReserveA     *big.Int
		ReserveB     *big.Int
	}
)

// LiquidityAdded reports whether the pair ended up holding reserves of both tokens.
func (r *Result) LiquidityAdded() bool {
	return r.Pair.ReserveA != nil && r.Pair.ReserveA.Sign() > 0 &&
		r.Pair.ReserveB != nil && r.Pair.ReserveB.Sign() > 0
}

// Address returns the address recorded for ref, if any.
func (r *Result) Address(ref Ref) (common.Address, bool) {
	if ref == RefPair {
		return r.Pair.Address, r.Pair.Address != (common.Address{})
	}
	for _, c := range r.Contracts {
		if c.Ref == ref {
			return c.Address, true
		}
	}
	return common.Address{}, false
}

type (
	reportModel struct {
		Network      reportNetwork       `yaml:"network"`
		Signer       string              `yaml:"signer"`
		Succeeded    bool                `yaml:"succeeded"`
		Contracts    map[Ref]reportEntry `yaml:"contracts"`
		Transactions []reportTransaction `yaml:"transactions"`
		Pair         reportPair          `yaml:"pair"`
	}
	reportNetwork struct {
		ChainID  string `yaml:"chain-id"`
		Endpoint string `yaml:"endpoint"`
	}
	reportEntry struct {
		Contract string `yaml:"contract"`
		Address  string `yaml:"address"`
		TxHash   string `yaml:"tx-hash"`
		GasUsed  uint64 `yaml:"gas-used"`
	}
	reportTransaction struct {
		Step    string             `yaml:"step"`
		Label   string             `yaml:"label"`
		Status  string             `yaml:"status"`
		TxHash  string             `yaml:"tx-hash,omitempty"`
		GasUsed uint64             `yaml:"gas-used,omitempty"`
		Reason  singleQuotedString `yaml:"reason,omitempty"`
	}
	reportPair struct {
		Address      string `yaml:"address"`
		Predicted    string `yaml:"predicted,omitempty"`
		InitCodeHash string `yaml:"init-code-hash,omitempty"`
		Token0       string `yaml:"token0,omitempty"`
		Token1       string `yaml:"token1,omitempty"`
		ReserveA     string `yaml:"reserve-a"`
		ReserveB     string `yaml:"reserve-b"`
	}

	// singleQuotedString keeps revert reasons with colons and brackets readable.
	singleQuotedString string
)

func (s singleQuotedString) MarshalYAML() (any, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Style: yaml.SingleQuotedStyle,
		Value: string(s),
	}, nil
}

// WriteReport renders the result as YAML.
func WriteReport(w io.Writer, result *Result) error {
	model := reportModel{
		Network: reportNetwork{
			ChainID:  bigString(result.ChainID),
			Endpoint: result.Endpoint,
		},
		Signer:    result.Signer.Hex(),
		Succeeded: result.Succeeded,
		Contracts: make(map[Ref]reportEntry, len(result.Contracts)),
		Pair: reportPair{
			Address:  result.Pair.Address.Hex(),
			ReserveA: dex.FormatUnits(result.Pair.ReserveA),
			ReserveB: dex.FormatUnits(result.Pair.ReserveB),
		},
	}

	for _, c := range result.Contracts {
		model.Contracts[c.Ref] = reportEntry{
			Contract: string(c.Contract),
			Address:  c.Address.Hex(),
			TxHash:   c.TxHash.Hex(),
			GasUsed:  c.GasUsed,
		}
	}

	for _, t := range result.Transactions {
		entry := reportTransaction{Step: t.Step, Label: t.Label}
		switch o := t.Outcome.(type) {
		case txflow.Confirmed:
			entry.Status = "confirmed"
			entry.TxHash = o.Receipt.TxHash.Hex()
			entry.GasUsed = o.Receipt.GasUsed
		case txflow.RevertedDiagnosed:
			entry.Status = "reverted"
			if o.TxHash != (common.Hash{}) {
				entry.TxHash = o.TxHash.Hex()
			}
			entry.Reason = singleQuotedString(o.Reason)
		default:
			entry.Status = "unknown"
		}
		model.Transactions = append(model.Transactions, entry)
	}

	if result.Pair.Predicted != (common.Address{}) {
		model.Pair.Predicted = result.Pair.Predicted.Hex()
		model.Pair.InitCodeHash = result.Pair.InitCodeHash.Hex()
	}
	if result.Pair.Reserves.Token0 != (common.Address{}) {
		model.Pair.Token0 = result.Pair.Reserves.Token0.Hex()
		model.Pair.Token1 = result.Pair.Reserves.Token1.Hex()
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(model); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return encoder.Close()
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/lmittmann/w3"
)

// Decimals of every amount handled by the bootstrap.
const Decimals = 18

// ParseEther converts a decimal amount of whole tokens ("10000000", "0.5")
// to its smallest unit.
func ParseEther(amount string) (wei *big.Int, err error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("negative amount %q", amount)
	}
	if dot := strings.IndexByte(amount, '.'); dot >= 0 && len(amount)-dot-1 > Decimals {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", amount, Decimals)
	}

	// w3.I panics on malformed input
	defer func() {
		if r := recover(); r != nil {
			wei, err = nil, fmt.Errorf("invalid amount %q: %v", amount, r)
		}
	}()

	wei = w3.I(amount + " ether")
	if wei == nil {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	return wei, nil
}

// FormatUnits renders a smallest-unit amount as a decimal number of whole
// tokens, for display only.
func FormatUnits(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return w3.FromWei(wei, Decimals)
}

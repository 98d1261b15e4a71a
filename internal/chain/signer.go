package chain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is the single identity that signs every transaction of a run.
type Signer struct {
	Address common.Address
	key     *ecdsa.PrivateKey
}

// NewSigner parses a hex private key, with or without the 0x prefix.
func NewSigner(hexKey string) (*Signer, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"), "0X")
	privateKey, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return &Signer{
		Address: crypto.PubkeyToAddress(privateKey.PublicKey),
		key:     privateKey,
	}, nil
}

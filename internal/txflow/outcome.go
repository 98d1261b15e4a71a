package txflow

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type (
	// Outcome is the result of a state-changing call: either Confirmed or
	// RevertedDiagnosed. Callers switch on the concrete type.
	Outcome interface {
		outcome()
	}

	// Confirmed carries the receipt of an included, successful transaction.
	Confirmed struct {
		Receipt *types.Receipt
	}

	// RevertedDiagnosed carries the failure and the reason recovered by
	// replaying the call. TxHash is zero when the transaction never reached
	// the node.
	RevertedDiagnosed struct {
		TxHash common.Hash
		Cause  error
		Reason string
	}
)

func (Confirmed) outcome()         {}
func (RevertedDiagnosed) outcome() {}

// TxHash returns the transaction hash of an outcome, if one was produced.
func TxHash(o Outcome) common.Hash {
	switch o := o.(type) {
	case Confirmed:
		return o.Receipt.TxHash
	case RevertedDiagnosed:
		return o.TxHash
	default:
		return common.Hash{}
	}
}

package txflow

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/compose-network/dex-bootstrap/internal/contracts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// RevertReason turns a failed eth_call error into a human readable reason.
// Error(string) payloads are unpacked, custom errors are matched against the
// handle's ABI, anything else falls back to the error text.
func RevertReason(err error, handle *contracts.Handle) string {
	data := revertData(err)
	if len(data) < 4 {
		return err.Error()
	}

	if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
		return reason
	}

	if handle != nil {
		for _, customErr := range handle.ABI.Errors {
			if !bytes.Equal(customErr.ID[:4], data[:4]) {
				continue
			}
			values, unpackErr := customErr.Unpack(data)
			if unpackErr != nil {
				return customErr.Name
			}
			return fmt.Sprintf("%s%v", customErr.Name, values)
		}
	}

	return fmt.Sprintf("%s (data %s)", err.Error(), hexutil.Encode(data))
}

func revertData(err error) []byte {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil
	}

	switch data := dataErr.ErrorData().(type) {
	case string:
		if !strings.HasPrefix(data, "0x") {
			return nil
		}
		decoded, decodeErr := hexutil.Decode(data)
		if decodeErr != nil {
			return nil
		}
		return decoded
	case []byte:
		return data
	default:
		return nil
	}
}

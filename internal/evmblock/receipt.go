package evmblock

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// consolePrefix marks the start of the hex-encoded, RLP-packed receipt a
// "raw" action prints to its console. The console must begin with this
// byte; a console that starts with anything else is reported as
// ErrNoPrintedReceipt.
const consolePrefix = 0x01

// PrintedReceipt is the EVM-execution summary the native contract prints
// to console output for every synthesized transaction.
type PrintedReceipt struct {
	GasUsed uint64
	Status  uint8
	Logs    []*types.Log
	Output  []byte
}

type rlpPrintedReceipt struct {
	GasUsed uint64
	Status  uint8
	Logs    []*types.Log
	Output  []byte
}

// ErrNoPrintedReceipt is returned when a console string carries no
// recognizable receipt payload.
var ErrNoPrintedReceipt = errors.New("evmblock: no printed receipt in console output")

// ParsePrintedReceipt decodes a PrintedReceipt from an action trace's
// console string.
func ParsePrintedReceipt(console string) (*PrintedReceipt, error) {
	if len(console) == 0 || console[0] != consolePrefix {
		return nil, ErrNoPrintedReceipt
	}
	raw, err := hex.DecodeString(console[1:])
	if err != nil {
		return nil, fmt.Errorf("evmblock: printed receipt hex: %w", err)
	}
	decoded := &rlpPrintedReceipt{}
	if err := rlp.DecodeBytes(raw, decoded); err != nil {
		return nil, fmt.Errorf("evmblock: printed receipt rlp: %w", err)
	}
	return &PrintedReceipt{
		GasUsed: decoded.GasUsed,
		Status:  decoded.Status,
		Logs:    decoded.Logs,
		Output:  decoded.Output,
	}, nil
}

// Bloom computes the logs bloom contributed by this receipt's logs.
func (r *PrintedReceipt) Bloom() types.Bloom {
	return types.CreateBloom(&types.Receipt{Logs: r.Logs})
}

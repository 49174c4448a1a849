package evmblock

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ExecutionPayloadV1 is the flattened block view an engine-API consumer
// expects, derived from the same header fields rather than carried
// independently.
type ExecutionPayloadV1 struct {
	ParentHash    common.Hash
	StateRoot     common.Hash
	ReceiptsRoot  common.Hash
	LogsBloom     types.Bloom
	PrevRandao    common.Hash
	BlockNumber   uint64
	GasLimit      uint64
	GasUsed       uint64
	Timestamp     uint64
	ExtraData     []byte
	BaseFeePerGas *big.Int
	BlockHash     common.Hash
	Transactions  [][]byte
}

// NewExecutionPayload flattens header into its execution-payload view,
// binary-encoding each transaction and flooring the base fee at
// MinimumFeePerGas.
func NewExecutionPayload(header *types.Header, txs types.Transactions) *ExecutionPayloadV1 {
	baseFee := new(big.Int)
	if header.BaseFee != nil {
		baseFee.Set(header.BaseFee)
	}
	if baseFee.Uint64() < MinimumFeePerGas {
		baseFee = new(big.Int).SetUint64(MinimumFeePerGas)
	}

	encoded := make([][]byte, len(txs))
	for i, tx := range txs {
		b, err := tx.MarshalBinary()
		if err != nil {
			// A transaction built by this package always round-trips;
			// reaching here means a programming error upstream.
			panic(err)
		}
		encoded[i] = b
	}

	return &ExecutionPayloadV1{
		ParentHash:    header.ParentHash,
		StateRoot:     header.Root,
		ReceiptsRoot:  header.ReceiptHash,
		LogsBloom:     header.Bloom,
		PrevRandao:    common.Hash{},
		BlockNumber:   header.Number.Uint64(),
		GasLimit:      header.GasLimit,
		GasUsed:       header.GasUsed,
		Timestamp:     header.Time,
		ExtraData:     header.Extra,
		BaseFeePerGas: baseFee,
		BlockHash:     header.Hash(),
		Transactions:  encoded,
	}
}

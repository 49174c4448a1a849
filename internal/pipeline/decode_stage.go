package pipeline

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/telosnetwork/telos-evm-translator-go/internal/blockdecoder"
	"github.com/telosnetwork/telos-evm-translator-go/internal/evmblock"
	"github.com/telosnetwork/telos-evm-translator-go/internal/shipclient"
)

const contractRowDeltaName = "contract_row"

var decodeLog = log.New("component", "blockdecoder")

// decodeRawBlock decodes the three independent byte buffers a RawBlock
// carries (signed block, action traces, table deltas) into the structured
// form evmblock.Processor consumes. Any of the three may be absent.
func decodeRawBlock(raw shipclient.RawBlock) (*evmblock.ProcessingBlock, error) {
	pb := &evmblock.ProcessingBlock{
		ChainID:   raw.ChainID,
		BlockNum:  raw.BlockNum,
		BlockHash: raw.BlockID,
		LibNum:    raw.LibNum,
		LibHash:   raw.LibID,
	}

	if len(raw.Block) > 0 {
		header, err := blockdecoder.DecodeSignedBlockHeader(raw.Block)
		if err != nil {
			return nil, err
		}
		pb.SignedBlock = header
	} else {
		decodeLog.Warn("block has no signed_block payload", "block_num", raw.BlockNum)
	}

	if len(raw.Traces) > 0 {
		traces, err := blockdecoder.DecodeTransactionTraces(raw.Traces)
		if err != nil {
			return nil, err
		}
		pb.Traces = traces
	} else {
		decodeLog.Warn("block has no traces payload, treating as empty", "block_num", raw.BlockNum)
	}

	if len(raw.Deltas) > 0 {
		deltas, err := blockdecoder.DecodeTableDeltas(raw.Deltas)
		if err != nil {
			return nil, err
		}
		for _, delta := range deltas {
			if delta.Name != contractRowDeltaName {
				continue
			}
			for _, row := range delta.Rows {
				cr, err := blockdecoder.DecodeContractRow(row.Data)
				if err != nil {
					return nil, err
				}
				pb.Rows = append(pb.Rows, cr)
			}
		}
	} else {
		decodeLog.Warn("block has no deltas payload, treating as empty", "block_num", raw.BlockNum)
	}

	return pb, nil
}

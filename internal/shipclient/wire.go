// Package shipclient implements the ship reader and the subscription
// driver: connecting to a source-node state-history WebSocket, performing
// the ABI/GetStatus/GetBlocks handshake, and turning the resulting
// GetBlocksResultV0 stream into raw per-block payloads for the decoding
// stages.
package shipclient

import (
	"fmt"

	"github.com/telosnetwork/telos-evm-translator-go/internal/shipwire"
)

// Request variant tags, per the state-history plugin's request.abi.
const (
	requestVariantGetStatus    = 0
	requestVariantGetBlocks    = 1
	requestVariantGetBlocksAck = 2
)

// Result variant tags, per the state-history plugin's result.abi.
const (
	resultVariantGetStatus = 0
	resultVariantGetBlocks = 1
)

// BlockPosition identifies one native block by number and id.
type BlockPosition struct {
	BlockNum uint32
	BlockID  [32]byte
}

// GetStatusRequestV0 carries no fields; sending it asks the node for its
// current head and LIB.
type GetStatusRequestV0 struct{}

// Encode writes the get_status_request_v0 frame.
func (GetStatusRequestV0) Encode() []byte {
	e := shipwire.NewEncoder()
	e.WriteByte(requestVariantGetStatus)
	return e.Bytes()
}

// GetBlocksRequestV0 subscribes to a range of blocks with the given
// fetch/flow-control options.
type GetBlocksRequestV0 struct {
	StartBlockNum       uint32
	EndBlockNum         uint32
	MaxMessagesInFlight uint32
	IrreversibleOnly    bool
	FetchBlock          bool
	FetchTraces         bool
	FetchDeltas         bool
}

// Encode writes the get_blocks_request_v0 frame. have_positions is always
// sent empty: this translator never resumes mid-stream from a prior
// session's head/prev pair, only via start_block_num, set past its own
// tracked chain head (or past LIB when no block above it is tracked).
func (r GetBlocksRequestV0) Encode() []byte {
	e := shipwire.NewEncoder()
	e.WriteByte(requestVariantGetBlocks)
	e.WriteUint32(r.StartBlockNum)
	e.WriteUint32(r.EndBlockNum)
	e.WriteUint32(r.MaxMessagesInFlight)
	e.WriteVarUint32Array(0) // have_positions: empty
	e.WriteBool(r.IrreversibleOnly)
	e.WriteBool(r.FetchBlock)
	e.WriteBool(r.FetchTraces)
	e.WriteBool(r.FetchDeltas)
	return e.Bytes()
}

// GetBlocksAckRequestV0 acknowledges receipt of numMessages results,
// releasing the node to send further blocks within max_messages_in_flight.
type GetBlocksAckRequestV0 struct {
	NumMessages uint32
}

// Encode writes the get_blocks_ack_request_v0 frame.
func (r GetBlocksAckRequestV0) Encode() []byte {
	e := shipwire.NewEncoder()
	e.WriteByte(requestVariantGetBlocksAck)
	e.WriteUint32(r.NumMessages)
	return e.Bytes()
}

// GetStatusResultV0 answers a GetStatusRequestV0.
type GetStatusResultV0 struct {
	Head             BlockPosition
	LastIrreversible BlockPosition
	TraceBeginBlock  uint32
	TraceEndBlock    uint32
	ChainID          [32]byte
	ChainIDSet       bool
}

// GetBlocksResultV0 is one element of the subscribed block stream.
type GetBlocksResultV0 struct {
	Head             BlockPosition
	LastIrreversible BlockPosition
	ThisBlock        *BlockPosition
	PrevBlock        *BlockPosition
	Block            []byte
	Traces           []byte
	Deltas           []byte
}

// Result is the decoded sum type a ship frame carries.
type Result struct {
	GetStatus *GetStatusResultV0
	GetBlocks *GetBlocksResultV0
}

func decodeBlockPosition(d *shipwire.Decoder) (BlockPosition, error) {
	var bp BlockPosition
	var err error
	if bp.BlockNum, err = d.ReadUint32(); err != nil {
		return bp, err
	}
	if bp.BlockID, err = d.ReadChecksum256(); err != nil {
		return bp, err
	}
	return bp, nil
}

func decodeOptionalBlockPosition(d *shipwire.Decoder) (*BlockPosition, error) {
	present, err := d.ReadOptionalPresence()
	if err != nil || !present {
		return nil, err
	}
	bp, err := decodeBlockPosition(d)
	if err != nil {
		return nil, err
	}
	return &bp, nil
}

func decodeOptionalBytes(d *shipwire.Decoder) ([]byte, error) {
	present, err := d.ReadOptionalPresence()
	if err != nil || !present {
		return nil, err
	}
	return d.ReadBytes()
}

// DecodeResult decodes one ship_result variant frame off the wire.
func DecodeResult(raw []byte) (*Result, error) {
	d := shipwire.NewDecoder(raw)
	variant, err := d.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("shipclient: result variant: %w", err)
	}

	switch variant {
	case resultVariantGetStatus:
		r := &GetStatusResultV0{}
		if r.Head, err = decodeBlockPosition(d); err != nil {
			return nil, fmt.Errorf("shipclient: get_status_result head: %w", err)
		}
		if r.LastIrreversible, err = decodeBlockPosition(d); err != nil {
			return nil, fmt.Errorf("shipclient: get_status_result last_irreversible: %w", err)
		}
		if r.TraceBeginBlock, err = d.ReadUint32(); err != nil {
			return nil, err
		}
		if r.TraceEndBlock, err = d.ReadUint32(); err != nil {
			return nil, err
		}
		present, err := d.ReadOptionalPresence()
		if err != nil {
			return nil, err
		}
		if present {
			r.ChainIDSet = true
			if r.ChainID, err = d.ReadChecksum256(); err != nil {
				return nil, err
			}
		}
		return &Result{GetStatus: r}, nil

	case resultVariantGetBlocks:
		r := &GetBlocksResultV0{}
		if r.Head, err = decodeBlockPosition(d); err != nil {
			return nil, fmt.Errorf("shipclient: get_blocks_result head: %w", err)
		}
		if r.LastIrreversible, err = decodeBlockPosition(d); err != nil {
			return nil, fmt.Errorf("shipclient: get_blocks_result last_irreversible: %w", err)
		}
		if r.ThisBlock, err = decodeOptionalBlockPosition(d); err != nil {
			return nil, fmt.Errorf("shipclient: get_blocks_result this_block: %w", err)
		}
		if r.PrevBlock, err = decodeOptionalBlockPosition(d); err != nil {
			return nil, fmt.Errorf("shipclient: get_blocks_result prev_block: %w", err)
		}
		if r.Block, err = decodeOptionalBytes(d); err != nil {
			return nil, fmt.Errorf("shipclient: get_blocks_result block: %w", err)
		}
		if r.Traces, err = decodeOptionalBytes(d); err != nil {
			return nil, fmt.Errorf("shipclient: get_blocks_result traces: %w", err)
		}
		if r.Deltas, err = decodeOptionalBytes(d); err != nil {
			return nil, fmt.Errorf("shipclient: get_blocks_result deltas: %w", err)
		}
		return &Result{GetBlocks: r}, nil

	default:
		return nil, fmt.Errorf("shipclient: unsupported ship_result variant %d", variant)
	}
}

package shipclient

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"

	"github.com/telosnetwork/telos-evm-translator-go/internal/chain"
)

// ackBatchSize is how many GetBlocksResultV0 messages the driver lets
// build up before acking.
const ackBatchSize = 10

// maxMessagesInFlight bounds the node's own send-ahead buffer.
const maxMessagesInFlight = 10_000

// RawBlock is the driver's output: one subscribed block's identity plus
// its three still-undecoded raw byte buffers, handed downstream for
// decoding.
type RawBlock struct {
	ChainID  uint64
	BlockNum uint32
	BlockID  [32]byte
	LibNum   uint32
	LibID    [32]byte

	Block  []byte
	Traces []byte
	Deltas []byte
}

// frameWriter is the write half of the ship connection the driver needs;
// satisfied by *websocket.Conn.
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// Driver is the per-connection subscription state machine: it answers the
// initial ABI frame with a status request, subscribes from the right
// start block once the status arrives, and then turns the block-result
// stream into RawBlocks while acking in batches.
type Driver struct {
	conn    frameWriter
	chain   *chain.Chain
	chainID uint64

	startBlock uint32
	stopBlock  uint32

	out chan<- RawBlock
	log log.Logger

	gotFirstFrame bool
	unackedBlocks uint32
}

// NewDriver builds a Driver that sends subscription requests on conn and
// forwards decoded RawBlocks to out.
func NewDriver(conn frameWriter, c *chain.Chain, chainID uint64, startBlock, stopBlock uint32, out chan<- RawBlock) *Driver {
	return &Driver{
		conn:       conn,
		chain:      c,
		chainID:    chainID,
		startBlock: startBlock,
		stopBlock:  stopBlock,
		out:        out,
		log:        log.New("component", "shipdriver"),
	}
}

// HandleFrame processes one raw frame received from the ship connection.
// The first frame is always the implicit ABI definition, discarded after
// triggering the GetStatus request. ctx bounds the (possibly blocking)
// send of a decoded block to the downstream channel.
func (d *Driver) HandleFrame(ctx context.Context, raw []byte) error {
	if !d.gotFirstFrame {
		d.gotFirstFrame = true
		d.log.Debug("received initial ABI frame, requesting status")
		return d.send(GetStatusRequestV0{}.Encode())
	}

	result, err := DecodeResult(raw)
	if err != nil {
		return fmt.Errorf("shipclient: decode result: %w", err)
	}

	switch {
	case result.GetStatus != nil:
		return d.handleGetStatus(result.GetStatus)
	case result.GetBlocks != nil:
		return d.handleGetBlocks(ctx, result.GetBlocks)
	default:
		return fmt.Errorf("shipclient: decoded result carries neither variant")
	}
}

func (d *Driver) handleGetStatus(r *GetStatusResultV0) error {
	d.log.Info("got status", "head", r.Head.BlockNum, "lib", r.LastIrreversible.BlockNum)

	start := d.startBlock
	if last, ok := d.chain.LastOrLib(); ok && last.Number+1 > start {
		start = last.Number + 1
	}

	end := d.stopBlock
	if end != ^uint32(0) {
		end = end + 1 // end_block_num is exclusive
	}

	d.log.Info("requesting blocks", "start", start)
	req := GetBlocksRequestV0{
		StartBlockNum:       start,
		EndBlockNum:         end,
		MaxMessagesInFlight: maxMessagesInFlight,
		IrreversibleOnly:    true,
		FetchBlock:          true,
		FetchTraces:         true,
		FetchDeltas:         true,
	}
	d.startBlock = start
	return d.send(req.Encode())
}

func (d *Driver) handleGetBlocks(ctx context.Context, r *GetBlocksResultV0) error {
	if r.ThisBlock == nil {
		d.log.Error("get_blocks_result without this_block")
		return nil
	}
	if r.ThisBlock.BlockNum < d.startBlock {
		return nil // replay tail, drop
	}

	lib := chain.TrackedBlock{Number: r.LastIrreversible.BlockNum, Hash: fmt.Sprintf("%x", r.LastIrreversible.BlockID)}
	if _, err := d.chain.SetLib(lib); err != nil {
		return fmt.Errorf("shipclient: set lib: %w", err)
	}

	block := RawBlock{
		ChainID:  d.chainID,
		BlockNum: r.ThisBlock.BlockNum,
		BlockID:  r.ThisBlock.BlockID,
		LibNum:   r.LastIrreversible.BlockNum,
		LibID:    r.LastIrreversible.BlockID,
		Block:    r.Block,
		Traces:   r.Traces,
		Deltas:   r.Deltas,
	}
	select {
	case d.out <- block:
	case <-ctx.Done():
		return ctx.Err()
	}
	d.unackedBlocks++

	if d.unackedBlocks >= ackBatchSize {
		ack := GetBlocksAckRequestV0{NumMessages: d.unackedBlocks}
		if err := d.send(ack.Encode()); err != nil {
			return err
		}
		d.unackedBlocks = 0
	}
	return nil
}

func (d *Driver) send(payload []byte) error {
	return d.conn.WriteMessage(websocket.BinaryMessage, payload)
}

// Run consumes raw frames from in until it closes or ctx is cancelled,
// dispatching each to HandleFrame.
func (d *Driver) Run(ctx context.Context, in <-chan []byte) error {
	defer d.log.Info("exiting subscription driver")
	for {
		select {
		case raw, ok := <-in:
			if !ok {
				return nil
			}
			if err := d.HandleFrame(ctx, raw); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

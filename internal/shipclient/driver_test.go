package shipclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telosnetwork/telos-evm-translator-go/internal/chain"
)

type recordingConn struct {
	frames [][]byte
}

func (c *recordingConn) WriteMessage(_ int, data []byte) error {
	c.frames = append(c.frames, append([]byte{}, data...))
	return nil
}

func (c *recordingConn) acks() []uint32 {
	var out []uint32
	for _, f := range c.frames {
		if len(f) == 5 && f[0] == requestVariantGetBlocksAck {
			out = append(out, uint32(f[1])|uint32(f[2])<<8|uint32(f[3])<<16|uint32(f[4])<<24)
		}
	}
	return out
}

func TestDriverHandshake(t *testing.T) {
	conn := &recordingConn{}
	out := make(chan RawBlock, 16)
	d := NewDriver(conn, chain.New(), 40, 100, ^uint32(0), out)

	// First frame is the ABI definition: discarded, triggers GetStatus.
	require.NoError(t, d.HandleFrame(context.Background(), []byte("abi json here")))
	require.Len(t, conn.frames, 1)
	assert.Equal(t, []byte{requestVariantGetStatus}, conn.frames[0])

	// GetStatusResult triggers the block subscription.
	require.NoError(t, d.HandleFrame(context.Background(), encodeGetStatusResult(500, 480)))
	require.Len(t, conn.frames, 2)
	assert.Equal(t, byte(requestVariantGetBlocks), conn.frames[1][0])
	// start_block_num == config start (the chain is empty).
	assert.Equal(t, []byte{100, 0, 0, 0}, conn.frames[1][1:5])
}

func TestDriverResumesAboveTrackedHead(t *testing.T) {
	c := chain.New()
	_, err := c.SetLib(chain.TrackedBlock{Number: 150, Hash: "aa"})
	require.NoError(t, err)
	_, err = c.Add(chain.TrackedBlock{Number: 151, Hash: "bb"})
	require.NoError(t, err)

	conn := &recordingConn{}
	out := make(chan RawBlock, 16)
	d := NewDriver(conn, c, 40, 100, ^uint32(0), out)

	require.NoError(t, d.HandleFrame(context.Background(), []byte("abi")))
	require.NoError(t, d.HandleFrame(context.Background(), encodeGetStatusResult(500, 480)))

	// start = tracked head + 1, not the stale config start.
	require.Len(t, conn.frames, 2)
	assert.Equal(t, []byte{152, 0, 0, 0}, conn.frames[1][1:5])
}

func TestDriverAcksInBatchesOfTen(t *testing.T) {
	conn := &recordingConn{}
	out := make(chan RawBlock, 64)
	d := NewDriver(conn, chain.New(), 40, 100, ^uint32(0), out)

	require.NoError(t, d.HandleFrame(context.Background(), []byte("abi")))
	require.NoError(t, d.HandleFrame(context.Background(), encodeGetStatusResult(500, 480)))

	for n := uint32(101); n <= 125; n++ {
		require.NoError(t, d.HandleFrame(context.Background(), encodeGetBlocksResult(n, 100, true)))
	}

	assert.Len(t, out, 25)
	// 25 blocks in: two full batches acked, five still outstanding.
	assert.Equal(t, []uint32{10, 10}, conn.acks())
}

func TestDriverDropsReplayTail(t *testing.T) {
	conn := &recordingConn{}
	out := make(chan RawBlock, 16)
	d := NewDriver(conn, chain.New(), 40, 100, ^uint32(0), out)

	require.NoError(t, d.HandleFrame(context.Background(), []byte("abi")))
	require.NoError(t, d.HandleFrame(context.Background(), encodeGetStatusResult(500, 480)))

	// Blocks below the requested start are a replay tail: dropped, unacked.
	require.NoError(t, d.HandleFrame(context.Background(), encodeGetBlocksResult(98, 90, true)))
	require.NoError(t, d.HandleFrame(context.Background(), encodeGetBlocksResult(99, 90, true)))
	assert.Empty(t, out)

	require.NoError(t, d.HandleFrame(context.Background(), encodeGetBlocksResult(100, 90, true)))
	require.Len(t, out, 1)

	got := <-out
	assert.Equal(t, uint32(100), got.BlockNum)
	assert.Equal(t, blockID(100), got.BlockID)
	assert.Equal(t, uint32(90), got.LibNum)
	assert.Equal(t, []byte{0xb1}, got.Block)
}

func TestDriverSkipsResultWithoutThisBlock(t *testing.T) {
	conn := &recordingConn{}
	out := make(chan RawBlock, 16)
	d := NewDriver(conn, chain.New(), 40, 100, ^uint32(0), out)

	require.NoError(t, d.HandleFrame(context.Background(), []byte("abi")))
	require.NoError(t, d.HandleFrame(context.Background(), encodeGetStatusResult(500, 480)))

	require.NoError(t, d.HandleFrame(context.Background(), encodeGetBlocksResult(101, 100, false)))
	assert.Empty(t, out)
}

func TestDriverUpdatesLib(t *testing.T) {
	c := chain.New()
	conn := &recordingConn{}
	out := make(chan RawBlock, 16)
	d := NewDriver(conn, c, 40, 100, ^uint32(0), out)

	require.NoError(t, d.HandleFrame(context.Background(), []byte("abi")))
	require.NoError(t, d.HandleFrame(context.Background(), encodeGetStatusResult(500, 480)))
	require.NoError(t, d.HandleFrame(context.Background(), encodeGetBlocksResult(101, 100, true)))

	lib, ok := c.Lib()
	require.True(t, ok)
	assert.Equal(t, uint32(100), lib.Number)
}

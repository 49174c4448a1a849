// Package pipeline wires the translator's stages into one running
// process: channel sizing, task supervision and fail-fast join. One
// goroutine per stage, bounded channels in between, the whole group torn
// down on the first error.
package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/telosnetwork/telos-evm-translator-go/internal/chain"
	"github.com/telosnetwork/telos-evm-translator-go/internal/config"
	"github.com/telosnetwork/telos-evm-translator-go/internal/evmblock"
	"github.com/telosnetwork/telos-evm-translator-go/internal/namecache"
	"github.com/telosnetwork/telos-evm-translator-go/internal/shipclient"
	"github.com/telosnetwork/telos-evm-translator-go/internal/store"
)

var launchLog = log.New("component", "pipeline")

// Sink receives every block as it is finalized. Optional; a translator
// run with no sink still persists chain state and logs throughput.
type Sink chan<- *EmittedBlock

// Launch opens the durable store, connects to the ship endpoint, and
// runs the full reader-to-finalizer pipeline until ctx is cancelled, a stop condition
// (stop_block reached) fires, or any stage returns an error.
func Launch(ctx context.Context, cfg *config.Config, sink Sink) error {
	st, err := store.Open(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("pipeline: open store: %w", err)
	}
	defer st.Close()

	c, err := st.GetChain()
	if err != nil {
		return fmt.Errorf("pipeline: load chain: %w", err)
	}
	if c == nil {
		c = chain.New()
	}

	nameCache, err := namecache.New(cfg.HTTPEndpoint)
	if err != nil {
		return fmt.Errorf("pipeline: build name cache: %w", err)
	}
	processor := evmblock.NewProcessor(nameCache)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.ShipEndpoint, nil)
	if err != nil {
		return fmt.Errorf("pipeline: dial ship endpoint %s: %w", cfg.ShipEndpoint, err)
	}
	defer conn.Close()

	prevHash, err := parseHash32(cfg.PrevHash)
	if err != nil {
		return fmt.Errorf("pipeline: prev_hash: %w", err)
	}
	var validateHash *common.Hash
	if cfg.ValidateHash != "" {
		h, err := parseHash32(cfg.ValidateHash)
		if err != nil {
			return fmt.Errorf("pipeline: validate_hash: %w", err)
		}
		validateHash = &h
	}

	rawCh := make(chan []byte, cfg.RawMessageChannelSize)
	blockCh := make(chan shipclient.RawBlock, cfg.BlockMessageChannelSize)
	decodedCh := make(chan *evmblock.ProcessingBlock, cfg.BlockMessageChannelSize)
	processedCh := make(chan *evmblock.ProcessingBlock, cfg.FinalMessageChannelSize)
	stopCh := make(chan struct{})

	reader := shipclient.NewReader(conn, rawCh, stopCh)
	driver := shipclient.NewDriver(conn, c, cfg.ChainID, cfg.StartBlock, cfg.StopBlockOrMax(), blockCh)
	finalizer := NewFinalizer(st, c, cfg.BlockDelta, cfg.StopBlockOrMax(), prevHash, validateHash, sink, stopCh)

	g, gctx := errgroup.WithContext(ctx)

	// ReadMessage blocks in its own goroutine and can't observe gctx or
	// stopCh directly; closing the connection is what unblocks it, both
	// when another stage fails and when the stop block is reached.
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-stopCh:
		}
		conn.Close()
		return nil
	})

	g.Go(func() error {
		err := reader.Run()
		close(rawCh)
		return err
	})
	g.Go(func() error {
		err := driver.Run(gctx, rawCh)
		close(blockCh)
		return err
	})
	g.Go(func() error {
		return runBlockDecodeStage(gctx, blockCh, decodedCh)
	})
	g.Go(func() error {
		return runEVMStage(gctx, processor, decodedCh, processedCh)
	})
	g.Go(func() error {
		return finalizer.Run(gctx, processedCh)
	})

	launchLog.Info("translator launched", "start_block", cfg.StartBlock, "ship_endpoint", cfg.ShipEndpoint)
	return g.Wait()
}

func parseHash32(s string) (common.Hash, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return common.Hash{}, fmt.Errorf("expected 32-byte hex string, got %q", s)
	}
	return common.BytesToHash(b), nil
}

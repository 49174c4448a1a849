package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/telosnetwork/telos-evm-translator-go/internal/chain"
	"github.com/telosnetwork/telos-evm-translator-go/internal/evmblock"
	"github.com/telosnetwork/telos-evm-translator-go/internal/metrics"
	"github.com/telosnetwork/telos-evm-translator-go/internal/store"
)

// Finalizer is the last pipeline stage: it assembles each block's header,
// hashes it, tracks it on the chain, persists it, and emits it
// downstream.
type Finalizer struct {
	store      *store.Store
	chain      *chain.Chain
	blockDelta uint32
	stopBlock  uint32

	parentHash   common.Hash
	validateHash *common.Hash
	validated    bool
	persistedLib chain.TrackedBlock

	sink chan<- *EmittedBlock
	stop chan<- struct{}

	throughput *metrics.Throughput
	log        log.Logger
}

// NewFinalizer builds a Finalizer seeded from prevHash, optionally
// validating the first emitted block's hash against validateHash.
func NewFinalizer(st *store.Store, c *chain.Chain, blockDelta, stopBlock uint32, prevHash common.Hash, validateHash *common.Hash, sink chan<- *EmittedBlock, stop chan<- struct{}) *Finalizer {
	return &Finalizer{
		store:        st,
		chain:        c,
		blockDelta:   blockDelta,
		stopBlock:    stopBlock,
		parentHash:   prevHash,
		validateHash: validateHash,
		validated:    validateHash == nil,
		sink:         sink,
		stop:         stop,
		throughput:   metrics.New("finalizer", time.Second),
		log:          log.New("component", "finalizer"),
	}
}

// Run consumes processed blocks from in until it closes or ctx is
// cancelled, finalizing each in source order.
func (f *Finalizer) Run(ctx context.Context, in <-chan *evmblock.ProcessingBlock) error {
	defer f.log.Info("exiting final processor")

	for {
		select {
		case pb, ok := <-in:
			if !ok {
				return nil
			}
			if pb.BlockNum > f.stopBlock {
				continue
			}
			done, err := f.finalize(ctx, pb)
			if err != nil {
				return err
			}
			if done {
				return f.drain(ctx, in)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// drain discards in-flight blocks past the stop block until the upstream
// stages observe the stop signal and close the channel, so none of them
// wedges on a full send.
func (f *Finalizer) drain(ctx context.Context, in <-chan *evmblock.ProcessingBlock) error {
	for {
		select {
		case _, ok := <-in:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (f *Finalizer) finalize(ctx context.Context, pb *evmblock.ProcessingBlock) (bool, error) {
	if pb.SignedBlock == nil {
		return false, fatalf(pb.BlockNum, "block has no signed_block payload, cannot assemble header")
	}

	result := pb.AssembleHeader(f.parentHash, f.blockDelta)
	blockHash := result.Header.Hash()

	if !f.validated {
		if *f.validateHash != blockHash {
			f.log.Error("initial hash validation failed", "expected", f.validateHash.Hex(), "got", blockHash.Hex(), "header", result.Header)
			return false, fatalf(pb.BlockNum, "initial hash validation failed: expected %s got %s", f.validateHash.Hex(), blockHash.Hex())
		}
		f.validated = true
	}

	tracked := chain.TrackedBlock{Number: pb.BlockNum, Hash: blockHash.Hex()}
	isFork, err := f.trackAndPersist(tracked)
	if err != nil {
		return false, fmt.Errorf("finalizer: track block %d: %w", pb.BlockNum, err)
	}

	f.throughput.Observe(pb.BlockNum, blockHash.Hex(), len(pb.Transactions))

	emitted := &EmittedBlock{
		BlockNum:         pb.BlockNum,
		BlockHash:        blockHash,
		LibNum:           pb.LibNum,
		LibHash:          common.BytesToHash(pb.LibHash[:]),
		Header:           result.Header,
		Transactions:     pb.Transactions,
		Payload:          result.Payload,
		NewGasPrice:      pb.NewGasPrice,
		NewRevision:      pb.NewRevision,
		NewWallets:       pb.NewWallets,
		AccountRows:      pb.AccountRows,
		AccountStateRows: pb.AccountStateRow,
		IsFork:           isFork,
	}

	if f.sink != nil {
		select {
		case f.sink <- emitted:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	f.parentHash = blockHash

	if pb.BlockNum == f.stopBlock {
		f.log.Info("processed stop block, signalling shutdown", "block_num", pb.BlockNum)
		close(f.stop)
		return true, nil
	}
	return false, nil
}

// trackAndPersist appends tracked to the in-memory chain and durable
// store. When the tracker reports a fork, every persisted block at or
// above the replaced height is discarded before the new one is written.
func (f *Finalizer) trackAndPersist(tracked chain.TrackedBlock) (bool, error) {
	isFork, err := f.chain.Add(tracked)
	if err != nil {
		return false, err
	}
	if isFork {
		if err := f.store.DeleteFrom(tracked.Number); err != nil {
			return false, err
		}
	}
	if err := f.store.PutBlock(tracked); err != nil {
		return false, err
	}
	if lib, ok := f.chain.Lib(); ok && lib != f.persistedLib {
		if err := f.store.PutLib(lib); err != nil {
			return false, err
		}
		f.persistedLib = lib
	}
	return isFork, nil
}

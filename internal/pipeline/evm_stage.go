package pipeline

import (
	"context"

	"github.com/telosnetwork/telos-evm-translator-go/internal/evmblock"
	"github.com/telosnetwork/telos-evm-translator-go/internal/shipclient"
)

// runBlockDecodeStage loops over the lifetime of the pipeline: it
// decodes each RawBlock's three byte buffers and forwards the structured
// ProcessingBlock to the EVM stage.
func runBlockDecodeStage(ctx context.Context, in <-chan shipclient.RawBlock, out chan<- *evmblock.ProcessingBlock) error {
	for {
		select {
		case raw, ok := <-in:
			if !ok {
				close(out)
				return nil
			}
			pb, err := decodeRawBlock(raw)
			if err != nil {
				return err
			}
			select {
			case out <- pb:
			case <-ctx.Done():
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// runEVMStage loops over the lifetime of the pipeline: it decodes
// contract-row deltas, classifies every action trace, synthesizes
// transactions and forwards the fully-derived ProcessingBlock to the
// finalizer.
func runEVMStage(ctx context.Context, processor *evmblock.Processor, in <-chan *evmblock.ProcessingBlock, out chan<- *evmblock.ProcessingBlock) error {
	for {
		select {
		case pb, ok := <-in:
			if !ok {
				close(out)
				return nil
			}
			if err := processor.DecodeRows(pb); err != nil {
				return err
			}
			if err := processor.ProcessActions(ctx, pb); err != nil {
				return err
			}
			select {
			case out <- pb:
			case <-ctx.Done():
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

package evmblock

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/holiman/uint256"

	"github.com/telosnetwork/telos-evm-translator-go/internal/blockdecoder"
	"github.com/telosnetwork/telos-evm-translator-go/internal/shipwire"
)

// GasPriceUpdate records the tx_index at which a gas-price refresh took
// effect, alongside the new price.
type GasPriceUpdate struct {
	TxIndex  int
	GasPrice *uint256.Int
}

// RevisionUpdate records a contract revision bump.
type RevisionUpdate struct {
	TxIndex  int
	Revision uint32
}

// WalletEventKind distinguishes the two wallet-creation action shapes.
type WalletEventKind int

const (
	WalletOpened WalletEventKind = iota
	WalletCreated
)

// WalletEvent is a single openwallet/create action observed in a block.
type WalletEvent struct {
	Kind    WalletEventKind
	TxIndex int
	Account uint64
	Address common.Address
}

// ProcessingBlock accumulates everything the EVM block processor derives
// from one source block's raw payload before the final processor hashes
// and emits it.
type ProcessingBlock struct {
	ChainID   uint64
	BlockNum  uint32
	BlockHash [32]byte
	LibNum    uint32
	LibHash   [32]byte

	SignedBlock *blockdecoder.SignedBlockHeader
	Traces      []*blockdecoder.TransactionTrace
	Rows        []*blockdecoder.ContractRow

	Transactions      []*TelosEVMTransaction
	Receipts          []*ReceiptWithBloom
	CumulativeGasUsed uint64

	ConfigRows      []*ConfigRow
	AccountRows     []*AccountRow
	AccountStateRow []*AccountStateRow

	NewGasPrice *GasPriceUpdate
	NewRevision *RevisionUpdate
	NewWallets  []WalletEvent

	// lastConfig is not read or written by this package; the Config row
	// carried across blocks lives in Processor.lastConfig.
	lastConfig *ConfigRow
}

// Processor walks decoded blocks and fills in their derived fields. It
// owns the last-seen Config row across block boundaries: an init or
// doresources action refreshes the gas price from the most recent Config
// row decoded in this block or any earlier one, and fails only when no
// Config row has been seen at all.
type Processor struct {
	resolver   NameResolver
	lastConfig *ConfigRow
}

func NewProcessor(resolver NameResolver) *Processor {
	return &Processor{resolver: resolver}
}

// DecodeRows classifies every contract_row delta belonging to the
// eosio.evm contract into its typed form, ahead of action classification.
func (p *Processor) DecodeRows(pb *ProcessingBlock) error {
	for _, row := range pb.Rows {
		if row.Code != EosioEvm {
			continue
		}
		d := shipwire.NewDecoder(row.Value)
		switch row.Table {
		case TableConfig:
			cfg, err := DecodeConfigRow(d)
			if err != nil {
				return fmt.Errorf("evmblock: decode config row: %w", err)
			}
			pb.ConfigRows = append(pb.ConfigRows, cfg)
			p.lastConfig = cfg
		case TableAccount:
			acct, err := DecodeAccountRow(d)
			if err != nil {
				return fmt.Errorf("evmblock: decode account row: %w", err)
			}
			pb.AccountRows = append(pb.AccountRows, acct)
		case TableAccountState:
			state, err := DecodeAccountStateRow(d)
			if err != nil {
				return fmt.Errorf("evmblock: decode accountstate row: %w", err)
			}
			pb.AccountStateRow = append(pb.AccountStateRow, state)
		}
	}
	return nil
}

// ProcessActions walks every action trace in trace order, classifying and
// synthesizing transactions, wallet events and config/revision updates.
func (p *Processor) ProcessActions(ctx context.Context, pb *ProcessingBlock) error {
	blockHash := common.BytesToHash(pb.BlockHash[:])

	for _, trace := range pb.Traces {
		for _, action := range trace.ActionTraces {
			if err := p.handleAction(ctx, pb, action, blockHash); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Processor) handleAction(ctx context.Context, pb *ProcessingBlock, a *blockdecoder.ActionTrace, blockHash common.Hash) error {
	txIndex := uint64(len(pb.Transactions))

	switch {
	case a.Account == EosioEvm && (a.Name == ActInit || a.Name == ActDoResources):
		cfg := p.lastConfig
		if cfg == nil {
			return fmt.Errorf("evmblock: block %d: %s action with no Config row ever seen", pb.BlockNum, nameLabel(a.Name))
		}
		pb.NewGasPrice = &GasPriceUpdate{
			TxIndex:  int(txIndex),
			GasPrice: new(uint256.Int).SetBytes(cfg.GasPrice[:]),
		}

	case a.Account == EosioEvm && a.Name == ActSetRevision:
		rev, err := DecodeSetRevisionAction(a.Data)
		if err != nil {
			return fmt.Errorf("evmblock: decode setrevision: %w", err)
		}
		pb.NewRevision = &RevisionUpdate{TxIndex: int(txIndex), Revision: rev.NewRevision}

	case a.Account == EosioEvm && a.Name == ActRaw:
		raw, err := DecodeRawAction(a.Data)
		if err != nil {
			return fmt.Errorf("evmblock: decode raw action: %w", err)
		}
		printed, err := ParsePrintedReceipt(a.Console)
		if err != nil {
			return fmt.Errorf("evmblock: block %d tx_index %d: %w", pb.BlockNum, txIndex, err)
		}
		tx, err := FromRawAction(pb.ChainID, txIndex, blockHash, raw, printed)
		if err != nil {
			return err
		}
		pb.appendTransaction(tx)

	case a.Account == EosioEvm && a.Name == ActWithdraw:
		withdraw, err := DecodeWithdrawAction(a.Data)
		if err != nil {
			return fmt.Errorf("evmblock: decode withdraw action: %w", err)
		}
		tx, err := FromWithdrawAction(ctx, pb.ChainID, txIndex, blockHash, withdraw, p.resolver)
		if err != nil {
			return err
		}
		pb.appendTransaction(tx)

	case a.Account == EosioToken && a.Name == ActTransfer && a.Receiver == EosioEvm:
		transfer, err := DecodeTransferAction(a.Data)
		if err != nil {
			return fmt.Errorf("evmblock: decode transfer action: %w", err)
		}
		if transfer.To != EosioEvm || SystemAccountNames[transfer.From] {
			return nil
		}
		tx, err := FromTransferAction(ctx, pb.ChainID, txIndex, blockHash, transfer, p.resolver)
		if err != nil {
			return err
		}
		pb.appendTransaction(tx)

	case a.Account == EosioEvm && a.Name == ActOpenWallet:
		w, err := DecodeOpenWalletAction(a.Data)
		if err != nil {
			return fmt.Errorf("evmblock: decode openwallet action: %w", err)
		}
		pb.NewWallets = append(pb.NewWallets, WalletEvent{Kind: WalletOpened, TxIndex: int(txIndex), Account: w.Account, Address: w.Address})

	case a.Account == EosioEvm && a.Name == ActCreate:
		w, err := DecodeCreateWalletAction(a.Data)
		if err != nil {
			return fmt.Errorf("evmblock: decode create action: %w", err)
		}
		pb.NewWallets = append(pb.NewWallets, WalletEvent{Kind: WalletCreated, TxIndex: int(txIndex), Account: w.Account})
	}
	return nil
}

func (pb *ProcessingBlock) appendTransaction(tx *TelosEVMTransaction) {
	receipt := tx.BuildReceipt(&pb.CumulativeGasUsed)
	pb.Transactions = append(pb.Transactions, tx)
	pb.Receipts = append(pb.Receipts, receipt)
}

func nameLabel(n uint64) string {
	switch n {
	case ActInit:
		return "init"
	case ActDoResources:
		return "doresources"
	default:
		return fmt.Sprintf("action(%d)", n)
	}
}

// HeaderResult bundles the assembled header with the execution-payload
// view over the same fields.
type HeaderResult struct {
	Header  *types.Header
	Payload *ExecutionPayloadV1
}

// AssembleHeader computes the ordered-trie roots, log bloom and header
// for a fully-processed block.
func (pb *ProcessingBlock) AssembleHeader(parentHash common.Hash, blockDelta uint32) *HeaderResult {
	txs := make(types.Transactions, len(pb.Transactions))
	receipts := make(types.Receipts, len(pb.Receipts))
	for i, t := range pb.Transactions {
		txs[i] = t.Tx
	}
	for i, r := range pb.Receipts {
		receipts[i] = r.Receipt
	}
	bloom := types.MergeBloom(receipts)

	txRoot := types.DeriveSha(txs, trie.NewStackTrie(nil))
	receiptRoot := types.DeriveSha(receipts, trie.NewStackTrie(nil))

	timestamp := (uint64(pb.SignedBlock.Timestamp)*IntervalMS + EpochMS) / 1000

	header := &types.Header{
		ParentHash:  parentHash,
		UncleHash:   EmptyOmmers,
		Coinbase:    common.Address{},
		Root:        EmptyRoot,
		TxHash:      txRoot,
		ReceiptHash: receiptRoot,
		Bloom:       bloom,
		Difficulty:  big.NewInt(0),
		Number:      new(big.Int).SetUint64(uint64(pb.BlockNum - blockDelta)),
		GasLimit:    0x7fffffff,
		GasUsed:     pb.CumulativeGasUsed,
		Time:        timestamp,
		Extra:       append([]byte{}, pb.BlockHash[:]...),
		MixDigest:   common.Hash{},
		Nonce:       types.BlockNonce{},
	}

	payload := NewExecutionPayload(header, txs)

	return &HeaderResult{Header: header, Payload: payload}
}

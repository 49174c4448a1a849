package evmblock

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

const syntheticTransferGas = 21000

// NameResolver looks up the EVM address mapped to a native account name.
// Satisfied by *namecache.Cache; kept as a narrow interface here so this
// package doesn't import namecache.
type NameResolver interface {
	Resolve(ctx context.Context, name uint64) (common.Address, bool, error)
}

// TelosEVMTransaction pairs a canonical EVM transaction envelope with the
// printed receipt recovered from the synthesizing action's console
// output (or synthesized directly, for withdrawals/deposits that never
// print one).
type TelosEVMTransaction struct {
	Tx      *types.Transaction
	Printed *PrintedReceipt
	TxIndex uint64
}

// ReceiptWithBloom is the accumulated, cumulative-gas-aware receipt for
// one transaction within a block.
type ReceiptWithBloom struct {
	Receipt *types.Receipt
}

// BuildReceipt advances cumulativeGasUsed by this transaction's gas cost
// and returns the resulting receipt, bloom included.
func (t *TelosEVMTransaction) BuildReceipt(cumulativeGasUsed *uint64) *ReceiptWithBloom {
	status := types.ReceiptStatusFailed
	if t.Printed.Status == 1 {
		status = types.ReceiptStatusSuccessful
	}
	*cumulativeGasUsed += t.Printed.GasUsed

	r := &types.Receipt{
		Type:              t.Tx.Type(),
		Status:            status,
		CumulativeGasUsed: *cumulativeGasUsed,
		Logs:              t.Printed.Logs,
		TxHash:            t.Tx.Hash(),
		GasUsed:           t.Printed.GasUsed,
	}
	if r.Logs == nil {
		r.Logs = []*types.Log{}
	}
	r.Bloom = types.CreateBloom(r)
	return &ReceiptWithBloom{Receipt: r}
}

// decodeTelosLegacy decodes a legacy-transaction RLP list the way the
// native contract emits it: the signature fields may be absent entirely
// (a six-item list) or present but zeroed, and integer fields may carry
// leading zero padding that a strict decoder would reject as
// non-canonical. Returns the decoded fields plus whether a signature was
// present on the wire at all.
func decodeTelosLegacy(raw []byte) (*types.LegacyTx, bool, error) {
	content, _, err := rlp.SplitList(raw)
	if err != nil {
		return nil, false, fmt.Errorf("evmblock: legacy tx decode: %w", err)
	}

	var fields [][]byte
	for len(content) > 0 {
		kind, payload, rest, err := rlp.Split(content)
		if err != nil {
			return nil, false, fmt.Errorf("evmblock: legacy tx field %d: %w", len(fields), err)
		}
		if kind == rlp.List {
			return nil, false, fmt.Errorf("evmblock: legacy tx field %d: unexpected nested list", len(fields))
		}
		fields = append(fields, payload)
		content = rest
	}

	hasSig := false
	switch len(fields) {
	case 6:
	case 9:
		hasSig = true
	default:
		return nil, false, fmt.Errorf("evmblock: legacy tx has %d fields, want 6 or 9", len(fields))
	}

	nonce, err := bytesToUint64(fields[0])
	if err != nil {
		return nil, false, fmt.Errorf("evmblock: legacy tx nonce: %w", err)
	}
	gas, err := bytesToUint64(fields[2])
	if err != nil {
		return nil, false, fmt.Errorf("evmblock: legacy tx gas: %w", err)
	}

	inner := &types.LegacyTx{
		Nonce:    nonce,
		GasPrice: new(big.Int).SetBytes(fields[1]),
		Gas:      gas,
		Value:    new(big.Int).SetBytes(fields[4]),
		Data:     append([]byte{}, fields[5]...),
		V:        new(big.Int),
		R:        new(big.Int),
		S:        new(big.Int),
	}

	switch len(fields[3]) {
	case 0:
	case common.AddressLength:
		to := common.BytesToAddress(fields[3])
		inner.To = &to
	default:
		return nil, false, fmt.Errorf("evmblock: legacy tx to: %d bytes, want 0 or 20", len(fields[3]))
	}

	if hasSig {
		inner.V.SetBytes(fields[6])
		inner.R.SetBytes(fields[7])
		inner.S.SetBytes(fields[8])
	}
	return inner, hasSig, nil
}

func bytesToUint64(b []byte) (uint64, error) {
	b = bytes.TrimLeft(b, "\x00")
	if len(b) > 8 {
		return 0, fmt.Errorf("value overflows uint64")
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// usableSignature reports whether raw signature values could plausibly
// have come from a real signer: all three present and non-zero.
func usableSignature(v, r, s *big.Int) bool {
	return v != nil && v.Sign() != 0 && r != nil && r.Sign() != 0 && s != nil && s.Sign() != 0
}

// FromRawAction builds the canonical transaction for an eosio.evm::raw
// action: decode the embedded envelope, and when it carries no usable
// signature, recover a deterministic one keyed by the action's
// authenticated sender.
func FromRawAction(chainID uint64, txIndex uint64, blockHash common.Hash, action *RawAction, printed *PrintedReceipt) (*TelosEVMTransaction, error) {
	if len(action.Tx) == 0 {
		return nil, fmt.Errorf("evmblock: raw action tx_index %d carries no transaction bytes", txIndex)
	}

	if action.Tx[0] == types.DynamicFeeTxType {
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(action.Tx); err != nil {
			return nil, fmt.Errorf("evmblock: typed tx decode: %w", err)
		}
		if v, r, s := tx.RawSignatureValues(); !usableSignature(v, r, s) {
			sender, err := rawSender(action, txIndex)
			if err != nil {
				return nil, err
			}
			sv, sr, ss := deterministicVRS(blockHash, sender, txIndex)
			tx = types.NewTx(&types.DynamicFeeTx{
				ChainID:    tx.ChainId(),
				Nonce:      tx.Nonce(),
				GasTipCap:  tx.GasTipCap(),
				GasFeeCap:  tx.GasFeeCap(),
				Gas:        tx.Gas(),
				To:         tx.To(),
				Value:      tx.Value(),
				Data:       tx.Data(),
				AccessList: tx.AccessList(),
				V:          new(big.Int).SetUint64(uint64(sv)),
				R:          sr,
				S:          ss,
			})
		}
		return &TelosEVMTransaction{Tx: tx, Printed: printed, TxIndex: txIndex}, nil
	}
	if action.Tx[0] > 0x7f && action.Tx[0] < 0xc0 {
		return nil, fmt.Errorf("evmblock: unsupported or unimplemented typed transaction (first byte 0x%02x)", action.Tx[0])
	}

	inner, _, err := decodeTelosLegacy(action.Tx)
	if err != nil {
		return nil, err
	}
	if !usableSignature(inner.V, inner.R, inner.S) {
		sender, err := rawSender(action, txIndex)
		if err != nil {
			return nil, err
		}
		v, r, s := deterministicVRS(blockHash, sender, txIndex)
		inner.V = new(big.Int).SetUint64(uint64(v))
		inner.R = r
		inner.S = s
	}
	return &TelosEVMTransaction{Tx: types.NewTx(inner), Printed: printed, TxIndex: txIndex}, nil
}

// rawSender is the authenticated sender a signatureless raw action must
// carry; without one the deterministic signature has no stable seed.
func rawSender(action *RawAction, txIndex uint64) (common.Address, error) {
	if action.Sender == nil {
		return common.Address{}, fmt.Errorf("evmblock: raw action tx_index %d has no signature and no authenticated sender", txIndex)
	}
	return *action.Sender, nil
}

func syntheticReceipt() *PrintedReceipt {
	return &PrintedReceipt{GasUsed: syntheticTransferGas, Status: 1}
}

func syntheticLegacy(blockHash common.Hash, sender, to common.Address, value *big.Int, txIndex uint64) *types.Transaction {
	v, r, s := deterministicVRS(blockHash, sender, txIndex)
	return types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(0),
		Gas:      syntheticTransferGas,
		To:       &to,
		Value:    value,
		V:        new(big.Int).SetUint64(uint64(v)),
		R:        r,
		S:        s,
	})
}

// FromWithdrawAction synthesizes a legacy transaction representing value
// leaving the EVM back to the native chain.
func FromWithdrawAction(ctx context.Context, chainID uint64, txIndex uint64, blockHash common.Hash, action *WithdrawAction, resolver NameResolver) (*TelosEVMTransaction, error) {
	sender, ok, err := resolver.Resolve(ctx, action.To)
	if err != nil {
		return nil, fmt.Errorf("evmblock: resolving withdraw sender: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("evmblock: no EVM address mapped for withdrawing account")
	}

	tx := syntheticLegacy(blockHash, sender, withdrawSink, action.Quantity.ToWei(), txIndex)
	return &TelosEVMTransaction{Tx: tx, Printed: syntheticReceipt(), TxIndex: txIndex}, nil
}

// FromTransferAction synthesizes a legacy transaction representing value
// entering the EVM from an eosio.token transfer. The recipient is read
// from the memo when it encodes a 20-byte hex address; otherwise the
// sender's own mapped address is used (a self-deposit).
func FromTransferAction(ctx context.Context, chainID uint64, txIndex uint64, blockHash common.Hash, action *TransferAction, resolver NameResolver) (*TelosEVMTransaction, error) {
	sender, ok, err := resolver.Resolve(ctx, action.From)
	if err != nil {
		return nil, fmt.Errorf("evmblock: resolving transfer sender: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("evmblock: no EVM address mapped for depositing account")
	}

	to, ok := parseMemoAddress(action.Memo)
	if !ok {
		to = sender
	}

	tx := syntheticLegacy(blockHash, sender, to, action.Quantity.ToWei(), txIndex)
	return &TelosEVMTransaction{Tx: tx, Printed: syntheticReceipt(), TxIndex: txIndex}, nil
}

func parseMemoAddress(memo string) (common.Address, bool) {
	trimmed := bytes.TrimPrefix([]byte(memo), []byte("0x"))
	if len(trimmed) != 40 || !common.IsHexAddress(string(trimmed)) {
		return common.Address{}, false
	}
	return common.HexToAddress(string(trimmed)), true
}

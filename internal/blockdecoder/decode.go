package blockdecoder

import (
	"fmt"

	"github.com/telosnetwork/telos-evm-translator-go/internal/shipwire"
)

// DecodeSignedBlockHeader decodes the fields of SignedBlockHeader from the
// front of raw. It never errors on trailing, undecoded bytes.
func DecodeSignedBlockHeader(raw []byte) (*SignedBlockHeader, error) {
	d := shipwire.NewDecoder(raw)
	h := &SignedBlockHeader{}
	var err error
	if h.Timestamp, err = d.ReadUint32(); err != nil {
		return nil, fmt.Errorf("blockdecoder: timestamp: %w", err)
	}
	if h.Producer, err = d.ReadName(); err != nil {
		return nil, fmt.Errorf("blockdecoder: producer: %w", err)
	}
	if h.Confirmed, err = d.ReadUint16(); err != nil {
		return nil, fmt.Errorf("blockdecoder: confirmed: %w", err)
	}
	if h.Previous, err = d.ReadChecksum256(); err != nil {
		return nil, fmt.Errorf("blockdecoder: previous: %w", err)
	}
	if h.TransactionMRoot, err = d.ReadChecksum256(); err != nil {
		return nil, fmt.Errorf("blockdecoder: transaction_mroot: %w", err)
	}
	if h.ActionMRoot, err = d.ReadChecksum256(); err != nil {
		return nil, fmt.Errorf("blockdecoder: action_mroot: %w", err)
	}
	if h.ScheduleVersion, err = d.ReadUint32(); err != nil {
		return nil, fmt.Errorf("blockdecoder: schedule_version: %w", err)
	}
	return h, nil
}

// DecodeTransactionTraces decodes the var-array of TransactionTrace that
// makes up a GetBlocksResultV0.traces buffer.
func DecodeTransactionTraces(raw []byte) ([]*TransactionTrace, error) {
	d := shipwire.NewDecoder(raw)
	n, err := d.ReadVarUint32()
	if err != nil {
		return nil, fmt.Errorf("blockdecoder: traces count: %w", err)
	}
	out := make([]*TransactionTrace, 0, n)
	for i := uint32(0); i < n; i++ {
		tt, err := decodeTransactionTrace(d)
		if err != nil {
			return nil, fmt.Errorf("blockdecoder: trace %d: %w", i, err)
		}
		out = append(out, tt)
	}
	return out, nil
}

func decodeTransactionTrace(d *shipwire.Decoder) (*TransactionTrace, error) {
	variant, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if variant != 0 {
		return nil, fmt.Errorf("blockdecoder: unsupported transaction_trace variant %d", variant)
	}
	return decodeTransactionTraceV0(d)
}

func decodeTransactionTraceV0(d *shipwire.Decoder) (*TransactionTrace, error) {
	if _, err := d.ReadChecksum256(); err != nil { // id
		return nil, err
	}
	if _, err := d.ReadByte(); err != nil { // status
		return nil, err
	}
	if _, err := d.ReadUint32(); err != nil { // cpu_usage_us
		return nil, err
	}
	if _, err := d.ReadVarUint32(); err != nil { // net_usage_words
		return nil, err
	}
	if _, err := d.ReadUint64(); err != nil { // elapsed (int64, same width)
		return nil, err
	}
	if _, err := d.ReadUint64(); err != nil { // net_usage
		return nil, err
	}
	if _, err := d.ReadBool(); err != nil { // scheduled
		return nil, err
	}

	actionCount, err := d.ReadVarUint32()
	if err != nil {
		return nil, fmt.Errorf("action_traces count: %w", err)
	}
	actions := make([]*ActionTrace, 0, actionCount)
	for i := uint32(0); i < actionCount; i++ {
		a, err := decodeActionTrace(d)
		if err != nil {
			return nil, fmt.Errorf("action_trace %d: %w", i, err)
		}
		actions = append(actions, a)
	}

	if err := skipAccountDeltaOptional(d); err != nil { // account_ram_delta
		return nil, err
	}
	if err := skipOptionalString(d); err != nil { // except
		return nil, err
	}
	if err := skipOptionalUint64(d); err != nil { // error_code
		return nil, err
	}
	if err := skipOptionalFailedDtrxTrace(d); err != nil { // failed_dtrx_trace
		return nil, err
	}
	if err := skipOptionalPartialTransaction(d); err != nil { // partial
		return nil, err
	}

	return &TransactionTrace{ActionTraces: actions}, nil
}

func decodeActionTrace(d *shipwire.Decoder) (*ActionTrace, error) {
	variant, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if variant > 1 {
		return nil, fmt.Errorf("unsupported action_trace variant %d", variant)
	}

	if _, err := d.ReadVarUint32(); err != nil { // action_ordinal
		return nil, err
	}
	if _, err := d.ReadVarUint32(); err != nil { // creator_action_ordinal
		return nil, err
	}
	if err := skipOptionalActionReceipt(d); err != nil { // receipt
		return nil, err
	}
	receiver, err := d.ReadName()
	if err != nil {
		return nil, err
	}
	account, name, data, err := decodeAction(d)
	if err != nil {
		return nil, err
	}
	if _, err := d.ReadBool(); err != nil { // context_free
		return nil, err
	}
	if _, err := d.ReadUint64(); err != nil { // elapsed
		return nil, err
	}
	console, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	if _, err := d.ReadChecksum256(); err != nil { // trx_id
		return nil, err
	}
	if _, err := d.ReadUint32(); err != nil { // block_num
		return nil, err
	}
	if _, err := d.ReadUint32(); err != nil { // block_time
		return nil, err
	}
	if err := skipOptionalChecksum256(d); err != nil { // producer_block_id
		return nil, err
	}
	ramDeltaCount, err := d.ReadVarUint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < ramDeltaCount; i++ {
		if err := skipAccountDelta(d); err != nil {
			return nil, err
		}
	}
	if err := skipOptionalString(d); err != nil { // except
		return nil, err
	}
	if err := skipOptionalUint64(d); err != nil { // error_code
		return nil, err
	}
	if variant == 1 {
		if _, err := d.ReadBytes(); err != nil { // return_value (v1 only)
			return nil, err
		}
	}

	return &ActionTrace{
		Version:  variant,
		Receiver: receiver,
		Account:  account,
		Name:     name,
		Data:     data,
		Console:  console,
	}, nil
}

func decodeAction(d *shipwire.Decoder) (account, name uint64, data []byte, err error) {
	if account, err = d.ReadName(); err != nil {
		return
	}
	if name, err = d.ReadName(); err != nil {
		return
	}
	authCount, aerr := d.ReadVarUint32()
	if aerr != nil {
		err = aerr
		return
	}
	for i := uint32(0); i < authCount; i++ {
		if _, err = d.ReadName(); err != nil { // actor
			return
		}
		if _, err = d.ReadName(); err != nil { // permission
			return
		}
	}
	data, err = d.ReadBytes()
	return
}

func skipAccountDelta(d *shipwire.Decoder) error {
	if _, err := d.ReadName(); err != nil {
		return err
	}
	_, err := d.ReadUint64() // delta, int64
	return err
}

func skipAccountDeltaOptional(d *shipwire.Decoder) error {
	present, err := d.ReadOptionalPresence()
	if err != nil || !present {
		return err
	}
	return skipAccountDelta(d)
}

func skipOptionalString(d *shipwire.Decoder) error {
	present, err := d.ReadOptionalPresence()
	if err != nil || !present {
		return err
	}
	_, err = d.ReadString()
	return err
}

func skipOptionalUint64(d *shipwire.Decoder) error {
	present, err := d.ReadOptionalPresence()
	if err != nil || !present {
		return err
	}
	_, err = d.ReadUint64()
	return err
}

func skipOptionalChecksum256(d *shipwire.Decoder) error {
	present, err := d.ReadOptionalPresence()
	if err != nil || !present {
		return err
	}
	_, err = d.ReadChecksum256()
	return err
}

// skipOptionalActionReceipt skips action_receipt_v0 without retaining it:
// nothing in this translator's derivation reads the global/recv sequence
// numbers.
func skipOptionalActionReceipt(d *shipwire.Decoder) error {
	present, err := d.ReadOptionalPresence()
	if err != nil || !present {
		return err
	}
	if _, err := d.ReadByte(); err != nil { // variant tag, always 0 today
		return err
	}
	if _, err := d.ReadName(); err != nil { // receiver
		return err
	}
	if _, err := d.ReadChecksum256(); err != nil { // act_digest
		return err
	}
	if _, err := d.ReadUint64(); err != nil { // global_sequence
		return err
	}
	if _, err := d.ReadUint64(); err != nil { // recv_sequence
		return err
	}
	authSeqCount, err := d.ReadVarUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < authSeqCount; i++ {
		if _, err := d.ReadName(); err != nil {
			return err
		}
		if _, err := d.ReadUint64(); err != nil {
			return err
		}
	}
	if _, err := d.ReadVarUint32(); err != nil { // code_sequence
		return err
	}
	_, err = d.ReadVarUint32() // abi_sequence
	return err
}

// skipOptionalFailedDtrxTrace skips a recursive transaction_trace; real
// streams essentially never populate this for irreversible-only
// subscriptions (failed deferred transactions aren't retried once
// irreversible), but the field must still be consumed to keep the cursor
// correct for siblings.
func skipOptionalFailedDtrxTrace(d *shipwire.Decoder) error {
	present, err := d.ReadOptionalPresence()
	if err != nil || !present {
		return err
	}
	_, err = decodeTransactionTrace(d)
	return err
}

func skipOptionalPartialTransaction(d *shipwire.Decoder) error {
	present, err := d.ReadOptionalPresence()
	if err != nil || !present {
		return err
	}
	if _, err := d.ReadByte(); err != nil { // variant tag
		return err
	}
	if _, err := d.ReadUint32(); err != nil { // expiration
		return err
	}
	if _, err := d.ReadUint16(); err != nil { // ref_block_num
		return err
	}
	if _, err := d.ReadUint32(); err != nil { // ref_block_prefix
		return err
	}
	if _, err := d.ReadVarUint32(); err != nil { // max_net_usage_words
		return err
	}
	if _, err := d.ReadByte(); err != nil { // max_cpu_usage_ms
		return err
	}
	if _, err := d.ReadVarUint32(); err != nil { // delay_sec
		return err
	}
	extCount, err := d.ReadVarUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < extCount; i++ {
		if _, err := d.ReadUint16(); err != nil {
			return err
		}
		if _, err := d.ReadBytes(); err != nil {
			return err
		}
	}
	sigCount, err := d.ReadVarUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < sigCount; i++ {
		if _, err := d.ReadSignature(); err != nil {
			return err
		}
	}
	_, err = d.ReadBytes() // context_free_data
	return err
}

// DecodeTableDeltas decodes the var-array of TableDelta that makes up a
// GetBlocksResultV0.deltas buffer.
func DecodeTableDeltas(raw []byte) ([]*TableDelta, error) {
	d := shipwire.NewDecoder(raw)
	n, err := d.ReadVarUint32()
	if err != nil {
		return nil, fmt.Errorf("blockdecoder: deltas count: %w", err)
	}
	out := make([]*TableDelta, 0, n)
	for i := uint32(0); i < n; i++ {
		variant, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		if variant != 0 {
			return nil, fmt.Errorf("blockdecoder: unsupported table_delta variant %d", variant)
		}
		name, err := d.ReadString()
		if err != nil {
			return nil, fmt.Errorf("blockdecoder: table_delta %d name: %w", i, err)
		}
		rowCount, err := d.ReadVarUint32()
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, rowCount)
		for j := uint32(0); j < rowCount; j++ {
			present, err := d.ReadBool()
			if err != nil {
				return nil, err
			}
			data, err := d.ReadBytes()
			if err != nil {
				return nil, err
			}
			rows = append(rows, Row{Present: present, Data: data})
		}
		out = append(out, &TableDelta{Name: name, Rows: rows})
	}
	return out, nil
}

// DecodeContractRow decodes a contract_row_v0 from a table-delta row's raw
// value bytes.
func DecodeContractRow(raw []byte) (*ContractRow, error) {
	d := shipwire.NewDecoder(raw)
	variant, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if variant != 0 {
		return nil, fmt.Errorf("blockdecoder: unsupported contract_row variant %d", variant)
	}
	row := &ContractRow{}
	if row.Code, err = d.ReadName(); err != nil {
		return nil, err
	}
	if row.Scope, err = d.ReadName(); err != nil {
		return nil, err
	}
	if row.Table, err = d.ReadName(); err != nil {
		return nil, err
	}
	if row.PrimaryKey, err = d.ReadUint64(); err != nil {
		return nil, err
	}
	if row.Payer, err = d.ReadName(); err != nil {
		return nil, err
	}
	if row.Value, err = d.ReadBytes(); err != nil {
		return nil, err
	}
	return row, nil
}

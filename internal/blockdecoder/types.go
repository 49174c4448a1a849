// Package blockdecoder decodes the three independent raw byte buffers a
// GetBlocksResultV0 carries (signed block, action traces, table deltas)
// into structured values. Each buffer is decoded on its own and may be
// absent without the others being affected.
package blockdecoder

// SignedBlockHeader carries the subset of a native signed-block header this
// translator needs. The full header also carries schedule data, a producer
// signature and the embedded (already-deprecated, SHIP carries traces
// separately) transaction list; nothing downstream consumes them, so
// decoding intentionally stops once the fields below are read.
type SignedBlockHeader struct {
	Timestamp        uint32 // native block_timestamp_type: slots since the chain epoch
	Producer         uint64
	Confirmed        uint16
	Previous         [32]byte
	TransactionMRoot [32]byte
	ActionMRoot      [32]byte
	ScheduleVersion  uint32
}

// ActionTrace is a flattened view over the v0/v1 action_trace tagged union:
// only the fields the action classifier dispatches on are retained.
type ActionTrace struct {
	Version  uint8
	Receiver uint64
	Account  uint64
	Name     uint64
	Data     []byte
	Console  string
}

// TransactionTrace carries the ordered action traces belonging to one native
// transaction. Other transaction_trace fields (status, cpu/net usage,
// elapsed, partial signing data, ...) are consumed during decode to keep the
// surrounding array's cursor correct but are not retained: nothing in this
// translator's derivation reads them.
type TransactionTrace struct {
	ActionTraces []*ActionTrace
}

// TableDelta is a named bundle of rows; only "contract_row" deltas matter
// to the EVM block processor.
type TableDelta struct {
	Name string
	Rows []Row
}

// Row is one delta row: Present is false for a deleted row.
type Row struct {
	Present bool
	Data    []byte
}

// ContractRow is the decoded value of a "contract_row" delta row.
type ContractRow struct {
	Code       uint64
	Scope      uint64
	Table      uint64
	PrimaryKey uint64
	Payer      uint64
	Value      []byte
}

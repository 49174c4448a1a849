package evmblock

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/telosnetwork/telos-evm-translator-go/internal/shipwire"
)

// ConfigRow is the decoded eosio.evm "config" singleton row: only the
// fields the gas-price and revision refresh logic consumes are kept.
type ConfigRow struct {
	TrxIndex     uint32
	LastBlock    uint32
	GasUsedBlock uint64
	GasPrice     [32]byte
	Revision     uint32
}

func DecodeConfigRow(d *shipwire.Decoder) (*ConfigRow, error) {
	row := &ConfigRow{}
	var err error
	if row.TrxIndex, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	if row.LastBlock, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	if row.GasUsedBlock, err = d.ReadUint64(); err != nil {
		return nil, err
	}
	if row.GasPrice, err = d.ReadChecksum256(); err != nil {
		return nil, err
	}
	if row.Revision, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	return row, nil
}

// AccountRow is the decoded eosio.evm "account" row: the name<->address
// mapping the name cache fills itself from on a REST miss, and this
// processor decodes directly off in-block table deltas.
type AccountRow struct {
	Index   uint64
	Address common.Address
	Account uint64
	Nonce   uint64
	Balance [32]byte
}

func DecodeAccountRow(d *shipwire.Decoder) (*AccountRow, error) {
	row := &AccountRow{}
	var err error
	if row.Index, err = d.ReadUint64(); err != nil {
		return nil, err
	}
	addr, err := d.ReadFixed(20)
	if err != nil {
		return nil, err
	}
	row.Address = common.BytesToAddress(addr)
	if row.Account, err = d.ReadName(); err != nil {
		return nil, err
	}
	if row.Nonce, err = d.ReadUint64(); err != nil {
		return nil, err
	}
	if _, err = d.ReadBytes(); err != nil { // code, unused downstream
		return nil, err
	}
	if row.Balance, err = d.ReadChecksum256(); err != nil {
		return nil, err
	}
	return row, nil
}

// AccountStateRow is one EVM contract storage slot.
type AccountStateRow struct {
	Index uint64
	Key   [32]byte
	Value [32]byte
}

func DecodeAccountStateRow(d *shipwire.Decoder) (*AccountStateRow, error) {
	row := &AccountStateRow{}
	var err error
	if row.Index, err = d.ReadUint64(); err != nil {
		return nil, err
	}
	if row.Key, err = d.ReadChecksum256(); err != nil {
		return nil, err
	}
	if row.Value, err = d.ReadChecksum256(); err != nil {
		return nil, err
	}
	return row, nil
}

// RawAction is the eosio.evm::raw action payload: an RLP-encoded
// transaction, optionally already signed, plus the ram payer and (when
// the transaction carries no signature) the authenticated sender the
// contract itself observed.
type RawAction struct {
	RamPayer    uint64
	Tx          []byte
	EstimateGas bool
	Sender      *common.Address
}

func DecodeRawAction(data []byte) (*RawAction, error) {
	d := shipwire.NewDecoder(data)
	a := &RawAction{}
	var err error
	if a.RamPayer, err = d.ReadName(); err != nil {
		return nil, err
	}
	if a.Tx, err = d.ReadBytes(); err != nil {
		return nil, err
	}
	if a.EstimateGas, err = d.ReadBool(); err != nil {
		return nil, err
	}
	present, err := d.ReadOptionalPresence()
	if err != nil {
		return nil, err
	}
	if present {
		b, err := d.ReadFixed(20)
		if err != nil {
			return nil, err
		}
		addr := common.BytesToAddress(b)
		a.Sender = &addr
	}
	return a, nil
}

// WithdrawAction is the eosio.evm::withdraw action payload.
type WithdrawAction struct {
	To       uint64
	Quantity Asset
}

func DecodeWithdrawAction(data []byte) (*WithdrawAction, error) {
	d := shipwire.NewDecoder(data)
	a := &WithdrawAction{}
	var err error
	if a.To, err = d.ReadName(); err != nil {
		return nil, err
	}
	if a.Quantity, err = decodeAsset(d); err != nil {
		return nil, err
	}
	return a, nil
}

// TransferAction is the eosio.token::transfer action payload.
type TransferAction struct {
	From     uint64
	To       uint64
	Quantity Asset
	Memo     string
}

func DecodeTransferAction(data []byte) (*TransferAction, error) {
	d := shipwire.NewDecoder(data)
	a := &TransferAction{}
	var err error
	if a.From, err = d.ReadName(); err != nil {
		return nil, err
	}
	if a.To, err = d.ReadName(); err != nil {
		return nil, err
	}
	if a.Quantity, err = decodeAsset(d); err != nil {
		return nil, err
	}
	if a.Memo, err = d.ReadString(); err != nil {
		return nil, err
	}
	return a, nil
}

// SetRevisionAction is the eosio.evm::setrevision action payload.
type SetRevisionAction struct {
	NewRevision uint32
}

func DecodeSetRevisionAction(data []byte) (*SetRevisionAction, error) {
	d := shipwire.NewDecoder(data)
	a := &SetRevisionAction{}
	var err error
	if a.NewRevision, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	return a, nil
}

// OpenWalletAction is the eosio.evm::openwallet action payload.
type OpenWalletAction struct {
	Account uint64
	Address common.Address
}

func DecodeOpenWalletAction(data []byte) (*OpenWalletAction, error) {
	d := shipwire.NewDecoder(data)
	a := &OpenWalletAction{}
	var err error
	if a.Account, err = d.ReadName(); err != nil {
		return nil, err
	}
	addr, err := d.ReadFixed(20)
	if err != nil {
		return nil, err
	}
	a.Address = common.BytesToAddress(addr)
	return a, nil
}

// CreateWalletAction is the eosio.evm::create action payload.
type CreateWalletAction struct {
	Account uint64
	Data    []byte
}

func DecodeCreateWalletAction(data []byte) (*CreateWalletAction, error) {
	d := shipwire.NewDecoder(data)
	a := &CreateWalletAction{}
	var err error
	if a.Account, err = d.ReadName(); err != nil {
		return nil, err
	}
	if a.Data, err = d.ReadBytes(); err != nil {
		return nil, err
	}
	return a, nil
}

package evmblock

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Contract and action names, computed once at init time via the Antelope
// base32 name encoding (see names.go) rather than hand-copied magic
// numbers, so the constant is provably derived from its human-readable
// form.
var (
	EosioEvm   uint64
	EosioToken uint64

	ActRaw         uint64
	ActWithdraw    uint64
	ActTransfer    uint64
	ActInit        uint64
	ActDoResources uint64
	ActSetRevision uint64
	ActOpenWallet  uint64
	ActCreate      uint64

	TableConfig       uint64
	TableAccount      uint64
	TableAccountState uint64
)

func init() {
	EosioEvm = EncodeName("eosio.evm")
	EosioToken = EncodeName("eosio.token")

	ActRaw = EncodeName("raw")
	ActWithdraw = EncodeName("withdraw")
	ActTransfer = EncodeName("transfer")
	ActInit = EncodeName("init")
	ActDoResources = EncodeName("doresources")
	ActSetRevision = EncodeName("setrevision")
	ActOpenWallet = EncodeName("openwallet")
	ActCreate = EncodeName("create")

	TableConfig = EncodeName("config")
	TableAccount = EncodeName("account")
	TableAccountState = EncodeName("accountstate")
}

// SystemAccountNames holds the native accounts excluded from deposit
// synthesis: transfers originating from these accounts are internal
// token-economics bookkeeping, never end-user deposits.
var SystemAccountNames = buildSystemAccounts()

func buildSystemAccounts() map[uint64]bool {
	names := []string{
		"eosio",
		"eosio.stake",
		"eosio.ram",
		"eosio.ramfee",
		"eosio.saving",
		"eosio.names",
		"eosio.bpay",
	}
	out := make(map[uint64]bool, len(names))
	for _, n := range names {
		out[EncodeName(n)] = true
	}
	return out
}

// Header/payload constants for the derived chain.
const (
	// IntervalMS is the millisecond duration of one native block slot.
	IntervalMS uint64 = 500
	// EpochMS is the native chain's epoch, in milliseconds since the Unix
	// epoch.
	EpochMS uint64 = 1577836800000
	// MinimumFeePerGas floors the synthesized base fee.
	MinimumFeePerGas uint64 = 7
)

// EmptyRoot and EmptyOmmers are the canonical Ethereum empty-trie and
// empty-uncle-list sentinels; this translator never executes state or
// produces uncles. Computed rather than pasted as literals: EmptyRoot is
// keccak256(rlp("")) and EmptyOmmers is keccak256(rlp([])).
var (
	EmptyRoot    = crypto.Keccak256Hash([]byte{0x80})
	EmptyOmmers  = crypto.Keccak256Hash([]byte{0xc0})
	withdrawSink = common.Address{}
)

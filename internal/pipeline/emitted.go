package pipeline

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/telosnetwork/telos-evm-translator-go/internal/evmblock"
)

// EmittedBlock is the final, frozen form of one source block, ready for a
// downstream consumer.
type EmittedBlock struct {
	BlockNum  uint32
	BlockHash common.Hash
	LibNum    uint32
	LibHash   common.Hash

	Header       *types.Header
	Transactions []*evmblock.TelosEVMTransaction
	Payload      *evmblock.ExecutionPayloadV1

	NewGasPrice *evmblock.GasPriceUpdate
	NewRevision *evmblock.RevisionUpdate
	NewWallets  []evmblock.WalletEvent

	AccountRows      []*evmblock.AccountRow
	AccountStateRows []*evmblock.AccountStateRow

	IsFork bool
}

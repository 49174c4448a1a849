package evmblock

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// placeholderV is the fixed chain-id-agnostic parity byte deterministic
// signatures are tagged with; nothing recovers a real sender from it, the
// recovered address is already authoritative.
const placeholderV = 42

// deterministicVRS synthesizes a pseudo-signature for a raw action whose
// embedded transaction carries no usable signature. r and s are each the
// upper 32 bytes of a keccak256 digest seeded with the native block hash,
// the authenticated sender address and the transaction's position in the
// block, so re-deriving it from the same inputs always yields the same
// (v, r, s) and therefore the same transaction hash.
func deterministicVRS(blockHash common.Hash, sender common.Address, txIndex uint64) (v uint8, r, s *big.Int) {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], txIndex)

	rSeed := append(append([]byte{}, blockHash.Bytes()...), idx[:]...)
	sSeed := append(append([]byte{}, sender.Bytes()...), idx[:]...)

	r = new(big.Int).SetBytes(crypto.Keccak256(rSeed))
	s = new(big.Int).SetBytes(crypto.Keccak256(sSeed))
	v = placeholderV
	return
}

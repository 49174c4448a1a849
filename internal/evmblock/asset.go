package evmblock

import (
	"math/big"

	"github.com/telosnetwork/telos-evm-translator-go/internal/shipwire"
)

// Asset is a decoded native-chain token amount: raw integer units at the
// token's own decimal precision.
type Asset struct {
	Amount    int64
	Precision uint8
	Symbol    string
}

// decodeAsset reads a packed Antelope asset: an 8-byte signed amount
// followed by an 8-byte symbol (low byte precision, remaining bytes the
// ticker string).
func decodeAsset(d *shipwire.Decoder) (Asset, error) {
	raw, err := d.ReadUint64()
	if err != nil {
		return Asset{}, err
	}
	amount := int64(raw)
	symRaw, err := d.ReadUint64()
	if err != nil {
		return Asset{}, err
	}
	precision := uint8(symRaw & 0xff)
	var symBytes []byte
	for shift := uint(8); shift < 64; shift += 8 {
		c := byte(symRaw >> shift)
		if c == 0 {
			break
		}
		symBytes = append(symBytes, c)
	}
	return Asset{Amount: amount, Precision: precision, Symbol: string(symBytes)}, nil
}

// ToWei scales a native asset amount up to 18-decimal EVM wei.
func (a Asset) ToWei() *big.Int {
	amount := big.NewInt(a.Amount)
	if a.Precision >= 18 {
		return amount
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(18-a.Precision)), nil)
	return amount.Mul(amount, scale)
}

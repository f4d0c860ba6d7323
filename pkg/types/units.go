package types

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals of the two amounts the ledger deals in. Both the native
// currency and the vault token use 18 decimals.
const (
	NativeDecimals = 18
	TokenDecimals  = 18
)

// unitWei is one whole token (or one ether) in base units.
const unitWei = 1_000_000_000_000_000_000

// ErrInvalidAmount is returned when an amount cannot be parsed or is out of range.
var ErrInvalidAmount = errors.New("invalid amount")

// Unit returns one whole vault token in base units. One unit is minted per
// NFT deposited into the vault.
func Unit() *uint256.Int {
	return uint256.NewInt(unitWei)
}

// Units returns n whole tokens in base units.
func Units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(unitWei))
}

// Ether returns n whole ether in wei.
func Ether(n uint64) *uint256.Int {
	return Units(n)
}

// FormatUnits renders a base-unit amount with the given number of decimals,
// trimming trailing zeros ("1.5", "20", "0.000000000000000002").
func FormatUnits(x *uint256.Int, decimals int32) string {
	if x == nil {
		return "0"
	}
	return decimal.NewFromBigInt(x.ToBig(), -decimals).String()
}

// ParseUnits parses a decimal string ("1.5") into base units. It rejects
// negative values, values with more precision than decimals and values that
// do not fit in 256 bits.
func ParseUnits(s string, decimals int32) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, decimals)
	}
	v, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}
	return v, nil
}

// ParseWei parses a base-unit integer string ("2", "1000000000000000000").
func ParseWei(s string) (*uint256.Int, error) {
	return ParseUnits(s, 0)
}

// OrZero returns x, or a fresh zero when x is nil.
func OrZero(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return x
}

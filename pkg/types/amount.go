package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Asset identifies a fungible token by its contract address
type Asset struct {
	Address  common.Address `json:"address" yaml:"address"`
	Symbol   string         `json:"symbol" yaml:"symbol"`
	Decimals int32          `json:"decimals" yaml:"decimals"`
}

// Equal reports whether both assets point to the same token contract
func (a Asset) Equal(other Asset) bool {
	return a.Address == other.Address
}

func (a Asset) String() string {
	if a.Symbol != "" {
		return a.Symbol
	}
	return a.Address.Hex()
}

// Amount is a non-negative quantity of a specific asset
type Amount struct {
	Asset Asset           `json:"asset"`
	Value decimal.Decimal `json:"value"`
}

// NewAmount creates an amount, clamping negative values to zero
func NewAmount(asset Asset, value decimal.Decimal) Amount {
	if value.IsNegative() {
		value = decimal.Zero
	}
	return Amount{Asset: asset, Value: value}
}

// ZeroAmount returns an empty amount of the asset
func ZeroAmount(asset Asset) Amount {
	return Amount{Asset: asset, Value: decimal.Zero}
}

// ParseAmount parses a human readable amount such as "1.5" for the asset
func ParseAmount(asset Asset, value string) (Amount, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return ZeroAmount(asset), nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount format: %s", value)
	}
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("amount must not be negative: %s", value)
	}
	if -d.Exponent() > asset.Decimals && !d.Equal(d.Truncate(asset.Decimals)) {
		return Amount{}, fmt.Errorf("amount %s has more than %d decimals for %s", value, asset.Decimals, asset)
	}

	return Amount{Asset: asset, Value: d}, nil
}

// AmountFromRaw converts an on-chain integer value into an amount
func AmountFromRaw(asset Asset, raw *big.Int) Amount {
	if raw == nil {
		return ZeroAmount(asset)
	}
	return NewAmount(asset, decimal.NewFromBigInt(raw, -asset.Decimals))
}

// Raw returns the on-chain integer representation
func (a Amount) Raw() *big.Int {
	return a.Value.Shift(a.Asset.Decimals).Truncate(0).BigInt()
}

// IsZero reports whether the amount is zero
func (a Amount) IsZero() bool {
	return a.Value.Sign() <= 0
}

// Covers reports whether a covers the required amount
func (a Amount) Covers(required Amount) bool {
	return a.Value.GreaterThanOrEqual(required.Value)
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Value.String(), a.Asset)
}

package vault

import (
	"math/big"

	"github.com/shopspring/decimal"

	"position-manager/pkg/types"
)

var hundred = big.NewInt(100)

// TokenRatio converts the adapter's tokenPerShare into token1 per token0,
// truncated to two decimals. An empty share reading gives a ratio of 1.
func TokenRatio(perShare0, perShare1 *big.Int) decimal.Decimal {
	if perShare0 == nil || perShare1 == nil || perShare1.Sign() == 0 {
		return decimal.NewFromInt(1)
	}
	scaled := new(big.Int).Mul(perShare0, hundred)
	scaled.Quo(scaled, perShare1)
	return decimal.NewFromBigInt(scaled, -2)
}

// LinkedValue returns the amount of the other token matching value entered on side
func LinkedValue(side types.Side, value, ratio decimal.Decimal) decimal.Decimal {
	if side == types.SideA {
		return value.Mul(ratio)
	}
	if ratio.IsZero() {
		return decimal.Zero
	}
	return value.Div(ratio)
}

// LinkedPair fills the other side of a deposit from value entered on side.
// Single-sided vaults keep the other side at zero.
func LinkedPair(v Vault, side types.Side, value, ratio decimal.Decimal) types.AmountPair {
	entered := types.NewAmount(v.Asset(side), value)

	switch mode := v.Mode().(type) {
	case types.SingleSided:
		other := types.ZeroAmount(v.Asset(side.Other()))
		if side == types.SideA {
			return types.SingleSidedPair(mode.Side, entered, other)
		}
		return types.SingleSidedPair(mode.Side, other, entered)
	default:
		linked := types.NewAmount(v.Asset(side.Other()), LinkedValue(side, value, ratio).Truncate(v.Asset(side.Other()).Decimals))
		if side == types.SideA {
			return types.DualSidedPair(entered, linked)
		}
		return types.DualSidedPair(linked, entered)
	}
}

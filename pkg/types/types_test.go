package types

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cake = Asset{Address: common.HexToAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"), Symbol: "CAKE", Decimals: 18}
	usdt = Asset{Address: common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"), Symbol: "USDT", Decimals: 6}
)

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount(usdt, "1.25")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1250000), a.Raw())

	a, err = ParseAmount(usdt, "")
	require.NoError(t, err)
	assert.True(t, a.IsZero())

	_, err = ParseAmount(usdt, "1.0000001")
	assert.Error(t, err)

	_, err = ParseAmount(usdt, "-1")
	assert.Error(t, err)

	_, err = ParseAmount(usdt, "abc")
	assert.Error(t, err)
}

func TestAmountFromRaw(t *testing.T) {
	raw, _ := new(big.Int).SetString("1500000000000000000", 10)
	a := AmountFromRaw(cake, raw)
	assert.True(t, a.Value.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, raw, a.Raw())
	assert.True(t, AmountFromRaw(cake, nil).IsZero())
}

func TestRelevantSides(t *testing.T) {
	ten := NewAmount(cake, decimal.NewFromInt(10))
	five := NewAmount(usdt, decimal.NewFromInt(5))

	assert.Equal(t, []Side{SideA, SideB}, DualSidedPair(ten, five).Relevant())
	assert.Equal(t, []Side{SideA}, DualSidedPair(ten, ZeroAmount(usdt)).Relevant())
	assert.Equal(t, []Side{SideB}, SingleSidedPair(SideB, ten, five).Relevant())
	assert.Empty(t, DualSidedPair(ZeroAmount(cake), ZeroAmount(usdt)).Relevant())

	pair := SingleSidedPair(SideA, ten, five)
	assert.True(t, pair.Deposited(SideB).IsZero())
	assert.Equal(t, ten, pair.Deposited(SideA))
}

func TestSameMode(t *testing.T) {
	assert.True(t, SameMode(DualSided{}, DualSided{}))
	assert.True(t, SameMode(SingleSided{Side: SideB}, SingleSided{Side: SideB}))
	assert.False(t, SameMode(SingleSided{Side: SideA}, SingleSided{Side: SideB}))
	assert.False(t, SameMode(DualSided{}, SingleSided{Side: SideA}))
	assert.False(t, SameMode(nil, DualSided{}))
}

func TestCheckBalances(t *testing.T) {
	pair := DualSidedPair(NewAmount(cake, decimal.NewFromInt(10)), NewAmount(usdt, decimal.NewFromInt(5)))

	err := CheckBalances(pair, map[Side]Amount{
		SideA: NewAmount(cake, decimal.NewFromInt(10)),
		SideB: NewAmount(usdt, decimal.NewFromInt(4)),
	})
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	assert.NoError(t, CheckBalances(pair, map[Side]Amount{
		SideA: NewAmount(cake, decimal.NewFromInt(11)),
	}))
}

func TestRevertError(t *testing.T) {
	var err error = &RevertError{TxHash: "0xabc"}
	assert.True(t, errors.Is(err, ErrOnChainRevert))
	assert.False(t, Retryable(err))
	assert.True(t, Retryable(ErrUserRejected))
}

package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"position-manager/pkg/client"
	"position-manager/pkg/logger"
	"position-manager/pkg/types"
	"position-manager/pkg/vault"
)

type fakeSource struct {
	quotes []client.TokenQuote
	err    error
	calls  int
}

func (f *fakeSource) Tokens(context.Context) ([]client.TokenQuote, error) {
	f.calls++
	return f.quotes, f.err
}

var (
	cake = types.Asset{Address: common.HexToAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"), Symbol: "CAKE", Decimals: 18}
	usdt = types.Asset{Address: common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"), Symbol: "USDT", Decimals: 18}
	wbnb = types.Asset{Address: common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), Symbol: "WBNB", Decimals: 18}
	doge = types.Asset{Address: common.HexToAddress("0x01"), Symbol: "DOGE", Decimals: 8}
)

func TestPrices(t *testing.T) {
	source := &fakeSource{quotes: []client.TokenQuote{
		{Symbol: "CAKE", Blockchain: "eth", ContractAddress: "0xdead", PriceUSD: decimal.RequireFromString("9")},
		{Symbol: "CAKE", Blockchain: "bsc", ContractAddress: "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82", PriceUSD: decimal.RequireFromString("2.1")},
		{Symbol: "USDT", Blockchain: "bsc", PriceUSD: decimal.RequireFromString("1")},
		{Symbol: "BNB", Blockchain: "bsc", PriceUSD: decimal.RequireFromString("600")},
	}}

	prices, err := NewPricer(source, "", logger.Discard()).Prices(context.Background(), cake, usdt, wbnb, doge, cake)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)

	assert.True(t, prices.Of(cake).Equal(decimal.RequireFromString("2.1")))
	assert.True(t, prices.Of(usdt).Equal(decimal.NewFromInt(1)))
	assert.True(t, prices.Of(wbnb).Equal(decimal.NewFromInt(600)))
	_, ok := prices[doge.Address]
	assert.False(t, ok)
	assert.True(t, prices.Of(doge).IsZero())
}

func TestVaultPrices(t *testing.T) {
	reg, err := vault.Load("")
	require.NoError(t, err)
	v, err := reg.Find(1)
	require.NoError(t, err)

	source := &fakeSource{quotes: []client.TokenQuote{
		{Symbol: "CAKE", Blockchain: "bsc", PriceUSD: decimal.RequireFromString("2")},
		{Symbol: "USDT", Blockchain: "bsc", PriceUSD: decimal.RequireFromString("1")},
	}}
	prices, err := NewPricer(source, "bsc", logger.Discard()).VaultPrices(context.Background(), v)
	require.NoError(t, err)
	assert.Len(t, prices, 2)
}

func TestPricesSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("unauthorized")}
	_, err := NewPricer(source, "", logger.Discard()).Prices(context.Background(), cake)
	assert.Error(t, err)
}

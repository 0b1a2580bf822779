package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"position-manager/pkg/client"
	"position-manager/pkg/types"
	"position-manager/pkg/vault"
)

// DefaultBlockchain is the 1Click name of the chain the vaults live on
const DefaultBlockchain = "bsc"

// wrapped tokens priced like their native or bridged counterpart
var aliases = map[string]string{
	"WBNB": "BNB",
	"BTCB": "BTC",
}

// TokenSource lists tokens with USD prices
type TokenSource interface {
	Tokens(ctx context.Context) ([]client.TokenQuote, error)
}

// Pricer resolves USD prices for vault tokens
type Pricer struct {
	source     TokenSource
	blockchain string
	log        logrus.FieldLogger
}

// NewPricer creates a new pricer instance
func NewPricer(source TokenSource, blockchain string, log logrus.FieldLogger) *Pricer {
	if blockchain == "" {
		blockchain = DefaultBlockchain
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pricer{source: source, blockchain: strings.ToLower(blockchain), log: log}
}

// Prices fetches the token list once and prices every asset found in it.
// Assets without a listing are left out and logged.
func (p *Pricer) Prices(ctx context.Context, assets ...types.Asset) (vault.Prices, error) {
	quotes, err := p.source.Tokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token prices: %w", err)
	}

	prices := make(vault.Prices, len(assets))
	for _, asset := range assets {
		if _, done := prices[asset.Address]; done {
			continue
		}
		price, ok := p.match(quotes, asset)
		if !ok {
			p.log.WithField("token", asset.Symbol).Debug("no USD price listed")
			continue
		}
		prices[asset.Address] = price
	}
	return prices, nil
}

// VaultPrices prices the pair and earning token of each vault
func (p *Pricer) VaultPrices(ctx context.Context, vaults ...vault.Vault) (vault.Prices, error) {
	assets := make([]types.Asset, 0, len(vaults)*3)
	for _, v := range vaults {
		assets = append(assets, v.CurrencyA, v.CurrencyB, v.EarningToken)
	}
	return p.Prices(ctx, assets...)
}

func (p *Pricer) match(quotes []client.TokenQuote, asset types.Asset) (decimal.Decimal, bool) {
	address := strings.ToLower(asset.Address.Hex())
	symbol := strings.ToUpper(asset.Symbol)

	// Exact contract on our chain first
	for _, q := range quotes {
		if strings.EqualFold(q.Blockchain, p.blockchain) && strings.ToLower(q.ContractAddress) == address {
			return q.PriceUSD, true
		}
	}

	// Then the symbol on our chain
	for _, q := range quotes {
		if strings.EqualFold(q.Blockchain, p.blockchain) && strings.ToUpper(q.Symbol) == symbol {
			return q.PriceUSD, true
		}
	}

	// Finally the symbol, or its alias, anywhere
	if alias, ok := aliases[symbol]; ok {
		symbol = alias
	}
	for _, q := range quotes {
		if strings.ToUpper(q.Symbol) == symbol && q.PriceUSD.IsPositive() {
			return q.PriceUSD, true
		}
	}

	return decimal.Zero, false
}

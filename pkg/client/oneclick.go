package client

import (
	"context"
	"fmt"
	"strings"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/shopspring/decimal"
)

// TokenQuote is a token listed by the 1Click API with its USD price
type TokenQuote struct {
	Symbol          string
	Blockchain      string
	ContractAddress string
	Decimals        int32
	PriceUSD        decimal.Decimal
}

// OneClickClient wraps the 1Click SDK
type OneClickClient struct {
	client *oneclick.APIClient
	token  string
}

// NewOneClickClient creates a new 1Click API client
func NewOneClickClient(jwtToken, baseURL string) *OneClickClient {
	config := oneclick.NewConfiguration()
	if baseURL != "" && len(config.Servers) > 0 {
		config.Servers[0].URL = strings.TrimSuffix(baseURL, "/")
	}

	return &OneClickClient{
		client: oneclick.NewAPIClient(config),
		token:  jwtToken,
	}
}

// GetSupportedTokens retrieves all supported tokens
func (c *OneClickClient) GetSupportedTokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	if c.token != "" {
		ctx = context.WithValue(ctx, oneclick.ContextAccessToken, c.token)
	}

	resp, httpResp, err := c.client.OneClickAPI.GetTokens(ctx).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return resp, nil
}

// Tokens lists the supported tokens with their USD prices
func (c *OneClickClient) Tokens(ctx context.Context) ([]TokenQuote, error) {
	tokens, err := c.GetSupportedTokens(ctx)
	if err != nil {
		return nil, err
	}

	quotes := make([]TokenQuote, 0, len(tokens))
	for _, token := range tokens {
		quotes = append(quotes, TokenQuote{
			Symbol:          token.GetSymbol(),
			Blockchain:      token.GetBlockchain(),
			ContractAddress: token.GetContractAddress(),
			Decimals:        int32(token.GetDecimals()),
			PriceUSD:        decimal.NewFromFloat(float64(token.GetPrice())),
		})
	}
	return quotes, nil
}

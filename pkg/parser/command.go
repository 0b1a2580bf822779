package parser

import (
	"fmt"
	"regexp"
	"strings"

	"position-manager/pkg/types"
)

var (
	legPattern       = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)\s+([A-Z0-9]+)$`)
	separatorPattern = regexp.MustCompile(`\s+(?:AND|\+)\s+|\s*,\s*`)
)

// ParseDepositCommand parses the amounts of a deposit command
// Examples:
//   - "10 CAKE"
//   - "deposit 10 CAKE and 25 USDT"
//   - "0.5 WBNB + 300 USDT"
func ParseDepositCommand(command string) (*types.DepositRequest, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "DEPOSIT ")

	parts := separatorPattern.Split(command, -1)
	if len(parts) > 2 {
		return nil, fmt.Errorf("a vault takes at most two tokens, got %d", len(parts))
	}

	req := &types.DepositRequest{}
	for _, part := range parts {
		matches := legPattern.FindStringSubmatch(strings.TrimSpace(part))
		if matches == nil {
			return nil, fmt.Errorf("invalid deposit command format. Expected: '<amount> <token> [and <amount> <token>]' (e.g., '10 CAKE and 25 USDT')")
		}
		req.Legs = append(req.Legs, types.DepositLeg{
			Amount: matches[1],
			Token:  NormalizeTokenSymbol(matches[2]),
		})
	}

	if err := ValidateDepositRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ValidateDepositRequest validates that a deposit request is well formed
func ValidateDepositRequest(req *types.DepositRequest) error {
	if len(req.Legs) == 0 {
		return fmt.Errorf("at least one amount is required")
	}
	for _, leg := range req.Legs {
		if leg.Amount == "" {
			return fmt.Errorf("amount is required")
		}
		if leg.Token == "" {
			return fmt.Errorf("token is required")
		}
	}
	if len(req.Legs) == 2 && req.Legs[0].Token == req.Legs[1].Token {
		return fmt.Errorf("token %s given twice", req.Legs[0].Token)
	}
	return nil
}

// NormalizeTokenSymbol normalizes token symbols to the registry's names
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Handle common aliases
	aliases := map[string]string{
		"BNB":  "WBNB",
		"BTC":  "BTCB",
		"WETH": "ETH",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}

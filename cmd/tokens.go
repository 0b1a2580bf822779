package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"position-manager/pkg/types"
)

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens"},
	Short:   "List the vault tokens with their USD prices",
	Long: `List the tokens used by the configured vaults with their contract
addresses and USD prices from the 1Click token list.

Examples:
  position-manager tokens
  position-manager tokens --json`,
	Args: cobra.NoArgs,
	Run:  runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) {
	e := setup(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	assets := make([]types.Asset, 0, len(e.registry.Tokens))
	for _, asset := range e.registry.Tokens {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Symbol < assets[j].Symbol })

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !e.jsonOutput {
		s.Suffix = " Fetching prices..."
		s.Start()
	}

	prices, err := e.pricer().Prices(ctx, assets...)

	if !e.jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if e.jsonOutput {
		output := make([]map[string]interface{}, 0, len(assets))
		for _, asset := range assets {
			output = append(output, map[string]interface{}{
				"symbol":    asset.Symbol,
				"address":   asset.Address.Hex(),
				"decimals":  asset.Decimals,
				"price_usd": prices.Of(asset),
			})
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	printHeader(e.cfg.Display(), "VAULT TOKENS", 80)

	for _, asset := range assets {
		fmt.Printf("  %-16s  %2d decimals  %s  %s\n",
			color.YellowString("%-6s", asset.Symbol),
			asset.Decimals,
			color.HiBlackString(asset.Address.Hex()),
			usd(prices.Of(asset)))
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("\nTotal: %d tokens\n\n", len(assets))
}

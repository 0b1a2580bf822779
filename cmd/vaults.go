package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"position-manager/pkg/chain"
	"position-manager/pkg/types"
	"position-manager/pkg/vault"
)

var vaultsCmd = &cobra.Command{
	Use:   "vaults",
	Short: "List position manager vaults with ratio, TVL and APR",
	Long: `List the position manager vaults of the configured chain.

On-chain state (token ratio, pool amounts) is read over RPC and valued with
USD prices from the 1Click token list.

Examples:
  position-manager vaults
  position-manager vaults --json`,
	Args: cobra.NoArgs,
	Run:  runVaults,
}

func init() {
	rootCmd.AddCommand(vaultsCmd)
}

// vaultSummary is one row of the vaults listing
type vaultSummary struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Pair       string          `json:"pair"`
	Manager    string          `json:"manager"`
	Strategy   string          `json:"strategy"`
	FeeTier    int             `json:"fee_tier"`
	Mode       string          `json:"mode"`
	Ratio      decimal.Decimal `json:"ratio"`
	TVLUSD     decimal.Decimal `json:"tvl_usd"`
	RewardAPR  decimal.Decimal `json:"reward_apr"`
	RewardEnds time.Time       `json:"reward_ends"`
	Error      string          `json:"error,omitempty"`
}

func runVaults(cmd *cobra.Command, args []string) {
	e := setup(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !e.jsonOutput {
		s.Suffix = " Reading vaults..."
		s.Start()
	}

	client := e.dial(false, nil)
	defer client.Close()

	vaults := e.registry.Vaults()
	summaries := summarizeVaults(ctx, chain.NewVaultReader(client), vaults, e.prices(ctx, vaults...), time.Now())

	if !e.jsonOutput {
		s.Stop()
	}

	if e.jsonOutput {
		jsonData, _ := json.MarshalIndent(summaries, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	displayVaults(e.cfg.Display(), summaries)

	for _, summary := range summaries {
		if summary.Error != "" {
			os.Exit(1)
		}
	}
}

// summarizeVaults reads every vault concurrently; a failing vault keeps its error in the row
func summarizeVaults(ctx context.Context, reader vault.Reader, vaults []vault.Vault, prices vault.Prices, now time.Time) []vaultSummary {
	summaries := make([]vaultSummary, len(vaults))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, v := range vaults {
		i, v := i, v
		g.Go(func() error {
			summaries[i] = summarizeVault(gctx, reader, v, prices, now)
			return nil
		})
	}
	_ = g.Wait()

	return summaries
}

func summarizeVault(ctx context.Context, reader vault.Reader, v vault.Vault, prices vault.Prices, now time.Time) vaultSummary {
	summary := vaultSummary{
		ID:         v.ID,
		Name:       v.Name,
		Pair:       v.LPSymbol(),
		Manager:    v.Manager.Name,
		Strategy:   v.Strategy,
		FeeTier:    v.FeeTier,
		Mode:       v.Mode().String(),
		Ratio:      decimal.NewFromInt(1),
		RewardEnds: time.Unix(v.EndTimestamp, 0).UTC(),
	}

	ratio, err := vault.ReadRatio(ctx, reader, v)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	summary.Ratio = ratio

	pool0, pool1, err := vault.ReadPool(ctx, reader, v)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}

	// no fee feed, so only the farm reward part of the APR is known
	apr := vault.EstimateAPR(v, vault.APRInput{Pool0: pool0, Pool1: pool1, Prices: prices, Now: now})
	summary.TVLUSD = vault.TotalStakedUSD(pool0, pool1, prices)
	summary.RewardAPR = apr.Reward
	return summary
}

func displayVaults(display types.Display, summaries []vaultSummary) {
	if len(summaries) == 0 {
		fmt.Println("\nNo vaults configured.")
		return
	}

	printHeader(display, "POSITION MANAGER VAULTS", 90)
	fmt.Println(vaultsHeader())
	fmt.Println(strings.Repeat("-", 90))

	for _, s := range summaries {
		fmt.Println(formatVaultRow(s))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d vaults\n\n", len(summaries))
}

func vaultsHeader() string {
	return fmt.Sprintf("  %-4s %-12s %-14s %-18s %8s %14s %12s", "ID", "PAIR", "MANAGER", "MODE", "RATIO", "TVL (USD)", "REWARD APR")
}

// formatVaultRow pads every cell before coloring it so escape codes don't count toward the width
func formatVaultRow(s vaultSummary) string {
	pair := color.YellowString("%-12s", s.Pair)
	if s.Error != "" {
		return fmt.Sprintf("  %-4d %s %-14s %s", s.ID, pair, s.Manager, color.RedString("error: %s", s.Error))
	}
	return fmt.Sprintf("  %-4d %s %-14s %-18s %8s %14s %s",
		s.ID,
		pair,
		s.Manager,
		s.Mode,
		s.Ratio.StringFixed(2),
		usd(s.TVLUSD),
		color.CyanString("%12s", s.RewardAPR.StringFixed(2)+"%"))
}

func usd(value decimal.Decimal) string {
	if value.IsZero() {
		return "-"
	}
	return "$" + value.StringFixed(2)
}

func formatAmount(amount types.Amount) string {
	return fmt.Sprintf("%s %s", amount.Value.Round(6).String(), amount.Asset.Symbol)
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"position-manager/pkg/chain"
	"position-manager/pkg/types"
	"position-manager/pkg/vault"
)

var positionAddress string

var positionCmd = &cobra.Command{
	Use:   "position <vault-id>",
	Short: "Show your staked amounts and pending rewards in a vault",
	Long: `Show the token amounts your vault shares represent, your share of the
vault and the earning token you can claim.

The account defaults to the address of the configured private key.

Examples:
  position-manager position 1
  position-manager position 3 --address 0x1234...`,
	Args: cobra.ExactArgs(1),
	Run:  runPosition,
}

func init() {
	rootCmd.AddCommand(positionCmd)

	positionCmd.Flags().StringVar(&positionAddress, "address", "", "Account to inspect (defaults to the signer address)")
}

func runPosition(cmd *cobra.Command, args []string) {
	e := setup(cmd)
	v := e.findVault(args[0])
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var client *chain.Client
	var user common.Address
	if positionAddress != "" {
		if !common.IsHexAddress(positionAddress) {
			printError(fmt.Errorf("invalid address %q", positionAddress))
			os.Exit(1)
		}
		user = common.HexToAddress(positionAddress)
		client = e.dial(false, nil)
	} else {
		client = e.dial(true, nil)
		user = client.From()
	}
	defer client.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !e.jsonOutput {
		s.Suffix = " Reading position..."
		s.Start()
	}

	position, err := vault.ReadPosition(ctx, chain.NewVaultReader(client), v, user)
	prices := e.prices(ctx, v)

	if !e.jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if e.jsonOutput {
		output := map[string]interface{}{
			"vault_id":         v.ID,
			"account":          user.Hex(),
			"staked":           position.Staked(),
			"token0":           position.User0,
			"token1":           position.User1,
			"pending_reward":   position.PendingReward,
			"vault_percentage": position.VaultPercentage.StringFixed(4),
			"assets_usd":       position.AssetsUSD(prices),
			"earning_usd":      position.EarningUSD(prices),
			"total_staked_usd": position.TotalStakedUSD(prices),
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayPosition(e.cfg.Display(), v, user, position, prices)
}

func displayPosition(display types.Display, v vault.Vault, user common.Address, p *vault.Position, prices vault.Prices) {
	printHeader(display, fmt.Sprintf("POSITION: %s (#%d)", v.LPSymbol(), v.ID), 60)

	fmt.Printf("\n  Account:        %s\n", color.HiBlackString(user.Hex()))
	fmt.Printf("  Manager:        %s\n", v.Manager.Name)

	if !p.Staked() {
		color.Yellow("\n  No stake in this vault yet.\n")
	} else {
		fmt.Printf("\n  Staked:         %s\n", color.YellowString(formatAmount(p.User0)))
		fmt.Printf("                  %s\n", color.YellowString(formatAmount(p.User1)))
		fmt.Printf("  Value:          %s\n", usd(p.AssetsUSD(prices)))
		fmt.Printf("  Vault share:    %s%%\n", p.VaultPercentage.StringFixed(4))
		fmt.Printf("  Earned:         %s (%s)\n", color.CyanString(formatAmount(p.PendingReward)), usd(p.EarningUSD(prices)))
	}

	fmt.Printf("\n  Vault holds:    %s + %s\n", formatAmount(p.Pool0), formatAmount(p.Pool1))
	fmt.Printf("  Total staked:   %s\n", usd(p.TotalStakedUSD(prices)))
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"position-manager/config"
	"position-manager/pkg/chain"
	"position-manager/pkg/client"
	"position-manager/pkg/logger"
	"position-manager/pkg/pricing"
	"position-manager/pkg/types"
	"position-manager/pkg/vault"
)

var rootCmd = &cobra.Command{
	Use:   "position-manager",
	Short: "A CLI for depositing liquidity into PancakeSwap position manager vaults",
	Long: `position-manager lists position manager vaults, shows your positions and
deposits liquidity into a vault. A deposit approves each token the vault pulls
and then sends a single mintThenDeposit transaction.

Examples:
  position-manager vaults
  position-manager position 1
  position-manager deposit 1 10 CAKE
  position-manager deposit 7 0.5 WBNB and 300 USDT
  position-manager history`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

// env is what every command needs: configuration, logger and vault registry
type env struct {
	cfg        *config.Config
	log        *logrus.Logger
	registry   *vault.Registry
	verbose    bool
	jsonOutput bool
}

func setup(cmd *cobra.Command) *env {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logger.New(level, os.Stderr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	registry, err := vault.Load(cfg.VaultsFile)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if registry.ChainID != 0 && registry.ChainID != cfg.ChainID {
		printError(fmt.Errorf("vaults file is for chain %d but chain_id is %d", registry.ChainID, cfg.ChainID))
		os.Exit(1)
	}

	return &env{cfg: cfg, log: log, registry: registry, verbose: verbose, jsonOutput: jsonOutput}
}

// dial opens a chain client; without a signer the client is read-only
func (e *env) dial(withSigner bool, confirm chain.ConfirmFunc) *chain.Client {
	key := ""
	if withSigner {
		if err := e.cfg.RequireSigner(); err != nil {
			printError(err)
			os.Exit(1)
		}
		key = e.cfg.PrivateKey
	}

	c, err := chain.Dial(e.cfg.RPCURL, key, e.cfg.ChainParams(), confirm, e.log)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return c
}

func (e *env) pricer() *pricing.Pricer {
	apiClient := client.NewOneClickClient(e.cfg.JWTToken, e.cfg.BaseURL)
	return pricing.NewPricer(apiClient, pricing.DefaultBlockchain, e.log)
}

// prices are best effort: a failing price feed leaves USD columns empty
func (e *env) prices(ctx context.Context, vaults ...vault.Vault) vault.Prices {
	prices, err := e.pricer().VaultPrices(ctx, vaults...)
	if err != nil {
		e.log.WithError(err).Warn("USD prices unavailable")
		return vault.Prices{}
	}
	return prices
}

func (e *env) findVault(arg string) vault.Vault {
	id, err := strconv.Atoi(arg)
	if err != nil {
		printError(fmt.Errorf("invalid vault id %q", arg))
		os.Exit(1)
	}
	v, err := e.registry.Find(id)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return v
}

func askConfirmation(question string) bool {
	fmt.Printf("\n%s (y/N): ", question)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// printHeader prints a framed, centered title in the configured theme
func printHeader(display types.Display, title string, width int) {
	rule := strings.Repeat("=", width)
	fmt.Println("\n" + rule)
	headerColor(display).Println(centered(title, width))
	fmt.Println(rule)
}

func headerColor(display types.Display) *color.Color {
	if display.Theme == "light" {
		return color.New(color.FgBlue, color.Bold)
	}
	return color.New(color.FgGreen)
}

func centered(title string, width int) string {
	pad := (width - len(title)) / 2
	if pad <= 0 {
		return title
	}
	return strings.Repeat(" ", pad) + title
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}

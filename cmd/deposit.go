package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"position-manager/pkg/chain"
	"position-manager/pkg/deposit"
	"position-manager/pkg/history"
	"position-manager/pkg/metrics"
	"position-manager/pkg/parser"
	"position-manager/pkg/types"
	"position-manager/pkg/vault"
)

var (
	depositYes        bool
	depositApproveMax bool
)

var depositCmd = &cobra.Command{
	Use:   "deposit <vault-id> <amount> <token> [and <amount> <token>]",
	Short: "Approve tokens and deposit liquidity into a vault",
	Long: `Deposit liquidity into a position manager vault.

Each token the vault pulls is approved first (one transaction per token that
lacks allowance), then a single mintThenDeposit transaction deposits both
amounts. Every transaction is shown for confirmation before it is signed.

For dual-sided vaults a single amount is matched on the other side using the
vault's current token ratio. Single-sided vaults only take their deposit token.

Examples:
  position-manager deposit 1 10 CAKE
  position-manager deposit 7 0.5 WBNB and 300 USDT
  position-manager deposit 7 300 USDT --approve-max --yes`,
	Args: cobra.MinimumNArgs(3),
	Run:  runDeposit,
}

func init() {
	rootCmd.AddCommand(depositCmd)

	depositCmd.Flags().BoolVarP(&depositYes, "yes", "y", false, "Skip confirmation prompts")
	depositCmd.Flags().BoolVar(&depositApproveMax, "approve-max", false, "Approve the maximum amount instead of the deposit amount")
}

func runDeposit(cmd *cobra.Command, args []string) {
	e := setup(cmd)
	v := e.findVault(args[0])

	req, err := parser.ParseDepositCommand(strings.Join(args[1:], " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	req.VaultID = v.ID

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	var spinMu sync.Mutex
	startSpinner := func(suffix string) {
		if e.jsonOutput {
			return
		}
		spinMu.Lock()
		defer spinMu.Unlock()
		s.Suffix = " " + suffix
		s.Start()
	}
	stopSpinner := func() {
		spinMu.Lock()
		defer spinMu.Unlock()
		s.Stop()
	}

	// Every signature goes through the prompt unless --yes
	confirm := func(_ context.Context, tx chain.TxSummary) bool {
		if depositYes || e.jsonOutput {
			return true
		}
		stopSpinner()
		ok := askConfirmation(fmt.Sprintf("Sign %s on %s?", tx.Method, tx.To.Hex()))
		if ok {
			startSpinner("Waiting for confirmation...")
		}
		return ok
	}

	client := e.dial(true, confirm)
	defer client.Close()

	indicators := e.startMetrics(ctx)

	store, err := history.NewStorage(e.cfg.HistoryFile)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	startSpinner("Reading vault...")
	reader := chain.NewVaultReader(client)
	ratio, err := vault.ReadRatio(ctx, reader, v)
	if err != nil {
		stopSpinner()
		printError(err)
		os.Exit(1)
	}

	pair, err := vault.PairFromRequest(v, req, ratio)
	if err != nil {
		stopSpinner()
		printError(err)
		os.Exit(1)
	}

	erc20 := chain.NewERC20(client)
	manager := deposit.NewManager(erc20, chain.NewWrapperSubmitter(client), erc20, store, indicators, e.log, deposit.Options{
		Owner:      client.From(),
		ApproveMax: depositApproveMax || e.cfg.ApproveMax,
		Display:    e.cfg.Display(),
	})

	session, err := manager.Prepare(ctx, v, pair)
	stopSpinner()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer session.Close()

	if e.verbose && !e.jsonOutput {
		unsubscribe := session.Flow.Subscribe(func(state types.FlowState) {
			fmt.Printf("\nDebug: %s\n", describeState(state))
		})
		defer unsubscribe()
	}

	if !e.jsonOutput {
		displayDepositPlan(v, session, ratio)
	}

	if !depositYes && !e.jsonOutput {
		if !askConfirmation("Proceed with deposit?") {
			session.Cancel()
			fmt.Println("\nDeposit cancelled.")
			os.Exit(0)
		}
	}

	startSpinner("Approving tokens...")
	receipt, err := session.Run(ctx, func(side types.Side, approval *types.Receipt) {
		stopSpinner()
		if !e.jsonOutput {
			color.Green("✓ %s approved (tx %s)", v.Asset(side).Symbol, approval.TxHash)
		}
		startSpinner("Depositing...")
	})
	stopSpinner()

	if e.jsonOutput {
		output := map[string]interface{}{
			"deposit_id": session.Record.ID,
			"vault_id":   v.ID,
			"status":     session.Record.Status,
			"approvals":  session.Record.Approvals,
		}
		if receipt != nil {
			output["tx_hash"] = receipt.TxHash
			output["block_number"] = receipt.BlockNumber
		}
		if err != nil {
			output["error"] = err.Error()
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		if err != nil {
			os.Exit(1)
		}
		return
	}

	if err != nil {
		printDepositError(err)
		os.Exit(1)
	}

	printSuccess(color.GreenString("✓ Deposit confirmed in block %d", receipt.BlockNumber))
	fmt.Printf("  Transaction: %s\n", color.CyanString(receipt.TxHash))
	fmt.Printf("  Deposit ID:  %s\n\n", session.Record.ID)
	fmt.Println("You can check your position using:")
	color.Cyan("  position-manager position %d\n", v.ID)
}

// startMetrics serves flow metrics when metrics_addr is configured
func (e *env) startMetrics(ctx context.Context) metrics.Indicators {
	if e.cfg.MetricsAddr == "" {
		return metrics.NoopIndicators{}
	}

	reg := prometheus.NewRegistry()
	indicators := metrics.NewPromIndicators(reg, "deposit")
	errs := metrics.NewServer(e.cfg.MetricsAddr, e.log).Start(ctx, reg)
	go func() {
		for err := range errs {
			e.log.WithError(err).Warn("metrics server error")
		}
	}()
	return indicators
}

func displayDepositPlan(v vault.Vault, session *deposit.Session, ratio fmt.Stringer) {
	printHeader(session.Flow.Display(), "DEPOSIT", 60)

	fmt.Printf("\n  Vault:        #%d %s (%s)\n", v.ID, v.LPSymbol(), v.Manager.Name)
	fmt.Printf("  Contract:     %s\n", color.HiBlackString(v.Address.Hex()))
	fmt.Printf("  Mode:         %s\n", v.Mode())
	fmt.Printf("  Ratio:        1 %s = %s %s\n", v.CurrencyA.Symbol, ratio, v.CurrencyB.Symbol)

	fmt.Println()
	sides := make([]types.Side, 0, len(session.Statuses))
	for side := range session.Statuses {
		sides = append(sides, side)
	}
	sort.Slice(sides, func(i, j int) bool { return sides[i] < sides[j] })
	for _, side := range sides {
		status := session.Statuses[side]
		label := color.YellowString(status.String())
		if status == types.Approved {
			label = color.GreenString(status.String())
		}
		fmt.Printf("  Deposit:      %-24s %s\n", formatAmount(session.Pair.Deposited(side)), label)
	}

	if pending := session.Pending(); len(pending) > 0 {
		fmt.Printf("\n  %d approval transaction(s), then 1 deposit transaction\n", len(pending))
	} else {
		fmt.Printf("\n  All tokens approved, 1 deposit transaction\n")
	}
	fmt.Println(strings.Repeat("=", 60))
}

func describeState(state types.FlowState) string {
	parts := make([]string, 0, len(state.Statuses)+2)
	for _, side := range types.Sides {
		if status, ok := state.Statuses[side]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", side, status))
		}
	}
	if state.Committing {
		parts = append(parts, "committing")
	}
	if state.Committed {
		parts = append(parts, "committed "+state.TxHash)
	}
	if state.LastErr != nil {
		parts = append(parts, "last error: "+state.LastErr.Error())
	}
	return strings.Join(parts, ", ")
}

func printDepositError(err error) {
	var revert *types.RevertError
	switch {
	case errors.Is(err, types.ErrUserRejected):
		color.Yellow("\nDeposit cancelled: %v\n", err)
	case errors.As(err, &revert):
		color.Red("\nTransaction %s reverted on-chain.\n", revert.TxHash)
	default:
		printError(err)
	}
	if types.Retryable(err) {
		fmt.Println("You can run the same command again to retry.")
	}
}

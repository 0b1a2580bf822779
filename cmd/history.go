package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"position-manager/pkg/history"
)

var (
	historyVault int
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past deposit attempts",
	Long: `List deposit attempts recorded on this machine, newest first.

Examples:
  position-manager history
  position-manager history --vault 1 --limit 5`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

var statusCmd = &cobra.Command{
	Use:   "status <deposit-id>",
	Short: "Show the details of a deposit attempt",
	Args:  cobra.ExactArgs(1),
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)

	historyCmd.Flags().IntVar(&historyVault, "vault", 0, "Only show deposits into this vault")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of deposits to show (0 for all)")
}

func openHistory(e *env) *history.Storage {
	store, err := history.NewStorage(e.cfg.HistoryFile)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return store
}

func runHistory(cmd *cobra.Command, args []string) {
	e := setup(cmd)
	records := openHistory(e).List(historyVault)
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if e.jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(records) == 0 {
		fmt.Println("\nNo deposits recorded yet.")
		return
	}

	printHeader(e.cfg.Display(), "DEPOSIT HISTORY", 90)

	for _, r := range records {
		fmt.Printf("  %s  #%-3d %-32s %s\n",
			color.HiBlackString(r.Created.Local().Format("2006-01-02 15:04")),
			r.VaultID,
			describeLegs(r.Legs),
			statusLabel(r.Status))
		if r.TxHash != "" {
			fmt.Printf("        tx %s\n", color.CyanString(r.TxHash))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d deposits\n\n", len(records))
}

func runStatus(cmd *cobra.Command, args []string) {
	e := setup(cmd)
	record, err := openHistory(e).Get(args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if e.jsonOutput {
		jsonData, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	printHeader(e.cfg.Display(), "DEPOSIT STATUS", 60)

	fmt.Printf("\n  Deposit ID:   %s\n", record.ID)
	fmt.Printf("  Vault:        #%d %s (%s)\n", record.VaultID, record.Vault, record.Mode)
	fmt.Printf("  Amounts:      %s\n", describeLegs(record.Legs))
	fmt.Printf("  Status:       %s\n", statusLabel(record.Status))
	for _, hash := range record.Approvals {
		fmt.Printf("  Approval tx:  %s\n", color.HiBlackString(hash))
	}
	if record.TxHash != "" {
		fmt.Printf("  Deposit tx:   %s\n", color.CyanString(record.TxHash))
	}
	if record.Error != "" {
		fmt.Printf("  Error:        %s\n", color.RedString(record.Error))
	}
	fmt.Printf("  Created:      %s\n", record.Created.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Updated:      %s\n", record.Updated.Local().Format("2006-01-02 15:04:05"))
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func describeLegs(legs []history.Leg) string {
	parts := make([]string, 0, len(legs))
	for _, leg := range legs {
		parts = append(parts, leg.Amount+" "+leg.Symbol)
	}
	return strings.Join(parts, " + ")
}

func statusLabel(status history.Status) string {
	switch status {
	case history.StatusCompleted:
		return color.GreenString(string(status))
	case history.StatusFailed:
		return color.RedString(string(status))
	default:
		return color.YellowString(string(status))
	}
}

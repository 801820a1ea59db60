package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store contents and recent runs",
	Long: `Prints the store's row counts and the most recent pipeline
runs.

Example:
  dcwatch status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dcwatch Status ===")

	ctx := cmd.Context()

	// 1. Initialize store chain
	_, _, db, st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. Store contents
	stats, err := st.Stats(ctx)
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}

	printSection("📦", "Store")
	printKeyValue("Trades", formatNumber(stats.Trades), 14)
	printKeyValue("Politicians", formatNumber(stats.Politicians), 14)
	printKeyValue("Tickers", formatNumber(stats.Tickers), 14)
	printKeyValue("Close prices", formatNumber(stats.ClosePrices), 14)
	printKeyValue("Runs", formatNumber(stats.Runs), 14)

	// 3. Recent runs
	runs, err := st.Runs.GetRecent(ctx, 5)
	if err != nil {
		return fmt.Errorf("load recent runs: %w", err)
	}

	printSection("🕒", "Recent Runs")
	if len(runs) == 0 {
		fmt.Println("   (none)")
		return nil
	}
	for _, run := range runs {
		status := "✅"
		if run.Error != "" {
			status = "❌"
		}
		fmt.Printf("   %s %-22s %s  %d/5 stages  %s trades  %.1fs\n",
			status, run.RunID, run.StartedAt.Format("2006-01-02 15:04"),
			len(run.CompletedStages), formatNumber(int64(run.TradeCount)),
			run.Duration.Seconds())
		if run.Error != "" {
			fmt.Printf("      error: %s\n", run.Error)
		}
	}

	return nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/internal/pipeline"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the analytics pipeline over stored trades",
	Long: `Runs the analytics engine over the stored trade set and
persists the derived datasets: leaderboard, coordinated-trading
signals, top picks, committee correlations, and the copycat backtest.

By default the fetch and enrich stages are skipped and the engine
reads what the store already holds. With --refresh the full pipeline
runs end to end.

Example:
  dcwatch analyze
  dcwatch analyze --as-of 2026-06-30
  dcwatch analyze --refresh
  dcwatch analyze --dry-run`,
	RunE: runAnalyze,
}

var (
	// Analyze flags
	analyzeAsOf     string
	analyzeWindow   int
	analyzeLookback int
	analyzeRefresh  bool
	analyzeDryRun   bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringVar(&analyzeAsOf, "as-of", "", "analysis anchor date (YYYY-MM-DD, default today)")
	analyzeCmd.Flags().IntVar(&analyzeWindow, "window", 0, "signal clustering window in days (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeLookback, "lookback", 0, "top-picks lookback in days (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeRefresh, "refresh", false, "run fetch and enrich before analyzing")
	analyzeCmd.Flags().BoolVar(&analyzeDryRun, "dry-run", false, "compute everything, write nothing")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dcwatch Analytics Pipeline ===")

	ctx := cmd.Context()

	// Parse the anchor date
	asOf := contracts.Today()
	if analyzeAsOf != "" {
		parsed, err := contracts.ParseDate(analyzeAsOf)
		if err != nil {
			return fmt.Errorf("invalid as-of date: %w", err)
		}
		asOf = parsed
	}

	// Build the full stage chain
	deps, err := initPipeline(ctx, nil)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Flag overrides for the engine knobs
	if analyzeWindow > 0 {
		deps.cfg.Analytics.SignalWindowDays = analyzeWindow
	}
	if analyzeLookback > 0 {
		deps.cfg.Analytics.PickLookbackDays = analyzeLookback
	}

	fmt.Printf("\n📅 As of: %s\n", asOf)
	if analyzeRefresh {
		fmt.Println("🔄 Full refresh: fetch and enrich included")
	}
	if analyzeDryRun {
		fmt.Println("🧪 Dry run: nothing will be written")
	}
	fmt.Println("\n🚀 Starting pipeline...")

	result, err := deps.orch.Run(ctx, pipeline.RunConfig{
		SkipFetch:  !analyzeRefresh,
		SkipEnrich: !analyzeRefresh,
		DryRun:     analyzeDryRun,
		AsOf:       asOf,
	})
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	printRunResult(result)
	return nil
}

func printRunResult(result *pipeline.RunResult) {
	printSection("✅", "Pipeline Completed")
	printKeyValue("Run ID", result.RunID, 18)
	printKeyValue("Stages", fmt.Sprintf("%d completed", len(result.CompletedStages)), 18)
	printKeyValue("Duration", fmt.Sprintf("%.2fs", result.Duration.Seconds()), 18)
	fmt.Println()
	printKeyValue("Trades", formatNumber(int64(result.TradeCount)), 18)
	printKeyValue("With returns", formatNumber(int64(result.EnrichedCount)), 18)
	printKeyValue("Signals", formatNumber(int64(result.SignalCount)), 18)
	printKeyValue("Top picks", formatNumber(int64(result.PickCount)), 18)
	printKeyValue("Flagged trades", formatNumber(int64(result.FlaggedCount)), 18)
	printKeyValue("Backtested", formatNumber(int64(result.BacktestCount)), 18)
	printKeyValue("Malformed", formatNumber(int64(result.MalformedCount)), 18)
}

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/internal/enrich"
	"github.com/dcwatch/dcwatch/internal/pipeline"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Simulate the copycat strategy against SPY",
	Long: `Simulates buying each disclosed purchase on its disclosure
date and holding for 30 days, 90 days, and until the as-of date, then
compares the copycat returns against SPY over the same windows.

Reads the stored trade set; run fetch and enrich first.

Example:
  dcwatch backtest
  dcwatch backtest --as-of 2026-06-30
  dcwatch backtest --json > backtest.json`,
	RunE: runBacktestCmd,
}

var (
	// Backtest flags
	backtestAsOf string
	backtestJSON bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	// Flags
	backtestCmd.Flags().StringVar(&backtestAsOf, "as-of", "", "simulation anchor date (YYYY-MM-DD, default today)")
	backtestCmd.Flags().BoolVar(&backtestJSON, "json", false, "write the full report as JSON to stdout")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	if !backtestJSON {
		fmt.Println("=== dcwatch Copycat Backtest ===")
	}

	ctx := cmd.Context()

	// Parse the anchor date
	asOf := contracts.Today()
	if backtestAsOf != "" {
		parsed, err := contracts.ParseDate(backtestAsOf)
		if err != nil {
			return fmt.Errorf("invalid as-of date: %w", err)
		}
		asOf = parsed
	}

	// 1. Build the stage chain
	deps, err := initPipeline(ctx, nil)
	if err != nil {
		return err
	}
	defer deps.Close()

	// 2. Load the stored trade set
	trades, err := deps.store.Trades.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}
	if len(trades) == 0 {
		return fmt.Errorf("no trades in the store; run `dcwatch fetch` first")
	}

	// 3. Resolve the price grid, stored closes first
	benchmark := deps.cfg.Prices.BenchmarkTicker
	book, err := deps.enricher.BuildPriceBook(ctx, trades, asOf, benchmark, enrich.Config{Workers: deps.cfg.Prices.Workers})
	if err != nil {
		return fmt.Errorf("build price book: %w", err)
	}

	// 4. Run the engine
	committeeTable, err := loadCommittees(deps.cfg)
	if err != nil {
		return err
	}
	snapshot := contracts.Snapshot{
		Trades:     trades,
		Prices:     book,
		Committees: committeeTable,
	}
	result, _, err := deps.engine.Run(ctx, snapshot, pipeline.EngineConfig(deps.cfg, asOf))
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}
	report := result.Backtest

	// 5. Print the report
	if backtestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printBacktestReport(report, benchmark)
	return nil
}

func printBacktestReport(report *contracts.BacktestReport, benchmark string) {
	printSection("✅", "Backtest Completed")
	printKeyValue("Trades analyzed", formatNumber(int64(report.TotalTradesAnalyzed)), 16)
	printKeyValue("Generated at", report.GeneratedAt, 16)

	// Strategy summary per horizon
	printSection("📊", "Copycat Strategy")
	for _, h := range contracts.AllHorizons {
		stats := report.StrategySummary[h]
		fmt.Printf("   %-8s  n=%-5d  win %5.1f%%  avg %s  median %s\n",
			h, stats.Count, stats.WinRate, formatPct(stats.AvgReturn), formatPct(stats.MedianReturn))
	}

	// Benchmark comparison
	printSection("⚖️", fmt.Sprintf("vs %s", benchmark))
	for _, h := range contracts.AllHorizons {
		cmp := report.VsBenchmark[h]
		fmt.Printf("   %-8s  copycat %s  %s %s  alpha %s  beat %5.1f%%\n",
			h, formatPct(cmp.CopycatAvg), benchmark, formatPct(cmp.SpyAvg),
			formatPct(cmp.Alpha), cmp.BeatSpyPct)
	}

	// Disclosure timing
	timing := report.PoliticianVsCopycat
	printSection("⏱️", "Disclosure Delay Cost")
	printKeyValue("Politician avg", formatPct(timing.AvgPoliticianReturn), 16)
	printKeyValue("Copycat avg", formatPct(timing.AvgCopycatReturn), 16)
	printKeyValue("Avg timing cost", formatPct(timing.AvgTimingCost), 16)
	printKeyValue("Delay hurt", fmt.Sprintf("%.1f%% of trades", timing.PctWhereDelayHurt), 16)

	// Party breakdown
	printSection("🏛️", "By Party")
	for party, stats := range report.ByParty {
		fmt.Printf("   %-12s  n=%-5d  win %5.1f%%  avg %s\n",
			party, stats.Count, stats.WinRate, formatPct(stats.AvgReturn))
	}

	// Best and worst trades
	printSection("🏆", "Best Trades")
	printHighlights(report.TopTrades.Best, 5)
	printSection("💀", "Worst Trades")
	printHighlights(report.TopTrades.Worst, 5)
	fmt.Println()
}

func printHighlights(rows []contracts.BacktestHighlight, limit int) {
	if len(rows) == 0 {
		fmt.Println("   (none)")
		return
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	for _, row := range rows {
		fmt.Printf("   %-6s %-24s %s  %.2f → %s  return %s  alpha %s\n",
			row.Ticker, row.Politician, row.TxDate,
			row.PriceAtTrade, formatPrice(row.CurrentPrice),
			formatReturn(row.CopycatReturnCurrent), formatReturn(row.AlphaCurrent))
	}
}

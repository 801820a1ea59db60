package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcwatch/dcwatch/internal/enrich"
	"github.com/dcwatch/dcwatch/internal/external/yahoo"
	"github.com/dcwatch/dcwatch/pkg/httputil"
	"github.com/dcwatch/dcwatch/pkg/redis"
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich stored trades with market prices",
	Long: `Resolves trade-date and current prices for every stored trade
and computes the estimated return per trade.

Prices come from the Yahoo Finance chart API through the Redis cache
and the historical close store, so repeat runs only hit the network
for prices not seen before.

Example:
  dcwatch enrich
  dcwatch enrich --workers 16
  dcwatch enrich --no-cache`,
	RunE: runEnrich,
}

var (
	// Enrich flags
	enrichWorkers int
	enrichNoCache bool
)

func init() {
	rootCmd.AddCommand(enrichCmd)

	// Flags
	enrichCmd.Flags().IntVar(&enrichWorkers, "workers", 0, "concurrent ticker lookups (default from config)")
	enrichCmd.Flags().BoolVar(&enrichNoCache, "no-cache", false, "bypass the Redis price cache")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dcwatch Price Enricher ===")

	ctx := cmd.Context()

	// 1. Initialize store chain
	cfg, log, db, st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. Connect the price cache
	if enrichNoCache {
		cfg.Redis.Enabled = false
	}
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, "yahoo")

	// 3. Build the enricher
	httpClient := httputil.New(cfg, log)
	yahooClient := yahoo.NewClient(httpClient, cache, cfg.Prices, log)
	enricher := enrich.NewEnricher(yahooClient, st.Closes, log)

	// 4. Load stored trades
	trades, err := st.Trades.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}
	if len(trades) == 0 {
		fmt.Println("\n⚠️  No trades in the store; run `dcwatch fetch` first")
		return nil
	}

	workers := enrichWorkers
	if workers <= 0 {
		workers = cfg.Prices.Workers
	}

	fmt.Printf("\n📈 Enriching %s trades (%d workers)\n\n", formatNumber(int64(len(trades))), workers)

	// 5. Enrich and save
	enriched, result, err := enricher.Enrich(ctx, trades, enrich.Config{Workers: workers})
	if err != nil {
		return fmt.Errorf("enrich failed: %w", err)
	}

	if err := st.Trades.SaveBatch(ctx, enriched); err != nil {
		return fmt.Errorf("save enriched trades: %w", err)
	}

	// 6. Print results
	printSection("✅", "Enrichment Completed")
	printKeyValue("Trades", formatNumber(int64(result.Trades)), 16)
	printKeyValue("Unique tickers", formatNumber(int64(result.UniqueTickers)), 16)
	printKeyValue("With returns", formatNumber(int64(result.WithReturns)), 16)
	printKeyValue("Failed tickers", formatNumber(int64(result.FailedTickers)), 16)
	printKeyValue("Duration", fmt.Sprintf("%.2fs", result.Duration.Seconds()), 16)

	return nil
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcwatch/dcwatch/internal/fetch"
	"github.com/dcwatch/dcwatch/pkg/httputil"
	"github.com/dcwatch/dcwatch/pkg/redis"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch congressional trading disclosures",
	Long: `Fetches House and Senate trading disclosures and merges them
into the canonical trade set.

Sources:
  house   - House financial disclosure feed
  senate  - Senate stock watcher mirror
  all     - Both chambers (default)

With --scrape-senate the Senate eFD search is scraped as well, for
when the mirror lags the official site.

Example:
  dcwatch fetch
  dcwatch fetch --source house
  dcwatch fetch --scrape-senate --days-back 30
  dcwatch fetch --dry-run`,
	RunE: runFetch,
}

var (
	// Fetch flags
	fetchSource       string
	fetchScrapeSenate bool
	fetchDaysBack     int
	fetchDryRun       bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Flags
	fetchCmd.Flags().StringVar(&fetchSource, "source", fetch.SourceAll, "source to fetch (house|senate|all)")
	fetchCmd.Flags().BoolVar(&fetchScrapeSenate, "scrape-senate", false, "also scrape the Senate eFD search")
	fetchCmd.Flags().IntVar(&fetchDaysBack, "days-back", 0, "eFD search window in days (default 90)")
	fetchCmd.Flags().BoolVar(&fetchDryRun, "dry-run", false, "fetch without writing to the store")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dcwatch Disclosure Fetcher ===")

	ctx := cmd.Context()

	// 1. Initialize store chain
	cfg, log, db, st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. Shared fetch limiter
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	limiter := redis.NewRateLimiter(redisClient, "fetch")

	// 3. Build sources
	feedClient := httputil.New(cfg, log)
	if cfg.Feeds.RateLimitPerMin > 0 {
		feedClient = feedClient.WithRateLimiter(limiter, redis.RateLimitConfig{
			Key:    "feeds",
			Limit:  cfg.Feeds.RateLimitPerMin,
			Window: time.Minute,
		})
	}
	house := fetch.NewHouseSource(feedClient, cfg.Feeds, log)
	senate := fetch.NewSenateSource(feedClient, cfg.Feeds, log)
	efd, err := fetch.NewEFDScraper(cfg, limiter, log)
	if err != nil {
		return fmt.Errorf("init efd scraper: %w", err)
	}

	// 4. Run the fetcher
	fetcher := fetch.NewFetcher(house, senate, efd, st.Trades, log)

	fmt.Printf("\n📡 Source: %s\n", fetchSource)
	if fetchScrapeSenate {
		fmt.Println("🔍 eFD scrape: enabled")
	}
	if fetchDryRun {
		fmt.Println("🧪 Dry run: store writes skipped")
	}
	fmt.Println()

	trades, result, err := fetcher.Run(ctx, fetch.Options{
		Source:         fetchSource,
		ScrapeSenate:   fetchScrapeSenate,
		ScrapeDaysBack: fetchDaysBack,
		DryRun:         fetchDryRun,
	})
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	// 5. Print results
	printSection("✅", "Fetch Completed")
	printKeyValue("House trades", formatNumber(int64(result.HouseCount)), 22)
	printKeyValue("Senate trades", formatNumber(int64(result.SenateCount)), 22)
	if fetchScrapeSenate {
		printKeyValue("eFD scraped", formatNumber(int64(result.ScrapeCount)), 22)
	}
	printKeyValue("Merged", formatNumber(int64(result.Merged)), 22)
	printKeyValue("Duplicates dropped", formatNumber(int64(result.Duplicates)), 22)
	printKeyValue("Estimated disclosures", formatNumber(int64(result.EstimatedDisclosures)), 22)
	printKeyValue("Duration", fmt.Sprintf("%.2fs", result.Duration.Seconds()), 22)
	fmt.Printf("\n📦 %s trades in the store set\n", formatNumber(int64(len(trades))))

	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dcwatch/dcwatch/internal/store"
	"github.com/dcwatch/dcwatch/pkg/config"
	"github.com/dcwatch/dcwatch/pkg/database"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dcwatch",
	Short: "Congressional trading tracker and analytics",
	Long: `dcwatch - Congressional securities disclosure analytics

Fetches House and Senate trading disclosures, enriches them with
market prices, and derives the analytic datasets: performance
leaderboard, coordinated-trading signals, top picks, committee
correlations, and a copycat backtest against SPY.

Examples:
  dcwatch fetch
  dcwatch enrich --workers 8
  dcwatch analyze
  dcwatch backtest --json
  dcwatch api --port 8090`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configFile != "" {
			_ = godotenv.Load(configFile)
		}
		if env != "" {
			os.Setenv("ENV", env)
		}
		if verbose {
			os.Setenv("LOG_LEVEL", "debug")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initStore builds the dependency chain every data command starts from.
func initStore(ctx context.Context) (*config.Config, *logger.Logger, *database.DB, *store.Store, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Create store and apply schema
	st := store.New(db)
	if err := st.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	return cfg, log, db, st, nil
}

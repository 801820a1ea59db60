package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcwatch/dcwatch/internal/api"
	"github.com/dcwatch/dcwatch/internal/api/handlers"
	"github.com/dcwatch/dcwatch/internal/api/ws"
	"github.com/dcwatch/dcwatch/internal/scheduler"
	"github.com/dcwatch/dcwatch/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the HTTP API server over the stored datasets.

With --with-scheduler the background jobs run in the same process and
completed pipeline runs are broadcast to WebSocket clients.

Endpoints:
  GET /health
  GET /api/v1/trades
  GET /api/v1/trades/latest
  GET /api/v1/leaderboard
  GET /api/v1/signals
  GET /api/v1/top-picks
  GET /api/v1/committee
  GET /api/v1/committee/summary
  GET /api/v1/backtest
  GET /api/v1/runs
  GET /api/v1/stats
  GET /api/v1/ws

Example:
  dcwatch api
  dcwatch api --port 8090
  dcwatch api --with-scheduler`,
	RunE: runAPIServer,
}

var (
	// API flags
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "server port (default from config)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "run the background jobs in-process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dcwatch API Server ===")

	ctx := cmd.Context()

	// 1. Initialize store chain
	cfg, log, db, st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":      cfg.Port,
		"env":       cfg.Env,
		"scheduler": apiWithScheduler,
	}).Info("Initializing API server")

	// 2. Create the broadcast hub
	hub := ws.NewHub(log)
	defer hub.Close()

	// 3. Create handlers
	h := api.Handlers{
		Trades:    handlers.NewTradesHandler(st.Trades, log),
		Analytics: handlers.NewAnalyticsHandler(st.Analytics, st.Runs, log),
		Backtest:  handlers.NewBacktestHandler(st.Backtests, log),
		Runs:      handlers.NewRunsHandler(st.Runs, st, log),
	}

	// 4. Create router and server
	router := api.NewRouter(h, hub, log)
	server := api.New(cfg, log, router)

	// 5. Optionally run the background jobs in-process, with the hub
	// receiving run completions
	if apiWithScheduler {
		deps, err := buildPipeline(cfg, log, st, hub)
		if err != nil {
			return err
		}
		defer deps.Close()

		sched := scheduler.New(log)
		if err := sched.AddJob(jobs.NewRefreshJob(deps.orch, "", log)); err != nil {
			return fmt.Errorf("add refresh job: %w", err)
		}
		if err := sched.AddJob(jobs.NewWarmupJob(st.Trades, deps.prices, log)); err != nil {
			return fmt.Errorf("add warmup job: %w", err)
		}
		if err := sched.AddJob(jobs.NewExportJob(deps.store, deps.exporter, log)); err != nil {
			return fmt.Errorf("add export job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 6. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

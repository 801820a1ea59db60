package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dcwatch/dcwatch/internal/scheduler"
	"github.com/dcwatch/dcwatch/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the background job scheduler",
	Long: `Runs the cron scheduler with the standing jobs:

  daily_refresh  - full pipeline run (fetch, enrich, analyze, export)
  price_warmup   - current-quote cache warmup during market hours
  daily_export   - flat JSON re-export after the refresh window

Failed jobs are retried up to 3 times with a one minute delay.

Example:
  dcwatch scheduler
  dcwatch scheduler --refresh-cron "0 0 5 * * *"
  dcwatch scheduler --run-now`,
	RunE: runScheduler,
}

var (
	// Scheduler flags
	schedulerRefreshCron string
	schedulerRunNow      bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)

	// Flags
	schedulerCmd.Flags().StringVar(&schedulerRefreshCron, "refresh-cron", "", "cron spec for the daily refresh (seconds field included)")
	schedulerCmd.Flags().BoolVar(&schedulerRunNow, "run-now", false, "trigger the refresh job immediately on startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dcwatch Scheduler ===")

	ctx := cmd.Context()

	// 1. Build the full stage chain
	deps, err := initPipeline(ctx, nil)
	if err != nil {
		return err
	}
	defer deps.Close()

	// 2. Register the standing jobs
	sched := scheduler.New(deps.log)

	refresh := jobs.NewRefreshJob(deps.orch, schedulerRefreshCron, deps.log)
	if err := sched.AddJob(refresh); err != nil {
		return fmt.Errorf("add refresh job: %w", err)
	}
	if err := sched.AddJob(jobs.NewWarmupJob(deps.store.Trades, deps.prices, deps.log)); err != nil {
		return fmt.Errorf("add warmup job: %w", err)
	}
	if err := sched.AddJob(jobs.NewExportJob(deps.store, deps.exporter, deps.log)); err != nil {
		return fmt.Errorf("add export job: %w", err)
	}

	// 3. Start
	sched.Start()
	defer sched.Stop()

	fmt.Println("\n✅ Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.Jobs() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if schedulerRunNow {
		if err := sched.RunJob(refresh.Name()); err != nil {
			return fmt.Errorf("trigger refresh: %w", err)
		}
		fmt.Println("\n🚀 Refresh job triggered")
	}

	// 4. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	deps.log.Info("Shutting down scheduler...")
	return nil
}

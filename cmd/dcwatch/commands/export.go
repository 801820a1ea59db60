package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcwatch/dcwatch/internal/scheduler/jobs"
	"github.com/dcwatch/dcwatch/internal/store"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-export the flat JSON documents",
	Long: `Rebuilds the flat JSON documents from the latest completed
run's stored datasets, without re-running the analytics.

Writes trades.json, latest.json, summary.json, signals.json,
top_picks.json, committee.json, backtest.json, diagnostics.json and
meta.json atomically into the data directory.

Example:
  dcwatch export
  dcwatch export --dir ./public/data`,
	RunE: runExport,
}

var (
	// Export flags
	exportDir string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	// Flags
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "output directory (default from config)")
}

func runExport(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dcwatch JSON Export ===")

	ctx := cmd.Context()

	// 1. Initialize store chain
	cfg, log, db, st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	dir := exportDir
	if dir == "" {
		dir = cfg.DataDir
	}

	// 2. Re-export from the stored datasets
	exporter := store.NewExporter(dir, log)
	job := jobs.NewExportJob(st, exporter, log)

	fmt.Printf("\n📂 Output directory: %s\n\n", dir)

	if err := job.Run(ctx); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Println("✅ Export completed")
	return nil
}

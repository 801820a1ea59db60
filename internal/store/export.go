package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// latestLimit caps latest.json at the most recent trades with tickers.
const latestLimit = 50

// Exporter writes one run's datasets as flat JSON documents into the
// data directory. Each file is written to a temp name and renamed, so a
// reader never sees a half-written document.
type Exporter struct {
	dir    string
	logger *logger.Logger
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string, log *logger.Logger) *Exporter {
	return &Exporter{
		dir:    dir,
		logger: log.WithField("module", "export"),
	}
}

// Meta is the manifest written alongside the datasets.
type Meta struct {
	GeneratedAt  string `json:"generated_at"`
	RunID        string `json:"run_id"`
	TotalTrades  int    `json:"total_trades"`
	Politicians  int    `json:"politicians"`
	Signals      int    `json:"signals"`
	TopPicks     int    `json:"top_picks"`
	Flagged      int    `json:"committee_flagged"`
	Backtested   int    `json:"backtested_trades"`
	Malformed    int    `json:"malformed_records"`
	SkippedNotes int    `json:"skipped_notes"`
}

// Export writes every dataset of one run. The result may carry nil
// sections (a dry analyze run has no backtest, for example); those are
// written as empty documents rather than omitted, so consumers always
// find the full file set.
func (e *Exporter) Export(trades []*contracts.Trade, result *contracts.Result, diag *contracts.Diagnostics, runID string) error {
	start := time.Now()
	if result == nil {
		result = &contracts.Result{}
	}
	if diag == nil {
		diag = &contracts.Diagnostics{}
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", e.dir, err)
	}

	files := map[string]interface{}{
		"trades.json":      trades,
		"latest.json":      latestTrades(trades),
		"summary.json":     orEmptySummaries(result.Leaderboard),
		"signals.json":     orEmptySignals(result.Signals),
		"top_picks.json":   orEmptyPicks(result.TopPicks),
		"committee.json":   committeeDoc(result),
		"backtest.json":    orEmptyBacktest(result.Backtest),
		"diagnostics.json": diag,
		"meta.json": Meta{
			GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
			RunID:        runID,
			TotalTrades:  len(trades),
			Politicians:  len(result.Leaderboard),
			Signals:      len(result.Signals),
			TopPicks:     len(result.TopPicks),
			Flagged:      len(result.Correlations),
			Backtested:   backtestedCount(result.Backtest),
			Malformed:    len(diag.Malformed),
			SkippedNotes: len(diag.Skipped),
		},
	}

	for name, doc := range files {
		if err := e.writeJSON(name, doc); err != nil {
			return err
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"dir":         e.dir,
		"files":       len(files),
		"trades":      len(trades),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Export completed")

	return nil
}

// writeJSON writes one document atomically: temp file, then rename.
func (e *Exporter) writeJSON(name string, doc interface{}) error {
	path := filepath.Join(e.dir, name)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(e.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// latestTrades returns the most recent trades that carry a resolvable
// ticker, newest first, capped at latestLimit.
func latestTrades(trades []*contracts.Trade) []*contracts.Trade {
	withTickers := make([]*contracts.Trade, 0, len(trades))
	for _, t := range trades {
		if t.HasTicker() {
			withTickers = append(withTickers, t)
		}
	}

	sort.SliceStable(withTickers, func(i, j int) bool {
		if !withTickers[i].TxDate.Equal(withTickers[j].TxDate) {
			return withTickers[i].TxDate.After(withTickers[j].TxDate)
		}
		return withTickers[i].ID < withTickers[j].ID
	})

	if len(withTickers) > latestLimit {
		withTickers = withTickers[:latestLimit]
	}
	return withTickers
}

// committeeDoc bundles correlations and their summary in one document.
type committeeDocument struct {
	Correlations []*contracts.CommitteeCorrelation `json:"correlations"`
	Summary      *contracts.CommitteeSummary       `json:"summary"`
}

func committeeDoc(result *contracts.Result) committeeDocument {
	doc := committeeDocument{
		Correlations: result.Correlations,
		Summary:      result.CommitteeSummary,
	}
	if doc.Correlations == nil {
		doc.Correlations = []*contracts.CommitteeCorrelation{}
	}
	if doc.Summary == nil {
		doc.Summary = &contracts.CommitteeSummary{
			TopCommittees: []contracts.CommitteeHit{},
			TopTraders:    []contracts.TraderHit{},
		}
	}
	return doc
}

// orEmptyBacktest substitutes a structurally complete zero report when a
// run never produced one, so backtest.json is a document, not null.
func orEmptyBacktest(report *contracts.BacktestReport) *contracts.BacktestReport {
	if report != nil {
		return report
	}
	return &contracts.BacktestReport{
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		StrategySummary: map[contracts.Horizon]contracts.WindowStats{},
		VsBenchmark:     map[contracts.Horizon]contracts.BenchmarkComparison{},
		ByParty:         map[contracts.Party]contracts.WindowStats{},
		ByAmount:        map[string]contracts.WindowStats{},
		ByYear:          []contracts.YearStats{},
		ByDaysLate:      []contracts.BucketStats{},
		TopTrades: contracts.TopTrades{
			Best:  []contracts.BacktestHighlight{},
			Worst: []contracts.BacktestHighlight{},
		},
		IndividualTrades: []contracts.BacktestTrade{},
	}
}

func backtestedCount(report *contracts.BacktestReport) int {
	if report == nil {
		return 0
	}
	return report.TotalTradesAnalyzed
}

// JSON arrays should render as [] rather than null when empty.

func orEmptySummaries(rows []*contracts.PoliticianSummary) []*contracts.PoliticianSummary {
	if rows == nil {
		return []*contracts.PoliticianSummary{}
	}
	return rows
}

func orEmptySignals(rows []*contracts.Signal) []*contracts.Signal {
	if rows == nil {
		return []*contracts.Signal{}
	}
	return rows
}

func orEmptyPicks(rows []*contracts.TopPick) []*contracts.TopPick {
	if rows == nil {
		return []*contracts.TopPick{}
	}
	return rows
}

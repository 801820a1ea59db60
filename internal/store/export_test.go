package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/config"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

func exportLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"})
}

func exportTrade(t *testing.T, id, ticker, txDate string) *contracts.Trade {
	t.Helper()
	d, err := contracts.ParseDate(txDate)
	require.NoError(t, err)
	return &contracts.Trade{
		ID:             id,
		Politician:     "Jane Doe",
		Party:          contracts.PartyDemocrat,
		Chamber:        contracts.ChamberHouse,
		Ticker:         ticker,
		TxType:         contracts.TxPurchase,
		TxDate:         d,
		DisclosureDate: d.AddDays(10),
		DaysLate:       10,
		AmountLow:      1001,
		AmountHigh:     15000,
	}
}

func readDoc(t *testing.T, dir, name string, dest interface{}) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err, name)
	require.NoError(t, json.Unmarshal(data, dest), name)
}

func TestExportWritesFullFileSet(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, exportLogger())

	trades := []*contracts.Trade{
		exportTrade(t, "aaa", "NVDA", "2025-03-01"),
		exportTrade(t, "bbb", "MSFT", "2025-04-01"),
		exportTrade(t, "ccc", "", "2025-05-01"), // no ticker, excluded from latest
	}
	result := &contracts.Result{
		Leaderboard: []*contracts.PoliticianSummary{{Name: "Jane Doe", TotalTrades: 3}},
		Signals:     []*contracts.Signal{{Ticker: "NVDA", HeatScore: 12}},
		TopPicks:    []*contracts.TopPick{{Ticker: "NVDA", Score: 9.5}},
		Backtest:    &contracts.BacktestReport{TotalTradesAnalyzed: 2},
	}
	var diag contracts.Diagnostics
	diag.AddMalformed(trades[0], contracts.ReasonUnknownParty, "bad code")

	require.NoError(t, exporter.Export(trades, result, &diag, "run_20250601_063000"))

	for _, name := range []string{
		"trades.json", "latest.json", "summary.json", "signals.json",
		"top_picks.json", "committee.json", "backtest.json",
		"diagnostics.json", "meta.json",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	var meta Meta
	readDoc(t, dir, "meta.json", &meta)
	assert.Equal(t, "run_20250601_063000", meta.RunID)
	assert.Equal(t, 3, meta.TotalTrades)
	assert.Equal(t, 1, meta.Politicians)
	assert.Equal(t, 1, meta.Signals)
	assert.Equal(t, 1, meta.TopPicks)
	assert.Equal(t, 2, meta.Backtested)
	assert.Equal(t, 1, meta.Malformed)

	// No temp files survive a successful export.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 9)
}

func TestExportLatestIsNewestFirstAndCapped(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, exportLogger())

	var trades []*contracts.Trade
	for i := 0; i < latestLimit+10; i++ {
		day := 1 + i%27
		id := string(rune('a'+i%26)) + string(rune('a'+(i/26)%26)) + "x"
		tr := exportTrade(t, id, "AAPL", "2025-01-01")
		tr.TxDate = tr.TxDate.AddDays(day)
		trades = append(trades, tr)
	}

	require.NoError(t, exporter.Export(trades, nil, nil, "run_x"))

	var latest []*contracts.Trade
	readDoc(t, dir, "latest.json", &latest)
	require.Len(t, latest, latestLimit)
	for i := 1; i < len(latest); i++ {
		assert.False(t, latest[i-1].TxDate.Before(latest[i].TxDate),
			"latest.json must be newest first")
	}
}

func TestExportNilResultWritesEmptyDocuments(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, exportLogger())

	require.NoError(t, exporter.Export(nil, nil, nil, "run_empty"))

	var summary []*contracts.PoliticianSummary
	readDoc(t, dir, "summary.json", &summary)
	assert.Empty(t, summary)

	var committee struct {
		Correlations []*contracts.CommitteeCorrelation `json:"correlations"`
		Summary      *contracts.CommitteeSummary       `json:"summary"`
	}
	readDoc(t, dir, "committee.json", &committee)
	assert.NotNil(t, committee.Correlations)
	require.NotNil(t, committee.Summary)
	assert.Zero(t, committee.Summary.TotalFlagged)

	var meta Meta
	readDoc(t, dir, "meta.json", &meta)
	assert.Zero(t, meta.TotalTrades)
	assert.Zero(t, meta.Backtested)
}

// A run without a backtest still gets a structurally complete
// backtest.json, never the literal null.
func TestExportNilBacktestWritesZeroReport(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, exportLogger())

	require.NoError(t, exporter.Export(nil, &contracts.Result{}, nil, "run_empty"))

	raw, err := os.ReadFile(filepath.Join(dir, "backtest.json"))
	require.NoError(t, err)
	assert.NotEqual(t, "null", string(raw))

	var report contracts.BacktestReport
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Zero(t, report.TotalTradesAnalyzed)
	assert.NotEmpty(t, report.GeneratedAt)
	assert.NotNil(t, report.StrategySummary)
	assert.NotNil(t, report.IndividualTrades)
	assert.NotNil(t, report.TopTrades.Best)
	assert.NotNil(t, report.TopTrades.Worst)
}

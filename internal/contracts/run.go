package contracts

import "time"

// Snapshot is the immutable input to one engine run. The engine never
// mutates it, so a snapshot can back concurrent runs.
type Snapshot struct {
	Trades     []*Trade
	Prices     *PriceBook
	Committees []*Committee
}

// Result bundles every analytics output of one engine run.
type Result struct {
	Leaderboard      []*PoliticianSummary    `json:"leaderboard"`
	Signals          []*Signal               `json:"signals"`
	TopPicks         []*TopPick              `json:"top_picks"`
	Correlations     []*CommitteeCorrelation `json:"committee_correlations"`
	CommitteeSummary *CommitteeSummary       `json:"committee_summary"`
	Backtest         *BacktestReport         `json:"backtest"`
}

// RunStage identifies one pipeline stage for run records and progress
// broadcasts.
type RunStage string

const (
	StageFetch   RunStage = "fetch"
	StageEnrich  RunStage = "enrich"
	StageAnalyze RunStage = "analyze"
	StagePersist RunStage = "persist"
	StageExport  RunStage = "export"
)

// RunRecord summarizes one pipeline run for the status command and API.
type RunRecord struct {
	RunID           string        `json:"run_id"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	CompletedStages []RunStage    `json:"completed_stages"`
	TradeCount      int           `json:"trade_count"`
	EnrichedCount   int           `json:"enriched_count"`
	SignalCount     int           `json:"signal_count"`
	MalformedCount  int           `json:"malformed_count"`
	Error           string        `json:"error,omitempty"`
}

// Succeeded reports whether the run finished without a stage error.
func (r *RunRecord) Succeeded() bool {
	return r.Error == ""
}

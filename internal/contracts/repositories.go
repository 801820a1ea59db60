package contracts

import "context"

// Repository interfaces are defined here only.

// TradeRepository manages disclosed trades.
type TradeRepository interface {
	GetByID(ctx context.Context, id string) (*Trade, error)
	GetAll(ctx context.Context) ([]*Trade, error)
	GetByTicker(ctx context.Context, ticker string) ([]*Trade, error)
	GetByPolitician(ctx context.Context, name string) ([]*Trade, error)
	GetSince(ctx context.Context, since Date) ([]*Trade, error)
	Save(ctx context.Context, trade *Trade) error
	SaveBatch(ctx context.Context, trades []*Trade) error
}

// ClosePriceRepository manages resolved close prices keyed by ticker and
// requested date. Non-trading dates carry the close the provider resolved
// for them, so a stored row answers the same question the provider would.
type ClosePriceRepository interface {
	Get(ctx context.Context, ticker string, date Date) (Price, error)
	GetRange(ctx context.Context, ticker string, from, to Date) (map[Date]float64, error)
	Save(ctx context.Context, ticker string, date Date, close float64) error
	SaveBatch(ctx context.Context, ticker string, closes map[Date]float64) error
}

// AnalyticsRepository manages the outputs of one analysis run.
type AnalyticsRepository interface {
	SaveLeaderboard(ctx context.Context, runID string, rows []*PoliticianSummary) error
	SaveSignals(ctx context.Context, runID string, signals []*Signal) error
	SaveTopPicks(ctx context.Context, runID string, picks []*TopPick) error
	SaveCorrelations(ctx context.Context, runID string, rows []*CommitteeCorrelation) error
	SaveCommitteeSummary(ctx context.Context, runID string, summary *CommitteeSummary) error
	GetLeaderboard(ctx context.Context, runID string) ([]*PoliticianSummary, error)
	GetSignals(ctx context.Context, runID string) ([]*Signal, error)
	GetTopPicks(ctx context.Context, runID string) ([]*TopPick, error)
	GetCorrelations(ctx context.Context, runID string) ([]*CommitteeCorrelation, error)
	GetCommitteeSummary(ctx context.Context, runID string) (*CommitteeSummary, error)
}

// BacktestRepository manages persisted backtest reports.
type BacktestRepository interface {
	Save(ctx context.Context, runID string, report *BacktestReport) error
	GetLatest(ctx context.Context) (*BacktestReport, error)
}

// RunRepository manages pipeline run records.
type RunRepository interface {
	Save(ctx context.Context, record *RunRecord) error
	GetLatest(ctx context.Context) (*RunRecord, error)
	GetRecent(ctx context.Context, limit int) ([]*RunRecord, error)
}

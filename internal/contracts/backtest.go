package contracts

// Horizon is one copycat holding window, anchored at the disclosure date.
type Horizon string

const (
	Horizon30D     Horizon = "30d"
	Horizon90D     Horizon = "90d"
	HorizonCurrent Horizon = "current"
)

// AllHorizons lists the holding windows in report order.
var AllHorizons = []Horizon{HorizonCurrent, Horizon30D, Horizon90D}

// BacktestTrade is the full per-trade simulation row. Any leg the price
// book could not resolve stays missing and excludes the trade from that
// horizon's statistics only.
type BacktestTrade struct {
	ID               string `json:"id"`
	Politician       string `json:"politician"`
	Party            Party  `json:"party"`
	Ticker           string `json:"ticker"`
	AssetDescription string `json:"asset_description"`
	TxDate           Date   `json:"tx_date"`
	DisclosureDate   Date   `json:"disclosure_date"`
	DaysLate         int    `json:"days_late"`
	AmountLow        int64  `json:"amount_low"`
	AmountHigh       int64  `json:"amount_high"`

	PriceAtTrade      float64 `json:"price_at_trade"`
	PriceAtDisclosure Price   `json:"price_at_disclosure"`
	Price30D          Price   `json:"price_30d"`
	Price90D          Price   `json:"price_90d"`
	CurrentPrice      Price   `json:"current_price"`

	// PoliticianReturn is the enrichment-time estimated return the trader
	// actually captured from the transaction date.
	PoliticianReturn Price `json:"politician_return"`

	CopycatReturnCurrent Price `json:"copycat_return_current"`
	CopycatReturn30D     Price `json:"copycat_return_30d"`
	CopycatReturn90D     Price `json:"copycat_return_90d"`

	SpyReturnCurrent Price `json:"spy_return_current"`
	SpyReturn30D     Price `json:"spy_return_30d"`
	SpyReturn90D     Price `json:"spy_return_90d"`

	AlphaCurrent Price `json:"alpha_current"`
	Alpha30D     Price `json:"alpha_30d"`
	Alpha90D     Price `json:"alpha_90d"`

	// TimingCost is the return captured between the transaction and its
	// disclosure: positive means the disclosure delay cost the copycat.
	TimingCost Price `json:"timing_cost"`
}

// CopycatReturn returns the copycat leg for a horizon.
func (t *BacktestTrade) CopycatReturn(h Horizon) Price {
	switch h {
	case Horizon30D:
		return t.CopycatReturn30D
	case Horizon90D:
		return t.CopycatReturn90D
	default:
		return t.CopycatReturnCurrent
	}
}

// SpyReturn returns the benchmark leg for a horizon.
func (t *BacktestTrade) SpyReturn(h Horizon) Price {
	switch h {
	case Horizon30D:
		return t.SpyReturn30D
	case Horizon90D:
		return t.SpyReturn90D
	default:
		return t.SpyReturnCurrent
	}
}

// WindowStats summarizes one horizon's resolvable returns.
// All zeros with Count 0 is the well-defined empty result.
type WindowStats struct {
	Count        int     `json:"count"`
	WinRate      float64 `json:"win_rate"`
	AvgReturn    float64 `json:"avg_return"`
	MedianReturn float64 `json:"median_return"`
}

// BenchmarkComparison compares copycat and benchmark returns over the
// paired rows where both legs resolved.
type BenchmarkComparison struct {
	CopycatAvg float64 `json:"copycat_avg"`
	SpyAvg     float64 `json:"spy_avg"`
	Alpha      float64 `json:"alpha"`
	BeatSpyPct float64 `json:"beat_spy_pct"`
}

// TimingAnalysis quantifies what the disclosure delay cost a copycat.
type TimingAnalysis struct {
	AvgPoliticianReturn float64 `json:"avg_politician_return"`
	AvgCopycatReturn    float64 `json:"avg_copycat_return"`
	AvgTimingCost       float64 `json:"avg_timing_cost"`
	PctWhereDelayHurt   float64 `json:"pct_where_delay_hurt"`
}

// YearStats is one calendar-year breakdown row.
type YearStats struct {
	Year int `json:"year"`
	WindowStats
}

// BucketStats is one ordered-bucket breakdown row.
type BucketStats struct {
	Bucket string `json:"bucket"`
	WindowStats
}

// BacktestHighlight is the trimmed row used for the top/worst lists.
type BacktestHighlight struct {
	ID                   string  `json:"id"`
	Politician           string  `json:"politician"`
	Party                Party   `json:"party"`
	Ticker               string  `json:"ticker"`
	TxDate               Date    `json:"tx_date"`
	DisclosureDate       Date    `json:"disclosure_date"`
	DaysLate             int     `json:"days_late"`
	PriceAtTrade         float64 `json:"price_at_trade"`
	PriceAtDisclosure    Price   `json:"price_at_disclosure"`
	CurrentPrice         Price   `json:"current_price"`
	CopycatReturnCurrent Price   `json:"copycat_return_current"`
	SpyReturnCurrent     Price   `json:"spy_return_current"`
	AlphaCurrent         Price   `json:"alpha_current"`
	TimingCost           Price   `json:"timing_cost"`
}

// BacktestReport is the complete backtest output for one batch run.
type BacktestReport struct {
	GeneratedAt         string                          `json:"generated_at"`
	TotalTradesAnalyzed int                             `json:"total_trades_analyzed"`
	StrategySummary     map[Horizon]WindowStats         `json:"strategy_summary"`
	VsBenchmark         map[Horizon]BenchmarkComparison `json:"vs_benchmark"`
	PoliticianVsCopycat TimingAnalysis                  `json:"politician_vs_copycat"`
	ByParty             map[Party]WindowStats           `json:"by_party"`
	ByAmount            map[string]WindowStats          `json:"by_amount"`
	ByYear              []YearStats                     `json:"by_year"`
	ByDaysLate          []BucketStats                   `json:"by_days_late"`
	TopTrades           TopTrades                       `json:"top_trades"`
	IndividualTrades    []BacktestTrade                 `json:"individual_trades"`
}

// TopTrades holds the ten best and ten worst simulated trades by
// current-horizon copycat return.
type TopTrades struct {
	Best  []BacktestHighlight `json:"best"`
	Worst []BacktestHighlight `json:"worst"`
}

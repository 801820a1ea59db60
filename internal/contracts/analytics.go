package contracts

// TradeRef is a compact reference to a single trade, used for a
// politician's best/worst entries.
type TradeRef struct {
	Ticker      string  `json:"ticker"`
	TxType      TxType  `json:"tx_type"`
	TxDate      Date    `json:"tx_date"`
	EstReturn   float64 `json:"est_return"`
	EstPosition int64   `json:"est_position"`
}

// PoliticianSummary is one leaderboard row, recomputed wholesale every
// batch run.
type PoliticianSummary struct {
	Name    string  `json:"name"`
	Party   Party   `json:"party"`
	State   string  `json:"state"`
	Chamber Chamber `json:"chamber"`

	TotalTrades int `json:"total_trades"`

	// ResolvableTrades counts trades with a present estimated return.
	// EstReturn1Y and WinRate default to 0 when this is 0; exposing the
	// count is what makes a defaulted zero distinguishable from a computed
	// one.
	ResolvableTrades int `json:"trades_with_returns"`

	EstReturn1Y   float64 `json:"est_return_1y"`
	WinRate       float64 `json:"win_rate"`
	UniqueTickers int     `json:"unique_tickers"`

	BestTrade  *TradeRef `json:"best_trade"`
	WorstTrade *TradeRef `json:"worst_trade"`
}

// SignalTrader is one roster row inside a signal cluster. A politician
// appears once per (name, date, kind) combination.
type SignalTrader struct {
	Name   string `json:"name"`
	Party  Party  `json:"party"`
	TxType TxType `json:"tx_type"`
	TxDate Date   `json:"tx_date"`
}

// Signal is a time-bounded cluster of three or more distinct traders
// transacting the same ticker.
type Signal struct {
	Ticker      string         `json:"ticker"`
	CompanyName string         `json:"company_name"`
	Politicians []SignalTrader `json:"politicians"`
	StartDate   Date           `json:"start_date"`
	EndDate     Date           `json:"end_date"`
	HeatScore   int            `json:"heat_score"`
	Bipartisan  bool           `json:"bipartisan"`
}

// DistinctTraders returns the number of unique politicians in the cluster.
func (s *Signal) DistinctTraders() int {
	seen := make(map[string]struct{}, len(s.Politicians))
	for _, p := range s.Politicians {
		seen[p.Name] = struct{}{}
	}
	return len(seen)
}

// SpanDays returns the cluster's window span in days.
func (s *Signal) SpanDays() int {
	return s.EndDate.DaysSince(s.StartDate)
}

// Overlaps reports whether two clusters' date ranges intersect.
func (s *Signal) Overlaps(o *Signal) bool {
	return !s.StartDate.After(o.EndDate) && !s.EndDate.Before(o.StartDate)
}

// PickBuyer is one buying politician behind a top pick.
type PickBuyer struct {
	Name    string  `json:"name"`
	Party   Party   `json:"party"`
	TxDate  Date    `json:"tx_date"`
	WinRate float64 `json:"win_rate"`
}

// TopPick is one scored ticker from the recent buy-side activity scan.
type TopPick struct {
	Ticker          string      `json:"ticker"`
	CompanyName     string      `json:"company_name"`
	Score           float64     `json:"score"`
	NumPoliticians  int         `json:"num_politicians"`
	Bipartisan      bool        `json:"bipartisan"`
	AvgWinRate      float64     `json:"avg_win_rate"`
	LatestTradeDate Date        `json:"latest_trade_date"`
	PriceAtLatest   Price       `json:"price_at_latest"`
	CurrentPrice    Price       `json:"current_price"`
	Politicians     []PickBuyer `json:"politicians"`
}

// MatchType classifies how a trade matched a committee jurisdiction.
type MatchType string

const (
	// MatchTicker is an exact ticker hit in the jurisdiction table.
	MatchTicker MatchType = "ticker"
	// MatchKeyword is a jurisdiction keyword hit in the asset description.
	MatchKeyword MatchType = "keyword"
)

// CommitteeMatch records one committee hit with the literal matched token,
// kept for auditability.
type CommitteeMatch struct {
	Committee  string    `json:"committee"`
	MatchType  MatchType `json:"match_type"`
	Token      string    `json:"token"`
	MemberRank int       `json:"member_rank"`
}

// CommitteeCorrelation flags one trade whose trader sits on a committee
// with plausible jurisdiction over the traded asset.
type CommitteeCorrelation struct {
	TradeID    string           `json:"trade_id"`
	Politician string           `json:"politician"`
	Ticker     string           `json:"ticker"`
	TxDate     Date             `json:"tx_date"`
	DaysLate   int              `json:"days_late"`
	Matches    []CommitteeMatch `json:"matches"`
	Score      float64          `json:"score"`
}

// CommitteeHit is one committee's appearance count in the summary.
type CommitteeHit struct {
	Committee string `json:"committee"`
	Trades    int    `json:"trades"`
}

// TraderHit is one trader's cumulative correlation weight in the summary.
type TraderHit struct {
	Name       string  `json:"name"`
	Trades     int     `json:"trades"`
	TotalScore float64 `json:"total_score"`
}

// CommitteeSummary is the batch-level rollup over all correlations.
type CommitteeSummary struct {
	TotalFlagged  int            `json:"total_flagged"`
	TopCommittees []CommitteeHit `json:"top_committees"`
	TopTraders    []TraderHit    `json:"top_traders"`
}

// Committee is one row of the jurisdiction table the correlator consumes:
// the committee's covered tickers, its jurisdiction keywords, and its
// membership with rank (1 is the chair; higher is more junior).
type Committee struct {
	Name     string            `json:"name"`
	Chamber  Chamber           `json:"chamber"`
	Tickers  []string          `json:"tickers"`
	Keywords []string          `json:"keywords"`
	Members  []CommitteeMember `json:"members"`
}

// CommitteeMember is one member with seniority rank.
type CommitteeMember struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

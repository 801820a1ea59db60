package contracts

// MalformedReason classifies why a record was surfaced as malformed.
type MalformedReason string

const (
	ReasonEmptyPolitician    MalformedReason = "empty_politician"
	ReasonUnknownTxType      MalformedReason = "unknown_tx_type"
	ReasonUnknownParty       MalformedReason = "unknown_party"
	ReasonUnknownChamber     MalformedReason = "unknown_chamber"
	ReasonMissingTxDate      MalformedReason = "missing_tx_date"
	ReasonNegativeDaysLate   MalformedReason = "negative_days_late"
	ReasonInvertedAmountBand MalformedReason = "inverted_amount_band"
	ReasonDuplicateTradeID   MalformedReason = "duplicate_trade_id"
)

// MalformedRecord identifies one input trade the engine refused to score.
// The record is reported, never silently dropped or clamped.
type MalformedRecord struct {
	TradeID    string          `json:"trade_id"`
	Politician string          `json:"politician"`
	Ticker     string          `json:"ticker"`
	Reason     MalformedReason `json:"reason"`
	Detail     string          `json:"detail,omitempty"`
}

// SkippedTrade records a structurally valid trade that a component could
// not use, with the component and cause.
type SkippedTrade struct {
	TradeID   string `json:"trade_id"`
	Ticker    string `json:"ticker"`
	Component string `json:"component"`
	Cause     string `json:"cause"`
}

// Diagnostics accumulates everything a run excluded and why. A clean run
// has empty slices, not nil checks scattered through callers.
type Diagnostics struct {
	Malformed []MalformedRecord `json:"malformed"`
	Skipped   []SkippedTrade    `json:"skipped"`
}

// AddMalformed appends one malformed record.
func (d *Diagnostics) AddMalformed(t *Trade, reason MalformedReason, detail string) {
	d.Malformed = append(d.Malformed, MalformedRecord{
		TradeID:    t.ID,
		Politician: t.Politician,
		Ticker:     t.Ticker,
		Reason:     reason,
		Detail:     detail,
	})
}

// AddSkipped appends one skipped-trade record.
func (d *Diagnostics) AddSkipped(t *Trade, component, cause string) {
	d.Skipped = append(d.Skipped, SkippedTrade{
		TradeID:   t.ID,
		Ticker:    t.Ticker,
		Component: component,
		Cause:     cause,
	})
}

// Clean reports whether the run excluded nothing.
func (d *Diagnostics) Clean() bool {
	return len(d.Malformed) == 0 && len(d.Skipped) == 0
}

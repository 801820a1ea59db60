package contracts

// TxType is the disclosed transaction kind. The set is closed; every
// kind-dependent branch switches over these four values.
type TxType string

const (
	TxPurchase    TxType = "purchase"
	TxSaleFull    TxType = "sale_full"
	TxSalePartial TxType = "sale_partial"
	TxExchange    TxType = "exchange"
)

// Known reports whether the value is one of the closed set.
func (t TxType) Known() bool {
	switch t {
	case TxPurchase, TxSaleFull, TxSalePartial, TxExchange:
		return true
	}
	return false
}

// IsSale reports whether the kind is a full or partial sale.
// Sales are modeled as the inverse of a purchase's price movement.
func (t TxType) IsSale() bool {
	return t == TxSaleFull || t == TxSalePartial
}

// Party is the trader's party affiliation. Empty means not reported.
type Party string

const (
	PartyDemocrat    Party = "D"
	PartyRepublican  Party = "R"
	PartyIndependent Party = "I"
	PartyUnknown     Party = ""
)

// Known reports whether the value is a recognized party code.
// Absence is allowed; an unrecognized code is a malformed record.
func (p Party) Known() bool {
	switch p {
	case PartyDemocrat, PartyRepublican, PartyIndependent, PartyUnknown:
		return true
	}
	return false
}

// Chamber is the legislative chamber of the trader.
type Chamber string

const (
	ChamberHouse  Chamber = "house"
	ChamberSenate Chamber = "senate"
)

// Known reports whether the value is a recognized chamber.
func (c Chamber) Known() bool {
	return c == ChamberHouse || c == ChamberSenate
}

// Owner is the owning entity of the traded asset.
type Owner string

const (
	OwnerSelf      Owner = "self"
	OwnerSpouse    Owner = "spouse"
	OwnerJoint     Owner = "joint"
	OwnerDependent Owner = "dependent"
)

// AssetType is a coarse classification of the traded asset.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetOption AssetType = "option"
	AssetETF    AssetType = "etf"
	AssetBond   AssetType = "bond"
	AssetOther  AssetType = "other"
)

// MaxTickerLen is the longest symbol the price provider resolves.
// Longer "tickers" are free-text artifacts of the filings.
const MaxTickerLen = 6

// Trade is one disclosed securities transaction. It is created by the
// acquisition layer, enriched once with prices, and never mutated after
// that: every analytics component reads the same immutable snapshot.
type Trade struct {
	ID               string    `json:"id"`
	Politician       string    `json:"politician"`
	Party            Party     `json:"party"`
	State            string    `json:"state"`
	Chamber          Chamber   `json:"chamber"`
	Ticker           string    `json:"ticker"`
	AssetDescription string    `json:"asset_description"`
	AssetType        AssetType `json:"asset_type"`
	TxType           TxType    `json:"tx_type"`
	TxDate           Date      `json:"tx_date"`
	DisclosureDate   Date      `json:"disclosure_date"`

	// Disclosed amount band in whole dollars.
	AmountLow   int64 `json:"amount_low"`
	AmountHigh  int64 `json:"amount_high"`
	EstPosition int64 `json:"est_position"`

	Owner     Owner  `json:"owner"`
	FilingURL string `json:"filing_url"`
	IsAmended bool   `json:"is_amended"`

	// DaysLate is the raw disclosure delay: disclosure date minus
	// transaction date in days. Negative values indicate an upstream data
	// error and are surfaced by validation, never clamped away.
	DaysLate int `json:"days_late"`

	// DisclosureEstimated marks a disclosure date reconstructed from the
	// transaction date when the filing did not carry one.
	DisclosureEstimated bool `json:"disclosure_date_estimated,omitempty"`

	// Enrichment fields. Missing when the price provider had no answer.
	PriceAtTrade Price `json:"price_at_trade"`
	CurrentPrice Price `json:"current_price"`
	EstReturn    Price `json:"est_return"`
}

// Midpoint returns the middle of the disclosed amount band.
func (t *Trade) Midpoint() float64 {
	return float64(t.AmountLow+t.AmountHigh) / 2
}

// HasTicker reports whether the trade carries a resolvable symbol.
func (t *Trade) HasTicker() bool {
	return t.Ticker != "" && len(t.Ticker) <= MaxTickerLen
}

// HasResolvableReturn reports whether the estimated return is present
// and backed by a positive entry price. A zero entry never resolves.
func (t *Trade) HasResolvableReturn() bool {
	return t.EstReturn.Valid && t.PriceAtTrade.Valid && t.PriceAtTrade.Value > 0
}

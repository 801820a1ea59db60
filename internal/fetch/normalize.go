// Package fetch acquires congressional trade disclosures from the House
// and Senate feeds, normalizes both into the canonical trade schema,
// deduplicates, and hands the result to the store.
package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

// estimatedDisclosureDays is the median reporting delay used when a
// filing carries no disclosure date.
const estimatedDisclosureDays = 30

// TradeID derives the deterministic trade identity from the key fields:
// the first 16 hex characters of SHA-256 over the pipe-joined tuple.
func TradeID(politician string, txDate contracts.Date, ticker string, txType contracts.TxType, amountLow, amountHigh int64) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%d|%d", politician, txDate, ticker, txType, amountLow, amountHigh)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}

// dateLayouts are the formats filings use, tried in order.
var dateLayouts = []string{
	"01/02/2006",
	"2006-01-02",
	"01/02/06",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseDate parses a filing date in any accepted format. Unparseable
// input yields the zero date.
func parseDate(raw string) contracts.Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return contracts.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return contracts.DateOf(t)
		}
	}
	return contracts.Date{}
}

// amountRange is one disclosed amount band.
type amountRange struct {
	label string
	low   int64
	high  int64
}

// amountRanges maps the statutory disclosure bands. Order matters for
// the prefix fallback: more specific labels come first.
var amountRanges = []amountRange{
	{"$1,001 - $15,000", 1001, 15000},
	{"$1,001 -", 1001, 15000},
	{"$15,001 - $50,000", 15001, 50000},
	{"$50,001 - $100,000", 50001, 100000},
	{"$100,001 - $250,000", 100001, 250000},
	{"$250,001 - $500,000", 250001, 500000},
	{"$500,001 - $1,000,000", 500001, 1000000},
	{"$1,000,001 - $5,000,000", 1000001, 5000000},
	{"$5,000,001 - $25,000,000", 5000001, 25000000},
	{"$25,000,001 - $50,000,000", 25000001, 50000000},
	{"$50,000,001 +", 50000001, 100000000},
	{"Over $50,000,000", 50000001, 100000000},
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	numberRe     = regexp.MustCompile(`[\d,]+`)
)

// parseAmount maps an amount-range string to its (low, high) band.
// Falls back to prefix matching, then to pulling raw numbers, and
// returns (0, 0) when nothing matches.
func parseAmount(raw string) (int64, int64) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, 0
	}

	for _, r := range amountRanges {
		if raw == r.label {
			return r.low, r.high
		}
	}

	normalized := strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))
	for _, r := range amountRanges {
		labelHead := strings.SplitN(r.label, " -", 2)[0]
		inputHead := strings.SplitN(normalized, " -", 2)[0]
		if strings.HasPrefix(normalized, labelHead) || strings.HasPrefix(r.label, inputHead) {
			return r.low, r.high
		}
	}

	nums := numberRe.FindAllString(raw, 2)
	if len(nums) >= 2 {
		low, lowErr := strconv.ParseInt(strings.ReplaceAll(nums[0], ",", ""), 10, 64)
		high, highErr := strconv.ParseInt(strings.ReplaceAll(nums[1], ",", ""), 10, 64)
		if lowErr == nil && highErr == nil {
			return low, high
		}
	}
	if len(nums) == 1 {
		if v, err := strconv.ParseInt(strings.ReplaceAll(nums[0], ",", ""), 10, 64); err == nil {
			return v, v
		}
	}
	return 0, 0
}

// normalizeTxType maps a raw transaction type string onto the closed
// kind set. Unadorned sales default to partial.
func normalizeTxType(raw string) contracts.TxType {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case t == "":
		return contracts.TxPurchase
	case strings.Contains(t, "sale") && strings.Contains(t, "full"):
		return contracts.TxSaleFull
	case strings.Contains(t, "sale"):
		return contracts.TxSalePartial
	case strings.Contains(t, "exchange"):
		return contracts.TxExchange
	default:
		return contracts.TxPurchase
	}
}

// detectAssetType guesses the asset class from the description.
func detectAssetType(description string) contracts.AssetType {
	d := strings.ToLower(description)
	switch {
	case d == "":
		return contracts.AssetStock
	case containsAny(d, "option", "call", "put"):
		return contracts.AssetOption
	case containsAny(d, "etf", "exchange traded", "exchange-traded", "spdr", "ishares", "vanguard"):
		return contracts.AssetETF
	case containsAny(d, "bond", "treasury", "note", "municipal", "t-bill"):
		return contracts.AssetBond
	case containsAny(d, "crypto", "bitcoin", "ethereum"):
		return contracts.AssetOther
	default:
		return contracts.AssetStock
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// normalizeOwner maps the owning-entity field.
func normalizeOwner(raw string) contracts.Owner {
	o := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(o, "spouse"):
		return contracts.OwnerSpouse
	case strings.Contains(o, "joint"):
		return contracts.OwnerJoint
	case strings.Contains(o, "dependent"), strings.Contains(o, "child"):
		return contracts.OwnerDependent
	default:
		return contracts.OwnerSelf
	}
}

// cleanTicker uppercases a raw symbol and clears filing placeholders.
func cleanTicker(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "N/A" || t == "--" {
		return ""
	}
	return t
}

// normalizeParty maps a party word or letter onto the closed set.
func normalizeParty(raw string) contracts.Party {
	p := strings.TrimSpace(raw)
	if p == "" {
		return contracts.PartyUnknown
	}
	lower := strings.ToLower(p)
	switch {
	case strings.HasPrefix(lower, "democrat"):
		return contracts.PartyDemocrat
	case strings.HasPrefix(lower, "republican"):
		return contracts.PartyRepublican
	case strings.HasPrefix(lower, "independent"):
		return contracts.PartyIndependent
	default:
		return contracts.Party(strings.ToUpper(p[:1]))
	}
}

var districtRe = regexp.MustCompile(`^([A-Z]{2})`)

// stateFromDistrict extracts the state code from a House district
// string like "CA05".
func stateFromDistrict(district string) string {
	m := districtRe.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(district)))
	if m == nil {
		return ""
	}
	return m[1]
}

// stateAbbrevs maps full state names to postal codes. Senate filings
// often carry the full name in the office field.
var stateAbbrevs = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE",
	"nevada": "NV", "new hampshire": "NH", "new jersey": "NJ",
	"new mexico": "NM", "new york": "NY", "north carolina": "NC",
	"north dakota": "ND", "ohio": "OH", "oklahoma": "OK", "oregon": "OR",
	"pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA",
	"west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

// stateAbbrev converts a full state name to its 2-letter code, falling
// back to the first two letters uppercased.
func stateAbbrev(name string) string {
	trimmed := strings.TrimSpace(name)
	if code, ok := stateAbbrevs[strings.ToLower(trimmed)]; ok {
		return code
	}
	if len(trimmed) >= 2 {
		return strings.ToUpper(trimmed[:2])
	}
	return strings.ToUpper(trimmed)
}

// stateFromOffice maps an eFD office field to a state code. The field
// holds a state name, a postal code, or unrelated office text, and only
// the first two are usable.
func stateFromOffice(office string) string {
	trimmed := strings.TrimSpace(office)
	if code, ok := stateAbbrevs[strings.ToLower(trimmed)]; ok {
		return code
	}
	if len(trimmed) == 2 {
		return strings.ToUpper(trimmed)
	}
	return ""
}

// housePartyByName maps House members to party. The House feed carries
// no party field, so the most active filers are maintained here.
var housePartyByName = map[string]contracts.Party{
	"Nancy Pelosi":             contracts.PartyDemocrat,
	"Ro Khanna":                contracts.PartyDemocrat,
	"Josh Gottheimer":          contracts.PartyDemocrat,
	"Suzan DelBene":            contracts.PartyDemocrat,
	"Debbie Wasserman Schultz": contracts.PartyDemocrat,
	"Raja Krishnamoorthi":      contracts.PartyDemocrat,
	"Lois Frankel":             contracts.PartyDemocrat,
	"Marie Newman":             contracts.PartyDemocrat,
	"Tom Malinowski":           contracts.PartyDemocrat,
	"Susie Lee":                contracts.PartyDemocrat,
	"Kathy Manning":            contracts.PartyDemocrat,
	"Alan Lowenthal":           contracts.PartyDemocrat,
	"Earl Blumenauer":          contracts.PartyDemocrat,
	"Bobby Scott":              contracts.PartyDemocrat,
	"Ed Perlmutter":            contracts.PartyDemocrat,
	"Gilbert Cisneros":         contracts.PartyDemocrat,
	"Dan Crenshaw":             contracts.PartyRepublican,
	"Michael McCaul":           contracts.PartyRepublican,
	"Pat Fallon":               contracts.PartyRepublican,
	"John Curtis":              contracts.PartyRepublican,
	"Kevin Hern":               contracts.PartyRepublican,
	"Steve Scalise":            contracts.PartyRepublican,
	"Marjorie Taylor Greene":   contracts.PartyRepublican,
	"Mark Green":               contracts.PartyRepublican,
	"French Hill":              contracts.PartyRepublican,
	"Brian Mast":               contracts.PartyRepublican,
	"Gary Palmer":              contracts.PartyRepublican,
	"Austin Scott":             contracts.PartyRepublican,
	"Mike Kelly":               contracts.PartyRepublican,
	"John Rutherford":          contracts.PartyRepublican,
	"Greg Steube":              contracts.PartyRepublican,
	"Diana Harshbarger":        contracts.PartyRepublican,
	"Tommy Tuberville":         contracts.PartyRepublican,
	"Virginia Foxx":            contracts.PartyRepublican,
}

// senatePartyByName maps senators whose filings omit party, keyed by
// the exact filer name on the disclosure.
var senatePartyByName = map[string]contracts.Party{
	"A. Mitchell McConnell, Jr.": contracts.PartyRepublican,
	"Angus S King, Jr.":          contracts.PartyIndependent,
	"Bernie Moreno":              contracts.PartyRepublican,
	"David H McCormick":          contracts.PartyRepublican,
	"Gary C Peters":              contracts.PartyDemocrat,
	"John Boozman":               contracts.PartyRepublican,
	"John Fetterman":             contracts.PartyDemocrat,
	"John W Hickenlooper":        contracts.PartyDemocrat,
	"Katie Britt":                contracts.PartyRepublican,
	"Lindsey Graham":             contracts.PartyRepublican,
	"Mark R Warner":              contracts.PartyDemocrat,
	"Markwayne Mullin":           contracts.PartyRepublican,
	"Rafael E Cruz":              contracts.PartyRepublican,
	"Sheldon Whitehouse":         contracts.PartyDemocrat,
	"Shelley M Capito":           contracts.PartyRepublican,
	"Thomas H Tuberville":        contracts.PartyRepublican,
	"Tina Smith":                 contracts.PartyDemocrat,
	"Richard Blumenthal":         contracts.PartyDemocrat,
}

// daysLate returns the raw disclosure delay in days. Zero when either
// date is missing; negative when the feed is inconsistent, which
// validation surfaces downstream.
func daysLate(txDate, disclosureDate contracts.Date) int {
	if txDate.IsZero() || disclosureDate.IsZero() {
		return 0
	}
	return disclosureDate.DaysSince(txDate)
}

// estimateDisclosures fills missing disclosure dates with the median
// reporting delay and flags the estimate. Returns how many trades were
// touched.
func estimateDisclosures(trades []*contracts.Trade) int {
	estimated := 0
	for _, t := range trades {
		if !t.DisclosureDate.IsZero() || t.TxDate.IsZero() {
			continue
		}
		t.DisclosureDate = t.TxDate.AddDays(estimatedDisclosureDays)
		t.DaysLate = estimatedDisclosureDays
		t.DisclosureEstimated = true
		estimated++
	}
	return estimated
}

// dedupe collapses trades sharing an ID. The record with the later
// disclosure date survives and is marked amended; ties keep the first
// seen. Input order is preserved for the survivors.
func dedupe(trades []*contracts.Trade) []*contracts.Trade {
	index := make(map[string]int, len(trades))
	var out []*contracts.Trade
	for _, t := range trades {
		at, dup := index[t.ID]
		if !dup {
			index[t.ID] = len(out)
			out = append(out, t)
			continue
		}
		existing := out[at]
		if t.DisclosureDate.After(existing.DisclosureDate) {
			t.IsAmended = true
			out[at] = t
		} else {
			existing.IsAmended = true
		}
	}
	return out
}

package engine

import (
	"sort"
	"strings"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// maxCorrelationScore caps the committee correlation score.
const maxCorrelationScore = 100.0

// delayCapDays bounds the disclosure-delay contribution: beyond 90 days
// late, extra delay stops raising suspicion.
const delayCapDays = 90

// CommitteeCorrelator flags trades whose trader sits on a committee with
// jurisdiction over the traded asset.
type CommitteeCorrelator struct {
	logger *logger.Logger
}

// NewCommitteeCorrelator creates a new committee correlator.
func NewCommitteeCorrelator(log *logger.Logger) *CommitteeCorrelator {
	return &CommitteeCorrelator{logger: log}
}

// membership is one trader's seat, indexed for the scan.
type membership struct {
	committee *contracts.Committee
	rank      int
	maxRank   int
	tickers   map[string]struct{}
}

// Correlate scores every trade against its trader's committee seats.
// Only trades with at least one match are returned, sorted by score
// descending, trade ID ascending on ties.
func (c *CommitteeCorrelator) Correlate(trades []*contracts.Trade, committees []*contracts.Committee, cfg Config) ([]*contracts.CommitteeCorrelation, *contracts.CommitteeSummary) {
	// 1. Index memberships by trader
	seats := make(map[string][]membership)
	for _, com := range committees {
		maxRank := 0
		for _, m := range com.Members {
			if m.Rank > maxRank {
				maxRank = m.Rank
			}
		}
		tickers := make(map[string]struct{}, len(com.Tickers))
		for _, tk := range com.Tickers {
			tickers[strings.ToUpper(tk)] = struct{}{}
		}
		for _, m := range com.Members {
			seats[m.Name] = append(seats[m.Name], membership{
				committee: com,
				rank:      m.Rank,
				maxRank:   maxRank,
				tickers:   tickers,
			})
		}
	}

	// 2. Scan trades
	var flagged []*contracts.CommitteeCorrelation
	for _, t := range trades {
		memberships := seats[t.Politician]
		if len(memberships) == 0 {
			continue
		}
		if corr := c.correlateTrade(t, memberships, cfg); corr != nil {
			flagged = append(flagged, corr)
		}
	}

	sort.Slice(flagged, func(i, j int) bool {
		if flagged[i].Score != flagged[j].Score {
			return flagged[i].Score > flagged[j].Score
		}
		return flagged[i].TradeID < flagged[j].TradeID
	})

	c.logger.WithFields(map[string]interface{}{
		"trades":  len(trades),
		"flagged": len(flagged),
	}).Debug("Committee correlation completed")

	return flagged, summarize(flagged)
}

// correlateTrade matches one trade against the trader's seats and scores
// the combined hits.
func (c *CommitteeCorrelator) correlateTrade(t *contracts.Trade, memberships []membership, cfg Config) *contracts.CommitteeCorrelation {
	description := strings.ToLower(t.AssetDescription)
	ticker := strings.ToUpper(t.Ticker)

	score := 0.0
	var matches []contracts.CommitteeMatch
	for _, seat := range memberships {
		confidence := 0.0

		if ticker != "" {
			if _, ok := seat.tickers[ticker]; ok {
				confidence += cfg.TickerMatchConfidence
				matches = append(matches, contracts.CommitteeMatch{
					Committee:  seat.committee.Name,
					MatchType:  contracts.MatchTicker,
					Token:      ticker,
					MemberRank: seat.rank,
				})
			}
		}
		for _, kw := range seat.committee.Keywords {
			if kw == "" || !strings.Contains(description, strings.ToLower(kw)) {
				continue
			}
			confidence += cfg.KeywordMatchConfidence
			matches = append(matches, contracts.CommitteeMatch{
				Committee:  seat.committee.Name,
				MatchType:  contracts.MatchKeyword,
				Token:      kw,
				MemberRank: seat.rank,
			})
		}

		if confidence > 0 {
			score += confidence * seniorityMultiplier(seat.rank, seat.maxRank)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	score *= delayMultiplier(t.DaysLate)
	if score > maxCorrelationScore {
		score = maxCorrelationScore
	}

	return &contracts.CommitteeCorrelation{
		TradeID:    t.ID,
		Politician: t.Politician,
		Ticker:     t.Ticker,
		TxDate:     t.TxDate,
		DaysLate:   t.DaysLate,
		Matches:    matches,
		Score:      round2(score),
	}
}

// seniorityMultiplier scales a hit by the member's seat: the chair
// (rank 1) doubles it, the most junior member leaves it unchanged.
func seniorityMultiplier(rank, maxRank int) float64 {
	if maxRank <= 0 || rank <= 0 || rank > maxRank {
		return 1
	}
	return 1 + float64(maxRank-rank)/float64(maxRank)
}

// delayMultiplier scales by disclosure delay, capped at 90 days.
func delayMultiplier(daysLate int) float64 {
	if daysLate < 0 {
		daysLate = 0
	}
	if daysLate > delayCapDays {
		daysLate = delayCapDays
	}
	return 1 + float64(daysLate)/300
}

// summarize rolls flagged trades up into the batch summary.
func summarize(flagged []*contracts.CommitteeCorrelation) *contracts.CommitteeSummary {
	committeeTrades := make(map[string]int)
	traderTrades := make(map[string]int)
	traderScores := make(map[string]float64)

	for _, corr := range flagged {
		seen := make(map[string]struct{})
		for _, m := range corr.Matches {
			if _, dup := seen[m.Committee]; dup {
				continue
			}
			seen[m.Committee] = struct{}{}
			committeeTrades[m.Committee]++
		}
		traderTrades[corr.Politician]++
		traderScores[corr.Politician] += corr.Score
	}

	committees := make([]contracts.CommitteeHit, 0, len(committeeTrades))
	for name, n := range committeeTrades {
		committees = append(committees, contracts.CommitteeHit{Committee: name, Trades: n})
	}
	sort.Slice(committees, func(i, j int) bool {
		if committees[i].Trades != committees[j].Trades {
			return committees[i].Trades > committees[j].Trades
		}
		return committees[i].Committee < committees[j].Committee
	})

	traders := make([]contracts.TraderHit, 0, len(traderTrades))
	for name, n := range traderTrades {
		traders = append(traders, contracts.TraderHit{
			Name:       name,
			Trades:     n,
			TotalScore: round2(traderScores[name]),
		})
	}
	sort.Slice(traders, func(i, j int) bool {
		if traders[i].TotalScore != traders[j].TotalScore {
			return traders[i].TotalScore > traders[j].TotalScore
		}
		return traders[i].Name < traders[j].Name
	})

	return &contracts.CommitteeSummary{
		TotalFlagged:  len(flagged),
		TopCommittees: committees,
		TopTraders:    traders,
	}
}

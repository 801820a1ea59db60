package handlers

import (
	"net/http"
	"strings"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// TradesHandler serves the canonical trade records.
type TradesHandler struct {
	trades contracts.TradeRepository
	logger *logger.Logger
}

// NewTradesHandler creates a new trades handler.
func NewTradesHandler(trades contracts.TradeRepository, log *logger.Logger) *TradesHandler {
	return &TradesHandler{trades: trades, logger: log}
}

// tradesPage is the paged list payload.
type tradesPage struct {
	Trades []*contracts.Trade `json:"trades"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// List returns trades filtered by query parameters.
// GET /api/v1/trades?politician=&ticker=&party=&chamber=&type=&limit=&offset=
func (h *TradesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	// Narrow at the repository when a selective filter is present; the
	// remaining filters apply in memory.
	var (
		trades []*contracts.Trade
		err    error
	)
	switch {
	case q.Get("politician") != "":
		trades, err = h.trades.GetByPolitician(ctx, q.Get("politician"))
	case q.Get("ticker") != "":
		trades, err = h.trades.GetByTicker(ctx, strings.ToUpper(q.Get("ticker")))
	default:
		trades, err = h.trades.GetAll(ctx)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to query trades")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve trades")
		return
	}

	trades = filterTrades(trades, q.Get("party"), q.Get("chamber"), q.Get("type"))

	limit := queryInt(r, "limit", defaultPageSize, 1, maxPageSize)
	offset := queryInt(r, "offset", 0, 0, 1<<30)

	total := len(trades)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	respondJSON(w, http.StatusOK, tradesPage{
		Trades: trades[offset:end],
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Latest returns the most recent trades that carry tickers.
// GET /api/v1/trades/latest?limit=
func (h *TradesHandler) Latest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := queryInt(r, "limit", 50, 1, maxPageSize)

	trades, err := h.trades.GetAll(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query trades")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve trades")
		return
	}

	latest := make([]*contracts.Trade, 0, limit)
	for _, t := range trades { // repository returns tx date descending
		if !t.HasTicker() {
			continue
		}
		latest = append(latest, t)
		if len(latest) == limit {
			break
		}
	}

	respondJSON(w, http.StatusOK, latest)
}

func filterTrades(trades []*contracts.Trade, party, chamber, txType string) []*contracts.Trade {
	if party == "" && chamber == "" && txType == "" {
		return trades
	}
	out := make([]*contracts.Trade, 0, len(trades))
	for _, t := range trades {
		if party != "" && t.Party != contracts.Party(strings.ToUpper(party)) {
			continue
		}
		if chamber != "" && t.Chamber != contracts.Chamber(strings.ToLower(chamber)) {
			continue
		}
		if txType != "" && t.TxType != contracts.TxType(strings.ToLower(txType)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

package handlers

import (
	"net/http"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// BacktestHandler serves the latest persisted backtest report.
type BacktestHandler struct {
	backtests contracts.BacktestRepository
	logger    *logger.Logger
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(backtests contracts.BacktestRepository, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{backtests: backtests, logger: log}
}

// Latest returns the most recent backtest report.
// GET /api/v1/backtest
func (h *BacktestHandler) Latest(w http.ResponseWriter, r *http.Request) {
	report, err := h.backtests.GetLatest(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to query backtest report")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve backtest report")
		return
	}
	if report == nil {
		respondError(w, http.StatusNotFound, "No backtest report available yet")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

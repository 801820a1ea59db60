package handlers

import (
	"context"
	"net/http"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/internal/store"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// StatsProvider reports store-wide row counts.
type StatsProvider interface {
	Stats(ctx context.Context) (*store.Stats, error)
}

// RunsHandler serves the pipeline run log and store statistics.
type RunsHandler struct {
	runs   contracts.RunRepository
	stats  StatsProvider
	logger *logger.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(runs contracts.RunRepository, stats StatsProvider, log *logger.Logger) *RunsHandler {
	return &RunsHandler{runs: runs, stats: stats, logger: log}
}

// List returns recent pipeline runs, newest first.
// GET /api/v1/runs?limit=
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, 1, 100)

	records, err := h.runs.GetRecent(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	if records == nil {
		records = []*contracts.RunRecord{}
	}

	respondJSON(w, http.StatusOK, records)
}

// Stats returns store-wide counts.
// GET /api/v1/stats
func (h *RunsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to query stats")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

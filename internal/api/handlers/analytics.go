package handlers

import (
	"context"
	"net/http"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// AnalyticsHandler serves the derived datasets of the latest run.
type AnalyticsHandler struct {
	analytics contracts.AnalyticsRepository
	runs      contracts.RunRepository
	logger    *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics contracts.AnalyticsRepository, runs contracts.RunRepository, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, runs: runs, logger: log}
}

// latestRunID resolves the run the datasets should come from. Empty
// with no error means no run has completed yet.
func (h *AnalyticsHandler) latestRunID(ctx context.Context) (string, error) {
	rec, err := h.runs.GetLatest(ctx)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	return rec.RunID, nil
}

// serveDataset handles the shared resolve-run-then-query shape.
func (h *AnalyticsHandler) serveDataset(w http.ResponseWriter, r *http.Request, name string, query func(ctx context.Context, runID string) (interface{}, error)) {
	ctx := r.Context()

	runID, err := h.latestRunID(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve latest run")
		respondError(w, http.StatusInternalServerError, "Failed to resolve latest run")
		return
	}
	if runID == "" {
		respondError(w, http.StatusNotFound, "No analytics run has completed yet")
		return
	}

	data, err := query(ctx, runID)
	if err != nil {
		h.logger.WithError(err).WithField("dataset", name).Error("Failed to query dataset")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve "+name)
		return
	}

	respondJSON(w, http.StatusOK, data)
}

// Leaderboard returns the politician performance ranking.
// GET /api/v1/leaderboard
func (h *AnalyticsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	h.serveDataset(w, r, "leaderboard", func(ctx context.Context, runID string) (interface{}, error) {
		return h.analytics.GetLeaderboard(ctx, runID)
	})
}

// Signals returns the detected trading clusters, hottest first.
// GET /api/v1/signals
func (h *AnalyticsHandler) Signals(w http.ResponseWriter, r *http.Request) {
	h.serveDataset(w, r, "signals", func(ctx context.Context, runID string) (interface{}, error) {
		return h.analytics.GetSignals(ctx, runID)
	})
}

// TopPicks returns the scored recent buy-side tickers.
// GET /api/v1/top-picks
func (h *AnalyticsHandler) TopPicks(w http.ResponseWriter, r *http.Request) {
	h.serveDataset(w, r, "top picks", func(ctx context.Context, runID string) (interface{}, error) {
		return h.analytics.GetTopPicks(ctx, runID)
	})
}

// Committee returns the committee-jurisdiction correlations.
// GET /api/v1/committee
func (h *AnalyticsHandler) Committee(w http.ResponseWriter, r *http.Request) {
	h.serveDataset(w, r, "committee correlations", func(ctx context.Context, runID string) (interface{}, error) {
		return h.analytics.GetCorrelations(ctx, runID)
	})
}

// CommitteeSummary returns the batch-level correlation rollup.
// GET /api/v1/committee/summary
func (h *AnalyticsHandler) CommitteeSummary(w http.ResponseWriter, r *http.Request) {
	h.serveDataset(w, r, "committee summary", func(ctx context.Context, runID string) (interface{}, error) {
		return h.analytics.GetCommitteeSummary(ctx, runID)
	})
}

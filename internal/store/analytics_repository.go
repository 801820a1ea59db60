package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

// AnalyticsRepository implements contracts.AnalyticsRepository. Derived
// rows are recomputed every batch, so each save replaces the run's rows
// wholesale inside one transaction; the stored rank column preserves
// report order across the round trip.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository creates a new analytics repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// replaceRows clears a run's rows from a table and reinserts them.
func (r *AnalyticsRepository) replaceRows(ctx context.Context, table, insertQuery, runID string, count int, params func(i int) []interface{}) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	for i := 0; i < count; i++ {
		if _, err := tx.Exec(ctx, insertQuery, params(i)...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", table, i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SaveLeaderboard replaces the run's leaderboard rows.
func (r *AnalyticsRepository) SaveLeaderboard(ctx context.Context, runID string, rows []*contracts.PoliticianSummary) error {
	query := `
		INSERT INTO politician_summaries (
			run_id, rank, name, party, state, chamber, total_trades,
			trades_with_returns, est_return_1y, win_rate, unique_tickers,
			best_trade, worst_trade
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	refs := make([][2][]byte, len(rows))
	for i, row := range rows {
		best, err := refJSON(row.BestTrade)
		if err != nil {
			return fmt.Errorf("marshal best trade for %s: %w", row.Name, err)
		}
		worst, err := refJSON(row.WorstTrade)
		if err != nil {
			return fmt.Errorf("marshal worst trade for %s: %w", row.Name, err)
		}
		refs[i] = [2][]byte{best, worst}
	}

	return r.replaceRows(ctx, "politician_summaries", query, runID, len(rows), func(i int) []interface{} {
		row := rows[i]
		return []interface{}{
			runID, i, row.Name, row.Party, row.State, row.Chamber,
			row.TotalTrades, row.ResolvableTrades, row.EstReturn1Y,
			row.WinRate, row.UniqueTickers, refs[i][0], refs[i][1],
		}
	})
}

// GetLeaderboard retrieves the run's leaderboard in report order.
func (r *AnalyticsRepository) GetLeaderboard(ctx context.Context, runID string) ([]*contracts.PoliticianSummary, error) {
	query := `
		SELECT name, party, state, chamber, total_trades, trades_with_returns,
			est_return_1y, win_rate, unique_tickers, best_trade, worst_trade
		FROM politician_summaries
		WHERE run_id = $1
		ORDER BY rank ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*contracts.PoliticianSummary
	for rows.Next() {
		var (
			s           contracts.PoliticianSummary
			best, worst []byte
		)
		err := rows.Scan(
			&s.Name, &s.Party, &s.State, &s.Chamber, &s.TotalTrades,
			&s.ResolvableTrades, &s.EstReturn1Y, &s.WinRate, &s.UniqueTickers,
			&best, &worst,
		)
		if err != nil {
			return nil, err
		}
		if s.BestTrade, err = refValue(best); err != nil {
			return nil, err
		}
		if s.WorstTrade, err = refValue(worst); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// SaveSignals replaces the run's signal clusters.
func (r *AnalyticsRepository) SaveSignals(ctx context.Context, runID string, signals []*contracts.Signal) error {
	query := `
		INSERT INTO signals (
			run_id, rank, ticker, company_name, start_date, end_date,
			heat_score, bipartisan, politicians
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	rosters := make([][]byte, len(signals))
	for i, s := range signals {
		roster, err := json.Marshal(s.Politicians)
		if err != nil {
			return fmt.Errorf("marshal signal roster for %s: %w", s.Ticker, err)
		}
		rosters[i] = roster
	}

	return r.replaceRows(ctx, "signals", query, runID, len(signals), func(i int) []interface{} {
		s := signals[i]
		return []interface{}{
			runID, i, s.Ticker, s.CompanyName, dateParam(s.StartDate),
			dateParam(s.EndDate), s.HeatScore, s.Bipartisan, rosters[i],
		}
	})
}

// GetSignals retrieves the run's signal clusters in report order.
func (r *AnalyticsRepository) GetSignals(ctx context.Context, runID string) ([]*contracts.Signal, error) {
	query := `
		SELECT ticker, company_name, start_date, end_date, heat_score, bipartisan, politicians
		FROM signals
		WHERE run_id = $1
		ORDER BY rank ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*contracts.Signal
	for rows.Next() {
		var (
			s          contracts.Signal
			start, end *time.Time
			roster     []byte
		)
		if err := rows.Scan(&s.Ticker, &s.CompanyName, &start, &end, &s.HeatScore, &s.Bipartisan, &roster); err != nil {
			return nil, err
		}
		s.StartDate = dateValue(start)
		s.EndDate = dateValue(end)
		if err := json.Unmarshal(roster, &s.Politicians); err != nil {
			return nil, fmt.Errorf("unmarshal signal roster: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// SaveTopPicks replaces the run's top picks.
func (r *AnalyticsRepository) SaveTopPicks(ctx context.Context, runID string, picks []*contracts.TopPick) error {
	query := `
		INSERT INTO top_picks (
			run_id, rank, ticker, company_name, score, num_politicians,
			bipartisan, avg_win_rate, latest_trade_date, price_at_latest,
			current_price, politicians
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	buyers := make([][]byte, len(picks))
	for i, p := range picks {
		roster, err := json.Marshal(p.Politicians)
		if err != nil {
			return fmt.Errorf("marshal pick buyers for %s: %w", p.Ticker, err)
		}
		buyers[i] = roster
	}

	return r.replaceRows(ctx, "top_picks", query, runID, len(picks), func(i int) []interface{} {
		p := picks[i]
		return []interface{}{
			runID, i, p.Ticker, p.CompanyName, p.Score, p.NumPoliticians,
			p.Bipartisan, p.AvgWinRate, dateParam(p.LatestTradeDate),
			priceParam(p.PriceAtLatest), priceParam(p.CurrentPrice), buyers[i],
		}
	})
}

// GetTopPicks retrieves the run's top picks in report order.
func (r *AnalyticsRepository) GetTopPicks(ctx context.Context, runID string) ([]*contracts.TopPick, error) {
	query := `
		SELECT ticker, company_name, score, num_politicians, bipartisan,
			avg_win_rate, latest_trade_date, price_at_latest, current_price, politicians
		FROM top_picks
		WHERE run_id = $1
		ORDER BY rank ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*contracts.TopPick
	for rows.Next() {
		var (
			p                 contracts.TopPick
			latest            *time.Time
			atLatest, current *float64
			roster            []byte
		)
		err := rows.Scan(
			&p.Ticker, &p.CompanyName, &p.Score, &p.NumPoliticians,
			&p.Bipartisan, &p.AvgWinRate, &latest, &atLatest, &current, &roster,
		)
		if err != nil {
			return nil, err
		}
		p.LatestTradeDate = dateValue(latest)
		p.PriceAtLatest = priceValue(atLatest)
		p.CurrentPrice = priceValue(current)
		if err := json.Unmarshal(roster, &p.Politicians); err != nil {
			return nil, fmt.Errorf("unmarshal pick buyers: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// SaveCorrelations replaces the run's committee correlations.
func (r *AnalyticsRepository) SaveCorrelations(ctx context.Context, runID string, rows []*contracts.CommitteeCorrelation) error {
	query := `
		INSERT INTO committee_correlations (
			run_id, rank, trade_id, politician, ticker, tx_date, days_late,
			score, matches
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	matches := make([][]byte, len(rows))
	for i, c := range rows {
		m, err := json.Marshal(c.Matches)
		if err != nil {
			return fmt.Errorf("marshal matches for trade %s: %w", c.TradeID, err)
		}
		matches[i] = m
	}

	return r.replaceRows(ctx, "committee_correlations", query, runID, len(rows), func(i int) []interface{} {
		c := rows[i]
		return []interface{}{
			runID, i, c.TradeID, c.Politician, c.Ticker, dateParam(c.TxDate),
			c.DaysLate, c.Score, matches[i],
		}
	})
}

// GetCorrelations retrieves the run's committee correlations in report order.
func (r *AnalyticsRepository) GetCorrelations(ctx context.Context, runID string) ([]*contracts.CommitteeCorrelation, error) {
	query := `
		SELECT trade_id, politician, ticker, tx_date, days_late, score, matches
		FROM committee_correlations
		WHERE run_id = $1
		ORDER BY rank ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*contracts.CommitteeCorrelation
	for rows.Next() {
		var (
			c       contracts.CommitteeCorrelation
			txDate  *time.Time
			matches []byte
		)
		if err := rows.Scan(&c.TradeID, &c.Politician, &c.Ticker, &txDate, &c.DaysLate, &c.Score, &matches); err != nil {
			return nil, err
		}
		c.TxDate = dateValue(txDate)
		if err := json.Unmarshal(matches, &c.Matches); err != nil {
			return nil, fmt.Errorf("unmarshal matches: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// SaveCommitteeSummary upserts the run's committee rollup.
func (r *AnalyticsRepository) SaveCommitteeSummary(ctx context.Context, runID string, summary *contracts.CommitteeSummary) error {
	doc, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal committee summary: %w", err)
	}

	query := `
		INSERT INTO committee_summaries (run_id, summary)
		VALUES ($1, $2)
		ON CONFLICT (run_id) DO UPDATE SET summary = EXCLUDED.summary
	`

	if _, err := r.pool.Exec(ctx, query, runID, doc); err != nil {
		return fmt.Errorf("upsert committee summary: %w", err)
	}
	return nil
}

// GetCommitteeSummary retrieves the run's committee rollup, nil when the
// run has none stored.
func (r *AnalyticsRepository) GetCommitteeSummary(ctx context.Context, runID string) (*contracts.CommitteeSummary, error) {
	query := `SELECT summary FROM committee_summaries WHERE run_id = $1`

	var doc []byte
	err := r.pool.QueryRow(ctx, query, runID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	summary := &contracts.CommitteeSummary{}
	if err := json.Unmarshal(doc, summary); err != nil {
		return nil, fmt.Errorf("unmarshal committee summary: %w", err)
	}
	return summary, nil
}

// refJSON marshals an optional trade reference, NULL when absent.
func refJSON(ref *contracts.TradeRef) ([]byte, error) {
	if ref == nil {
		return nil, nil
	}
	return json.Marshal(ref)
}

// refValue unmarshals an optional trade reference.
func refValue(doc []byte) (*contracts.TradeRef, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	ref := &contracts.TradeRef{}
	if err := json.Unmarshal(doc, ref); err != nil {
		return nil, fmt.Errorf("unmarshal trade ref: %w", err)
	}
	return ref, nil
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

// TradeRepository implements contracts.TradeRepository.
// Trades are stored here and nowhere else.
type TradeRepository struct {
	pool *pgxpool.Pool
}

// NewTradeRepository creates a new trade repository.
func NewTradeRepository(pool *pgxpool.Pool) *TradeRepository {
	return &TradeRepository{pool: pool}
}

// tradeColumns is the SELECT list every trade query shares, in the scan
// order scanTrade expects.
const tradeColumns = `
	id, politician, party, state, chamber, ticker, asset_description,
	asset_type, tx_type, tx_date, disclosure_date, amount_low, amount_high,
	est_position, owner, filing_url, is_amended, days_late,
	disclosure_estimated, price_at_trade, current_price, est_return
`

const upsertTradeQuery = `
	INSERT INTO trades (
		id, politician, party, state, chamber, ticker, asset_description,
		asset_type, tx_type, tx_date, disclosure_date, amount_low, amount_high,
		est_position, owner, filing_url, is_amended, days_late,
		disclosure_estimated, price_at_trade, current_price, est_return, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		politician = EXCLUDED.politician,
		party = EXCLUDED.party,
		state = EXCLUDED.state,
		chamber = EXCLUDED.chamber,
		ticker = EXCLUDED.ticker,
		asset_description = EXCLUDED.asset_description,
		asset_type = EXCLUDED.asset_type,
		tx_type = EXCLUDED.tx_type,
		tx_date = EXCLUDED.tx_date,
		disclosure_date = EXCLUDED.disclosure_date,
		amount_low = EXCLUDED.amount_low,
		amount_high = EXCLUDED.amount_high,
		est_position = EXCLUDED.est_position,
		owner = EXCLUDED.owner,
		filing_url = EXCLUDED.filing_url,
		is_amended = EXCLUDED.is_amended,
		days_late = EXCLUDED.days_late,
		disclosure_estimated = EXCLUDED.disclosure_estimated,
		price_at_trade = EXCLUDED.price_at_trade,
		current_price = EXCLUDED.current_price,
		est_return = EXCLUDED.est_return,
		updated_at = NOW()
`

// tradeParams lays out a trade in upsertTradeQuery's parameter order.
func tradeParams(t *contracts.Trade) []interface{} {
	return []interface{}{
		t.ID, t.Politician, t.Party, t.State, t.Chamber, t.Ticker,
		t.AssetDescription, t.AssetType, t.TxType,
		dateParam(t.TxDate), dateParam(t.DisclosureDate),
		t.AmountLow, t.AmountHigh, t.EstPosition, t.Owner, t.FilingURL,
		t.IsAmended, t.DaysLate, t.DisclosureEstimated,
		priceParam(t.PriceAtTrade), priceParam(t.CurrentPrice), priceParam(t.EstReturn),
	}
}

// scanTrade reads one row in tradeColumns order.
func scanTrade(row pgx.Row) (*contracts.Trade, error) {
	var (
		t        contracts.Trade
		txDate   *time.Time
		discDate *time.Time
		atTrade  *float64
		current  *float64
		estRet   *float64
	)
	err := row.Scan(
		&t.ID, &t.Politician, &t.Party, &t.State, &t.Chamber, &t.Ticker,
		&t.AssetDescription, &t.AssetType, &t.TxType, &txDate, &discDate,
		&t.AmountLow, &t.AmountHigh, &t.EstPosition, &t.Owner, &t.FilingURL,
		&t.IsAmended, &t.DaysLate, &t.DisclosureEstimated,
		&atTrade, &current, &estRet,
	)
	if err != nil {
		return nil, err
	}
	t.TxDate = dateValue(txDate)
	t.DisclosureDate = dateValue(discDate)
	t.PriceAtTrade = priceValue(atTrade)
	t.CurrentPrice = priceValue(current)
	t.EstReturn = priceValue(estRet)
	return &t, nil
}

// collectTrades drains a result set through scanTrade.
func collectTrades(rows pgx.Rows) ([]*contracts.Trade, error) {
	defer rows.Close()

	var trades []*contracts.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// GetByID retrieves a single trade.
func (r *TradeRepository) GetByID(ctx context.Context, id string) (*contracts.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`
	return scanTrade(r.pool.QueryRow(ctx, query, id))
}

// GetAll retrieves every trade, newest transaction first.
func (r *TradeRepository) GetAll(ctx context.Context) ([]*contracts.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades ORDER BY tx_date DESC NULLS LAST, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

// GetByTicker retrieves all trades for a ticker, newest first.
func (r *TradeRepository) GetByTicker(ctx context.Context, ticker string) ([]*contracts.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE ticker = $1 ORDER BY tx_date DESC NULLS LAST, id ASC`

	rows, err := r.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

// GetByPolitician retrieves all trades for a politician, newest first.
func (r *TradeRepository) GetByPolitician(ctx context.Context, name string) ([]*contracts.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE politician = $1 ORDER BY tx_date DESC NULLS LAST, id ASC`

	rows, err := r.pool.Query(ctx, query, name)
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

// GetSince retrieves trades transacted on or after the given date.
func (r *TradeRepository) GetSince(ctx context.Context, since contracts.Date) ([]*contracts.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE tx_date >= $1 ORDER BY tx_date DESC, id ASC`

	rows, err := r.pool.Query(ctx, query, since.Time())
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

// Save upserts a single trade by content ID.
func (r *TradeRepository) Save(ctx context.Context, trade *contracts.Trade) error {
	_, err := r.pool.Exec(ctx, upsertTradeQuery, tradeParams(trade)...)
	if err != nil {
		return fmt.Errorf("upsert trade %s: %w", trade.ID, err)
	}
	return nil
}

// SaveBatch upserts trades in one transaction.
func (r *TradeRepository) SaveBatch(ctx context.Context, trades []*contracts.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if _, err := tx.Exec(ctx, upsertTradeQuery, tradeParams(t)...); err != nil {
			return fmt.Errorf("upsert trade %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

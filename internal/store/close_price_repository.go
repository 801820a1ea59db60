package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

// ClosePriceRepository implements contracts.ClosePriceRepository. Rows
// are resolved closes keyed by the requested date, so reads answer the
// same question the price provider would.
type ClosePriceRepository struct {
	pool *pgxpool.Pool
}

// NewClosePriceRepository creates a new close price repository.
func NewClosePriceRepository(pool *pgxpool.Pool) *ClosePriceRepository {
	return &ClosePriceRepository{pool: pool}
}

// Get retrieves one stored close. An absent row is a missing price, not
// an error, matching the provider's contract.
func (r *ClosePriceRepository) Get(ctx context.Context, ticker string, date contracts.Date) (contracts.Price, error) {
	query := `SELECT close_price FROM close_prices WHERE ticker = $1 AND price_date = $2`

	var px float64
	err := r.pool.QueryRow(ctx, query, ticker, date.Time()).Scan(&px)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.MissingPrice(), nil
	}
	if err != nil {
		return contracts.MissingPrice(), err
	}
	return contracts.PriceOf(px), nil
}

// GetRange retrieves the stored closes for a ticker between from and to
// inclusive, keyed by date.
func (r *ClosePriceRepository) GetRange(ctx context.Context, ticker string, from, to contracts.Date) (map[contracts.Date]float64, error) {
	query := `
		SELECT price_date, close_price
		FROM close_prices
		WHERE ticker = $1 AND price_date BETWEEN $2 AND $3
	`

	rows, err := r.pool.Query(ctx, query, ticker, from.Time(), to.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	closes := make(map[contracts.Date]float64)
	for rows.Next() {
		var (
			day time.Time
			px  float64
		)
		if err := rows.Scan(&day, &px); err != nil {
			return nil, err
		}
		closes[contracts.DateOf(day)] = px
	}
	return closes, rows.Err()
}

// Save upserts a single close.
func (r *ClosePriceRepository) Save(ctx context.Context, ticker string, date contracts.Date, px float64) error {
	query := `
		INSERT INTO close_prices (ticker, price_date, close_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker, price_date) DO UPDATE SET
			close_price = EXCLUDED.close_price
	`

	_, err := r.pool.Exec(ctx, query, ticker, date.Time(), px)
	if err != nil {
		return fmt.Errorf("upsert close %s %s: %w", ticker, date, err)
	}
	return nil
}

// SaveBatch upserts a ticker's closes one by one.
func (r *ClosePriceRepository) SaveBatch(ctx context.Context, ticker string, closes map[contracts.Date]float64) error {
	if len(closes) == 0 {
		return nil
	}

	for date, px := range closes {
		if err := r.Save(ctx, ticker, date, px); err != nil {
			return err
		}
	}
	return nil
}

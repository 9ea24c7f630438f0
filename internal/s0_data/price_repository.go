package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/multibagger/internal/contracts"
)

// PriceRepository implements contracts.PriceSource
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool     *pgxpool.Pool
	lookback time.Duration
}

// NewPriceRepository creates a new price repository returning bars within lookback
func NewPriceRepository(pool *pgxpool.Pool, lookback time.Duration) *PriceRepository {
	return &PriceRepository{pool: pool, lookback: lookback}
}

// Bars returns daily bars for an entity, oldest first
func (r *PriceRepository) Bars(ctx context.Context, entityID string) ([]contracts.PriceBar, error) {
	query := `
		SELECT trade_date, high_price, low_price, close_price
		FROM screening.daily_prices
		WHERE entity_id = $1 AND trade_date >= $2
		ORDER BY trade_date ASC
	`

	since := time.Now().UTC().Add(-r.lookback)
	rows, err := r.pool.Query(ctx, query, entityID, since)
	if err != nil {
		return nil, fmt.Errorf("query bars %s: %w", entityID, err)
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.Date, &b.High, &b.Low, &b.Close); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// SaveBars upserts daily bars for an entity in one round trip
func (r *PriceRepository) SaveBars(ctx context.Context, entityID string, bars []contracts.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	query := `
		INSERT INTO screening.daily_prices (entity_id, trade_date, high_price, low_price, close_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entity_id, trade_date) DO UPDATE SET
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price
	`

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(query, entityID, b.Date, b.High, b.Low, b.Close)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save bars %s: %w", entityID, err)
	}
	return nil
}

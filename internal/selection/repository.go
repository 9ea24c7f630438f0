package selection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/multibagger/internal/contracts"
)

// Repository handles screening run persistence
// ⭐ SSOT: 스크리닝 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRun stores the run header and its ranked results in one transaction.
// Saving the same run id again replaces its results.
func (r *Repository) SaveRun(ctx context.Context, run *contracts.ScreeningRun) error {
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO screening.runs (run_id, started_at, policy_hash, total, passing_all, stats)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			policy_hash = EXCLUDED.policy_hash,
			total = EXCLUDED.total,
			passing_all = EXCLUDED.passing_all,
			stats = EXCLUDED.stats
	`, run.RunID, run.StartedAt, run.PolicyHash, run.Stats.TotalCandidates, run.Stats.PassingAll, statsJSON)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM screening.results WHERE run_id = $1", run.RunID); err != nil {
		return fmt.Errorf("failed to delete old results: %w", err)
	}

	query := `
		INSERT INTO screening.results (
			run_id, rank, entity_id, score,
			fcf_price, book_to_market, roa, market_cap, detail
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, rc := range run.Ranked {
		detailJSON, err := json.Marshal(rc.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal detail for %s: %w", rc.Entity.ID, err)
		}
		batch.Queue(query,
			run.RunID, rc.Rank, rc.Entity.ID, rc.Score,
			rc.Metrics.FCFPrice.Ptr(), rc.Metrics.BookToMarket.Ptr(),
			rc.Metrics.ROA.Ptr(), rc.Metrics.MarketCap.Ptr(),
			detailJSON,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert results: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// StoredResult is one persisted ranking row
type StoredResult struct {
	Rank         int
	EntityID     string
	Score        float64
	FCFPrice     contracts.Metric
	BookToMarket contracts.Metric
	ROA          contracts.Metric
	MarketCap    contracts.Metric
	Detail       contracts.ScoreDetail
}

// GetResults retrieves ranked results for a run
func (r *Repository) GetResults(ctx context.Context, runID string, limit int) ([]StoredResult, error) {
	query := `
		SELECT rank, entity_id, score, fcf_price, book_to_market, roa, market_cap, detail
		FROM screening.results
		WHERE run_id = $1
		ORDER BY rank ASC
		LIMIT $2
	`

	// LIMIT NULL returns every row
	var rowLimit *int
	if limit > 0 {
		rowLimit = &limit
	}

	rows, err := r.pool.Query(ctx, query, runID, rowLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := make([]StoredResult, 0)

	for rows.Next() {
		var (
			res                     StoredResult
			fcf, bm, roa, marketCap *float64
			detailJSON              []byte
		)
		if err := rows.Scan(&res.Rank, &res.EntityID, &res.Score, &fcf, &bm, &roa, &marketCap, &detailJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		res.FCFPrice = contracts.MetricFromPtr(fcf)
		res.BookToMarket = contracts.MetricFromPtr(bm)
		res.ROA = contracts.MetricFromPtr(roa)
		res.MarketCap = contracts.MetricFromPtr(marketCap)
		if err := json.Unmarshal(detailJSON, &res.Detail); err != nil {
			return nil, fmt.Errorf("failed to unmarshal detail: %w", err)
		}

		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// LatestRunID returns the most recent run id
func (r *Repository) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := r.pool.QueryRow(ctx, `
		SELECT run_id FROM screening.runs ORDER BY started_at DESC LIMIT 1
	`).Scan(&runID)
	if err == pgx.ErrNoRows {
		return "", fmt.Errorf("no screening runs found")
	}
	if err != nil {
		return "", fmt.Errorf("failed to get latest run: %w", err)
	}
	return runID, nil
}

package s1_universe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/multibagger/internal/contracts"
)

// Repository handles data persistence for S1
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Entities returns every known entity ordered by id
func (r *Repository) Entities(ctx context.Context) ([]contracts.Entity, error) {
	query := `
		SELECT id, name, sector, is_anchor, status
		FROM screening.entities
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	entities := make([]contracts.Entity, 0)
	for rows.Next() {
		var e contracts.Entity
		var status string
		if err := rows.Scan(&e.ID, &e.Name, &e.Sector, &e.Anchor, &status); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		e.Status = contracts.MembershipStatus(status)
		entities = append(entities, e)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate entities: %w", rows.Err())
	}

	return entities, nil
}

// Valuations returns the latest market cap per entity. NULL caps are undefined.
func (r *Repository) Valuations(ctx context.Context) (map[string]contracts.Metric, error) {
	rows, err := r.db.Query(ctx, `SELECT entity_id, market_cap FROM screening.valuations`)
	if err != nil {
		return nil, fmt.Errorf("query valuations: %w", err)
	}
	defer rows.Close()

	valuations := make(map[string]contracts.Metric)
	for rows.Next() {
		var id string
		var marketCap *float64
		if err := rows.Scan(&id, &marketCap); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		valuations[id] = contracts.MetricFromPtr(marketCap)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate valuations: %w", rows.Err())
	}

	return valuations, nil
}

// SaveValuations upserts the current market cap snapshot
func (r *Repository) SaveValuations(ctx context.Context, valuations map[string]contracts.Metric) error {
	query := `
		INSERT INTO screening.valuations (entity_id, market_cap, as_of)
		VALUES ($1, $2, NOW())
		ON CONFLICT (entity_id) DO UPDATE SET
			market_cap = EXCLUDED.market_cap,
			as_of = NOW()
	`

	batch := &pgx.Batch{}
	for id, marketCap := range valuations {
		batch.Queue(query, id, marketCap.Ptr())
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert valuations: %w", err)
	}
	return nil
}

// SaveEntities upserts the membership snapshot
func (r *Repository) SaveEntities(ctx context.Context, entities []contracts.Entity) error {
	query := `
		INSERT INTO screening.entities (id, name, sector, is_anchor, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			is_anchor = EXCLUDED.is_anchor,
			status = EXCLUDED.status,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, e := range entities {
		batch.Queue(query, e.ID, e.Name, e.Sector, e.Anchor, string(e.Status))
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert entities: %w", err)
	}
	return nil
}

// SaveReport appends every transition of a report to the audit log
func (r *Repository) SaveReport(ctx context.Context, report *contracts.UniverseReport) error {
	query := `
		INSERT INTO screening.universe_transitions (entity_id, from_state, to_state, market_cap, reason)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, list := range [][]contracts.Transition{report.Added, report.Removed} {
		for _, t := range list {
			batch.Queue(query, t.EntityID, string(t.From), string(t.To), t.MarketCap.Ptr(), t.Reason)
		}
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert transitions: %w", err)
	}
	return nil
}

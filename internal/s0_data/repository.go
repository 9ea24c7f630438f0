package s0_data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/multibagger/internal/contracts"
)

// Repository handles statement persistence for S0.
// It implements contracts.StatementSource: stored records come back as raw
// statements keyed by canonical column names, so they re-enter through the Normalizer.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Pool returns the underlying database pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.db
}

// Statements returns the most recently fetched version of every stored period
func (r *Repository) Statements(ctx context.Context) ([]contracts.RawStatement, error) {
	columns := FieldNames()
	query := fmt.Sprintf(`
		SELECT entity_id, cadence, fiscal_date, fiscal_year, report_date, %s
		FROM (
			SELECT *,
			       ROW_NUMBER() OVER (
			           PARTITION BY entity_id, cadence, fiscal_year, fiscal_date
			           ORDER BY fetched_at DESC
			       ) AS rn
			FROM screening.period_records
		) latest
		WHERE rn = 1
		ORDER BY entity_id, cadence, fiscal_year, fiscal_date
	`, strings.Join(columns, ", "))

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query period records: %w", err)
	}
	defer rows.Close()

	var statements []contracts.RawStatement
	for rows.Next() {
		var (
			entityID   string
			cadence    string
			fiscalDate *time.Time
			fiscalYear int
			reportDate *time.Time
		)
		values := make([]*float64, len(columns))
		dest := []any{&entityID, &cadence, &fiscalDate, &fiscalYear, &reportDate}
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan period record: %w", err)
		}

		raw := contracts.RawStatement{
			"entity_id":   entityID,
			"cadence":     cadence,
			"fiscal_year": fiscalYear,
		}
		if fiscalDate != nil {
			raw["fiscal_date"] = fiscalDate.Format("2006-01-02")
		}
		if reportDate != nil {
			raw["report_date"] = reportDate.Format("2006-01-02")
		}
		for i, col := range columns {
			if values[i] != nil {
				raw[col] = *values[i]
			} else {
				raw[col] = nil
			}
		}
		statements = append(statements, raw)
	}

	return statements, rows.Err()
}

// SaveRecords appends records. History is never updated in place.
func (r *Repository) SaveRecords(ctx context.Context, records []contracts.PeriodRecord) error {
	if len(records) == 0 {
		return nil
	}

	columns := FieldNames()
	placeholders := make([]string, 0, len(columns)+5)
	for i := 1; i <= len(columns)+5; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
	}
	query := fmt.Sprintf(`
		INSERT INTO screening.period_records (
			entity_id, cadence, fiscal_date, fiscal_year, report_date, %s
		) VALUES (%s)
	`, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	batch := &pgx.Batch{}
	for i := range records {
		rec := &records[i]
		args := []any{
			rec.EntityID,
			string(rec.Period.Cadence),
			nullableDate(rec.Period.FiscalDate),
			rec.Period.FiscalYear,
			nullableDate(rec.ReportDate),
		}
		for _, f := range numericFields {
			args = append(args, f.get(rec).Ptr())
		}
		batch.Queue(query, args...)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert period records: %w", err)
	}

	return nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

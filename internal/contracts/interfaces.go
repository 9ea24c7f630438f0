package contracts

import (
	"context"
)

// RawStatement is one provider statement payload with heterogeneous field names
type RawStatement map[string]any

// StatementSource supplies raw statements for normalization (S0)
// ⭐ SSOT: S0 입력 인터페이스
type StatementSource interface {
	Statements(ctx context.Context) ([]RawStatement, error)
}

// EntitySource supplies the current entity list with membership status (S1)
type EntitySource interface {
	Entities(ctx context.Context) ([]Entity, error)
}

// ValuationSource supplies the latest market capitalization per entity id (S1)
// Entities absent from the map have no valuation.
type ValuationSource interface {
	Valuations(ctx context.Context) (map[string]Metric, error)
}

// WatchlistSource supplies external candidate listings for discovery (S1)
type WatchlistSource interface {
	Watchlist(ctx context.Context) ([]CandidateListing, error)
}

// TimingSource supplies optional entry-timing inputs (S2)
// Returns nil without error when no timing data exists for the entity.
type TimingSource interface {
	Timing(ctx context.Context, entityID string) (*TimingInputs, error)
}

// PriceSource supplies daily bars, oldest first, for timing computation (S2)
type PriceSource interface {
	Bars(ctx context.Context, entityID string) ([]PriceBar, error)
}

// UniverseStore persists a membership snapshot (S1)
type UniverseStore interface {
	SaveEntities(ctx context.Context, entities []Entity) error
}

// RunStore persists a completed screening run (S5)
type RunStore interface {
	SaveRun(ctx context.Context, run *ScreeningRun) error
}

// ResultPublisher announces a completed screening run to downstream readers (S5)
type ResultPublisher interface {
	Publish(ctx context.Context, run *ScreeningRun) error
}

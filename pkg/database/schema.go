package database

// schema is applied in order by Migrate. Statements are idempotent.
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS screening`,

	`CREATE TABLE IF NOT EXISTS screening.entities (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		sector     TEXT NOT NULL DEFAULT '',
		is_anchor  BOOLEAN NOT NULL DEFAULT FALSE,
		status     TEXT NOT NULL DEFAULT 'tracked',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Records are append-only: a new fetch inserts a new row, history is never updated
	`CREATE TABLE IF NOT EXISTS screening.period_records (
		entity_id            TEXT NOT NULL,
		cadence              TEXT NOT NULL,
		fiscal_date          DATE,
		fiscal_year          INT NOT NULL,
		report_date          DATE,
		fetched_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		market_cap           DOUBLE PRECISION,
		enterprise_value     DOUBLE PRECISION,
		total_assets         DOUBLE PRECISION,
		total_equity         DOUBLE PRECISION,
		total_debt           DOUBLE PRECISION,
		cash                 DOUBLE PRECISION,
		revenue              DOUBLE PRECISION,
		operating_income     DOUBLE PRECISION,
		ebitda               DOUBLE PRECISION,
		net_income           DOUBLE PRECISION,
		operating_cash_flow  DOUBLE PRECISION,
		free_cash_flow       DOUBLE PRECISION,
		capital_expenditure  DOUBLE PRECISION
	)`,

	`CREATE INDEX IF NOT EXISTS idx_period_records_entity
		ON screening.period_records (entity_id, cadence, fiscal_year, fiscal_date)`,

	`CREATE TABLE IF NOT EXISTS screening.valuations (
		entity_id  TEXT PRIMARY KEY,
		market_cap DOUBLE PRECISION,
		as_of      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS screening.daily_prices (
		entity_id   TEXT NOT NULL,
		trade_date  DATE NOT NULL,
		high_price  DOUBLE PRECISION NOT NULL,
		low_price   DOUBLE PRECISION NOT NULL,
		close_price DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (entity_id, trade_date)
	)`,

	`CREATE TABLE IF NOT EXISTS screening.runs (
		run_id      TEXT PRIMARY KEY,
		started_at  TIMESTAMPTZ NOT NULL,
		policy_hash TEXT NOT NULL,
		total       INT NOT NULL,
		passing_all INT NOT NULL,
		stats       JSONB NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS screening.results (
		run_id         TEXT NOT NULL REFERENCES screening.runs (run_id) ON DELETE CASCADE,
		rank           INT NOT NULL,
		entity_id      TEXT NOT NULL,
		score          DOUBLE PRECISION NOT NULL,
		fcf_price      DOUBLE PRECISION,
		book_to_market DOUBLE PRECISION,
		roa            DOUBLE PRECISION,
		market_cap     DOUBLE PRECISION,
		detail         JSONB NOT NULL,
		PRIMARY KEY (run_id, rank)
	)`,

	`CREATE TABLE IF NOT EXISTS screening.universe_transitions (
		id          BIGSERIAL PRIMARY KEY,
		entity_id   TEXT NOT NULL,
		from_state  TEXT NOT NULL,
		to_state    TEXT NOT NULL,
		market_cap  DOUBLE PRECISION,
		reason      TEXT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

package brain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/internal/s0_data"
	"github.com/wonny/multibagger/internal/s0_data/quality"
	"github.com/wonny/multibagger/internal/s2_signals"
	"github.com/wonny/multibagger/internal/selection"
	"github.com/wonny/multibagger/internal/strategyconfig"
	"github.com/wonny/multibagger/pkg/logger"
	"github.com/wonny/multibagger/pkg/redis"
)

type memoryRunStore struct {
	runs []*contracts.ScreeningRun
	err  error
}

func (s *memoryRunStore) SaveRun(_ context.Context, run *contracts.ScreeningRun) error {
	if s.err != nil {
		return s.err
	}
	s.runs = append(s.runs, run)
	return nil
}

type stubTiming map[string]*contracts.TimingInputs

func (s stubTiming) Timing(_ context.Context, id string) (*contracts.TimingInputs, error) {
	return s[id], nil
}

func statement(id string, year int, marketCap any) contracts.RawStatement {
	return contracts.RawStatement{
		"symbol":         id,
		"cadence":        "annual",
		"fiscal_year":    year,
		"market_cap":     marketCap,
		"free_cash_flow": 60_000_000.0,
		"total_equity":   500_000_000.0,
		"net_income":     40_000_000.0,
		"total_assets":   800_000_000.0,
		"revenue":        300_000_000.0,
		"ebitda":         80_000_000.0,
	}
}

func testBatch() Batch {
	return Batch{
		Statements: []contracts.RawStatement{
			statement("X", 2024, 1_000_000_000.0),
			statement("Y", 2024, "None"),
			statement("Z", 2024, 1_000_000_000.0),
			statement("W", 2024, 1_000_000_000.0),
			{"cadence": "annual", "fiscal_year": 2024}, // no entity id
		},
		Entities: []contracts.Entity{
			{ID: "X", Status: contracts.StatusTracked},
			{ID: "Y", Status: contracts.StatusTracked},
			{ID: "Z", Status: contracts.StatusUntracked},
			{ID: "V", Status: contracts.StatusTracked},
		},
	}
}

func testOptions(t *testing.T) RunOptions {
	t.Helper()
	cfg := strategyconfig.Default()
	policy, err := cfg.Policy()
	require.NoError(t, err)
	return RunOptions{
		RunID:      "run-1",
		Policy:     policy,
		PolicyHash: "hash",
		Limit:      10,
	}
}

func newOrchestrator(gate *quality.Gate, store contracts.RunStore, publisher contracts.ResultPublisher, workers int) *Orchestrator {
	log := logger.Nop()
	return NewOrchestrator(
		s0_data.NewNormalizer(s0_data.NormalizerConfig{}),
		gate,
		s2_signals.NewDeriver(log),
		selection.NewScreener(log),
		selection.NewRanker(log),
		store,
		publisher,
		workers,
		log,
	)
}

func lenientGate() *quality.Gate {
	return quality.NewGate(quality.Config{MaxRejectRate: 1})
}

func TestOrchestrator_Run(t *testing.T) {
	store := &memoryRunStore{}
	o := newOrchestrator(lenientGate(), store, nil, 4)

	result, err := o.Run(context.Background(), testBatch(), testOptions(t))
	require.NoError(t, err)
	require.True(t, result.Success)

	run := result.Run
	assert.Equal(t, "run-1", run.RunID)
	assert.Equal(t, "hash", run.PolicyHash)
	assert.Equal(t, 5, run.Normalization.TotalRaw)
	assert.Equal(t, 4, run.Normalization.Accepted)

	// Only tracked entities are screened
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "X", result.Candidates[0].Entity.ID)
	assert.Equal(t, "Y", result.Candidates[1].Entity.ID)
	assert.Equal(t, SkipUntracked, run.Skipped["Z"])
	assert.Equal(t, SkipUnknownEntity, run.Skipped["W"])
	assert.Equal(t, SkipNoStatements, run.Skipped["V"])

	require.Len(t, run.Ranked, 1)
	assert.Equal(t, "X", run.Ranked[0].Entity.ID)
	assert.Equal(t, 1, run.Ranked[0].Rank)
	assert.Equal(t, 23.0, run.Ranked[0].Score)

	assert.Equal(t, 2, run.Stats.TotalCandidates)
	assert.Equal(t, 1, run.Stats.PassingAll)
	assert.Equal(t, 2, run.Stats.PassingByFilter[contracts.FilterProfitability])
	assert.Equal(t, 1, run.Stats.PassingByFilter[contracts.FilterMarketCap])

	// Y is scored but excluded from ranking
	assert.False(t, result.Candidates[1].Filters.PassAll)
	assert.Equal(t, 10.0, result.Candidates[1].Score)

	for _, stage := range contracts.AllStages() {
		assert.Contains(t, run.Results, stage)
	}
	assert.Len(t, result.CompletedStages, len(contracts.AllStages()))

	require.Len(t, store.runs, 1)
	assert.Same(t, run, store.runs[0])
}

func TestOrchestrator_Timing(t *testing.T) {
	o := newOrchestrator(lenientGate(), nil, nil, 2)

	batch := testBatch()
	batch.Timing = stubTiming{
		"X": {DistanceFromLow: contracts.Defined(0.05), Momentum: contracts.Defined(-0.05)},
	}

	result, err := o.Run(context.Background(), batch, testOptions(t))
	require.NoError(t, err)
	require.Len(t, result.Run.Ranked, 1)
	assert.Equal(t, 33.0, result.Run.Ranked[0].Score)
	assert.Nil(t, result.Candidates[1].Timing)
}

func TestOrchestrator_Deterministic(t *testing.T) {
	batch := testBatch()
	batch.Entities = nil // screen everything

	var first *RunResult
	for _, workers := range []int{1, 2, 8} {
		o := newOrchestrator(lenientGate(), nil, nil, workers)
		result, err := o.Run(context.Background(), batch, testOptions(t))
		require.NoError(t, err)
		require.Len(t, result.Candidates, 4)

		if first == nil {
			first = result
			continue
		}
		assert.Equal(t, first.Run.Ranked, result.Run.Ranked, "workers=%d", workers)
		assert.Equal(t, first.Run.Stats, result.Run.Stats, "workers=%d", workers)
	}

	require.Len(t, first.Run.Ranked, 3)
	// equal scores and FCF/Price tie-break on id
	assert.Equal(t, "W", first.Run.Ranked[0].Entity.ID)
	assert.Equal(t, "X", first.Run.Ranked[1].Entity.ID)
	assert.Equal(t, "Z", first.Run.Ranked[2].Entity.ID)
}

func TestOrchestrator_QualityGate(t *testing.T) {
	o := newOrchestrator(quality.NewGate(quality.DefaultConfig()), nil, nil, 1)

	// Y's missing market cap breaks coverage; the default gate only records it
	result, err := o.Run(context.Background(), testBatch(), testOptions(t))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Quality.Passed)
	assert.NotEmpty(t, result.Quality.Violations)
	assert.NotEmpty(t, result.Run.Ranked)

	s0 := result.Run.Results[contracts.StageNormalize]
	assert.True(t, s0.Success)
	assert.Contains(t, s0.Error, "advisory")
	assert.Equal(t, false, s0.Metadata["gate_passed"])
	assert.Equal(t, result.Quality.Violations, s0.Metadata["violations"])

	// Strict mode aborts before S1
	opts := testOptions(t)
	opts.StrictGate = true
	result, err = o.Run(context.Background(), testBatch(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quality gate not passed")
	assert.False(t, result.Success)
	assert.False(t, result.Run.Results[contracts.StageNormalize].Success)
	_, ranS1 := result.Run.Results[contracts.StageUniverse]
	assert.False(t, ranS1)

	_, err = o.Run(context.Background(), Batch{}, opts)
	require.Error(t, err)

	// An empty batch is advisory too and yields an empty run
	result, err = o.Run(context.Background(), Batch{}, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"no statements"}, result.Quality.Violations)
	assert.Empty(t, result.Run.Ranked)
}

func TestOrchestrator_DryRunAndStoreErrors(t *testing.T) {
	store := &memoryRunStore{err: errors.New("db down")}
	o := newOrchestrator(lenientGate(), store, nil, 1)

	_, err := o.Run(context.Background(), testBatch(), testOptions(t))
	require.Error(t, err)

	opts := testOptions(t)
	opts.DryRun = true
	result, err := o.Run(context.Background(), testBatch(), opts)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestOrchestrator_PublishesToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache := redis.NewCache(redis.NewFromRedis(rdb), "test:")
	publisher := NewRedisPublisher(cache, time.Hour)
	o := newOrchestrator(lenientGate(), nil, publisher, 2)

	result, err := o.Run(context.Background(), testBatch(), testOptions(t))
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:screening:latest"))
	assert.True(t, mr.Exists("test:screening:run-1"))
	assert.Equal(t, time.Hour, mr.TTL("test:screening:run-1"))

	latest, err := publisher.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-1", latest.RunID)
	require.Len(t, latest.Ranked, 1)
	assert.Equal(t, result.Run.Ranked[0].Entity.ID, latest.Ranked[0].Entity.ID)
	assert.Equal(t, result.Run.Ranked[0].Metrics.FCFPrice, latest.Ranked[0].Metrics.FCFPrice)
	assert.Equal(t, result.Run.Stats.PassingAll, latest.Stats.PassingAll)
}

func TestRedisPublisher_UniverseReport(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	publisher := NewRedisPublisher(redis.NewCache(redis.NewFromRedis(rdb), "test:"), 0)
	require.NoError(t, publisher.PublishUniverseReport(context.Background(), &contracts.UniverseReport{Operation: "review"}))
	assert.True(t, mr.Exists("test:universe:review:latest"))

	latest, err := publisher.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

package selection

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/multibagger/internal/contracts"
)

func TestRepository_SaveRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err, "database connection failed")
	defer pool.Close()

	repo := NewRepository(pool)
	runID := "test-" + time.Now().Format("20060102150405.000")
	defer func() {
		_, _ = pool.Exec(ctx, `DELETE FROM screening.runs WHERE run_id = $1`, runID)
	}()

	c := candidate("X", 23, contracts.Defined(0.06), contracts.Defined(1e9), true)
	c.Detail = contracts.ScoreDetail{FCFPrice: 8, BookToMarket: 5, ROA: 5, EBITDAMargin: 5}
	run := &contracts.ScreeningRun{
		RunID:      runID,
		StartedAt:  time.Now(),
		PolicyHash: "abc",
		Ranked:     []contracts.RankedCandidate{{Rank: 1, Candidate: c}},
		Stats:      contracts.ScreeningStats{TotalCandidates: 1, PassingAll: 1},
	}

	require.NoError(t, repo.SaveRun(ctx, run))
	// Saving twice replaces results
	require.NoError(t, repo.SaveRun(ctx, run))

	results, err := repo.GetResults(ctx, runID, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "X", results[0].EntityID)
	assert.Equal(t, 23.0, results[0].Score)
	assert.Equal(t, contracts.Defined(0.06), results[0].FCFPrice)
	assert.False(t, results[0].ROA.IsDefined())
	assert.Equal(t, c.Detail, results[0].Detail)
}

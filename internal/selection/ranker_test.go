package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/pkg/logger"
)

func ids(ranked []contracts.RankedCandidate) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Entity.ID
	}
	return out
}

func TestRanker_TieBreaks(t *testing.T) {
	r := NewRanker(logger.Nop())

	candidates := []contracts.Candidate{
		candidate("E", 50, contracts.Defined(0.08), contracts.Defined(5e8), true),
		candidate("A", 70, contracts.Defined(0.06), contracts.Defined(9e8), true),
		candidate("D", 50, contracts.Defined(0.10), contracts.Defined(9e8), true),
		candidate("C", 50, contracts.Defined(0.08), contracts.Defined(4e8), true),
		candidate("B", 50, contracts.Defined(0.08), contracts.Undefined(), true),
		candidate("F", 50, contracts.Undefined(), contracts.Defined(1e8), true),
		candidate("G", 50, contracts.Defined(0.08), contracts.Defined(4e8), true),
		candidate("Z", 99, contracts.Defined(0.5), contracts.Defined(1e8), false),
	}

	ranked, stats := r.Rank(candidates, 0)

	// score desc → fcf desc → cap asc (undefined last) → id asc; failing Z excluded
	assert.Equal(t, []string{"A", "D", "C", "G", "E", "B", "F"}, ids(ranked))
	for i, rc := range ranked {
		assert.Equal(t, i+1, rc.Rank)
	}

	assert.Equal(t, 8, stats.TotalCandidates)
	assert.Equal(t, 7, stats.PassingAll)
	assert.Equal(t, 7, stats.PassingByFilter[contracts.FilterFCFPrice])
	assert.Equal(t, 0, stats.PassingByFilter[contracts.FilterMarketCap])

	// Input order untouched
	assert.Equal(t, "E", candidates[0].Entity.ID)
}

func TestRanker_Limit(t *testing.T) {
	r := NewRanker(logger.Nop())

	candidates := []contracts.Candidate{
		candidate("A", 10, contracts.Defined(0.06), contracts.Defined(5e8), true),
		candidate("B", 30, contracts.Defined(0.06), contracts.Defined(5e8), true),
		candidate("C", 20, contracts.Defined(0.06), contracts.Defined(5e8), true),
	}

	ranked, stats := r.Rank(candidates, 2)
	assert.Equal(t, []string{"B", "C"}, ids(ranked))
	// Statistics are not truncated
	assert.Equal(t, 3, stats.PassingAll)
}

func TestRanker_Stats(t *testing.T) {
	r := NewRanker(logger.Nop())

	a := candidate("A", 10, contracts.Defined(0.06), contracts.Defined(4e8), true)
	a.Metrics.BookToMarket = contracts.Defined(0.5)
	a.Metrics.ROA = contracts.Defined(0.04)
	b := candidate("B", 20, contracts.Defined(0.10), contracts.Defined(8e8), true)
	b.Metrics.BookToMarket = contracts.Defined(0.7)
	b.Metrics.CashProfitability = contracts.Defined(0.25)
	c := candidate("C", 30, contracts.Defined(0.9), contracts.Defined(1e8), false)
	c.Metrics.ROA = contracts.Defined(0.9)

	_, stats := r.Rank([]contracts.Candidate{a, b, c}, 0)

	assert.Equal(t, 3, stats.TotalCandidates)
	assert.Equal(t, 2, stats.PassingAll)
	assertDefined(t, 0.08, stats.MeanFCFPrice)
	assertDefined(t, 0.6, stats.MeanBookToMarket)
	// only A has a defined ROA in the passing subset
	assertDefined(t, 0.04, stats.MeanROA)
	assertDefined(t, 0.25, stats.MeanCashProfitability)
	assertDefined(t, 6e8, stats.MeanMarketCap)
}

func TestRanker_NothingPasses(t *testing.T) {
	r := NewRanker(logger.Nop())

	ranked, stats := r.Rank(nil, 10)
	assert.Empty(t, ranked)
	assert.Equal(t, 0, stats.TotalCandidates)
	assert.Equal(t, 0, stats.PassingAll)
	for _, name := range contracts.AllFilters {
		assert.Equal(t, 0, stats.PassingByFilter[name])
	}
	assert.False(t, stats.MeanFCFPrice.IsDefined())
	assert.False(t, stats.MeanROA.IsDefined())
	assert.False(t, stats.MeanCashProfitability.IsDefined())

	ranked, stats = r.Rank([]contracts.Candidate{
		candidate("A", 10, contracts.Undefined(), contracts.Undefined(), false),
	}, 10)
	assert.Empty(t, ranked)
	assert.Equal(t, 0, stats.PassingAll)
	assert.False(t, stats.MeanBookToMarket.IsDefined())
}

func TestRanker_Idempotent(t *testing.T) {
	r := NewRanker(logger.Nop())

	candidates := []contracts.Candidate{
		candidate("A", 50, contracts.Defined(0.08), contracts.Defined(5e8), true),
		candidate("B", 50, contracts.Defined(0.08), contracts.Defined(5e8), true),
		candidate("C", 60, contracts.Defined(0.07), contracts.Defined(3e8), true),
		candidate("D", 40, contracts.Defined(0.12), contracts.Defined(7e8), true),
	}

	first, firstStats := r.Rank(candidates, 3)

	// Re-rank the ranked output, and a reversed copy of the input
	again := make([]contracts.Candidate, len(first))
	for i, rc := range first {
		again[i] = rc.Candidate
	}
	second, _ := r.Rank(again, 3)
	assert.Equal(t, first, second)

	reversed := make([]contracts.Candidate, len(candidates))
	for i, c := range candidates {
		reversed[len(candidates)-1-i] = c
	}
	third, thirdStats := r.Rank(reversed, 3)
	require.Len(t, third, 3)
	assert.Equal(t, first, third)
	assert.Equal(t, firstStats, thirdStats)
}

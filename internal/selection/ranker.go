package selection

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/pkg/logger"
)

// Ranker implements S5: ordering with deterministic tie-breaks and batch statistics
// ⭐ SSOT: S5 랭킹 로직은 여기서만
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(logger *logger.Logger) *Ranker {
	return &Ranker{
		logger: logger,
	}
}

// Rank orders the passing candidates and truncates to limit (limit <= 0 keeps all).
// Statistics cover the whole input batch; means cover the passing subset only.
// The input slice is not reordered.
func (r *Ranker) Rank(candidates []contracts.Candidate, limit int) ([]contracts.RankedCandidate, contracts.ScreeningStats) {
	stats := r.calculateStats(candidates)

	passing := make([]contracts.Candidate, 0, stats.PassingAll)
	for _, c := range candidates {
		if c.Filters.PassAll {
			passing = append(passing, c)
		}
	}

	// Sort: score desc → FCF/Price desc → market cap asc → id asc
	sort.Slice(passing, func(i, j int) bool {
		return less(passing[i], passing[j])
	})

	if limit > 0 && len(passing) > limit {
		passing = passing[:limit]
	}

	ranked := make([]contracts.RankedCandidate, len(passing))
	for i, c := range passing {
		ranked[i] = contracts.RankedCandidate{
			Rank:      i + 1,
			Candidate: c,
		}
	}

	fields := map[string]interface{}{
		"total_candidates": stats.TotalCandidates,
		"passing_all":      stats.PassingAll,
		"ranked":           len(ranked),
	}
	if len(ranked) > 0 {
		fields["top_score"] = ranked[0].Score
		fields["top_entity"] = ranked[0].Entity.ID
	}
	r.logger.WithFields(fields).Info("Ranking completed")

	return ranked, stats
}

// less reports whether a ranks ahead of b
func less(a, b contracts.Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}

	// Higher FCF/Price first, undefined last
	if c := compareMetric(a.Metrics.FCFPrice, b.Metrics.FCFPrice, true); c != 0 {
		return c < 0
	}

	// Smaller company first, undefined last
	if c := compareMetric(a.Metrics.MarketCap, b.Metrics.MarketCap, false); c != 0 {
		return c < 0
	}

	return a.Entity.ID < b.Entity.ID
}

// compareMetric returns -1 when a orders first, 1 when b does, 0 on a tie
func compareMetric(a, b contracts.Metric, descending bool) int {
	av, aok := a.Get()
	bv, bok := b.Get()

	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	case av == bv:
		return 0
	case (av > bv) == descending:
		return -1
	default:
		return 1
	}
}

// calculateStats aggregates counts over the batch and means over the passing subset.
// Passing candidates are visited in id order so the means do not depend on input order.
func (r *Ranker) calculateStats(candidates []contracts.Candidate) contracts.ScreeningStats {
	stats := contracts.ScreeningStats{
		TotalCandidates: len(candidates),
		PassingByFilter: make(map[contracts.FilterName]int, len(contracts.AllFilters)),
	}
	for _, name := range contracts.AllFilters {
		stats.PassingByFilter[name] = 0
	}

	passing := make([]contracts.Candidate, 0)
	for _, c := range candidates {
		for name, passed := range c.Filters.Checks {
			if passed {
				stats.PassingByFilter[name]++
			}
		}
		if c.Filters.PassAll {
			passing = append(passing, c)
		}
	}
	stats.PassingAll = len(passing)

	sort.Slice(passing, func(i, j int) bool {
		return passing[i].Entity.ID < passing[j].Entity.ID
	})

	stats.MeanFCFPrice = meanOf(passing, func(c contracts.Candidate) contracts.Metric { return c.Metrics.FCFPrice })
	stats.MeanBookToMarket = meanOf(passing, func(c contracts.Candidate) contracts.Metric { return c.Metrics.BookToMarket })
	stats.MeanCashProfitability = meanOf(passing, func(c contracts.Candidate) contracts.Metric { return c.Metrics.CashProfitability })
	stats.MeanROA = meanOf(passing, func(c contracts.Candidate) contracts.Metric { return c.Metrics.ROA })
	stats.MeanMarketCap = meanOf(passing, func(c contracts.Candidate) contracts.Metric { return c.Metrics.MarketCap })

	return stats
}

// meanOf averages the defined values; undefined when none are defined
func meanOf(candidates []contracts.Candidate, field func(contracts.Candidate) contracts.Metric) contracts.Metric {
	values := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		if v, ok := field(c).Get(); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return contracts.Undefined()
	}
	return contracts.Defined(stat.Mean(values, nil))
}

package selection

import (
	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/internal/strategyconfig"
	"github.com/wonny/multibagger/pkg/logger"
)

// Screener implements S3: hard-pass filters
// ⭐ SSOT: S3 스크리닝 로직은 여기서만
type Screener struct {
	logger *logger.Logger
}

// NewScreener creates a new screener
func NewScreener(logger *logger.Logger) *Screener {
	return &Screener{
		logger: logger,
	}
}

// Evaluate runs every enabled filter against one candidate's metrics.
// An undefined ratio or unknown flag never passes.
func (s *Screener) Evaluate(metrics contracts.DerivedMetrics, policy strategyconfig.ScreeningPolicy) contracts.FilterResult {
	checks := s.checkConditions(metrics, policy)

	passAll := true
	for _, passed := range checks {
		if !passed {
			passAll = false
			break
		}
	}

	return contracts.FilterResult{
		Checks:  checks,
		PassAll: passAll,
	}
}

// Screen fills Filters on each candidate in place and logs per-filter failure counts
func (s *Screener) Screen(candidates []contracts.Candidate, policy strategyconfig.ScreeningPolicy) int {
	passed := 0
	filtered := make(map[contracts.FilterName]int) // Filter name -> fail count

	for i := range candidates {
		result := s.Evaluate(candidates[i].Metrics, policy)
		candidates[i].Filters = result
		if result.PassAll {
			passed++
		}
		for _, name := range result.FailedFilters() {
			filtered[name]++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(candidates),
		"passed":       passed,
		"filtered_out": len(candidates) - passed,
		"filters":      filtered,
	}).Info("Screening completed")

	return passed
}

// checkConditions evaluates each filter. Disabled filters are left out of the map.
func (s *Screener) checkConditions(m contracts.DerivedMetrics, p strategyconfig.ScreeningPolicy) map[contracts.FilterName]bool {
	checks := make(map[contracts.FilterName]bool, len(contracts.AllFilters))

	// Value filters
	checks[contracts.FilterFCFPrice] = atLeast(m.FCFPrice, p.MinFCFPrice)
	checks[contracts.FilterBookToMarket] = atLeast(m.BookToMarket, p.MinBookToMarket)

	// Size filter
	marketCap, ok := m.MarketCap.Get()
	checks[contracts.FilterMarketCap] = ok && marketCap >= p.MinMarketCap && marketCap <= p.MaxMarketCap

	// Quality filters (policy-gated)
	if p.RequireProfitability {
		checks[contracts.FilterProfitability] = m.IsProfitable
	}
	if p.ExcludeNegativeEquity {
		checks[contracts.FilterNegativeEquity] = !m.HasNegativeEquity
	}
	if p.RequireReinvestmentQuality {
		checks[contracts.FilterReinvestmentQuality] = m.ReinvestmentQuality.IsTrue()
	}

	// Profitability factor
	if p.RequireCashProfitability {
		checks[contracts.FilterCashProfitability] = atLeast(m.CashProfitability, p.MinCashProfitability)
	}

	return checks
}

func atLeast(m contracts.Metric, threshold float64) bool {
	v, ok := m.Get()
	return ok && v >= threshold
}

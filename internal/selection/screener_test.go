package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/pkg/logger"
)

func TestScreener_EntityX(t *testing.T) {
	s := NewScreener(logger.Nop())
	m := derive(t, entityX())

	assertDefined(t, 0.06, m.FCFPrice)
	assertDefined(t, 0.5, m.BookToMarket)
	assertDefined(t, 0.05, m.ROA)
	assert.True(t, m.IsProfitable)
	assert.False(t, m.HasNegativeEquity)

	result := s.Evaluate(m, testPolicy(t))
	assert.True(t, result.PassAll)
	assert.Empty(t, result.FailedFilters())
	assert.True(t, result.Passed(contracts.FilterProfitability))
	assert.True(t, result.Passed(contracts.FilterNegativeEquity))
	// Reinvestment quality is not required by default
	assert.False(t, result.Evaluated(contracts.FilterReinvestmentQuality))
}

func TestScreener_EntityY(t *testing.T) {
	s := NewScreener(logger.Nop())
	m := derive(t, entityY())

	assert.False(t, m.FCFPrice.IsDefined())
	assert.False(t, m.BookToMarket.IsDefined())

	result := s.Evaluate(m, testPolicy(t))
	assert.False(t, result.PassAll)
	assert.False(t, result.Passed(contracts.FilterMarketCap))
	assert.Equal(t, []contracts.FilterName{
		contracts.FilterFCFPrice,
		contracts.FilterBookToMarket,
		contracts.FilterMarketCap,
	}, result.FailedFilters())
}

func TestScreener_UndefinedNeverPasses(t *testing.T) {
	s := NewScreener(logger.Nop())
	policy := testPolicy(t)
	policy.RequireReinvestmentQuality = true
	policy.RequireCashProfitability = true
	// A negative threshold must still reject undefined inputs
	policy.MinFCFPrice = -1

	result := s.Evaluate(contracts.DerivedMetrics{}, policy)

	for _, name := range contracts.AllFilters {
		if name == contracts.FilterNegativeEquity {
			// has_negative_equity resolves to false when equity is undefined
			continue
		}
		assert.False(t, result.Passed(name), "filter %s passed on missing data", name)
	}
	assert.False(t, result.PassAll)
}

func TestScreener_Filters(t *testing.T) {
	s := NewScreener(logger.Nop())

	tests := []struct {
		name   string
		mutate func(m *contracts.DerivedMetrics)
		filter contracts.FilterName
		want   bool
	}{
		{"fcf at threshold passes", func(m *contracts.DerivedMetrics) { m.FCFPrice = contracts.Defined(0.05) }, contracts.FilterFCFPrice, true},
		{"fcf below threshold", func(m *contracts.DerivedMetrics) { m.FCFPrice = contracts.Defined(0.049) }, contracts.FilterFCFPrice, false},
		{"b/m below threshold", func(m *contracts.DerivedMetrics) { m.BookToMarket = contracts.Defined(0.39) }, contracts.FilterBookToMarket, false},
		{"cap at min bound", func(m *contracts.DerivedMetrics) { m.MarketCap = contracts.Defined(300e6) }, contracts.FilterMarketCap, true},
		{"cap at max bound", func(m *contracts.DerivedMetrics) { m.MarketCap = contracts.Defined(2e9) }, contracts.FilterMarketCap, true},
		{"cap above band", func(m *contracts.DerivedMetrics) { m.MarketCap = contracts.Defined(2.1e9) }, contracts.FilterMarketCap, false},
		{"cap below band", func(m *contracts.DerivedMetrics) { m.MarketCap = contracts.Defined(1e8) }, contracts.FilterMarketCap, false},
		{"unprofitable", func(m *contracts.DerivedMetrics) { m.IsProfitable = false }, contracts.FilterProfitability, false},
		{"negative equity", func(m *contracts.DerivedMetrics) { m.HasNegativeEquity = true }, contracts.FilterNegativeEquity, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := derive(t, entityX())
			tt.mutate(&m)

			result := s.Evaluate(m, testPolicy(t))
			assert.Equal(t, tt.want, result.Passed(tt.filter))
			assert.Equal(t, tt.want, result.PassAll)
		})
	}
}

func TestScreener_DisabledFiltersExcluded(t *testing.T) {
	s := NewScreener(logger.Nop())
	policy := testPolicy(t)
	policy.RequireProfitability = false
	policy.ExcludeNegativeEquity = false

	m := derive(t, entityX())
	m.IsProfitable = false
	m.HasNegativeEquity = true

	result := s.Evaluate(m, policy)
	assert.False(t, result.Evaluated(contracts.FilterProfitability))
	assert.False(t, result.Evaluated(contracts.FilterNegativeEquity))
	assert.True(t, result.PassAll)
}

func TestScreener_ReinvestmentRequired(t *testing.T) {
	s := NewScreener(logger.Nop())
	policy := testPolicy(t)
	policy.RequireReinvestmentQuality = true

	m := derive(t, entityX())

	for _, tt := range []struct {
		flag contracts.Flag
		want bool
	}{
		{contracts.FlagUnknown, false},
		{contracts.FlagFalse, false},
		{contracts.FlagTrue, true},
	} {
		m.ReinvestmentQuality = tt.flag
		result := s.Evaluate(m, policy)
		assert.Equal(t, tt.want, result.Passed(contracts.FilterReinvestmentQuality), "flag %s", tt.flag)
		assert.Equal(t, tt.want, result.PassAll, "flag %s", tt.flag)
	}
}

func TestScreener_Screen(t *testing.T) {
	s := NewScreener(logger.Nop())

	candidates := []contracts.Candidate{
		{Entity: contracts.Entity{ID: "X"}, Metrics: derive(t, entityX())},
		{Entity: contracts.Entity{ID: "Y"}, Metrics: derive(t, entityY())},
	}

	passed := s.Screen(candidates, testPolicy(t))
	assert.Equal(t, 1, passed)
	assert.True(t, candidates[0].Filters.PassAll)
	assert.False(t, candidates[1].Filters.PassAll)
}

func assertDefined(t *testing.T, want float64, got contracts.Metric) {
	t.Helper()
	v, ok := got.Get()
	if assert.True(t, ok, "metric should be defined") {
		assert.InDelta(t, want, v, 1e-9)
	}
}

func TestScreener_CashProfitability(t *testing.T) {
	s := NewScreener(logger.Nop())
	policy := factorPolicy(t)

	tests := []struct {
		name   string
		mutate func(r *contracts.PeriodRecord)
		want   bool
	}{
		{"cash profitability above minimum", func(r *contracts.PeriodRecord) {}, true},
		{"at minimum passes", func(r *contracts.PeriodRecord) { r.OperatingCashFlow = contracts.Defined(50_000_000) }, true},
		{"below minimum", func(r *contracts.PeriodRecord) { r.OperatingCashFlow = contracts.Defined(45_000_000) }, false},
		{"no operating cash flow", func(r *contracts.PeriodRecord) { r.OperatingCashFlow = contracts.Undefined() }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := entityXWithCash()
			tt.mutate(&r)

			result := s.Evaluate(derive(t, r), policy)
			assert.True(t, result.Evaluated(contracts.FilterCashProfitability))
			assert.Equal(t, tt.want, result.Passed(contracts.FilterCashProfitability))
			assert.Equal(t, tt.want, result.PassAll)
		})
	}

	// Not evaluated when the policy does not ask for it
	result := s.Evaluate(derive(t, entityX()), testPolicy(t))
	assert.False(t, result.Evaluated(contracts.FilterCashProfitability))
}

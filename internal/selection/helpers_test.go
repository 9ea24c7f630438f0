package selection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/internal/s2_signals"
	"github.com/wonny/multibagger/internal/strategyconfig"
	"github.com/wonny/multibagger/pkg/logger"
)

func testPolicy(t *testing.T) strategyconfig.ScreeningPolicy {
	t.Helper()
	cfg := strategyconfig.Default()
	policy, err := cfg.Policy()
	require.NoError(t, err)
	return policy
}

// factorPolicy: diversified factor profile (value + cash profitability)
func factorPolicy(t *testing.T) strategyconfig.ScreeningPolicy {
	t.Helper()
	cfg := strategyconfig.Default()
	cfg.Meta.StrategyID = "avantis"
	cfg.Screening.MinFCFPrice = 0.03
	cfg.Screening.RequireCashProfitability = true
	cfg.Scoring.Model = strategyconfig.ModelFactor
	policy, err := cfg.Policy()
	require.NoError(t, err)
	return policy
}

// entityX: the reference value/quality candidate
func entityX() contracts.PeriodRecord {
	return contracts.PeriodRecord{
		EntityID:     "X",
		Period:       contracts.Period{Cadence: contracts.CadenceAnnual, FiscalYear: 2024},
		MarketCap:    contracts.Defined(1_000_000_000),
		FreeCashFlow: contracts.Defined(60_000_000),
		TotalEquity:  contracts.Defined(500_000_000),
		NetIncome:    contracts.Defined(40_000_000),
		TotalAssets:  contracts.Defined(800_000_000),
		Revenue:      contracts.Defined(300_000_000),
		EBITDA:       contracts.Defined(80_000_000),
	}
}

// entityXWithCash: entityX plus operating cash flow (cash profitability 0.20)
func entityXWithCash() contracts.PeriodRecord {
	r := entityX()
	r.OperatingCashFlow = contracts.Defined(100_000_000)
	return r
}

// entityY: same fundamentals, no market cap
func entityY() contracts.PeriodRecord {
	r := entityX()
	r.EntityID = "Y"
	r.MarketCap = contracts.Undefined()
	return r
}

func derive(t *testing.T, r contracts.PeriodRecord) contracts.DerivedMetrics {
	t.Helper()
	m, err := s2_signals.NewDeriver(logger.Nop()).Derive(r, nil)
	require.NoError(t, err)
	return m
}

func candidate(id string, score float64, fcf, marketCap contracts.Metric, pass bool) contracts.Candidate {
	return contracts.Candidate{
		Entity: contracts.Entity{ID: id, Status: contracts.StatusTracked},
		Metrics: contracts.DerivedMetrics{
			EntityID:  id,
			MarketCap: marketCap,
			Ratios:    contracts.Ratios{FCFPrice: fcf},
		},
		Filters: contracts.FilterResult{
			Checks:  map[contracts.FilterName]bool{contracts.FilterFCFPrice: pass},
			PassAll: pass,
		},
		Score: score,
	}
}

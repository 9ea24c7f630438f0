package s2_signals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/multibagger/internal/contracts"
)

func TestRatioCalculator_Calculate(t *testing.T) {
	calc := NewRatioCalculator()

	record := contracts.PeriodRecord{
		EntityID:          "ABC",
		MarketCap:         contracts.Defined(1_000_000_000),
		TotalAssets:       contracts.Defined(800_000_000),
		TotalEquity:       contracts.Defined(500_000_000),
		Revenue:           contracts.Defined(400_000_000),
		OperatingIncome:   contracts.Defined(60_000_000),
		EBITDA:            contracts.Defined(80_000_000),
		NetIncome:         contracts.Defined(40_000_000),
		FreeCashFlow:      contracts.Defined(120_000_000),
		OperatingCashFlow: contracts.Defined(75_000_000),
	}

	ratios := calc.Calculate(record)

	assertMetric(t, 0.12, ratios.FCFPrice)
	assertMetric(t, 0.5, ratios.BookToMarket)
	assertMetric(t, 0.05, ratios.ROA)
	assertMetric(t, 0.08, ratios.ROE)
	assertMetric(t, 0.2, ratios.EBITDAMargin)
	assertMetric(t, 0.15, ratios.EBITMargin)
	assertMetric(t, 0.15, ratios.CashProfitability)
}

func TestRatioCalculator_Guards(t *testing.T) {
	calc := NewRatioCalculator()

	tests := []struct {
		name   string
		record contracts.PeriodRecord
		check  func(t *testing.T, r contracts.Ratios)
	}{
		{
			name: "zero market cap",
			record: contracts.PeriodRecord{
				MarketCap:    contracts.Defined(0),
				FreeCashFlow: contracts.Defined(10),
				TotalEquity:  contracts.Defined(10),
			},
			check: func(t *testing.T, r contracts.Ratios) {
				assert.False(t, r.FCFPrice.IsDefined())
				assert.False(t, r.BookToMarket.IsDefined())
			},
		},
		{
			name: "negative market cap",
			record: contracts.PeriodRecord{
				MarketCap:    contracts.Defined(-5),
				FreeCashFlow: contracts.Defined(10),
			},
			check: func(t *testing.T, r contracts.Ratios) {
				assert.False(t, r.FCFPrice.IsDefined())
			},
		},
		{
			name: "negative equity",
			record: contracts.PeriodRecord{
				MarketCap:   contracts.Defined(100),
				TotalEquity: contracts.Defined(-20),
				NetIncome:   contracts.Defined(5),
			},
			check: func(t *testing.T, r contracts.Ratios) {
				assert.False(t, r.BookToMarket.IsDefined())
				assert.False(t, r.ROE.IsDefined())
			},
		},
		{
			name: "cash profitability needs positive equity",
			record: contracts.PeriodRecord{
				TotalEquity:       contracts.Defined(0),
				OperatingCashFlow: contracts.Defined(50),
			},
			check: func(t *testing.T, r contracts.Ratios) {
				assert.False(t, r.CashProfitability.IsDefined())
			},
		},
		{
			name: "cash profitability on negative equity",
			record: contracts.PeriodRecord{
				TotalEquity:       contracts.Defined(-100),
				OperatingCashFlow: contracts.Defined(50),
			},
			check: func(t *testing.T, r contracts.Ratios) {
				assert.False(t, r.CashProfitability.IsDefined())
			},
		},
		{
			name: "negative operating cash flow stays defined",
			record: contracts.PeriodRecord{
				TotalEquity:       contracts.Defined(200),
				OperatingCashFlow: contracts.Defined(-20),
			},
			check: func(t *testing.T, r contracts.Ratios) {
				assertMetric(t, -0.1, r.CashProfitability)
			},
		},
		{
			name: "zero revenue",
			record: contracts.PeriodRecord{
				Revenue:         contracts.Defined(0),
				EBITDA:          contracts.Defined(10),
				OperatingIncome: contracts.Defined(5),
			},
			check: func(t *testing.T, r contracts.Ratios) {
				assert.False(t, r.EBITDAMargin.IsDefined())
				assert.False(t, r.EBITMargin.IsDefined())
			},
		},
		{
			name: "negative free cash flow stays defined",
			record: contracts.PeriodRecord{
				MarketCap:    contracts.Defined(100),
				FreeCashFlow: contracts.Defined(-10),
			},
			check: func(t *testing.T, r contracts.Ratios) {
				assertMetric(t, -0.1, r.FCFPrice)
			},
		},
		{
			name:   "everything undefined",
			record: contracts.PeriodRecord{},
			check: func(t *testing.T, r contracts.Ratios) {
				assert.Equal(t, contracts.Ratios{}, r)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, calc.Calculate(tt.record))
		})
	}
}

func TestDivide(t *testing.T) {
	assertMetric(t, 2, Divide(contracts.Defined(4), contracts.Defined(2)))
	assert.False(t, Divide(contracts.Defined(4), contracts.Defined(0)).IsDefined())
	assert.False(t, Divide(contracts.Undefined(), contracts.Defined(2)).IsDefined())
	assert.False(t, Divide(contracts.Defined(4), contracts.Undefined()).IsDefined())
}

func assertMetric(t *testing.T, want float64, got contracts.Metric) {
	t.Helper()
	v, ok := got.Get()
	if assert.True(t, ok, "metric should be defined") {
		assert.InDelta(t, want, v, 1e-9)
	}
}

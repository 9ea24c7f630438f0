package s2_signals

import (
	"github.com/wonny/multibagger/internal/contracts"
)

// RatioCalculator computes single-period ratios from one PeriodRecord
// ⭐ SSOT: 비율 계산 (division guard 포함)은 여기서만
type RatioCalculator struct{}

// NewRatioCalculator creates a new ratio calculator
func NewRatioCalculator() *RatioCalculator {
	return &RatioCalculator{}
}

// Calculate computes every ratio. A ratio is undefined when either operand is
// undefined or the denominator is zero. Market-cap ratios also need a positive
// market cap, equity ratios are undefined for negative equity, and cash
// profitability needs strictly positive equity.
func (c *RatioCalculator) Calculate(r contracts.PeriodRecord) contracts.Ratios {
	marketCap := positive(r.MarketCap)
	equity := nonNegative(r.TotalEquity)

	return contracts.Ratios{
		FCFPrice:          Divide(r.FreeCashFlow, marketCap),
		BookToMarket:      Divide(equity, marketCap),
		ROA:               Divide(r.NetIncome, r.TotalAssets),
		ROE:               Divide(r.NetIncome, equity),
		EBITDAMargin:      Divide(r.EBITDA, r.Revenue),
		EBITMargin:        Divide(r.OperatingIncome, r.Revenue),
		CashProfitability: Divide(r.OperatingCashFlow, positive(r.TotalEquity)),
	}
}

// Divide returns num/den, or undefined when either side is undefined or den is zero
func Divide(num, den contracts.Metric) contracts.Metric {
	n, ok := num.Get()
	if !ok {
		return contracts.Undefined()
	}
	d, ok := den.Get()
	if !ok || d == 0 {
		return contracts.Undefined()
	}
	return contracts.Defined(n / d)
}

func positive(m contracts.Metric) contracts.Metric {
	if v, ok := m.Get(); ok && v > 0 {
		return m
	}
	return contracts.Undefined()
}

func nonNegative(m contracts.Metric) contracts.Metric {
	if v, ok := m.Get(); ok && v >= 0 {
		return m
	}
	return contracts.Undefined()
}

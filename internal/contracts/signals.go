package contracts

import "time"

// Ratios holds single-period ratios computed from one PeriodRecord
type Ratios struct {
	FCFPrice          Metric `json:"fcf_price"`          // free cash flow / market cap
	BookToMarket      Metric `json:"book_to_market"`     // total equity / market cap
	ROA               Metric `json:"roa"`                // net income / total assets
	ROE               Metric `json:"roe"`                // net income / total equity
	EBITDAMargin      Metric `json:"ebitda_margin"`      // ebitda / revenue
	EBITMargin        Metric `json:"ebit_margin"`        // operating income / revenue
	CashProfitability Metric `json:"cash_profitability"` // operating cash flow / total equity (positive equity only)
}

// GrowthRates holds period-over-period growth between two adjacent records
type GrowthRates struct {
	AssetGrowth   Metric `json:"asset_growth"`
	EBITDAGrowth  Metric `json:"ebitda_growth"`
	RevenueGrowth Metric `json:"revenue_growth"`

	// asset growth <= EBITDA growth; unknown unless both growth rates are defined
	ReinvestmentQuality Flag `json:"reinvestment_quality"`
}

// QualityFlags are strict booleans; missing inputs resolve to false
type QualityFlags struct {
	IsProfitable      bool `json:"is_profitable"`
	HasNegativeEquity bool `json:"has_negative_equity"`
}

// DerivedMetrics is recomputed deterministically from one or two PeriodRecords.
// It is never the source of truth.
type DerivedMetrics struct {
	EntityID string `json:"entity_id"`
	Period   Period `json:"period"`

	// Carried from the record for filters and tie-breaks
	MarketCap Metric `json:"market_cap"`

	Ratios
	GrowthRates
	QualityFlags
}

// TimingInputs are optional entry-timing inputs from a technical-indicator source
type TimingInputs struct {
	// Fraction the latest close sits above the trailing 52-period low (0.05 = 5% above)
	DistanceFromLow Metric `json:"distance_from_low"`
	// Recent momentum as a fractional return (-0.08 = down 8%)
	Momentum Metric `json:"momentum"`
}

// PriceBar is one daily bar used to compute TimingInputs
type PriceBar struct {
	Date  time.Time `json:"date"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

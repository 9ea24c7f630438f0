package contracts

// FilterName identifies one hard-pass predicate
type FilterName string

const (
	FilterFCFPrice            FilterName = "fcf_price"
	FilterBookToMarket        FilterName = "book_to_market"
	FilterMarketCap           FilterName = "market_cap"
	FilterProfitability       FilterName = "profitability"
	FilterNegativeEquity      FilterName = "negative_equity"
	FilterReinvestmentQuality FilterName = "reinvestment_quality"
	FilterCashProfitability   FilterName = "cash_profitability"
)

// AllFilters lists filters in evaluation order
var AllFilters = []FilterName{
	FilterFCFPrice,
	FilterBookToMarket,
	FilterMarketCap,
	FilterProfitability,
	FilterNegativeEquity,
	FilterReinvestmentQuality,
	FilterCashProfitability,
}

// FilterResult holds the outcome of every enabled filter.
// Disabled filters are absent from Checks and excluded from PassAll.
type FilterResult struct {
	Checks  map[FilterName]bool `json:"checks"`
	PassAll bool                `json:"pass_all"`
}

// Passed reports whether a filter was evaluated and passed
func (r FilterResult) Passed(name FilterName) bool {
	return r.Checks[name]
}

// Evaluated reports whether a filter was enabled for this run
func (r FilterResult) Evaluated(name FilterName) bool {
	_, ok := r.Checks[name]
	return ok
}

// FailedFilters returns the failed filter names in evaluation order
func (r FilterResult) FailedFilters() []FilterName {
	failed := make([]FilterName, 0)
	for _, name := range AllFilters {
		if passed, ok := r.Checks[name]; ok && !passed {
			failed = append(failed, name)
		}
	}
	return failed
}

// ScoreDetail is the per-band breakdown of a composite score.
// Band ranges depend on the scoring model (multibagger / factor).
type ScoreDetail struct {
	FCFPrice          float64 `json:"fcf_price"`          // 0-40 / 0 or 5
	BookToMarket      float64 `json:"book_to_market"`     // 0-20 / 0 or 20-40
	CashProfitability float64 `json:"cash_profitability"` // - / 0 or 20-40
	ROA               float64 `json:"roa"`                // 0-15 / 0 or 5
	Reinvestment      float64 `json:"reinvestment"`       // 0 or 10
	EBITDAMargin      float64 `json:"ebitda_margin"`      // 0-5 / -
	Timing            float64 `json:"timing"`             // 0-10 / -
}

// Total sums the bands
func (d ScoreDetail) Total() float64 {
	return d.FCFPrice + d.BookToMarket + d.CashProfitability + d.ROA + d.Reinvestment + d.EBITDAMargin + d.Timing
}

// Candidate is the transient ScreeningCandidate view for one entity in one run
type Candidate struct {
	Entity  Entity         `json:"entity"`
	Record  PeriodRecord   `json:"record"`
	Metrics DerivedMetrics `json:"metrics"`
	Timing  *TimingInputs  `json:"timing,omitempty"`
	Filters FilterResult   `json:"filters"`
	Score   float64        `json:"score"`
	Detail  ScoreDetail    `json:"detail"`
}

// RankedCandidate is a passing candidate with its 1-based rank
type RankedCandidate struct {
	Rank int `json:"rank"`
	Candidate
}

// IsTopRanked checks if the candidate is in top N ranks
func (r *RankedCandidate) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}

// ScreeningStats aggregates one screening batch.
// Means are over the passing subset only and are undefined when nothing passed.
type ScreeningStats struct {
	TotalCandidates       int                `json:"total_candidates"`
	PassingByFilter       map[FilterName]int `json:"passing_by_filter"`
	PassingAll            int                `json:"passing_all"`
	MeanFCFPrice          Metric             `json:"mean_fcf_price"`
	MeanBookToMarket      Metric             `json:"mean_book_to_market"`
	MeanCashProfitability Metric             `json:"mean_cash_profitability"`
	MeanROA               Metric             `json:"mean_roa"`
	MeanMarketCap         Metric             `json:"mean_market_cap"`
}

package strategyconfig

import (
	"sort"
)

// ScreeningPolicy is the validated, immutable-per-run threshold set used by the
// screener and scorer. It is passed by value; construct it only through
// NewScreeningPolicy or Config.Policy.
type ScreeningPolicy struct {
	MinFCFPrice                float64
	MinBookToMarket            float64
	MinMarketCap               float64
	MaxMarketCap               float64
	RequireProfitability       bool
	ExcludeNegativeEquity      bool
	RequireReinvestmentQuality bool
	RequireCashProfitability   bool
	MinCashProfitability       float64

	Scoring ScoringPolicy
}

// ScoringPolicy holds the resolved model, band ceilings and timing tiers
type ScoringPolicy struct {
	Model                    string
	FCFPriceCeiling          float64
	BookToMarketCeiling      float64
	CashProfitabilityCeiling float64
	ROACeiling               float64
	EBITDAMarginCeiling      float64
	FCFBonusMin              float64
	ROABonusMin              float64
	Timing                   Timing
}

// Default spans above the threshold when doubling it does not give a higher ceiling
const (
	fcfPriceSpan          = 0.20
	bookToMarketSpan      = 0.40
	cashProfitabilitySpan = 0.20
)

// NewScreeningPolicy validates thresholds and resolves default ceilings
func NewScreeningPolicy(s Screening, sc Scoring) (ScreeningPolicy, error) {
	if err := validateScreening(s); err != nil {
		return ScreeningPolicy{}, err
	}

	scoring := resolveScoring(s, sc)
	if err := validateScoring(s, scoring); err != nil {
		return ScreeningPolicy{}, err
	}

	return ScreeningPolicy{
		MinFCFPrice:                s.MinFCFPrice,
		MinBookToMarket:            s.MinBookToMarket,
		MinMarketCap:               s.MinMarketCap,
		MaxMarketCap:               s.MaxMarketCap,
		RequireProfitability:       s.RequireProfitability,
		ExcludeNegativeEquity:      s.ExcludeNegativeEquity,
		RequireReinvestmentQuality: s.RequireReinvestmentQuality,
		RequireCashProfitability:   s.RequireCashProfitability,
		MinCashProfitability:       s.MinCashProfitability,
		Scoring:                    scoring,
	}, nil
}

// DefaultPolicy returns the policy built from Default()
func DefaultPolicy() ScreeningPolicy {
	d := Default()
	p, err := NewScreeningPolicy(d.Screening, d.Scoring)
	if err != nil {
		panic("strategyconfig: invalid default policy: " + err.Error())
	}
	return p
}

func resolveScoring(s Screening, sc Scoring) ScoringPolicy {
	resolved := ScoringPolicy{
		Model:                    sc.Model,
		FCFPriceCeiling:          defaultCeiling(s.MinFCFPrice, fcfPriceSpan),
		BookToMarketCeiling:      defaultCeiling(s.MinBookToMarket, bookToMarketSpan),
		CashProfitabilityCeiling: s.MinCashProfitability + cashProfitabilitySpan,
		ROACeiling:               sc.ROACeiling,
		EBITDAMarginCeiling:      sc.EBITDAMarginCeiling,
		FCFBonusMin:              sc.FCFBonusMin,
		ROABonusMin:              sc.ROABonusMin,
		Timing:                   sc.Timing,
	}
	if resolved.Model == "" {
		resolved.Model = ModelMultibagger
	}
	if sc.FCFPriceCeiling != nil {
		resolved.FCFPriceCeiling = *sc.FCFPriceCeiling
	}
	if sc.BookToMarketCeiling != nil {
		resolved.BookToMarketCeiling = *sc.BookToMarketCeiling
	}
	if sc.CashProfitabilityCeiling != nil {
		resolved.CashProfitabilityCeiling = *sc.CashProfitabilityCeiling
	}
	return resolved
}

// defaultCeiling doubles a positive threshold; zero or negative thresholds get threshold+span
func defaultCeiling(threshold, span float64) float64 {
	if threshold > 0 {
		return 2 * threshold
	}
	return threshold + span
}

// UniverseBand is the market-cap range that defines universe eligibility plus
// the anchor ids exempt from band enforcement
type UniverseBand struct {
	MinMarketCap float64
	MaxMarketCap float64
	MaxAdditions int // 0 = unlimited

	anchors map[string]struct{}
}

// NewUniverseBand validates bounds and captures a private copy of the anchor set
func NewUniverseBand(u Universe) (UniverseBand, error) {
	if err := validateUniverse(u); err != nil {
		return UniverseBand{}, err
	}

	anchors := make(map[string]struct{}, len(u.Anchors))
	for _, id := range u.Anchors {
		anchors[id] = struct{}{}
	}

	return UniverseBand{
		MinMarketCap: u.MinMarketCap,
		MaxMarketCap: u.MaxMarketCap,
		MaxAdditions: u.MaxAdditions,
		anchors:      anchors,
	}, nil
}

// Contains reports min <= cap <= max
func (b UniverseBand) Contains(marketCap float64) bool {
	return marketCap >= b.MinMarketCap && marketCap <= b.MaxMarketCap
}

// IsAnchor reports whether id is exempt from band enforcement
func (b UniverseBand) IsAnchor(id string) bool {
	_, ok := b.anchors[id]
	return ok
}

// Anchors returns the anchor ids in sorted order
func (b UniverseBand) Anchors() []string {
	ids := make([]string, 0, len(b.anchors))
	for id := range b.anchors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Policy builds the screening policy from this config
func (c *Config) Policy() (ScreeningPolicy, error) {
	return NewScreeningPolicy(c.Screening, c.Scoring)
}

// Band builds the universe band from this config
func (c *Config) Band() (UniverseBand, error) {
	return NewUniverseBand(c.Universe)
}

package selection

import (
	"math"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/internal/strategyconfig"
	"github.com/wonny/multibagger/pkg/logger"
)

// Multibagger band maximums. They sum to MaxScore.
const (
	FCFPriceMax     = 40.0
	BookToMarketMax = 20.0
	ROAMax          = 15.0
	ReinvestmentMax = 10.0
	EBITDAMarginMax = 5.0
	TimingMax       = 10.0

	MaxScore = FCFPriceMax + BookToMarketMax + ROAMax + ReinvestmentMax + EBITDAMarginMax + TimingMax

	proximityFull = 5.0
	proximityHalf = 2.5
	momentumFull  = 5.0
	momentumDeep  = 3.0
)

// Factor model band maximums. They also sum to MaxScore.
// Value and profitability start at half their maximum once the threshold is met.
const (
	FactorValueMax         = 40.0
	FactorProfitabilityMax = 40.0
	FactorReinvestmentMax  = 10.0
	FactorFCFBonus         = 5.0
	FactorROABonus         = 5.0
)

// Scorer implements S4: composite score in [0, 100]
// ⭐ SSOT: S4 스코어 계산은 여기서만 (pass/fail 판정은 Screener)
type Scorer struct {
	policy strategyconfig.ScreeningPolicy
	logger *logger.Logger
}

// NewScorer creates a new scorer bound to one run's policy
func NewScorer(policy strategyconfig.ScreeningPolicy, logger *logger.Logger) *Scorer {
	return &Scorer{
		policy: policy,
		logger: logger,
	}
}

// Score returns the composite score rounded to 2 decimals.
// A nil timing input contributes 0.
func (s *Scorer) Score(metrics contracts.DerivedMetrics, timing *contracts.TimingInputs) float64 {
	detail := s.Breakdown(metrics, timing)
	return round2(clamp(detail.Total(), 0, MaxScore))
}

// Breakdown returns each band's contribution under the policy's scoring model
func (s *Scorer) Breakdown(metrics contracts.DerivedMetrics, timing *contracts.TimingInputs) contracts.ScoreDetail {
	if s.policy.Scoring.Model == strategyconfig.ModelFactor {
		return s.factorBreakdown(metrics)
	}
	return s.multibaggerBreakdown(metrics, timing)
}

// multibaggerBreakdown: FCF yield led value score plus quality and entry timing
func (s *Scorer) multibaggerBreakdown(metrics contracts.DerivedMetrics, timing *contracts.TimingInputs) contracts.ScoreDetail {
	sc := s.policy.Scoring

	detail := contracts.ScoreDetail{
		FCFPrice:     linear(metrics.FCFPrice, s.policy.MinFCFPrice, sc.FCFPriceCeiling, FCFPriceMax),
		BookToMarket: linear(metrics.BookToMarket, s.policy.MinBookToMarket, sc.BookToMarketCeiling, BookToMarketMax),
		ROA:          linear(metrics.ROA, 0, sc.ROACeiling, ROAMax),
		EBITDAMargin: linear(metrics.EBITDAMargin, 0, sc.EBITDAMarginCeiling, EBITDAMarginMax),
		Timing:       s.timingScore(timing),
	}
	if metrics.ReinvestmentQuality.IsTrue() {
		detail.Reinvestment = ReinvestmentMax
	}

	return detail
}

// factorBreakdown: value 40 + cash profitability 40 + quality bonuses 20. Timing is not used.
func (s *Scorer) factorBreakdown(metrics contracts.DerivedMetrics) contracts.ScoreDetail {
	sc := s.policy.Scoring

	detail := contracts.ScoreDetail{
		BookToMarket:      stepped(metrics.BookToMarket, s.policy.MinBookToMarket, sc.BookToMarketCeiling, FactorValueMax),
		CashProfitability: stepped(metrics.CashProfitability, s.policy.MinCashProfitability, sc.CashProfitabilityCeiling, FactorProfitabilityMax),
	}
	if metrics.ReinvestmentQuality.IsTrue() {
		detail.Reinvestment = FactorReinvestmentMax
	}
	if atLeast(metrics.FCFPrice, sc.FCFBonusMin) {
		detail.FCFPrice = FactorFCFBonus
	}
	if atLeast(metrics.ROA, sc.ROABonusMin) {
		detail.ROA = FactorROABonus
	}

	return detail
}

// ScoreAll scores every candidate in place
func (s *Scorer) ScoreAll(candidates []contracts.Candidate) {
	for i := range candidates {
		c := &candidates[i]
		c.Detail = s.Breakdown(c.Metrics, c.Timing)
		c.Score = round2(clamp(c.Detail.Total(), 0, MaxScore))
	}

	s.logger.WithFields(map[string]interface{}{
		"scored": len(candidates),
	}).Info("Scoring completed")
}

// timingScore: proximity to the trailing low plus a mean-reversion momentum tier
func (s *Scorer) timingScore(timing *contracts.TimingInputs) float64 {
	if timing == nil {
		return 0
	}
	tiers := s.policy.Scoring.Timing
	score := 0.0

	if dist, ok := timing.DistanceFromLow.Get(); ok {
		switch {
		case dist <= tiers.NearLowFull:
			score += proximityFull
		case dist <= tiers.NearLowHalf:
			score += proximityHalf
		}
	}

	if mom, ok := timing.Momentum.Get(); ok && mom < 0 {
		switch {
		case mom >= tiers.MomentumMild:
			score += momentumFull
		case mom >= tiers.MomentumDeep:
			score += momentumDeep
		}
	}

	return clamp(score, 0, TimingMax)
}

// linear maps floor → 0 and ceiling → top, clamped. Undefined → 0.
func linear(m contracts.Metric, floor, ceiling, top float64) float64 {
	v, ok := m.Get()
	if !ok || v <= floor || ceiling <= floor {
		return 0
	}
	if v >= ceiling {
		return top
	}
	return (v - floor) / (ceiling - floor) * top
}

// stepped gives 0 below floor, then top/2 at floor rising linearly to top at ceiling
func stepped(m contracts.Metric, floor, ceiling, top float64) float64 {
	v, ok := m.Get()
	if !ok || v < floor || ceiling <= floor {
		return 0
	}
	if v >= ceiling {
		return top
	}
	return top/2 + (v-floor)/(ceiling-floor)*top/2
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
